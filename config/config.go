package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Store and guard backends.
const (
	BackendMongo  = "mongo"
	BackendMemory = "memory"
	GuardLocal    = "local"
	GuardRedis    = "redis"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	Env               string `mapstructure:"ENV"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	JWTSecret         string `mapstructure:"JWT_SECRET"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`
	// Comma separated proxy addresses or CIDRs whose X-Forwarded-For is believed.
	TrustedProxies string `mapstructure:"TRUSTED_PROXIES"`

	// Storage.
	StoreBackend string `mapstructure:"STORE_BACKEND"`
	DatabaseURL  string `mapstructure:"DATABASE_URL"`
	DatabaseName string `mapstructure:"DATABASE_NAME"`

	// Redis configuration.
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisLockDB   int    `mapstructure:"REDIS_LOCK_DB"`
	RedisQueueDB  int    `mapstructure:"REDIS_QUEUE_DB"`

	// Unit holds. An empty backend is resolved from the store backend.
	GuardBackend    string `mapstructure:"GUARD_BACKEND"`
	SingleInstance  bool   `mapstructure:"SINGLE_INSTANCE"`
	HoldTTLSeconds  int    `mapstructure:"HOLD_TTL_SECONDS"`
	HoldWaitSeconds int    `mapstructure:"HOLD_WAIT_SECONDS"`

	// Background work.
	WorkerEnabled    bool   `mapstructure:"WORKER_ENABLED"`
	NoShowSweepSpec  string `mapstructure:"NO_SHOW_SWEEP_SPEC"`
	NoShowGraceHours int    `mapstructure:"NO_SHOW_GRACE_HOURS"`
}

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func setDefaults() {
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("JWT_SECRET", "")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 200)
	viper.SetDefault("TRUSTED_PROXIES", "")
	viper.SetDefault("STORE_BACKEND", BackendMongo)
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017/?replicaSet=rs0")
	viper.SetDefault("DATABASE_NAME", "roomkeeper")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_LOCK_DB", 0)
	viper.SetDefault("REDIS_QUEUE_DB", 1)
	viper.SetDefault("GUARD_BACKEND", "")
	viper.SetDefault("SINGLE_INSTANCE", false)
	viper.SetDefault("HOLD_TTL_SECONDS", 30)
	viper.SetDefault("HOLD_WAIT_SECONDS", 10)
	viper.SetDefault("WORKER_ENABLED", true)
	viper.SetDefault("NO_SHOW_SWEEP_SPEC", "@every 1h")
	viper.SetDefault("NO_SHOW_GRACE_HOURS", 30)
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}

// HoldTTL is how long a distributed unit hold survives a crashed holder.
func (c Config) HoldTTL() time.Duration {
	return time.Duration(c.HoldTTLSeconds) * time.Second
}

// HoldWait caps how long a request waits for a busy unit.
func (c Config) HoldWait() time.Duration {
	return time.Duration(c.HoldWaitSeconds) * time.Second
}

// NoShowGrace is how long after check-in day starts a guest may still arrive.
func (c Config) NoShowGrace() time.Duration {
	return time.Duration(c.NoShowGraceHours) * time.Hour
}

// ResolveGuardBackend picks the unit hold backend. A shared Mongo store needs holds
// that every instance sees, so in-process holds over Mongo require SINGLE_INSTANCE.
func (c Config) ResolveGuardBackend() (string, error) {
	shared := c.StoreBackend != BackendMemory
	switch c.GuardBackend {
	case "":
		if shared {
			return GuardRedis, nil
		}
		return GuardLocal, nil
	case GuardRedis:
		return GuardRedis, nil
	case GuardLocal:
		if shared && !c.SingleInstance {
			return "", fmt.Errorf("GUARD_BACKEND=local with STORE_BACKEND=%s lets separate instances double-book; use redis or set SINGLE_INSTANCE=true", c.StoreBackend)
		}
		return GuardLocal, nil
	}
	return "", fmt.Errorf("unknown GUARD_BACKEND %q", c.GuardBackend)
}

// TrustedProxyList splits TRUSTED_PROXIES. An empty list trusts no proxy.
func (c Config) TrustedProxyList() []string {
	var out []string
	for _, p := range strings.Split(c.TrustedProxies, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
