// File: utils/cache.go
package utils

import (
	"context"
	"log"
	"time"

	"roomkeeper/config"

	"github.com/go-redis/redis/v8"
)

// LockClient backs the distributed unit holds.
var LockClient *redis.Client

// InitLockClient initializes the Redis client used for unit holds (REDIS_LOCK_DB).
func InitLockClient() {
	LockClient = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisLockDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := LockClient.Ping(ctx).Result()
	if err != nil {
		log.Fatalf("Failed to connect to Redis (Locks): %v", err)
	}
}

// GetLockClient returns the Redis client for unit holds.
func GetLockClient() *redis.Client {
	if LockClient == nil {
		InitLockClient()
	}
	return LockClient
}
