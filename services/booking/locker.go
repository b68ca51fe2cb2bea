package booking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrLockUnavailable means the lock backend itself could not be reached.
var ErrLockUnavailable = errors.New("unit lock backend unavailable")

// Locker grants exclusive ownership of a key until the returned release is called.
// Lock blocks until the key is free or ctx is done.
type Locker interface {
	Lock(ctx context.Context, key string) (release func(), err error)
}

// LocalLocker serializes holders of the same key inside one process. Entries are
// reference counted and dropped once nobody holds or waits for them.
type LocalLocker struct {
	mu    sync.Mutex
	units map[string]*unitLock
}

type unitLock struct {
	slot chan struct{}
	refs int
}

// NewLocalLocker returns an empty in-process locker.
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{units: make(map[string]*unitLock)}
}

func (l *LocalLocker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	ul, ok := l.units[key]
	if !ok {
		ul = &unitLock{slot: make(chan struct{}, 1)}
		l.units[key] = ul
	}
	ul.refs++
	l.mu.Unlock()

	select {
	case ul.slot <- struct{}{}:
	case <-ctx.Done():
		l.drop(key, ul)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-ul.slot
			l.drop(key, ul)
		})
	}, nil
}

func (l *LocalLocker) drop(key string, ul *unitLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	ul.refs--
	if ul.refs == 0 {
		delete(l.units, key)
	}
}

// held reports how many keys have holders or waiters.
func (l *LocalLocker) held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.units)
}

// releaseScript deletes the key only if it still carries our token, so an expired
// hold never releases a newer holder's lock.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// RedisLocker coordinates holds across engine instances with SET NX PX.
type RedisLocker struct {
	Client *redis.Client
	// TTL bounds how long a crashed holder can block a unit.
	TTL time.Duration
	// RetryInterval is the pause between acquisition attempts.
	RetryInterval time.Duration
	Prefix        string
	Logger        *zap.Logger
}

// NewRedisLocker returns a locker with a 30s TTL and 25ms polling.
func NewRedisLocker(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisLocker {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisLocker{
		Client:        client,
		TTL:           ttl,
		RetryInterval: 25 * time.Millisecond,
		Prefix:        "roomkeeper:unit-hold:",
		Logger:        logger,
	}
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	redisKey := l.Prefix + key
	token := uuid.New().String()

	for {
		ok, err := l.Client.SetNX(ctx, redisKey, token, l.TTL).Result()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, fmt.Errorf("%w: %v", ErrLockUnavailable, err)
		}
		if ok {
			break
		}

		timer := time.NewTimer(l.RetryInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			deleted, err := releaseScript.Run(releaseCtx, l.Client, []string{redisKey}, token).Int()
			switch {
			case err != nil:
				l.logger().Error("unit hold release failed; the unit stays blocked until the hold expires",
					zap.String("key", redisKey), zap.Duration("ttl", l.TTL), zap.Error(err))
			case deleted == 0:
				l.logger().Warn("unit hold expired before release", zap.String("key", redisKey), zap.Duration("ttl", l.TTL))
			}
		})
	}, nil
}

func (l *RedisLocker) logger() *zap.Logger {
	if l.Logger == nil {
		return zap.NewNop()
	}
	return l.Logger
}
