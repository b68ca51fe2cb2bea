package booking

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"roomkeeper/models"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// newTestRedisLocker connects to REDIS_TEST_ADDR, skipping when no server is configured.
func newTestRedisLocker(t *testing.T) *RedisLocker {
	t.Helper()
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set; skipping Redis locker tests")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("redis at %s unreachable: %v", addr, err)
	}

	locker := NewRedisLocker(client, 5*time.Second, nil)
	locker.RetryInterval = 5 * time.Millisecond
	locker.Prefix = "roomkeeper-test:" + uuid.New().String() + ":"
	t.Cleanup(func() {
		keys, _ := client.Keys(context.Background(), locker.Prefix+"*").Result()
		if len(keys) > 0 {
			client.Del(context.Background(), keys...)
		}
		client.Close()
	})
	return locker
}

func TestRedisLockerContention(t *testing.T) {
	locker := newTestRedisLocker(t)

	release, err := locker.Lock(context.Background(), "unit-1")
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := locker.Lock(ctx, "unit-1"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected the second holder to time out, got %v", err)
	}

	other, err := locker.Lock(context.Background(), "unit-2")
	if err != nil {
		t.Fatalf("unrelated key: %v", err)
	}
	other()

	acquired := make(chan error, 1)
	go func() {
		r, err := locker.Lock(context.Background(), "unit-1")
		if err == nil {
			r()
		}
		acquired <- err
	}()
	time.Sleep(20 * time.Millisecond)
	release()

	select {
	case err := <-acquired:
		if err != nil {
			t.Fatalf("waiter after release: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("waiter never acquired the released key")
	}
}

func TestRedisLockerReleaseOnlyDropsOwnToken(t *testing.T) {
	locker := newTestRedisLocker(t)
	core, logs := observer.New(zap.WarnLevel)
	locker.Logger = zap.New(core)
	ctx := context.Background()
	key := locker.Prefix + "unit-1"

	release, err := locker.Lock(ctx, "unit-1")
	if err != nil {
		t.Fatal(err)
	}
	// The hold expired and another instance took the unit.
	if err := locker.Client.Set(ctx, key, "someone-else", time.Minute).Err(); err != nil {
		t.Fatal(err)
	}
	release()

	val, err := locker.Client.Get(ctx, key).Result()
	if err != nil {
		t.Fatalf("expected the newer hold to survive, got %v", err)
	}
	if val != "someone-else" {
		t.Fatalf("unexpected holder %q", val)
	}
	if n := logs.FilterMessage("unit hold expired before release").Len(); n != 1 {
		t.Fatalf("expected the lost hold to be logged once, got %d entries", n)
	}

	fresh, err := locker.Lock(ctx, "unit-2")
	if err != nil {
		t.Fatal(err)
	}
	fresh()
	if n := logs.Len(); n != 1 {
		t.Fatalf("expected no warning for a clean release, got %d entries", n)
	}
	if n, err := locker.Client.Exists(ctx, locker.Prefix+"unit-2").Result(); err != nil || n != 0 {
		t.Fatalf("expected own hold deleted on release, exists=%d err=%v", n, err)
	}
}

func TestRedisLockerBacksConflictGuard(t *testing.T) {
	locker := newTestRedisLocker(t)
	guard := NewConflictGuard(locker, 50*time.Millisecond, nil)

	release, err := locker.Lock(context.Background(), "unit-1")
	if err != nil {
		t.Fatal(err)
	}
	defer release()

	err = guard.WithUnitHold(context.Background(), []string{"unit-1"}, models.DateRange{}, func(ctx context.Context) error {
		t.Error("body ran while another instance held the unit")
		return nil
	})
	if !IsKind(err, KindUnavailable) {
		t.Fatalf("expected store_unavailable, got %v", err)
	}
}

func TestRedisLockerLogsFailedRelease(t *testing.T) {
	shared := newTestRedisLocker(t)
	client := redis.NewClient(&redis.Options{Addr: shared.Client.Options().Addr})
	core, logs := observer.New(zap.WarnLevel)
	locker := NewRedisLocker(client, time.Second, zap.New(core))
	locker.Prefix = shared.Prefix

	release, err := locker.Lock(context.Background(), "unit-1")
	if err != nil {
		t.Fatal(err)
	}
	client.Close()
	release()

	entries := logs.FilterMessage("unit hold release failed; the unit stays blocked until the hold expires").All()
	if len(entries) != 1 || entries[0].Level != zap.ErrorLevel {
		t.Fatalf("expected one error entry for the failed release, got %+v", logs.All())
	}
}
