package booking

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"roomkeeper/models"
)

func TestLocalLockerSerializesSameKey(t *testing.T) {
	locker := NewLocalLocker()
	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := locker.Lock(context.Background(), "unit-1")
			if err != nil {
				t.Error(err)
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
			release()
		}()
	}
	wg.Wait()

	if maxInside != 1 {
		t.Fatalf("expected one holder at a time, saw %d", maxInside)
	}
	if n := locker.held(); n != 0 {
		t.Fatalf("expected no entries left, got %d", n)
	}
}

func TestLocalLockerHonoursContext(t *testing.T) {
	locker := NewLocalLocker()
	release, err := locker.Lock(context.Background(), "unit-1")
	if err != nil {
		t.Fatal(err)
	}
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := locker.Lock(ctx, "unit-1"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if n := locker.held(); n != 1 {
		t.Fatalf("expected only the holder's entry, got %d", n)
	}

	// Other keys are independent.
	other, err := locker.Lock(context.Background(), "unit-2")
	if err != nil {
		t.Fatalf("unrelated key: %v", err)
	}
	other()
}

func TestGuardTimesOutAsRetryable(t *testing.T) {
	locker := NewLocalLocker()
	guard := NewConflictGuard(locker, 20*time.Millisecond, nil)

	release, err := locker.Lock(context.Background(), "unit-1")
	if err != nil {
		t.Fatal(err)
	}
	defer release()

	called := false
	err = guard.WithUnitHold(context.Background(), []string{"unit-1", "a-unit"}, models.DateRange{}, func(ctx context.Context) error {
		called = true
		return nil
	})
	if called {
		t.Fatal("body ran without the hold")
	}
	if !IsKind(err, KindUnavailable) {
		t.Fatalf("expected store_unavailable, got %v", err)
	}
	var ee *EngineError
	if !errors.As(err, &ee) || !ee.Retryable() {
		t.Fatalf("expected a retryable engine error, got %v", err)
	}
	// a-unit sorts first, was acquired, and must have been released.
	if n := locker.held(); n != 1 {
		t.Fatalf("expected only the outside hold, got %d entries", n)
	}
}

func TestGuardReleasesOnBodyError(t *testing.T) {
	locker := NewLocalLocker()
	guard := NewConflictGuard(locker, time.Second, nil)
	boom := errors.New("boom")

	err := guard.WithUnitHold(context.Background(), []string{"b", "a", "b"}, models.DateRange{}, func(ctx context.Context) error {
		if n := locker.held(); n != 2 {
			t.Errorf("expected 2 distinct holds, got %d", n)
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected body error, got %v", err)
	}
	if n := locker.held(); n != 0 {
		t.Fatalf("expected holds released, got %d", n)
	}
}

func TestSortedUnique(t *testing.T) {
	got := sortedUnique([]string{"c", "a", "", "c", "b"})
	if !equalStrings(got, []string{"a", "b", "c"}) {
		t.Fatalf("unexpected %v", got)
	}
}
