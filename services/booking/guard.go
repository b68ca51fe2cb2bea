package booking

import (
	"context"
	"errors"
	"sort"
	"time"

	"roomkeeper/models"

	"go.uber.org/zap"
)

// ErrHoldTimeout means a unit stayed busy longer than the guard is willing to wait.
var ErrHoldTimeout = errors.New("timed out waiting for unit hold")

// ConflictGuard gives one assignment decision at a time exclusive use of a unit.
// Holds are per unit; decisions on disjoint units never wait on each other.
type ConflictGuard struct {
	locker Locker
	wait   time.Duration
	logger *zap.Logger
}

// NewConflictGuard builds a guard over locker. wait caps how long acquisition may block.
func NewConflictGuard(locker Locker, wait time.Duration, logger *zap.Logger) *ConflictGuard {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConflictGuard{locker: locker, wait: wait, logger: logger}
}

// WithUnitHold acquires every unit in unitIDs, runs body, and releases them on every
// exit path. body must re-validate the overlap invariant before it commits.
// Units are locked in sorted order so overlapping hold sets cannot deadlock.
func (g *ConflictGuard) WithUnitHold(ctx context.Context, unitIDs []string, stay models.DateRange, body func(ctx context.Context) error) error {
	keys := sortedUnique(unitIDs)

	acquireCtx := ctx
	if g.wait > 0 {
		var cancel context.CancelFunc
		acquireCtx, cancel = context.WithTimeout(ctx, g.wait)
		defer cancel()
	}

	releases := make([]func(), 0, len(keys))
	defer func() {
		for i := len(releases) - 1; i >= 0; i-- {
			releases[i]()
		}
	}()

	for _, key := range keys {
		release, err := g.locker.Lock(acquireCtx, key)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, context.DeadlineExceeded) {
				g.logger.Warn("unit hold timed out", zap.String("unitId", key), zap.Stringer("stay", stay))
				return storeError("unit "+key+" is busy", ErrHoldTimeout)
			}
			return storeError("acquire unit hold", err)
		}
		releases = append(releases, release)
	}

	g.logger.Debug("unit hold acquired", zap.Strings("units", keys), zap.Stringer("stay", stay))
	return body(ctx)
}

func sortedUnique(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
