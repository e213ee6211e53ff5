// Package ratelimit is a fixed-window request limiter keyed by an arbitrary
// string (usually "route:clientIP"). Counter storage is pluggable: MemoryStore
// for a single instance, rediscache.RateLimitStore when several API instances
// share the limit.
package ratelimit

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Store counts hits per key within a fixed window.
// The first hit of a window creates the counter with count=1 and
// resetAt=now+window; later hits before resetAt increment it.
type Store interface {
	Hit(ctx context.Context, key string, now time.Time, window time.Duration) (count int64, resetAt time.Time, err error)
}

type Result struct {
	Success   bool
	Limit     int64
	Remaining int64
	ResetAt   time.Time
}

type Limiter struct {
	store Store
	clock Clock
}

// New returns a Limiter. A nil clock means wall-clock time.
func New(store Store, clock Clock) *Limiter {
	if clock == nil {
		clock = systemClock{}
	}
	return &Limiter{store: store, clock: clock}
}

func (l *Limiter) Allow(ctx context.Context, key string, limit int64, window time.Duration) (Result, error) {
	if limit <= 0 || window <= 0 {
		return Result{}, errors.New("ratelimit: limit and window must be positive")
	}

	n, resetAt, err := l.store.Hit(ctx, key, l.clock.Now(), window)
	if err != nil {
		return Result{}, errors.Wrap(err, "ratelimit hit")
	}

	remaining := limit - n
	if remaining < 0 {
		remaining = 0
	}
	return Result{
		Success:   n <= limit,
		Limit:     limit,
		Remaining: remaining,
		ResetAt:   resetAt,
	}, nil
}
