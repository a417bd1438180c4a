// Package ratelimit enforces a minimum inter-request interval per edge
// location key.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter spaces out acquisitions per key. Keys are independent: throttling
// one location never delays another. The map of per-key limiters is the
// only shared mutable state and is guarded by a single mutex; the token
// buckets themselves are internally synchronized.
type Limiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
}

// New creates a Limiter granting at most one acquisition per minInterval
// for each key. A zero or negative interval disables gating entirely.
func New(minInterval time.Duration) *Limiter {
	limit := rate.Inf
	if minInterval > 0 {
		limit = rate.Every(minInterval)
	}
	return &Limiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    limit,
	}
}

// Acquire blocks until at least the configured interval has elapsed since
// the last granted acquisition for key, or until ctx is done.
func (l *Limiter) Acquire(ctx context.Context, key string) error {
	l.mu.Lock()
	limiter, ok := l.limiters[key]
	if !ok {
		limiter = rate.NewLimiter(l.limit, 1)
		l.limiters[key] = limiter
	}
	l.mu.Unlock()

	if err := limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait %s: %w", key, err)
	}
	return nil
}
