package ratelimit

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"
)

// Limiter spaces operations at least interval apart, optionally stretched by
// a random jitter. The first Wait never blocks.
// It is safe for concurrent use by multiple goroutines.
type Limiter struct {
	mu       sync.Mutex
	interval time.Duration
	jitter   float64 // 0.0 to 1.0
	last     time.Time
	now      func() time.Time
}

// NewLimiter creates a limiter enforcing interval between operations.
// Jitter adds up to jitter*interval of extra random delay and is clamped to [0, 1].
// An interval <= 0 disables waiting.
func NewLimiter(interval time.Duration, jitter float64) *Limiter {
	if jitter < 0 {
		jitter = 0
	} else if jitter > 1 {
		jitter = 1
	}
	return &Limiter{
		interval: interval,
		jitter:   jitter,
		now:      time.Now,
	}
}

// Wait blocks until the next operation may start or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	if l == nil || l.interval <= 0 {
		return ctx.Err()
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if !l.last.IsZero() {
		gap := l.interval
		if l.jitter > 0 {
			gap += time.Duration(rand.Float64() * l.jitter * float64(l.interval))
		}
		if wait := l.last.Add(gap).Sub(now); wait > 0 {
			timer := time.NewTimer(wait)
			defer timer.Stop()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-timer.C:
			}
			now = l.now()
		}
	}
	l.last = now
	return nil
}
