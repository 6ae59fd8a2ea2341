package intake

import (
	"context"
	"time"

	"golang.org/x/sync/semaphore"
)

const (
	defaultMaxConcurrent = 4
	defaultQueueWait     = 30 * time.Second
)

// Limiter bounds the number of in-flight extraction calls. Callers wait up to
// the configured duration for a slot before being turned away with ErrBusy.
type Limiter struct {
	sem  *semaphore.Weighted
	wait time.Duration
}

// NewLimiter constructs a Limiter.
func NewLimiter(maxConcurrent int, wait time.Duration) *Limiter {
	if maxConcurrent <= 0 {
		maxConcurrent = defaultMaxConcurrent
	}
	if wait <= 0 {
		wait = defaultQueueWait
	}
	return &Limiter{sem: semaphore.NewWeighted(int64(maxConcurrent)), wait: wait}
}

// Acquire blocks until a slot is free. The returned func releases it.
func (l *Limiter) Acquire(ctx context.Context) (func(), error) {
	if l == nil {
		return func() {}, nil
	}
	waitCtx, cancel := context.WithTimeout(ctx, l.wait)
	defer cancel()
	if err := l.sem.Acquire(waitCtx, 1); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, ErrBusy
	}
	return func() { l.sem.Release(1) }, nil
}

// RetryAfterSeconds is the hint sent with busy responses.
func (l *Limiter) RetryAfterSeconds() int {
	if l == nil {
		return int(defaultQueueWait.Seconds())
	}
	secs := int(l.wait.Seconds())
	if secs < 1 {
		secs = 1
	}
	return secs
}
