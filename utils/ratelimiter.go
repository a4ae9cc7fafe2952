package utils

import (
	"context"
	"sync"
	"time"
)

// RateLimiter spaces outgoing requests by a fixed delay.
type RateLimiter struct {
	mu       sync.Mutex
	lastCall time.Time
	delay    time.Duration
}

// NewRateLimiter creates a new RateLimiter with the given delay in milliseconds.
func NewRateLimiter(delayMs int) *RateLimiter {
	return &RateLimiter{
		delay: time.Duration(delayMs) * time.Millisecond,
	}
}

// Wait blocks until enough time has passed since the last request, or until
// ctx is cancelled.
func (r *RateLimiter) Wait(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	if elapsed := now.Sub(r.lastCall); elapsed < r.delay {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.delay - elapsed):
		}
	}
	r.lastCall = time.Now()
	return nil
}
