package app

import (
	"context"
	"math/rand"
	"time"
)

// Input error backoff bounds.
const (
	DefaultBackoffInitial = 50 * time.Millisecond
	DefaultBackoffMax     = 2 * time.Second
)

// backoff is exponential with ±20% jitter.
type backoff struct {
	initial time.Duration
	max     time.Duration
	current time.Duration
}

func newBackoff(initial, max time.Duration) *backoff {
	return &backoff{initial: initial, max: max, current: initial}
}

// Wait sleeps for the current delay, then doubles it up to max. It reports
// false if ctx ended first.
func (b *backoff) Wait(ctx context.Context) bool {
	jitter := float64(b.current) * 0.2 * (rand.Float64()*2 - 1)
	t := time.NewTimer(time.Duration(float64(b.current) + jitter))
	defer t.Stop()

	b.current *= 2
	if b.current > b.max {
		b.current = b.max
	}

	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// Reset returns to the initial delay.
func (b *backoff) Reset() {
	b.current = b.initial
}

// Current returns the delay the next Wait will use, before jitter.
func (b *backoff) Current() time.Duration {
	return b.current
}
