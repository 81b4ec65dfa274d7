package main

import (
	"context"
	"math/rand/v2"
	"time"
)

const jitterWindow = 250 * time.Millisecond

// backoff doubles from base up to ceiling. Every delay gets up to
// jitterWindow added so replicas drift apart.
type backoff struct {
	base, ceiling, last time.Duration
}

func newBackoff(base, ceiling time.Duration) *backoff {
	return &backoff{base: base, ceiling: ceiling}
}

func (b *backoff) next() time.Duration {
	b.last = min(max(b.last*2, b.base), b.ceiling)
	return withJitter(b.last)
}

func (b *backoff) reset() { b.last = 0 }

func withJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return d + rand.N(jitterWindow)
}

// sleep returns early with ctx.Err() when ctx ends first.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
