package intra

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitWindow is the length of the remote per-second quota window.
const RateLimitWindow = time.Second

// Pacer spaces outbound calls. The token bucket enforces the minimum interval
// between two calls; the remaining-quota header, when present, overrides it
// between pages of one fetch.
type Pacer struct {
	bucket *rate.Limiter
	window time.Duration
}

// NewPacer allows one call per interval. A zero interval disables pacing.
func NewPacer(interval time.Duration) *Pacer {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}

	return &Pacer{
		bucket: rate.NewLimiter(limit, 1),
		window: RateLimitWindow,
	}
}

// Wait blocks until the minimum interval since the previous call has elapsed.
func (p *Pacer) Wait(ctx context.Context) error {
	return p.bucket.Wait(ctx)
}

// WaitNext decides the wait before the next page from what the previous page
// reported: quota left means go now, an exhausted quota means wait out the
// window, and no signal falls back to Wait.
func (p *Pacer) WaitNext(ctx context.Context, rl RateLimit) error {
	if !rl.Known {
		return p.Wait(ctx)
	}

	if rl.Remaining > 0 {
		// keep the bucket in step with the call about to happen
		p.bucket.Allow()
		return nil
	}

	timer := time.NewTimer(p.window)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		p.bucket.Allow()
		return nil
	}
}
