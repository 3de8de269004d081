package controller

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// defaultStylesheetBurst is both the burst size and the per-second refill
// rate of each origin's token bucket: up to 6 of a page's <link
// rel=stylesheet> fetches start at once, then 6 per second (SPEC_FULL.md
// §3.5 "per-origin fetch rate limiting"). It limits how fast fetches start,
// not how many are in flight; image fetches do not pass through it.
const defaultStylesheetBurst = 6

// OriginRateLimiters hands out a per-origin token-bucket limiter, grounded
// on the teacher's relay.BandwidthMeter: a mutex-guarded map from key to
// *rate.Limiter, lazily created on first use.
type OriginRateLimiters struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewOriginRateLimiters returns an empty limiter set.
func NewOriginRateLimiters() *OriginRateLimiters {
	return &OriginRateLimiters{limiters: make(map[string]*rate.Limiter)}
}

func (o *OriginRateLimiters) limiterFor(origin string) *rate.Limiter {
	o.mu.Lock()
	defer o.mu.Unlock()
	lim, ok := o.limiters[origin]
	if !ok {
		lim = rate.NewLimiter(rate.Limit(defaultStylesheetBurst), defaultStylesheetBurst)
		o.limiters[origin] = lim
	}
	return lim
}

// Wait blocks until origin's limiter has a token for one more fetch to
// start, or ctx is cancelled.
func (o *OriginRateLimiters) Wait(ctx context.Context, origin string) error {
	return o.limiterFor(origin).Wait(ctx)
}
