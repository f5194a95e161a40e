package resilience

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/time/rate"
)

var ErrRateLimited = errors.New("rate limited")

// LimiterOpts configures the token bucket rate limiter.
type LimiterOpts struct {
	// Rate is the number of tokens added per second. Zero or less disables limiting.
	Rate float64
	// Burst is the maximum number of tokens (bucket capacity).
	Burst int
}

// Limiter is a token bucket backed by golang.org/x/time/rate.
type Limiter struct {
	lim *rate.Limiter
}

// NewLimiter creates a token bucket rate limiter.
func NewLimiter(opts LimiterOpts) *Limiter {
	if opts.Burst <= 0 {
		opts.Burst = 1
	}
	limit := rate.Limit(opts.Rate)
	if opts.Rate <= 0 {
		limit = rate.Inf
	}
	return &Limiter{lim: rate.NewLimiter(limit, opts.Burst)}
}

// Allow checks if a request is allowed (non-blocking).
func (l *Limiter) Allow() bool {
	return l.lim.Allow()
}

// Wait blocks until a token is available or ctx is done. A wait that cannot
// finish before the ctx deadline fails immediately with ErrRateLimited.
func (l *Limiter) Wait(ctx context.Context) error {
	if err := l.lim.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", ErrRateLimited, err)
	}
	return nil
}
