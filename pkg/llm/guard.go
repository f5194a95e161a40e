package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/WessleyAI/wessley-sales/pkg/resilience"
)

// GuardOpts configures a Guard.
type GuardOpts struct {
	Timeout time.Duration
	RPS     float64
	Burst   int
	Breaker resilience.BreakerOpts
}

// DefaultGuardOpts bounds calls at 20s with no rate limit.
var DefaultGuardOpts = GuardOpts{
	Timeout: 20 * time.Second,
	Breaker: resilience.DefaultBreakerOpts,
}

// Guard wraps an Embedder and a Completer with a per-call timeout, a shared
// rate limiter and a circuit breaker. Deadline errors surface as ErrTimeout,
// other provider failures as ErrUnavailable.
type Guard struct {
	embedder  Embedder
	completer Completer
	timeout   time.Duration
	limiter   *resilience.Limiter
	breaker   *resilience.Breaker
	logger    *slog.Logger
}

// NewGuard builds a Guard. Either capability may be nil.
func NewGuard(e Embedder, c Completer, opts GuardOpts, logger *slog.Logger) *Guard {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultGuardOpts.Timeout
	}
	bo := opts.Breaker
	bo.OnStateChange = func(from, to resilience.State) {
		logger.Warn("llm breaker state change", "from", from.String(), "to", to.String())
	}
	return &Guard{
		embedder:  e,
		completer: c,
		timeout:   opts.Timeout,
		limiter:   resilience.NewLimiter(resilience.LimiterOpts{Rate: opts.RPS, Burst: opts.Burst}),
		breaker:   resilience.NewBreaker(bo),
		logger:    logger,
	}
}

// Embed implements Embedder.
func (g *Guard) Embed(ctx context.Context, text string) ([]float32, error) {
	if g.embedder == nil {
		return nil, fmt.Errorf("%w: no embedder configured", ErrUnavailable)
	}
	return guarded(ctx, g, "embed", func(ctx context.Context) ([]float32, error) {
		v, err := g.embedder.Embed(ctx, text)
		if err == nil && len(v) == 0 {
			err = ErrEmptyResponse
		}
		return v, err
	})
}

// Complete implements Completer.
func (g *Guard) Complete(ctx context.Context, req Request) (string, error) {
	if g.completer == nil {
		return "", fmt.Errorf("%w: no completer configured", ErrUnavailable)
	}
	return guarded(ctx, g, "complete", func(ctx context.Context) (string, error) {
		return g.completer.Complete(ctx, req)
	})
}

func guarded[T any](ctx context.Context, g *Guard, op string, f func(context.Context) (T, error)) (T, error) {
	var zero T
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	if err := g.limiter.Wait(ctx); err != nil {
		return zero, g.classify(ctx, op, err)
	}
	v, err := resilience.Do(ctx, g.breaker, f)
	if err != nil {
		return zero, g.classify(ctx, op, err)
	}
	return v, nil
}

func (g *Guard) classify(ctx context.Context, op string, err error) error {
	switch {
	case errors.Is(err, ErrTimeout), errors.Is(err, ErrUnavailable):
		return err
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		g.logger.Warn("llm call timed out", "op", op, "timeout", g.timeout)
		return fmt.Errorf("%w: %s: %v", ErrTimeout, op, err)
	case errors.Is(err, context.Canceled):
		return err
	case errors.Is(err, ErrEmptyResponse):
		return fmt.Errorf("llm: %s: %w", op, err)
	default:
		return fmt.Errorf("%w: %s: %v", ErrUnavailable, op, err)
	}
}
