package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// RetryPolicy bounds exponential-backoff retries around a fallible call.
// The total number of attempts is MaxRetries+1. The delay before retry n
// (0-based) is min(BaseDelay * 2^n, MaxDelay).
type RetryPolicy struct {
	MaxRetries int           // Additional attempts after the first. 0 = no retries.
	BaseDelay  time.Duration // Must be > 0 when MaxRetries > 0.
	MaxDelay   time.Duration // Cap on the backoff delay.

	// Retryable decides whether a failure is worth retrying.
	// nil = IsRetryable (sentinel-based classification).
	Retryable func(error) bool
}

// DefaultRetryPolicy matches the provider defaults: 3 retries, 1s base, 30s cap.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: 3, BaseDelay: time.Second, MaxDelay: 30 * time.Second}
}

func (p RetryPolicy) retryable(err error) bool {
	if p.Retryable != nil {
		return p.Retryable(err)
	}
	return IsRetryable(err)
}

// Delay returns the backoff delay before retry attempt (0-based).
func (p RetryPolicy) Delay(attempt int) time.Duration {
	d := p.BaseDelay << uint(attempt)
	if d > p.MaxDelay || d <= 0 {
		return p.MaxDelay
	}
	return d
}

// Do invokes fn, retrying per the policy. Non-retryable failures propagate
// immediately without sleeping; after exhausting retries the last failure is
// returned. Each retry logs one warning, exhaustion logs one error.
func Do[T any](ctx context.Context, p RetryPolicy, logger *slog.Logger, op string, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt <= p.MaxRetries; attempt++ {
		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		lastErr = err

		if !p.retryable(err) {
			return zero, err
		}
		if attempt == p.MaxRetries {
			break
		}

		delay := p.Delay(attempt)
		logger.Warn("call failed, retrying",
			slog.String("op", op),
			slog.Int("attempt", attempt+1),
			slog.Int("max_attempts", p.MaxRetries+1),
			slog.Duration("delay", delay),
			slog.String("error", err.Error()),
		)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return zero, fmt.Errorf("%s: %w", op, ctx.Err())
		}
	}

	logger.Error("call failed after all attempts",
		slog.String("op", op),
		slog.Int("attempts", p.MaxRetries+1),
		slog.String("error", lastErr.Error()),
	)
	return zero, lastErr
}

// RetryProvider decorates a Provider with a RetryPolicy. It preserves the
// wrapped provider's identity: Name() passes through unchanged.
type RetryProvider struct {
	inner  Provider
	policy RetryPolicy
	logger *slog.Logger
}

// NewRetryProvider wraps provider with retry behavior.
func NewRetryProvider(provider Provider, policy RetryPolicy, logger *slog.Logger) *RetryProvider {
	return &RetryProvider{inner: provider, policy: policy, logger: logger}
}

func (r *RetryProvider) Name() string { return r.inner.Name() }

// Complete sends the request through the wrapped provider, retrying
// transient failures per the policy.
func (r *RetryProvider) Complete(ctx context.Context, req *Request) (*Response, error) {
	return Do(ctx, r.policy, r.logger, r.inner.Name()+".complete", func(ctx context.Context) (*Response, error) {
		return r.inner.Complete(ctx, req)
	})
}
