package llm

import (
	"context"
	"errors"
	"math"
	"time"
)

// RetryProvider is a decorator that retries transient errors. Only rate
// limits and per-attempt timeouts are considered transient; anything else
// fails fast so a malformed request doesn't burn through attempts.
type RetryProvider struct {
	next Provider
	cfg  RetryConfig
}

// WithRetry wraps a Provider with retry logic.
func WithRetry(p Provider, cfg RetryConfig) Provider {
	return &RetryProvider{next: p, cfg: cfg}
}

func (r *RetryProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	var lastErr error
	for attempt := range r.cfg.MaxAttempts {
		resp, err := r.next.Generate(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		wait, retryable := r.classify(err, attempt)
		if !retryable {
			return nil, err
		}
		if attempt == r.cfg.MaxAttempts-1 {
			// No point sleeping after the final attempt.
			break
		}
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return nil, lastErr
}

func (r *RetryProvider) ModelID() string {
	return r.next.ModelID()
}

// classify maps an error to a backoff wait, or reports it non-retryable.
func (r *RetryProvider) classify(err error, attempt int) (time.Duration, bool) {
	// Rate limit: honor the provider's explicit wait when given, otherwise
	// back off exponentially up to the cap.
	var rl *ErrRateLimit
	if errors.As(err, &rl) {
		if rl.RetryAfter > 0 {
			return rl.RetryAfter, true
		}
		return r.backoff(attempt), true
	}

	// Per-attempt timeout: a short fixed pause, then try again with a
	// fresh deadline.
	var to *ErrTimeout
	if errors.As(err, &to) {
		return r.cfg.TimeoutWait, true
	}

	// Caller cancellation is never retried.
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return 0, false
	}

	// Everything else (schema violations, auth failures, provider
	// outages, truncation) fails fast.
	return 0, false
}

func (r *RetryProvider) backoff(attempt int) time.Duration {
	wait := float64(r.cfg.InitialWait) * math.Pow(2, float64(attempt))
	return time.Duration(min(wait, float64(r.cfg.MaxWait)))
}
