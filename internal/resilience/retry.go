package resilience

import (
	"context"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
)

// Policy is the single retry abstraction applied to every provider fetch:
// bounded attempts, fixed backoff between attempts, and a per-attempt
// timeout raced against the fetch itself.
type Policy struct {
	// MaxAttempts is the total number of attempts including the first.
	// 1 means no retries. Default: 1.
	MaxAttempts int

	// Backoff is the fixed delay between attempts. Default: 2s.
	Backoff time.Duration

	// JitterFraction adds random jitter as a fraction of Backoff
	// (0 = none, 0.5 = ±50%). Default: 0.
	JitterFraction float64

	// Timeout bounds each individual attempt. Zero means no per-attempt
	// timeout; the caller's context still applies.
	Timeout time.Duration

	// ShouldRetry overrides the default transient-error check.
	ShouldRetry func(err error) bool

	// OnRetry is called before each backoff sleep.
	OnRetry func(attempt int, err error)
}

// Once is the no-retry policy used for cheap, reliable providers.
func Once(timeout time.Duration) Policy {
	return Policy{MaxAttempts: 1, Timeout: timeout}
}

// DoVal runs fn under the policy and returns its value. Each attempt gets
// its own deadline-bounded context; an attempt that outlives the deadline
// settles as context.DeadlineExceeded, which classifies as a timeout.
// Retries stop on non-transient errors and on caller cancellation.
func DoVal[T any](ctx context.Context, p Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 1
	}
	if p.Backoff <= 0 {
		p.Backoff = 2 * time.Second
	}
	shouldRetry := p.ShouldRetry
	if shouldRetry == nil {
		shouldRetry = IsTransient
	}

	var zero T
	var lastErr error
	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		val, err := runAttempt(ctx, p.Timeout, fn)
		if err == nil {
			return val, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return zero, lastErr
		}
		if !shouldRetry(lastErr) {
			return zero, lastErr
		}
		if attempt >= p.MaxAttempts-1 {
			break
		}

		if p.OnRetry != nil {
			p.OnRetry(attempt+1, lastErr)
		}

		timer := time.NewTimer(jittered(p.Backoff, p.JitterFraction))
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, lastErr
		case <-timer.C:
		}
	}

	return zero, lastErr
}

// Do runs fn under the policy, discarding any value.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	_, err := DoVal(ctx, p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

func runAttempt[T any](ctx context.Context, timeout time.Duration, fn func(ctx context.Context) (T, error)) (T, error) {
	if timeout <= 0 {
		return fn(ctx)
	}
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return fn(attemptCtx)
}

func jittered(d time.Duration, fraction float64) time.Duration {
	if fraction <= 0 {
		return d
	}
	spread := float64(d) * fraction
	out := float64(d) + (rand.Float64()*2-1)*spread
	if out < 0 {
		out = 0
	}
	return time.Duration(out)
}

// RetryLogger returns an OnRetry callback that logs each retry attempt.
func RetryLogger(provider string) func(int, error) {
	return func(attempt int, err error) {
		zap.L().Warn("retrying provider fetch",
			zap.String("provider", provider),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}
}
