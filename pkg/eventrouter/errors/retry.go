package errors

import (
	"context"
	"math/rand/v2"
	"time"
)

// RetryConfig bounds how long a relay keeps trying to hand off one event.
type RetryConfig struct {
	// MaxAttempts counts the first try. Values below 1 mean one attempt.
	MaxAttempts int

	// InitialBackoff is the wait after the first failure.
	InitialBackoff time.Duration

	// MaxBackoff caps the wait between attempts; 0 leaves it uncapped.
	MaxBackoff time.Duration

	// BackoffFactor grows the wait after every failed attempt.
	BackoffFactor float64

	// Jitter spreads each wait by up to this fraction either way.
	Jitter float64

	// RetryableFunc replaces IsRetryable when set.
	RetryableFunc func(error) bool
}

// DefaultRetry suits relays on a local network: short backoff, since a
// stale robot event is rarely worth a long wait.
var DefaultRetry = RetryConfig{
	MaxAttempts:    3,
	InitialBackoff: 20 * time.Millisecond,
	MaxBackoff:     200 * time.Millisecond,
	BackoffFactor:  2.0,
	Jitter:         0.1,
}

// NoRetry makes a single attempt.
var NoRetry = RetryConfig{MaxAttempts: 1}

// RetryResult reports how a WithRetryContext call ended.
type RetryResult[T any] struct {
	Value    T
	Err      error
	Attempts int
	// Duration spans the first attempt to the final return, backoff included.
	Duration time.Duration
}

// WithRetryContext calls fn until it succeeds, returns a non-retryable
// error, runs out of attempts, or ctx is done. Failures are returned as
// *CategorizedError.
func WithRetryContext[T any](
	ctx context.Context,
	cfg RetryConfig,
	fn func(context.Context) (T, error),
) RetryResult[T] {
	start := time.Now()
	attempts := max(cfg.MaxAttempts, 1)
	retryable := cfg.RetryableFunc
	if retryable == nil {
		retryable = IsRetryable
	}

	fail := func(err error, n int, msg string) RetryResult[T] {
		return RetryResult[T]{
			Err:      &CategorizedError{Err: err, Category: Categorize(err), Retries: n, Context: msg},
			Attempts: n,
			Duration: time.Since(start),
		}
	}

	backoff := cfg.InitialBackoff
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return fail(err, attempt-1, "context done")
		}

		v, err := fn(ctx)
		if err == nil {
			return RetryResult[T]{Value: v, Attempts: attempt, Duration: time.Since(start)}
		}
		lastErr = err
		if !retryable(err) {
			return fail(err, attempt, "")
		}
		if attempt == attempts {
			break
		}

		timer := time.NewTimer(jittered(backoff, cfg.Jitter))
		select {
		case <-ctx.Done():
			timer.Stop()
			return fail(ctx.Err(), attempt, "context done during backoff")
		case <-timer.C:
		}

		backoff = time.Duration(float64(backoff) * cfg.BackoffFactor)
		if cfg.MaxBackoff > 0 && backoff > cfg.MaxBackoff {
			backoff = cfg.MaxBackoff
		}
	}
	return fail(lastErr, attempts, "max retries exceeded")
}

// jittered returns base +/- base*jitter.
func jittered(base time.Duration, jitter float64) time.Duration {
	if jitter <= 0 || base <= 0 {
		return base
	}
	return time.Duration(float64(base) * (1 + jitter*(rand.Float64()*2-1)))
}
