// Package retry provides a shared backoff helper for transient upstream
// failures. Both the feed fetcher and the enrichment client use it so jitter
// and attempt accounting stay consistent.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"
)

var (
	// ErrMaxAttemptsExceeded is returned when all attempts fail.
	ErrMaxAttemptsExceeded = errors.New("max retry attempts exceeded")
	// ErrContextCancelled is returned when the context is cancelled during retry.
	ErrContextCancelled = errors.New("context cancelled during retry")
)

// BackoffFunc returns the delay before the next attempt. attempt is 1-based
// and names the attempt that just failed.
type BackoffFunc func(attempt int) time.Duration

// Config configures retry behavior.
type Config struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int
	// Backoff computes the delay after a failed attempt.
	Backoff BackoffFunc
	// IsRetryable determines if an error should be retried. Nil retries all.
	IsRetryable func(error) bool
}

// Linear returns a backoff of base*attempt plus up to maxJitter.
func Linear(base, maxJitter time.Duration) BackoffFunc {
	return func(attempt int) time.Duration {
		return base*time.Duration(attempt) + jitter(maxJitter)
	}
}

// Exponential returns a backoff of base*2^(attempt-1) capped at maxDelay,
// plus up to maxJitter.
func Exponential(base, maxDelay, maxJitter time.Duration) BackoffFunc {
	return func(attempt int) time.Duration {
		d := base
		for i := 1; i < attempt; i++ {
			d *= 2
			if d >= maxDelay {
				d = maxDelay
				break
			}
		}
		if d > maxDelay {
			d = maxDelay
		}
		return d + jitter(maxJitter)
	}
}

func jitter(max time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}
	return time.Duration(rand.Int63n(int64(max)))
}

// Do executes fn with retry. It returns nil on the first success, the error
// unchanged when IsRetryable rejects it, and the last error wrapped in
// ErrMaxAttemptsExceeded when attempts run out.
func Do(ctx context.Context, cfg Config, fn func(attempt int) error) error {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if ctx.Err() != nil {
			return fmt.Errorf("%w: %v", ErrContextCancelled, ctx.Err())
		}

		err := fn(attempt)
		if err == nil {
			return nil
		}
		lastErr = err

		if cfg.IsRetryable != nil && !cfg.IsRetryable(err) {
			return err
		}

		if attempt == cfg.MaxAttempts {
			break
		}

		delay := time.Duration(0)
		if cfg.Backoff != nil {
			delay = cfg.Backoff(attempt)
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", ErrContextCancelled, ctx.Err())
		case <-time.After(delay):
		}
	}

	return fmt.Errorf("%w after %d attempts: %w", ErrMaxAttemptsExceeded, cfg.MaxAttempts, lastErr)
}
