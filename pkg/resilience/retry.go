package resilience

import (
	"context"
	"math/rand"
	"time"

	"dispatch-backend/pkg/apierrors"
)

// randomJitter returns the jitter added between exponential backoff
// attempts to avoid synchronized retry storms against the same backend.
// Overridable in tests.
var randomJitter = func() time.Duration {
	return time.Duration(rand.Intn(1000)) * time.Millisecond
}

// RetryWithBackoff attempts fn up to maxAttempts times. Between attempts
// it waits baseDelay * 2^(attempt-1) plus 0-1000ms of jitter. The last
// error is returned once attempts are exhausted.
func RetryWithBackoff(ctx context.Context, fn func(ctx context.Context) error, maxAttempts int, baseDelay time.Duration) error {
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}

		if attempt == maxAttempts {
			break
		}

		delay := baseDelay*(1<<(attempt-1)) + randomJitter()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	return lastErr
}

// WithRetry attempts fn up to maxAttempts times, classifying each error
// first: client errors (validation, authentication, authorization, not
// found, any 4xx) are returned immediately because retrying them cannot
// succeed. Everything else retries with linear backoff, delay * attempt.
//
// The linear cadence here is intentionally different from the
// exponential one in RetryWithBackoff; the two call sites depend on
// different timing profiles.
func WithRetry(ctx context.Context, fn func(ctx context.Context) error, maxAttempts int, delay time.Duration) error {
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}

		if !apierrors.Retryable(lastErr) {
			return lastErr
		}

		if attempt == maxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay * time.Duration(attempt)):
		}
	}

	return lastErr
}
