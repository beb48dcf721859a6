package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"dispatch-backend/pkg/apierrors"

	"github.com/stretchr/testify/assert"
)

// Disable jitter so retry tests run fast and deterministically.
func withoutJitter(t *testing.T) {
	t.Helper()
	orig := randomJitter
	randomJitter = func() time.Duration { return 0 }
	t.Cleanup(func() { randomJitter = orig })
}

func TestRetryWithBackoff_EventualSuccess(t *testing.T) {
	withoutJitter(t)

	calls := 0
	err := RetryWithBackoff(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	}, 3, time.Millisecond)

	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryWithBackoff_Exhausted(t *testing.T) {
	withoutJitter(t)

	final := errors.New("still broken")
	calls := 0
	err := RetryWithBackoff(context.Background(), func(ctx context.Context) error {
		calls++
		return final
	}, 3, time.Millisecond)

	assert.ErrorIs(t, err, final)
	assert.Equal(t, 3, calls)
}

func TestRetryWithBackoff_FirstAttemptSucceeds(t *testing.T) {
	withoutJitter(t)

	calls := 0
	err := RetryWithBackoff(context.Background(), func(ctx context.Context) error {
		calls++
		return nil
	}, 3, time.Millisecond)

	assert.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetryWithBackoff_ExponentialDelays(t *testing.T) {
	withoutJitter(t)

	start := time.Now()
	RetryWithBackoff(context.Background(), func(ctx context.Context) error {
		return errors.New("fail")
	}, 3, 20*time.Millisecond)

	// Delays are 20ms then 40ms between the three attempts
	elapsed := time.Since(start)
	assert.GreaterOrEqual(t, elapsed, 60*time.Millisecond)
}

func TestRetryWithBackoff_ContextCancelled(t *testing.T) {
	withoutJitter(t)

	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	err := RetryWithBackoff(ctx, func(ctx context.Context) error {
		calls++
		cancel()
		return errors.New("fail")
	}, 5, time.Second)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestWithRetry_ClientErrorNotRetried(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"validation", apierrors.FromStatus(400, "bad input")},
		{"authentication", apierrors.FromStatus(401, "expired")},
		{"authorization", apierrors.FromStatus(403, "forbidden")},
		{"not found", apierrors.FromStatus(404, "missing")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := WithRetry(context.Background(), func(ctx context.Context) error {
				calls++
				return tt.err
			}, 3, time.Millisecond)

			assert.ErrorIs(t, err, tt.err)
			assert.Equal(t, 1, calls, "client errors must be rethrown immediately")
		})
	}
}

func TestWithRetry_ServerErrorRetried(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 2 {
			return apierrors.FromStatus(503, "unavailable")
		}
		return nil
	}, 3, time.Millisecond)

	assert.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestWithRetry_UnknownErrorRetried(t *testing.T) {
	final := errors.New("network down")
	calls := 0
	err := WithRetry(context.Background(), func(ctx context.Context) error {
		calls++
		return final
	}, 3, time.Millisecond)

	assert.ErrorIs(t, err, final)
	assert.Equal(t, 3, calls)
}

func TestWithRetry_LinearDelays(t *testing.T) {
	start := time.Now()
	WithRetry(context.Background(), func(ctx context.Context) error {
		return errors.New("fail")
	}, 3, 20*time.Millisecond)

	// Delays are 20ms then 40ms (delay * attempt)
	elapsed := time.Since(start)
	assert.GreaterOrEqual(t, elapsed, 60*time.Millisecond)
}
