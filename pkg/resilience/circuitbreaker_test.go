package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errDownstream = errors.New("downstream failed")

func failingOp(ctx context.Context) error { return errDownstream }

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	cb := NewCircuitBreaker(5, 30*time.Second)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		err := cb.Execute(ctx, failingOp)
		assert.ErrorIs(t, err, errDownstream, "failure %d should propagate the original error", i+1)
	}

	assert.Equal(t, StateOpen, cb.GetState())
	assert.Equal(t, 5, cb.GetFailureCount())
}

func TestCircuitBreaker_FailsFastWhileOpen(t *testing.T) {
	cb := NewCircuitBreaker(2, time.Minute)
	ctx := context.Background()

	cb.Execute(ctx, failingOp)
	cb.Execute(ctx, failingOp)
	require.Equal(t, StateOpen, cb.GetState())

	// The wrapped operation must not be invoked while open
	invoked := false
	err := cb.Execute(ctx, func(ctx context.Context) error {
		invoked = true
		return nil
	})

	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, invoked)
}

func TestCircuitBreaker_HalfOpenProbeSuccess(t *testing.T) {
	cb := NewCircuitBreaker(2, 50*time.Millisecond)
	ctx := context.Background()

	cb.Execute(ctx, failingOp)
	cb.Execute(ctx, failingOp)
	require.Equal(t, StateOpen, cb.GetState())

	time.Sleep(80 * time.Millisecond)

	// First call after the reset timeout probes the operation; a single
	// success fully closes the breaker.
	invoked := false
	err := cb.Execute(ctx, func(ctx context.Context) error {
		invoked = true
		return nil
	})

	assert.NoError(t, err)
	assert.True(t, invoked)
	assert.Equal(t, StateClosed, cb.GetState())
	assert.Equal(t, 0, cb.GetFailureCount())
}

func TestCircuitBreaker_HalfOpenProbeFailure(t *testing.T) {
	cb := NewCircuitBreaker(2, 50*time.Millisecond)
	ctx := context.Background()

	cb.Execute(ctx, failingOp)
	cb.Execute(ctx, failingOp)
	require.Equal(t, StateOpen, cb.GetState())

	time.Sleep(80 * time.Millisecond)

	// Failed probe reopens the breaker and refreshes the failure time
	err := cb.Execute(ctx, failingOp)
	assert.ErrorIs(t, err, errDownstream)
	assert.Equal(t, StateOpen, cb.GetState())

	// And the very next call fails fast again
	err = cb.Execute(ctx, failingOp)
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

func TestCircuitBreaker_SuccessResetsCount(t *testing.T) {
	cb := NewCircuitBreaker(3, time.Minute)
	ctx := context.Background()

	cb.Execute(ctx, failingOp)
	cb.Execute(ctx, failingOp)
	assert.Equal(t, 2, cb.GetFailureCount())

	err := cb.Execute(ctx, func(ctx context.Context) error { return nil })
	assert.NoError(t, err)
	assert.Equal(t, 0, cb.GetFailureCount())
	assert.Equal(t, StateClosed, cb.GetState())

	// Threshold counts from zero again
	cb.Execute(ctx, failingOp)
	cb.Execute(ctx, failingOp)
	assert.Equal(t, StateClosed, cb.GetState())
}
