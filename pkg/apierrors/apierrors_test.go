package apierrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromStatus(t *testing.T) {
	tests := []struct {
		status   int
		expected Kind
	}{
		{400, KindValidation},
		{422, KindValidation},
		{401, KindAuthentication},
		{403, KindAuthorization},
		{404, KindNotFound},
		{429, KindRateLimit},
		{500, KindServer},
		{502, KindServer},
		{503, KindServer},
		{418, KindUnknown},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("status_%d", tt.status), func(t *testing.T) {
			err := FromStatus(tt.status, "test")
			assert.Equal(t, tt.expected, err.Kind)
			assert.Equal(t, tt.status, err.Status)
		})
	}
}

func TestRetryable(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{"validation error", FromStatus(400, "bad request"), false},
		{"authentication error", FromStatus(401, "unauthorized"), false},
		{"authorization error", FromStatus(403, "forbidden"), false},
		{"not found error", FromStatus(404, "missing"), false},
		{"rate limit error", FromStatus(429, "slow down"), false},
		{"other 4xx", FromStatus(418, "teapot"), false},
		{"server error", FromStatus(500, "boom"), true},
		{"network error", New(KindNetwork, "no response"), true},
		{"delivery error", New(KindDelivery, "not delivered"), true},
		{"plain error", errors.New("something"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.retryable, Retryable(tt.err))
		})
	}
}

func TestRetryable_WrappedError(t *testing.T) {
	// Classification must survive error wrapping.
	inner := FromStatus(401, "token expired")
	wrapped := fmt.Errorf("send failed: %w", inner)

	assert.False(t, Retryable(wrapped))
	assert.Equal(t, KindAuthentication, KindOf(wrapped))
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
	assert.Equal(t, KindDelivery, KindOf(New(KindDelivery, "failed")))
}

func TestUserMessage(t *testing.T) {
	// Explicit message wins
	err := New(KindServer, "Gateway is down")
	assert.Equal(t, "Gateway is down", err.UserMessage())

	// Fallback per kind, never raw detail
	err = Wrap(KindNetwork, "", errors.New("dial tcp 10.0.0.1:443: i/o timeout"))
	assert.Equal(t, "Network error. Check your connection and try again", err.UserMessage())
	assert.NotContains(t, err.UserMessage(), "dial tcp")
}
