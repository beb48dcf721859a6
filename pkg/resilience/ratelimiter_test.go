package resilience

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_BasicAdmission(t *testing.T) {
	limiter := NewRateLimiter(RateLimiterConfig{
		MaxRequests: 5,
		Window:      30 * time.Second,
	})

	// First 5 requests for the same key are admitted
	for i := 0; i < 5; i++ {
		assert.True(t, limiter.Allow("u1", "send"), "request %d should be admitted", i+1)
	}

	// 6th request is rejected
	assert.False(t, limiter.Allow("u1", "send"))

	// Remaining time is within the window
	remaining := limiter.RemainingTime("u1", "send")
	assert.Greater(t, remaining, time.Duration(0))
	assert.LessOrEqual(t, remaining, 30*time.Second)
}

func TestRateLimiter_WindowReset(t *testing.T) {
	limiter := NewRateLimiter(RateLimiterConfig{
		MaxRequests: 1,
		Window:      100 * time.Millisecond,
	})

	assert.True(t, limiter.Allow("key"))
	assert.False(t, limiter.Allow("key"))

	// After the window expires the key admits again with a fresh count
	time.Sleep(150 * time.Millisecond)

	assert.True(t, limiter.Allow("key"))
	assert.Equal(t, 0, limiter.RemainingRequests("key"))
}

func TestRateLimiter_RejectionDoesNotMutate(t *testing.T) {
	limiter := NewRateLimiter(RateLimiterConfig{
		MaxRequests: 2,
		Window:      time.Minute,
	})

	assert.True(t, limiter.Allow("k"))
	assert.True(t, limiter.Allow("k"))

	// Rejected calls must not extend or alter the window state
	before := limiter.RemainingTime("k")
	for i := 0; i < 10; i++ {
		assert.False(t, limiter.Allow("k"))
	}
	after := limiter.RemainingTime("k")

	assert.LessOrEqual(t, after, before)
	assert.Equal(t, 0, limiter.RemainingRequests("k"))
}

func TestRateLimiter_RemainingRequests(t *testing.T) {
	limiter := NewRateLimiter(RateLimiterConfig{
		MaxRequests: 3,
		Window:      time.Minute,
	})

	// No active window yet
	assert.Equal(t, 3, limiter.RemainingRequests("k"))

	limiter.Allow("k")
	limiter.Allow("k")
	assert.Equal(t, 1, limiter.RemainingRequests("k"))

	limiter.Allow("k")
	assert.Equal(t, 0, limiter.RemainingRequests("k"))
}

func TestRateLimiter_IndependentKeys(t *testing.T) {
	limiter := NewRateLimiter(RateLimiterConfig{
		MaxRequests: 1,
		Window:      time.Minute,
	})

	assert.True(t, limiter.Allow("alice", "send"))
	assert.False(t, limiter.Allow("alice", "send"))

	// A different derived key has its own window
	assert.True(t, limiter.Allow("bob", "send"))
	assert.True(t, limiter.Allow("alice", "upload"))
}

func TestRateLimiter_DefaultKey(t *testing.T) {
	limiter := NewRateLimiter(RateLimiterConfig{
		MaxRequests: 2,
		Window:      time.Minute,
	})

	// Calls without arguments share the default key
	assert.True(t, limiter.Allow())
	assert.True(t, limiter.Allow())
	assert.False(t, limiter.Allow())

	assert.Equal(t, 0, limiter.RemainingRequests())
}

func TestRateLimiter_CustomKeyFunc(t *testing.T) {
	limiter := NewRateLimiter(RateLimiterConfig{
		MaxRequests: 1,
		Window:      time.Minute,
		KeyFunc: func(args ...string) string {
			// Collapse everything onto one key
			return "shared"
		},
	})

	assert.True(t, limiter.Allow("a"))
	assert.False(t, limiter.Allow("b"))
}

func TestRateLimiter_ExpiredEntriesSwept(t *testing.T) {
	limiter := NewRateLimiter(RateLimiterConfig{
		MaxRequests: 1,
		Window:      50 * time.Millisecond,
	})

	for i := 0; i < 10; i++ {
		limiter.Allow("key", string(rune('a'+i)))
	}

	time.Sleep(80 * time.Millisecond)

	// Any call sweeps the expired entries before admitting
	assert.True(t, limiter.Allow("fresh"))

	limiter.mu.Lock()
	count := len(limiter.entries)
	limiter.mu.Unlock()
	assert.Equal(t, 1, count)
}
