package resilience

import (
	"strings"
	"sync"
	"time"
)

// KeyFunc derives a limiter key from call arguments. Operations sharing
// one limiter instance are distinguished purely by the derived key.
type KeyFunc func(args ...string) string

// DefaultKey is used when no KeyFunc is configured.
const DefaultKey = "default"

// RateLimiterConfig configures a fixed-window rate limiter. Immutable
// after construction.
type RateLimiterConfig struct {
	// MaxRequests is the maximum number of admissions per window.
	MaxRequests int
	// Window is the fixed window length.
	Window time.Duration
	// KeyFunc derives the entry key from call arguments. Optional.
	KeyFunc KeyFunc
}

type rateLimitEntry struct {
	count     int
	resetTime time.Time
}

// RateLimiter is a fixed-window admission counter keyed by an arbitrary
// string. It never allows more than MaxRequests admissions within any
// Window per key. Safe for concurrent use.
type RateLimiter struct {
	config  RateLimiterConfig
	mu      sync.Mutex
	entries map[string]*rateLimitEntry
}

// NewRateLimiter creates a rate limiter with the given configuration.
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	if config.KeyFunc == nil {
		config.KeyFunc = func(args ...string) string {
			if len(args) == 0 {
				return DefaultKey
			}
			return strings.Join(args, "-")
		}
	}

	return &RateLimiter{
		config:  config,
		entries: make(map[string]*rateLimitEntry),
	}
}

// Allow reports whether a request for the derived key may proceed. An
// admitted request counts against the key's window; a rejected request
// does not mutate any state.
func (r *RateLimiter) Allow(args ...string) bool {
	key := r.config.KeyFunc(args...)
	now := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	// Lazy sweep of expired entries, no background timer.
	for k, e := range r.entries {
		if now.After(e.resetTime) {
			delete(r.entries, k)
		}
	}

	entry, exists := r.entries[key]
	if !exists || now.After(entry.resetTime) {
		// First request for this key, or the window expired: restart it.
		r.entries[key] = &rateLimitEntry{
			count:     1,
			resetTime: now.Add(r.config.Window),
		}
		return true
	}

	if entry.count >= r.config.MaxRequests {
		return false
	}

	entry.count++
	return true
}

// RemainingTime returns how long until the key's window resets, or 0 when
// no window is active.
func (r *RateLimiter) RemainingTime(args ...string) time.Duration {
	key := r.config.KeyFunc(args...)
	now := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	entry, exists := r.entries[key]
	if !exists || now.After(entry.resetTime) {
		return 0
	}

	return entry.resetTime.Sub(now)
}

// RemainingRequests returns how many admissions the key has left in the
// current window.
func (r *RateLimiter) RemainingRequests(args ...string) int {
	key := r.config.KeyFunc(args...)
	now := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	entry, exists := r.entries[key]
	if !exists || now.After(entry.resetTime) {
		return r.config.MaxRequests
	}

	remaining := r.config.MaxRequests - entry.count
	if remaining < 0 {
		return 0
	}
	return remaining
}
