package ratelimit

import (
	"time"
)

// Config holds the configuration for rate limiting
type Config struct {
	// Default rate limits for different endpoint types
	DefaultLimits map[string]RateLimit `json:"defaultLimits"`

	// Redis key prefix for rate limiting data
	RedisKeyPrefix string `json:"redisKeyPrefix"`

	// Cleanup interval for expired rate limit data
	CleanupInterval time.Duration `json:"cleanupInterval"`

	// Enable/disable rate limiting
	Enabled bool `json:"enabled"`
}

// DefaultConfig returns a default rate limiting configuration
func DefaultConfig() *Config {
	return &Config{
		DefaultLimits: map[string]RateLimit{
			// Authentication endpoints - more restrictive
			"auth":        {RequestsPerMinute: 10, BurstSize: 5, WindowSize: time.Minute},
			"auth_login":  {RequestsPerMinute: 5, BurstSize: 2, WindowSize: time.Minute},
			"auth_logout": {RequestsPerMinute: 10, BurstSize: 5, WindowSize: time.Minute},

			// Dispatch endpoints - tight limits, the service layer applies
			// its own per-user quotas on top of these
			"dispatch_send": {RequestsPerMinute: 30, BurstSize: 10, WindowSize: time.Minute},
			"dispatch_bulk": {RequestsPerMinute: 10, BurstSize: 3, WindowSize: time.Minute},

			// Message log queries - higher limits for the console views
			"logs": {RequestsPerMinute: 200, BurstSize: 50, WindowSize: time.Minute},

			// User management - moderate limits
			"users":        {RequestsPerMinute: 50, BurstSize: 10, WindowSize: time.Minute},
			"users_create": {RequestsPerMinute: 10, BurstSize: 3, WindowSize: time.Minute},
			"users_update": {RequestsPerMinute: 20, BurstSize: 5, WindowSize: time.Minute},
			"users_delete": {RequestsPerMinute: 5, BurstSize: 2, WindowSize: time.Minute},

			// Section management
			"sections":        {RequestsPerMinute: 100, BurstSize: 20, WindowSize: time.Minute},
			"sections_create": {RequestsPerMinute: 20, BurstSize: 5, WindowSize: time.Minute},

			// WhatsApp settings - restrictive, updates trigger gateway checks
			"settings":        {RequestsPerMinute: 30, BurstSize: 10, WindowSize: time.Minute},
			"settings_update": {RequestsPerMinute: 10, BurstSize: 3, WindowSize: time.Minute},

			// Captcha challenges
			"captcha": {RequestsPerMinute: 30, BurstSize: 10, WindowSize: time.Minute},

			// Health check - very permissive
			"health": {RequestsPerMinute: 1000, BurstSize: 100, WindowSize: time.Minute},

			// Default fallback
			"default": {RequestsPerMinute: 60, BurstSize: 15, WindowSize: time.Minute},
		},
		RedisKeyPrefix:  "ratelimit:",
		CleanupInterval: 5 * time.Minute,
		Enabled:         true,
	}
}

// endpointCategories maps method:path keys to rate limit categories.
// Paths with dynamic segments use a trailing wildcard.
var endpointCategories = map[string]string{
	"POST:/api/v1/auth/login":           "auth_login",
	"POST:/api/v1/auth/logout":          "auth_logout",
	"POST:/api/v1/auth/forgot-password": "auth",
	"POST:/api/v1/auth/reset-password":  "auth",
	"GET:/api/v1/auth/profile":          "auth",

	"POST:/api/v1/dispatch/send":      "dispatch_send",
	"POST:/api/v1/dispatch/send-bulk": "dispatch_bulk",

	"GET:/api/v1/logs": "logs",

	"GET:/api/v1/users":      "users",
	"POST:/api/v1/users":     "users_create",
	"PATCH:/api/v1/users/*":  "users_update",
	"DELETE:/api/v1/users/*": "users_delete",

	"GET:/api/v1/sections":  "sections",
	"POST:/api/v1/sections": "sections_create",

	"GET:/api/v1/settings/whatsapp": "settings",
	"PUT:/api/v1/settings/whatsapp": "settings_update",

	"GET:/api/v1/captcha": "captcha",

	"GET:/api/v1/health": "health",
}

// GetEndpointKey generates a rate limit key for a specific endpoint
func (c *Config) GetEndpointKey(endpoint, method string) string {
	key := method + ":" + endpoint
	if category, exists := endpointCategories[key]; exists {
		return category
	}

	// Check for wildcard matches
	for pattern, category := range endpointCategories {
		if matchesPattern(key, pattern) {
			return category
		}
	}

	return "default"
}

// matchesPattern checks if a key matches a pattern with wildcards
func matchesPattern(key, pattern string) bool {
	if pattern[len(pattern)-1] == '*' {
		prefix := pattern[:len(pattern)-1]
		return len(key) >= len(prefix) && key[:len(prefix)] == prefix
	}
	return key == pattern
}
