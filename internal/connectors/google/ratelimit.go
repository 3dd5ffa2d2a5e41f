package google

import (
	"context"

	"golang.org/x/time/rate"
)

// ServiceType identifies a Google API service for rate limiting purposes.
type ServiceType string

const (
	// ServiceDirectory is the Admin SDK Directory API.
	ServiceDirectory ServiceType = "directory"
	// ServiceGroupsSettings is the Groups Settings API.
	ServiceGroupsSettings ServiceType = "groupssettings"
)

// RateLimitConfig holds rate limiting configuration for a service.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate limit.
	RequestsPerSecond float64
	// BurstSize is the maximum burst size.
	BurstSize int
}

// DefaultRateLimits provides conservative defaults for each Google service.
// These are well below Google's actual limits to avoid hitting quotas.
var DefaultRateLimits = map[ServiceType]RateLimitConfig{
	ServiceDirectory:      {RequestsPerSecond: 10.0, BurstSize: 10}, // Quota is 2400/min per user
	ServiceGroupsSettings: {RequestsPerSecond: 5.0, BurstSize: 5},   // One token per batch request
}

// RateLimiter paces requests to a Google API with a token bucket.
type RateLimiter struct {
	limiter *rate.Limiter
	service ServiceType
}

// NewRateLimiter creates a new rate limiter for the specified service.
func NewRateLimiter(service ServiceType) *RateLimiter {
	cfg, ok := DefaultRateLimits[service]
	if !ok {
		// Default fallback
		cfg = RateLimitConfig{RequestsPerSecond: 5.0, BurstSize: 10}
	}

	limiter := NewRateLimiterWithConfig(cfg)
	limiter.service = service
	return limiter
}

// NewRateLimiterWithConfig creates a rate limiter with custom configuration.
// A non-positive rate disables limiting.
func NewRateLimiterWithConfig(cfg RateLimitConfig) *RateLimiter {
	limit := rate.Limit(cfg.RequestsPerSecond)
	if cfg.RequestsPerSecond <= 0 {
		limit = rate.Inf
	}
	burst := cfg.BurstSize
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{limiter: rate.NewLimiter(limit, burst)}
}

// Service returns the service this limiter paces.
func (r *RateLimiter) Service() ServiceType {
	return r.service
}

// Wait blocks until a request can be made without exceeding the rate limit.
func (r *RateLimiter) Wait(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}

// Allow checks if a request can be made immediately without blocking.
func (r *RateLimiter) Allow() bool {
	return r.limiter.Allow()
}
