package google

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRateLimiter_KnownServices(t *testing.T) {
	for _, svc := range []ServiceType{ServiceDirectory, ServiceGroupsSettings} {
		l := NewRateLimiter(svc)
		assert.Equal(t, svc, l.Service())
		assert.True(t, l.Allow())
	}
}

func TestNewRateLimiter_UnknownServiceFallsBack(t *testing.T) {
	l := NewRateLimiter("unknown")

	assert.Equal(t, ServiceType("unknown"), l.Service())
	assert.True(t, l.Allow())
}

func TestNewRateLimiterWithConfig_Unlimited(t *testing.T) {
	l := NewRateLimiterWithConfig(RateLimitConfig{})

	for i := 0; i < 100; i++ {
		require.True(t, l.Allow())
	}
}

func TestRateLimiter_Exhausted(t *testing.T) {
	l := NewRateLimiterWithConfig(RateLimitConfig{RequestsPerSecond: 0.001, BurstSize: 1})

	assert.True(t, l.Allow())
	assert.False(t, l.Allow())
}

func TestRateLimiter_WaitCancelled(t *testing.T) {
	l := NewRateLimiterWithConfig(RateLimitConfig{RequestsPerSecond: 0.001, BurstSize: 1})
	require.NoError(t, l.Wait(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Error(t, l.Wait(ctx))
}
