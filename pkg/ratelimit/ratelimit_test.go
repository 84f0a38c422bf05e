package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryRateLimiter_PerKeyAllowance(t *testing.T) {
	limiter := NewInMemoryRateLimiter(2, time.Minute)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		limited, err := limiter.IsLimited(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.False(t, limited, "request %d", i+1)
	}

	limited, err := limiter.IsLimited(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, limited)

	limited, err = limiter.IsLimited(ctx, "10.0.0.2")
	require.NoError(t, err)
	assert.False(t, limited)
}

func TestInMemoryRateLimiter_SweepsIdleBuckets(t *testing.T) {
	limiter := NewInMemoryRateLimiter(1, time.Second)
	ctx := context.Background()

	_, _ = limiter.IsLimited(ctx, "idle")

	limiter.mu.Lock()
	limiter.buckets["idle"].lastSeen = time.Now().Add(-time.Hour)
	limiter.lastSweep = time.Now().Add(-time.Hour)
	limiter.mu.Unlock()

	_, _ = limiter.IsLimited(ctx, "active")

	assert.Equal(t, 1, limiter.size())
}

func TestNewRateLimiter_InMemoryWithoutRedis(t *testing.T) {
	limiter := NewRateLimiter(&RateLimitConfig{Requests: 30, Window: time.Minute, KeyPrefix: "ratelimit:waitlist:"})

	require.IsType(t, &InMemoryRateLimiter{}, limiter)

	requests, window := limiter.GetLimitDetails()
	assert.Equal(t, 30, requests)
	assert.Equal(t, time.Minute, window)
}

func TestNewRedisRateLimiter_DefaultsKeyPrefix(t *testing.T) {
	limiter := NewRedisRateLimiter(nil, 1, time.Second, "", nil)

	assert.Equal(t, DefaultKeyPrefix, limiter.keyPrefix)
}
