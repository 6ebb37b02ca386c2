package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRateLimiter_FixedWindow(t *testing.T) {
	limiter, err := NewMemoryRateLimiter(100)
	require.NoError(t, err)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 1; i <= 100; i++ {
		res, err := limiter.Allow(ctx, "api:203.0.113.7", 100, 15*time.Minute)
		require.NoError(t, err)
		require.True(t, res.Allowed, "request %d", i)
	}

	now = now.Add(10 * time.Minute)
	res, err := limiter.Allow(ctx, "api:203.0.113.7", 100, 15*time.Minute)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 0, res.Remaining)
	assert.Equal(t, 5*time.Minute, res.ResetAfter)

	now = now.Add(5 * time.Minute)
	res, err = limiter.Allow(ctx, "api:203.0.113.7", 100, 15*time.Minute)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 99, res.Remaining)
	assert.Equal(t, 15*time.Minute, res.ResetAfter)
}

func TestMemoryRateLimiter_Release(t *testing.T) {
	limiter, err := NewMemoryRateLimiter(100)
	require.NoError(t, err)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := limiter.Allow(ctx, "login:203.0.113.7", 5, 15*time.Minute)
		require.NoError(t, err)
		require.NoError(t, limiter.Release(ctx, "login:203.0.113.7"))
	}
	res, err := limiter.Allow(ctx, "login:203.0.113.7", 5, 15*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 4, res.Remaining)

	// Unknown keys are a no-op.
	assert.NoError(t, limiter.Release(ctx, "login:198.51.100.1"))
}

func TestMemoryRateLimiter_Capacity(t *testing.T) {
	limiter, err := NewMemoryRateLimiter(2)
	require.NoError(t, err)
	ctx := context.Background()

	for _, key := range []string{"api:a", "api:b", "api:c"} {
		_, err := limiter.Allow(ctx, key, 1, time.Minute)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, limiter.Len())

	// The evicted key starts a fresh window.
	res, err := limiter.Allow(ctx, "api:a", 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestNewMemoryRateLimiter_InvalidCapacity(t *testing.T) {
	_, err := NewMemoryRateLimiter(0)
	assert.Error(t, err)
}
