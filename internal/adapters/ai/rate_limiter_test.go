package ai

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenBucketLimiterBurst(t *testing.T) {
	limiter := NewTokenBucketLimiter(ProviderNameOpenAI, 60, 3)

	assert.True(t, limiter.Allow())
	assert.True(t, limiter.Allow())
	assert.True(t, limiter.Allow())
	assert.False(t, limiter.Allow())
	assert.Equal(t, 60.0, limiter.Limit())
}

func TestTokenBucketLimiterRefill(t *testing.T) {
	// 600 req/min = 10 req/sec, so one token refills in 100ms.
	limiter := NewTokenBucketLimiter(ProviderNameOpenAI, 600, 1)

	require.True(t, limiter.Allow())
	require.False(t, limiter.Allow())

	time.Sleep(150 * time.Millisecond)
	assert.True(t, limiter.Allow())
}

func TestTokenBucketLimiterDefaultBurst(t *testing.T) {
	limiter := NewTokenBucketLimiter(ProviderNameAnthropic, 50, 0)
	assert.Equal(t, 5, limiter.burst)

	// Very low rates still get a burst of at least one.
	limiter = NewTokenBucketLimiter(ProviderNameAnthropic, 5, 0)
	assert.Equal(t, 1, limiter.burst)
}

func TestTokenBucketLimiterWaitCancelled(t *testing.T) {
	limiter := NewTokenBucketLimiter(ProviderNameOpenAI, 1, 1)
	require.True(t, limiter.Allow())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := limiter.Wait(ctx)
	require.Error(t, err)
}

func TestNoOpLimiter(t *testing.T) {
	limiter := NewNoOpLimiter()

	assert.True(t, limiter.Allow())
	assert.NoError(t, limiter.Wait(context.Background()))
	assert.Equal(t, -1.0, limiter.Limit())
}

func TestRateLimiterFactory(t *testing.T) {
	factory := NewRateLimiterFactory(nil)

	limiter := factory.Create(ProviderNameOpenAI, RateLimitConfig{Enabled: true, ReqPerMinute: 500})
	_, ok := limiter.(*TokenBucketLimiter)
	assert.True(t, ok)

	limiter = factory.Create(ProviderNameLocal, RateLimitConfig{Enabled: false})
	_, ok = limiter.(*NoOpLimiter)
	assert.True(t, ok)

	limiter = factory.Create(ProviderNameLocal, RateLimitConfig{Enabled: true, ReqPerMinute: 0})
	_, ok = limiter.(*NoOpLimiter)
	assert.True(t, ok)
}

func TestRedisRateLimiter(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	limiter := NewRedisRateLimiter(client, ProviderNameOpenAI, 60, 2)
	assert.Equal(t, 60.0, limiter.Limit())

	ctx := context.Background()

	assert.True(t, limiter.Allow())
	assert.True(t, limiter.Allow())
	assert.False(t, limiter.Allow())

	require.NoError(t, limiter.Reset(ctx))
	assert.True(t, limiter.Allow())
}

func TestRedisRateLimiterFactorySelection(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	factory := NewRateLimiterFactory(client)
	limiter := factory.Create(ProviderNameAnthropic, RateLimitConfig{Enabled: true, ReqPerMinute: 50})
	_, ok := limiter.(*RedisRateLimiter)
	assert.True(t, ok)
}
