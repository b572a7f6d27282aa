//go:build integration

package ratelimit

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func redisClient(t *testing.T) *redis.Client {
	t.Helper()

	url := os.Getenv("TASKHUB_REDIS_URL")
	if url == "" {
		url = "redis://localhost:6379/0"
	}
	opts, err := redis.ParseURL(url)
	require.NoError(t, err)

	client := redis.NewClient(opts)
	t.Cleanup(func() { _ = client.Close() })

	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("redis not available: %v", err)
	}
	return client
}

func TestSlidingWindow_DeniesAfterLimit(t *testing.T) {
	client := redisClient(t)
	ctx := context.Background()

	prefix := "test:ratelimit:" + uuid.NewString() + ":"
	t.Cleanup(func() {
		client.Del(ctx, prefix+"198.51.100.1", prefix+"198.51.100.1:seq", prefix+"198.51.100.2", prefix+"198.51.100.2:seq")
	})

	limiter := NewSlidingWindow(client, 3, time.Minute, prefix)

	for i := 0; i < 3; i++ {
		res, err := limiter.Allow(ctx, "198.51.100.1")
		require.NoError(t, err)
		assert.True(t, res.Allowed, "request %d", i+1)
		assert.Equal(t, 3-i-1, res.Remaining)
	}

	res, err := limiter.Allow(ctx, "198.51.100.1")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 0, res.Remaining)
	assert.Greater(t, res.RetryAfter, time.Duration(0))
	assert.LessOrEqual(t, res.RetryAfter, time.Minute)

	other, err := limiter.Allow(ctx, "198.51.100.2")
	require.NoError(t, err)
	assert.True(t, other.Allowed, "keys are limited independently")
}

func TestSlidingWindow_WindowSlides(t *testing.T) {
	client := redisClient(t)
	ctx := context.Background()

	prefix := "test:ratelimit:" + uuid.NewString() + ":"
	t.Cleanup(func() { client.Del(ctx, prefix+"k", prefix+"k:seq") })

	limiter := NewSlidingWindow(client, 1, time.Minute, prefix)
	start := time.Now()
	limiter.now = func() time.Time { return start }

	res, err := limiter.Allow(ctx, "k")
	require.NoError(t, err)
	require.True(t, res.Allowed)

	res, err = limiter.Allow(ctx, "k")
	require.NoError(t, err)
	require.False(t, res.Allowed)

	limiter.now = func() time.Time { return start.Add(time.Minute + time.Second) }
	res, err = limiter.Allow(ctx, "k")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}
