package services

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLimiter(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLimiter(2, time.Minute)
	now := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		ok, err := l.Allow(ctx, "1.2.3.4:login")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, _ := l.Allow(ctx, "1.2.3.4:login")
	assert.False(t, ok)

	ok, _ = l.Allow(ctx, "5.6.7.8:login")
	assert.True(t, ok, "other callers have their own window")

	now = now.Add(time.Minute + time.Second)
	ok, _ = l.Allow(ctx, "1.2.3.4:login")
	assert.True(t, ok, "window resets")
}

func TestMemoryLimiterPrunesPastThreshold(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLimiter(5, time.Minute)
	now := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	l.pruneAt = 3

	for _, ip := range []string{"10.0.0.1", "10.0.0.2"} {
		_, err := l.Allow(ctx, ip+":login")
		require.NoError(t, err)
	}
	now = now.Add(2 * time.Minute)

	_, _ = l.Allow(ctx, "10.0.0.3:login")
	assert.Len(t, l.buckets, 3, "expired windows stay until the threshold")

	_, _ = l.Allow(ctx, "10.0.0.4:login")
	assert.Len(t, l.buckets, 2, "sweep keeps only live windows")
	assert.Equal(t, minPruneSize, l.pruneAt)
}

func TestRedisLimiter(t *testing.T) {
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}
	ctx := context.Background()
	rdb, err := NewRedisClient(ctx, url)
	require.NoError(t, err)
	defer rdb.Close()

	l := NewRedisLimiter(rdb, 2, time.Minute)
	key := "test:" + uuid.NewString()
	defer rdb.Del(ctx, l.prefix+key)

	for i := 0; i < 2; i++ {
		ok, err := l.Allow(ctx, key)
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, err := l.Allow(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	ttl, err := rdb.TTL(ctx, l.prefix+key).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}
