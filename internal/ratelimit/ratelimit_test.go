package ratelimit

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLimiter(t *testing.T) {
	now := time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)
	l := NewMemoryLimiter(3, time.Minute)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		res, err := l.Allow(ctx, "10.0.0.1:/chat")
		require.NoError(t, err)
		assert.True(t, res.Allowed, "request %d", i)
		assert.Equal(t, 2-i, res.Remaining)
	}

	res, err := l.Allow(ctx, "10.0.0.1:/chat")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 3, res.Limit)
	assert.Equal(t, 20*time.Second, res.ResetAfter)

	other, err := l.Allow(ctx, "10.0.0.2:/chat")
	require.NoError(t, err)
	assert.True(t, other.Allowed, "keys are independent")

	now = now.Add(20 * time.Second)
	res, err = l.Allow(ctx, "10.0.0.1:/chat")
	require.NoError(t, err)
	assert.True(t, res.Allowed, "one token refilled")
}

func TestMemoryLimiter_Prunes(t *testing.T) {
	now := time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)
	l := NewMemoryLimiter(10, time.Second)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 999; i++ {
		_, err := l.Allow(ctx, fmt.Sprintf("client-%d", i))
		require.NoError(t, err)
	}
	assert.Equal(t, 999, l.size())

	now = now.Add(time.Minute)
	_, err := l.Allow(ctx, "fresh")
	require.NoError(t, err)
	assert.Equal(t, 1, l.size())
}

func TestRedisLimiter(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	opt, err := redis.ParseURL(url)
	require.NoError(t, err)
	rdb := redis.NewClient(opt)
	defer rdb.Close()

	ctx := context.Background()
	key := "test:" + uuid.NewString()
	defer rdb.Del(ctx, "ratelimit:"+key)

	l := NewRedisLimiter(rdb, 2, time.Minute)
	for i := 0; i < 2; i++ {
		res, err := l.Allow(ctx, key)
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	}
	res, err := l.Allow(ctx, key)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Zero(t, res.Remaining)
	assert.LessOrEqual(t, res.ResetAfter, time.Minute)
}
