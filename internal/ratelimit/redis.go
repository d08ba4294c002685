package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter is a fixed-window counter shared by every replica using the same Redis.
type RedisLimiter struct {
	rdb    *redis.Client
	prefix string
	reqs   int
	window time.Duration
}

func NewRedisLimiter(rdb *redis.Client, reqs int, window time.Duration) *RedisLimiter {
	if reqs <= 0 {
		reqs = 60
	}
	if window <= 0 {
		window = time.Minute
	}
	return &RedisLimiter{rdb: rdb, prefix: "ratelimit:", reqs: reqs, window: window}
}

func (r *RedisLimiter) Allow(ctx context.Context, key string) (Result, error) {
	redisKey := r.prefix + key

	count, err := r.rdb.Incr(ctx, redisKey).Result()
	if err != nil {
		return Result{}, fmt.Errorf("rate limit incr: %w", err)
	}

	// Set expiration on first request
	if count == 1 {
		if err := r.rdb.Expire(ctx, redisKey, r.window).Err(); err != nil {
			return Result{}, fmt.Errorf("rate limit expire: %w", err)
		}
	}

	ttl, err := r.rdb.TTL(ctx, redisKey).Result()
	if err != nil || ttl < 0 {
		ttl = r.window
	}

	remaining := r.reqs - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return Result{
		Allowed:    count <= int64(r.reqs),
		Limit:      r.reqs,
		Remaining:  remaining,
		ResetAfter: ttl,
	}, nil
}
