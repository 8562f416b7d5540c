package middleware

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter - фиксированное окно в Redis (INCR + EXPIRE NX), общее для всех реплик
type RedisLimiter struct {
	client redis.Cmdable
	rpm    int
	window time.Duration
	prefix string
}

func NewRedisLimiter(client redis.Cmdable, rpm int) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		rpm:    rpm,
		window: time.Minute,
		prefix: "rl:task-api:",
	}
}

func (l *RedisLimiter) Name() string {
	return "redis"
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (LimitResult, error) {
	redisKey := l.prefix + strconv.FormatInt(int64(l.window.Seconds()), 10) + ":" + key

	var (
		incr *redis.IntCmd
		pttl *redis.DurationCmd
	)
	_, err := l.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, redisKey)
		pipe.ExpireNX(ctx, redisKey, l.window)
		pttl = pipe.PTTL(ctx, redisKey)
		return nil
	})
	if err != nil {
		return LimitResult{}, fmt.Errorf("redis rate limit: %w", err)
	}

	count := incr.Val()
	ttl := pttl.Val()
	if ttl <= 0 {
		ttl = l.window
	}

	return LimitResult{
		Allowed:   count <= int64(l.rpm),
		Limit:     l.rpm,
		Remaining: l.rpm - int(count),
		ResetAt:   time.Now().Add(ttl),
	}, nil
}
