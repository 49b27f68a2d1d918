package gate

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisLimiter keeps failure counters in Redis so that every server
// instance sees the same count.
type RedisLimiter struct {
	client *redis.Client
	max    int
	window time.Duration
	prefix string
}

// NewRedisLimiter allows max failures per key within w.
func NewRedisLimiter(client *redis.Client, max int, w time.Duration) *RedisLimiter {
	return &RedisLimiter{client: client, max: max, window: w, prefix: "verify_attempts:"}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	val, err := l.client.Get(ctx, l.prefix+key).Result()
	if err == redis.Nil {
		return true, nil
	}
	if err != nil {
		return true, fmt.Errorf("get attempts: %w", err)
	}

	n, err := strconv.Atoi(val)
	if err != nil {
		return true, fmt.Errorf("parse attempts: %w", err)
	}
	return n < l.max, nil
}

func (l *RedisLimiter) Fail(ctx context.Context, key string) error {
	k := l.prefix + key
	n, err := l.client.Incr(ctx, k).Result()
	if err != nil {
		return fmt.Errorf("incr attempts: %w", err)
	}
	if n == 1 {
		if err := l.client.Expire(ctx, k, l.window).Err(); err != nil {
			return fmt.Errorf("expire attempts: %w", err)
		}
	}
	return nil
}

func (l *RedisLimiter) Reset(ctx context.Context, key string) error {
	if err := l.client.Del(ctx, l.prefix+key).Err(); err != nil {
		return fmt.Errorf("reset attempts: %w", err)
	}
	return nil
}
