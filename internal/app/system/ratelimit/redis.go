// internal/app/system/ratelimit/redis.go
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter is a fixed window limiter shared by every instance pointed at
// the same Redis. The first attempt in a window sets the key's expiry and
// later attempts leave it alone.
type RedisLimiter struct {
	client   redis.Cmdable
	prefix   string
	limit    int64
	duration time.Duration
}

// NewRedis returns a limiter that stores counters under prefix:key.
func NewRedis(client redis.Cmdable, prefix string, limit int, duration time.Duration) *RedisLimiter {
	return &RedisLimiter{client: client, prefix: prefix, limit: int64(limit), duration: duration}
}

func (l *RedisLimiter) key(k string) string {
	if l.prefix == "" {
		return k
	}
	return l.prefix + ":" + k
}

// Allow increments the counter for key and reports whether it is within limits.
// The key is created with its expiry and incremented in one MULTI, so a
// counter never exists without a TTL.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	k := l.key(key)
	var incr *redis.IntCmd
	_, err := l.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.SetNX(ctx, k, 0, l.duration)
		incr = p.Incr(ctx, k)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("redis incr: %w", err)
	}
	return incr.Val() <= l.limit, nil
}

// Reset deletes the counter for key.
func (l *RedisLimiter) Reset(ctx context.Context, key string) error {
	if err := l.client.Del(ctx, l.key(key)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
