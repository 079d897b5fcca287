package iot

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"liyu1981.xyz/device-telemetry-service/pkg/models"
)

// RedisRateLimiter is a fixed window counter shared by every process that
// points at the same redis.
type RedisRateLimiter struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

func NewRedisRateLimiter(client *redis.Client) *RedisRateLimiter {
	return &RedisRateLimiter{
		client: client,
		prefix: "ratelimit",
		now:    time.Now,
	}
}

func (r *RedisRateLimiter) windowKey(key string, policy models.RatePolicy) string {
	bucket := r.now().UnixNano() / int64(policy.Window)
	return fmt.Sprintf("%s:%s:%s:%d", r.prefix, policy.Name, key, bucket)
}

func (r *RedisRateLimiter) Allow(ctx context.Context, key string, policy models.RatePolicy) (bool, error) {
	windowKey := r.windowKey(key, policy)

	pipe := r.client.TxPipeline()
	incr := pipe.Incr(ctx, windowKey)
	pipe.Expire(ctx, windowKey, policy.Window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("rate limit counter %s: %w", policy.Name, err)
	}

	return incr.Val() <= int64(policy.Capacity), nil
}
