package repository

import (
	"context"
	"fmt"
	"time"
)

// RateLimiter implements a fixed-window counter in Redis. The key is
// bucketed by window so counters reset without cleanup.
type RateLimiter struct {
	db *RedisDB
}

// Allow increments the counter for the caller's current window and
// reports whether it stays within limit. The remaining count is
// returned for rate-limit response headers.
func (r *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, int, error) {
	bucket := time.Now().Unix() / int64(window.Seconds())
	redisKey := fmt.Sprintf("rate_limit:%s:%d", key, bucket)

	pipe := r.db.client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, fmt.Errorf("redis rate limit: %w", err)
	}

	count := int(incr.Val())
	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}
	return count <= limit, remaining, nil
}
