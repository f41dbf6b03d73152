package rateLimit

import (
	"context"
	"time"

	redisadapter "github.com/Destroyerg0d/studyhub-reservations/internal/adapters/redis"
)

// RateLimiter is a fixed-window counter over redis. Fail-open: a redis
// outage must not take the booking path down with it.
type RateLimiter struct {
	redis *redisadapter.Cache
}

func NewRateLimiter(redis *redisadapter.Cache) *RateLimiter {
	return &RateLimiter{redis: redis}
}

func (rl *RateLimiter) Allow(ctx context.Context, key string, rate int, period time.Duration) bool {
	fullKey := "rl:" + key

	count, err := rl.redis.Client().Incr(ctx, fullKey).Result()
	if err != nil {
		return true
	}
	// Only the first hit arms the window; re-arming on every request
	// would keep a busy key from ever rolling over.
	if count == 1 {
		if err := rl.redis.Client().Expire(ctx, fullKey, period).Err(); err != nil {
			return true
		}
	}
	return count <= int64(rate)
}
