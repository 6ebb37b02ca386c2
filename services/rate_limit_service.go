package services

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sintudecorators/contact-backend/types"
)

// releaseScript decrements a live counter without creating or resurrecting
// an expired one.
var releaseScript = redis.NewScript(`
local v = redis.call('GET', KEYS[1])
if v and tonumber(v) > 0 then
	return redis.call('DECR', KEYS[1])
end
return 0
`)

// RedisRateLimiter counts fixed windows in Redis so the limits hold across
// every instance sharing the same Redis.
type RedisRateLimiter struct {
	redis     *redis.Client
	keyPrefix string
}

func NewRedisRateLimiter(client *redis.Client) *RedisRateLimiter {
	return &RedisRateLimiter{
		redis:     client,
		keyPrefix: "rate_limit:",
	}
}

// Allow increments the counter for key. The window starts with the first
// request and is not extended by later ones.
func (s *RedisRateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (types.RateLimitResult, error) {
	rKey := s.keyPrefix + key

	pipe := s.redis.TxPipeline()
	incr := pipe.Incr(ctx, rKey)
	pttl := pipe.PTTL(ctx, rKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return types.RateLimitResult{}, fmt.Errorf("rate limit increment failed: %w", err)
	}

	resetAfter := pttl.Val()
	if resetAfter < 0 {
		// New window, or a counter that lost its expiry.
		if err := s.redis.PExpire(ctx, rKey, window).Err(); err != nil {
			return types.RateLimitResult{}, fmt.Errorf("rate limit expire failed: %w", err)
		}
		resetAfter = window
	}

	count := int(incr.Val())
	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}
	return types.RateLimitResult{
		Allowed:    count <= limit,
		Limit:      limit,
		Remaining:  remaining,
		ResetAfter: resetAfter,
	}, nil
}

// Release returns one slot to the current window of key.
func (s *RedisRateLimiter) Release(ctx context.Context, key string) error {
	if err := releaseScript.Run(ctx, s.redis, []string{s.keyPrefix + key}).Err(); err != nil {
		return fmt.Errorf("rate limit release failed: %w", err)
	}
	return nil
}
