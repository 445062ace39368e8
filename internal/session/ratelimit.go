package session

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Decision is the outcome of a rate-limit check.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// Allow counts one request for key in a fixed window. A counter without an
// expiry gets one, so every window resets itself.
func (s *RedisStore) Allow(ctx context.Context, key string, limit int, window time.Duration) (Decision, error) {
	if limit <= 0 {
		return Decision{Allowed: true}, nil
	}

	redisKey := s.ratePrefix + key
	var (
		incr *redis.IntCmd
		ttl  *redis.DurationCmd
	)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, redisKey)
		ttl = pipe.PTTL(ctx, redisKey)
		return nil
	})
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit %s: %w", key, err)
	}
	if ttl.Val() < 0 {
		if err := s.client.PExpire(ctx, redisKey, window).Err(); err != nil {
			return Decision{}, fmt.Errorf("rate limit expiry %s: %w", key, err)
		}
	}

	count := int(incr.Val())
	if count > limit {
		retry := ttl.Val()
		if retry <= 0 || retry > window {
			retry = window
		}
		return Decision{Allowed: false, Remaining: 0, RetryAfter: retry}, nil
	}
	return Decision{Allowed: true, Remaining: limit - count}, nil
}
