package rediscache

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// RateLimitStore is a fixed-window counter shared by every API instance.
type RateLimitStore struct {
	c      *redis.Client
	prefix string
}

func NewRateLimitStore(c *redis.Client) *RateLimitStore {
	return &RateLimitStore{c: c, prefix: "rl:"}
}

// Hit は INCR して、窓の最初の1回だけ TTL を付ける。
func (s *RateLimitStore) Hit(ctx context.Context, key string, now time.Time, window time.Duration) (int64, time.Time, error) {
	k := s.prefix + key

	pipe := s.c.TxPipeline()
	incr := pipe.Incr(ctx, k)
	ttl := pipe.PTTL(ctx, k)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, time.Time{}, errors.Wrap(err, "redis ratelimit")
	}

	n := incr.Val()
	left := ttl.Val()
	// 新しい窓（またはTTLが付いていないキー）
	if n == 1 || left < 0 {
		if err := s.c.PExpire(ctx, k, window).Err(); err != nil {
			return 0, time.Time{}, errors.Wrap(err, "redis ratelimit expire")
		}
		left = window
	}
	return n, now.Add(left), nil
}
