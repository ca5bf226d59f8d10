package cache

import (
	"context"
	"time"

	"github.com/aq2208/payment-api/internal/usecase"
	"github.com/redis/go-redis/v9"
)

// RedisStatusCache serves the front end's payment-status polling so the
// poll loop does not hammer MySQL. Writes are best-effort; the repo is
// always the source of truth.
type RedisStatusCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStatusCache(rdb *redis.Client, ttl time.Duration) *RedisStatusCache {
	return &RedisStatusCache{rdb: rdb, ttl: ttl}
}

func (c *RedisStatusCache) SetStatus(ctx context.Context, orderNo string, status string) error {
	return c.rdb.Set(ctx, "order:status:"+orderNo, status, c.ttl).Err()
}

func (c *RedisStatusCache) GetStatus(ctx context.Context, orderNo string) (string, bool, error) {
	val, err := c.rdb.Get(ctx, "order:status:"+orderNo).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

var _ usecase.StatusCache = (*RedisStatusCache)(nil)
