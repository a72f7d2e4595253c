package store

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisHotCache is the production HotCache: a plain SETEX/GET pair,
// best-effort by design — callers treat every error as non-fatal (§7,
// operational faults).
type RedisHotCache struct {
	client *redis.Client
	prefix string
}

func NewRedisHotCache(addr string, db int) *RedisHotCache {
	return &RedisHotCache{
		client: redis.NewClient(&redis.Options{Addr: addr, DB: db}),
		prefix: "quizroom:hot:",
	}
}

func (c *RedisHotCache) Get(ctx context.Context, roomID string) (string, bool, error) {
	v, err := c.client.Get(ctx, c.prefix+roomID).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (c *RedisHotCache) Set(ctx context.Context, roomID, stateJSON string, ttl time.Duration) error {
	return c.client.Set(ctx, c.prefix+roomID, stateJSON, ttl).Err()
}

func (c *RedisHotCache) Close() error { return c.client.Close() }
