package summary

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores retrieved results by conversation id. A done conversation's
// output does not change, so entries only expire by TTL.
type Cache interface {
	Get(ctx context.Context, conversationID string) (Result, bool, error)
	Set(ctx context.Context, conversationID string, res Result) error
}

// RedisCache is a Cache backed by redis.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache creates a cache. ttl <= 0 keeps entries forever.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func cacheKey(id string) string {
	return fmt.Sprintf("conversation:%s:summary", id)
}

func (c *RedisCache) Get(ctx context.Context, conversationID string) (Result, bool, error) {
	raw, err := c.client.Get(ctx, cacheKey(conversationID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Result{}, false, nil
	}
	if err != nil {
		return Result{}, false, fmt.Errorf("summary cache: get: %w", err)
	}

	var res Result
	if err := json.Unmarshal(raw, &res); err != nil {
		return Result{}, false, fmt.Errorf("summary cache: decode: %w", err)
	}
	return res, true, nil
}

func (c *RedisCache) Set(ctx context.Context, conversationID string, res Result) error {
	raw, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("summary cache: encode: %w", err)
	}

	ttl := c.ttl
	if ttl < 0 {
		ttl = 0
	}
	if err := c.client.Set(ctx, cacheKey(conversationID), raw, ttl).Err(); err != nil {
		return fmt.Errorf("summary cache: set: %w", err)
	}
	return nil
}
