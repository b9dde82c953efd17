package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisQuoteCache implements domain.QuoteCache on Redis with a TTL, so a
// quote for a past date is re-fetched rather than served forever.
type RedisQuoteCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisQuoteCache creates a quote cache against the given Redis address.
func NewRedisQuoteCache(addr string, ttl time.Duration) *RedisQuoteCache {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
	})
	return &RedisQuoteCache{
		client: rdb,
		ttl:    ttl,
	}
}

// Ping verifies the Redis connection.
func (c *RedisQuoteCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisQuoteCache) Get(ctx context.Context, key string) (string, bool) {
	val, err := c.client.Get(ctx, key).Result()
	if err != nil {
		return "", false
	}
	return val, true
}

func (c *RedisQuoteCache) Set(ctx context.Context, key string, value string) error {
	return c.client.Set(ctx, key, value, c.ttl).Err()
}

// Close releases the underlying Redis connection.
func (c *RedisQuoteCache) Close() error {
	return c.client.Close()
}
