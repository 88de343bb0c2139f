// internal/cache/redis.go
package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultKeyPrefix namespaces idempotency entries in a shared Redis.
const DefaultKeyPrefix = "wallet:idem:"

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// RedisIdempotencyCache implements IdempotencyCache on Redis, shared by all instances.
type RedisIdempotencyCache struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisIdempotencyCache connects to Redis and verifies the connection.
func NewRedisIdempotencyCache(cfg RedisConfig) (*RedisIdempotencyCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisIdempotencyCacheWithClient(client, DefaultKeyPrefix), nil
}

// NewRedisIdempotencyCacheWithClient wraps an existing client.
func NewRedisIdempotencyCacheWithClient(client *redis.Client, keyPrefix string) *RedisIdempotencyCache {
	if keyPrefix == "" {
		keyPrefix = DefaultKeyPrefix
	}
	return &RedisIdempotencyCache{client: client, keyPrefix: keyPrefix}
}

// Get reads the cached transaction id.
func (c *RedisIdempotencyCache) Get(ctx context.Context, key string) (int64, bool, error) {
	val, err := c.client.Get(ctx, c.keyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to read idempotency cache: %w", err)
	}
	id, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("corrupt idempotency cache entry %q: %w", key, err)
	}
	return id, true, nil
}

// Put uses SETNX so the first writer's mapping is kept.
func (c *RedisIdempotencyCache) Put(ctx context.Context, key string, transactionID int64, ttl time.Duration) error {
	if err := c.client.SetNX(ctx, c.keyPrefix+key, strconv.FormatInt(transactionID, 10), ttl).Err(); err != nil {
		return fmt.Errorf("failed to write idempotency cache: %w", err)
	}
	return nil
}

// Close closes the Redis client.
func (c *RedisIdempotencyCache) Close() error {
	return c.client.Close()
}

var _ IdempotencyCache = (*RedisIdempotencyCache)(nil)
