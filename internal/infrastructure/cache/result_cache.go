package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisResultCache caches JSON encoded computation results in Redis
type RedisResultCache struct {
	client    *redis.Client
	keyPrefix string
	logger    *zap.Logger
}

// NewRedisResultCache creates a cache over a shared client
func NewRedisResultCache(client *redis.Client, keyPrefix string, logger *zap.Logger) *RedisResultCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisResultCache{client: client, keyPrefix: keyPrefix, logger: logger}
}

// Get decodes the cached value into dest, reporting whether there was one
func (c *RedisResultCache) Get(ctx context.Context, key string, dest any) (bool, error) {
	data, err := c.client.Get(ctx, c.keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		c.logger.Debug("Cache miss", zap.String("key", key))
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read cache key %s: %w", key, err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("failed to decode cache key %s: %w", key, err)
	}
	return true, nil
}

// Set stores value for ttl
func (c *RedisResultCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode cache value: %w", err)
	}
	if err := c.client.Set(ctx, c.keyPrefix+key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to write cache key %s: %w", key, err)
	}
	return nil
}

// DeletePrefix removes every key starting with prefix
func (c *RedisResultCache) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	return deleteByPattern(ctx, c.client, c.keyPrefix+escapePattern(prefix)+"*")
}

// escapePattern escapes the glob characters SCAN MATCH understands
func escapePattern(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '*', '?', '[', ']', '\\':
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}

// InMemoryResultCache caches JSON encoded results within one process
type InMemoryResultCache struct {
	*memoryStore
}

// NewInMemoryResultCache creates a new in-memory result cache
func NewInMemoryResultCache() *InMemoryResultCache {
	return &InMemoryResultCache{memoryStore: newMemoryStore()}
}

// Get decodes the cached value into dest, reporting whether there was one
func (c *InMemoryResultCache) Get(ctx context.Context, key string, dest any) (bool, error) {
	data, ok := c.get(key)
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("failed to decode cache key %s: %w", key, err)
	}
	return true, nil
}

// Set stores value for ttl
func (c *InMemoryResultCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode cache value: %w", err)
	}
	c.set(key, data, ttl)
	return nil
}

// DeletePrefix removes every key starting with prefix
func (c *InMemoryResultCache) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	return c.deletePrefix(prefix), nil
}
