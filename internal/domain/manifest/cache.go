package manifest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache keeps the manifest index between process starts.
type Cache interface {
	// Index returns the content paths for locale, or ErrCacheMiss.
	Index(ctx context.Context, locale string) (map[string]string, error)
	StoreIndex(ctx context.Context, locale string, paths map[string]string, ttl time.Duration) error
}

const indexKeyPrefix = "manifest:index:"

// RedisCache stores the index as a JSON value per locale.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache wraps an existing client.
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

var _ Cache = (*RedisCache)(nil)

// Index implements Cache.
func (c *RedisCache) Index(ctx context.Context, locale string) (map[string]string, error) {
	data, err := c.client.Get(ctx, indexKeyPrefix+locale).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("read manifest index: %w", err)
	}
	var paths map[string]string
	if err := json.Unmarshal(data, &paths); err != nil {
		return nil, fmt.Errorf("decode manifest index: %w", err)
	}
	return paths, nil
}

// StoreIndex implements Cache.
func (c *RedisCache) StoreIndex(ctx context.Context, locale string, paths map[string]string, ttl time.Duration) error {
	data, err := json.Marshal(paths)
	if err != nil {
		return fmt.Errorf("encode manifest index: %w", err)
	}
	if err := c.client.Set(ctx, indexKeyPrefix+locale, data, ttl).Err(); err != nil {
		return fmt.Errorf("write manifest index: %w", err)
	}
	return nil
}
