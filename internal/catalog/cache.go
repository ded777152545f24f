package catalog

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	categoriesKey     = "catalog:categories"
	categoryKeyPrefix = "catalog:category:"
	productsKey       = "catalog:products"
	productKeyPrefix  = "catalog:product:"
)

// Cache stores public catalog responses as JSON in Redis. A nil cache or nil
// client degrades to pass-through, so handlers never branch on availability.
type Cache struct {
	Client *redis.Client
	TTL    time.Duration
}

// GetJSON loads a cached payload into dst. It reports whether the key existed.
func (c *Cache) GetJSON(ctx context.Context, key string, dst any) (bool, error) {
	if c == nil || c.Client == nil || key == "" {
		return false, nil
	}
	data, err := c.Client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON serialises v and stores it under key with the configured TTL.
func (c *Cache) SetJSON(ctx context.Context, key string, v any) error {
	if c == nil || c.Client == nil || key == "" {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.Client.Set(ctx, key, data, c.TTL).Err()
}

// Invalidate drops the given keys. Admin writes call this so public reads
// never serve a stale catalog longer than one request.
func (c *Cache) Invalidate(ctx context.Context, keys ...string) error {
	if c == nil || c.Client == nil || len(keys) == 0 {
		return nil
	}
	return c.Client.Del(ctx, keys...).Err()
}

func categoryKey(id string) string {
	return categoryKeyPrefix + id
}

func productKey(id string) string {
	return productKeyPrefix + id
}
