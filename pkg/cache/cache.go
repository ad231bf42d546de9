// Package cache provides an optional Redis read-through cache for
// product lookups. Cache failures are never fatal: a miss or an error
// falls through to the database, and every product mutation invalidates
// the cached entry.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/marshallshelly/storefront/pkg/domain"
)

// defaultTTL bounds staleness for cached products.
const defaultTTL = 5 * time.Minute

// ProductCache caches product records by id.
type ProductCache struct {
	client *redis.Client
	ttl    time.Duration
}

// New connects to Redis and returns a ProductCache.
func New(ctx context.Context, addr string) (*ProductCache, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &ProductCache{client: client, ttl: defaultTTL}, nil
}

// Close closes the Redis connection.
func (c *ProductCache) Close() error {
	return c.client.Close()
}

func productKey(id int64) string {
	return fmt.Sprintf("producto:%d", id)
}

// Get returns the cached product, or nil on a miss or any cache error.
func (c *ProductCache) Get(ctx context.Context, id int64) *domain.Product {
	payload, err := c.client.Get(ctx, productKey(id)).Bytes()
	if err != nil {
		return nil
	}
	var p domain.Product
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil
	}
	return &p
}

// Set stores a product. Errors are dropped; the cache is best effort.
func (c *ProductCache) Set(ctx context.Context, p *domain.Product) {
	payload, err := json.Marshal(p)
	if err != nil {
		return
	}
	c.client.Set(ctx, productKey(p.ID), payload, c.ttl)
}

// Invalidate drops the cached entry for a product. Called after every
// product mutation, including stock adjustments.
func (c *ProductCache) Invalidate(ctx context.Context, id int64) {
	c.client.Del(ctx, productKey(id))
}
