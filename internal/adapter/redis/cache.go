// Package redis holds the entitlement expiry cache consumed by the API
// gateway. Keys are "App:<appID>" hashes mapping tenant IDs to expiry
// dates.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/basecloud/tenantd/internal/domain"
)

const (
	keyPrefix  = "App:"
	dateFormat = "2006-01-02"
)

// Compile-time check: Cache implements domain.EntitlementCache.
var _ domain.EntitlementCache = (*Cache)(nil)

// Cache implements domain.EntitlementCache on go-redis.
type Cache struct {
	rdb *redis.Client
}

// New connects to Redis and verifies the connection.
func New(url string) (*Cache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	return &Cache{rdb: rdb}, nil
}

// NewFromClient wraps an existing client.
func NewFromClient(rdb *redis.Client) *Cache {
	return &Cache{rdb: rdb}
}

// Close releases the underlying client.
func (c *Cache) Close() error {
	return c.rdb.Close()
}

// SetExpiry refreshes the tenant's expiry entry in the application's
// hash, but only when the key already exists. The gateway owns key
// creation; this side never invents one.
func (c *Cache) SetExpiry(ctx context.Context, appID, tenantID string, expire time.Time) error {
	key := keyPrefix + appID

	n, err := c.rdb.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("checking cache key %s: %w", key, err)
	}
	if n == 0 {
		return nil
	}

	if err := c.rdb.HSet(ctx, key, tenantID, expire.Format(dateFormat)).Err(); err != nil {
		return fmt.Errorf("updating cache key %s: %w", key, err)
	}
	return nil
}
