package cache

import (
	"context"
	"errors"
	"time"
)

var ErrCacheMiss = errors.New("cache: key not found")

// Service defines the cache operations shared by the memory and Redis backends.
type Service interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, keys ...string) (bool, error)
	// IncrWithTTL increments a counter and starts its expiry when the counter
	// is created. Both happen atomically.
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	// TTL follows Redis conventions: -2 for a missing key, -1 for no expiry.
	TTL(ctx context.Context, key string) (time.Duration, error)
	Close() error
}
