package cache

import (
	"context"
	"time"
)

// Cache is the key-value surface the report store works against. It is
// deliberately small so tests can stand in a miniredis-backed instance and
// a future in-memory implementation stays trivial.
type Cache interface {
	// Get returns the value for key, or "" when the key does not exist.
	Get(ctx context.Context, key string) (string, error)

	// Set stores key with value. A ttl of 0 means the key never expires.
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error

	// Del removes the given keys, ignoring ones that do not exist.
	Del(ctx context.Context, keys ...string) error

	// Ping checks the backing store is reachable.
	Ping(ctx context.Context) error

	Close() error
}
