package services

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss is returned by a Cache when the key is absent or expired.
var ErrCacheMiss = errors.New("cache miss")

// Cache is the shared key-value store behind the note cache. Values are
// opaque bytes; a ttl of zero means the entry does not expire.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete removes the keys. Keys that are already absent are not an error.
	Delete(ctx context.Context, keys ...string) error
}
