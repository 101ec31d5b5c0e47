package interfaces

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss is returned by providers when a key is absent or expired.
var ErrCacheMiss = errors.New("cache: miss")

// CacheProvider stores arbitrary values keyed by string with a TTL.
// A ttl of zero means the provider default.
type CacheProvider interface {
	Get(ctx context.Context, key string) (any, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}

// CacheAdder is an optional extension for providers that can store a value
// only when the key is not already present. It reports whether the value
// was stored.
type CacheAdder interface {
	Add(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
}
