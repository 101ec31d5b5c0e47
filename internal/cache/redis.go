package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/goliatone/go-resource-cms/pkg/interfaces"
)

// tombstoneWire is the redis representation of Tombstone.
const tombstoneWire = "\x00cms:tombstone"

// RedisProvider is a CacheProvider backed by redis. Values are stored as
// JSON and returned from Get as json.RawMessage; ModelCache decodes them.
type RedisProvider struct {
	client     redis.UniversalClient
	prefix     string
	defaultTTL time.Duration
}

// RedisOptions configures NewRedisProvider.
type RedisOptions struct {
	URL        string
	Prefix     string
	DefaultTTL time.Duration
	// DialTimeout also bounds the startup ping.
	DialTimeout time.Duration
}

var (
	_ interfaces.CacheProvider = (*RedisProvider)(nil)
	_ interfaces.CacheAdder    = (*RedisProvider)(nil)
)

// NewRedisProvider connects to opts.URL and pings the server.
func NewRedisProvider(ctx context.Context, opts RedisOptions) (*RedisProvider, error) {
	if opts.URL == "" {
		return nil, errors.New("cache: redis url is required")
	}
	parsed, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("cache: parse redis url: %w", err)
	}
	timeout := opts.DialTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	parsed.DialTimeout = timeout
	client := redis.NewClient(parsed)

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("cache: redis ping: %w", err)
	}
	return NewRedisProviderWithClient(client, opts.Prefix, opts.DefaultTTL), nil
}

// NewRedisProviderWithClient wraps an existing client.
func NewRedisProviderWithClient(client redis.UniversalClient, prefix string, defaultTTL time.Duration) *RedisProvider {
	return &RedisProvider{client: client, prefix: prefix, defaultTTL: defaultTTL}
}

func (p *RedisProvider) Get(ctx context.Context, key string) (any, error) {
	raw, err := p.client.Get(ctx, p.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, interfaces.ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}
	if string(raw) == tombstoneWire {
		return Tombstone, nil
	}
	return json.RawMessage(raw), nil
}

func (p *RedisProvider) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	payload, err := encode(value)
	if err != nil {
		return err
	}
	return p.client.Set(ctx, p.prefix+key, payload, p.ttl(ttl)).Err()
}

// Add stores value with SET NX.
func (p *RedisProvider) Add(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	payload, err := encode(value)
	if err != nil {
		return false, err
	}
	return p.client.SetNX(ctx, p.prefix+key, payload, p.ttl(ttl)).Result()
}

func (p *RedisProvider) Delete(ctx context.Context, key string) error {
	return p.client.Del(ctx, p.prefix+key).Err()
}

// Clear removes every key under the provider prefix.
func (p *RedisProvider) Clear(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := p.client.Scan(ctx, cursor, p.prefix+"*", 100).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := p.client.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		if cursor = next; cursor == 0 {
			return nil
		}
	}
}

func (p *RedisProvider) Close() error {
	return p.client.Close()
}

func (p *RedisProvider) ttl(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return p.defaultTTL
	}
	return ttl
}

func encode(value any) ([]byte, error) {
	if IsTombstone(value) {
		return []byte(tombstoneWire), nil
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("cache: encode %T: %w", value, err)
	}
	return payload, nil
}
