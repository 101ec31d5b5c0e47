package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/goliatone/go-resource-cms/internal/logging"
	"github.com/goliatone/go-resource-cms/pkg/interfaces"
)

type tombstone struct{}

// Tombstone is stored in place of a primary entry after a write. Readers
// treat it as a miss until it expires.
var Tombstone any = tombstone{}

// IsTombstone reports whether v is the Tombstone marker.
func IsTombstone(v any) bool {
	_, ok := v.(tombstone)
	return ok
}

// Model describes how ModelCache derives keys from a value.
type Model[T any] struct {
	Namespace string
	// PrimaryKey returns the value's primary key.
	PrimaryKey func(T) string
	// Attribute returns a named attribute used for secondary lookups.
	Attribute func(v T, name string) (any, bool)
}

// ModelCache is a cache-aside store for model values: a primary entry per
// primary key plus reference entries mapping attribute values to primary
// keys. A secondary lookup is a two-hop dereference and any broken hop is a
// miss. Provider failures are logged and reported as misses.
type ModelCache[T any] struct {
	provider     interfaces.CacheProvider
	model        Model[T]
	ttl          time.Duration
	tombstoneTTL time.Duration
	logger       interfaces.Logger
}

// ModelOption configures a ModelCache.
type ModelOption func(*modelConfig)

type modelConfig struct {
	ttl          time.Duration
	tombstoneTTL time.Duration
	logger       interfaces.Logger
}

// WithTTL sets the lifetime of primary and reference entries. Zero defers
// to the provider default.
func WithTTL(ttl time.Duration) ModelOption {
	return func(c *modelConfig) { c.ttl = ttl }
}

// WithTombstoneTTL sets how long tombstones live. Defaults to 5 seconds.
func WithTombstoneTTL(ttl time.Duration) ModelOption {
	return func(c *modelConfig) {
		if ttl > 0 {
			c.tombstoneTTL = ttl
		}
	}
}

func WithLogger(logger interfaces.Logger) ModelOption {
	return func(c *modelConfig) { c.logger = logger }
}

// DefaultTombstoneTTL bounds the staleness window after a write.
const DefaultTombstoneTTL = 5 * time.Second

// NewModelCache returns a ModelCache over provider. A nil provider yields a
// cache that always misses.
func NewModelCache[T any](provider interfaces.CacheProvider, model Model[T], opts ...ModelOption) *ModelCache[T] {
	cfg := modelConfig{tombstoneTTL: DefaultTombstoneTTL}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &ModelCache[T]{
		provider:     provider,
		model:        model,
		ttl:          cfg.ttl,
		tombstoneTTL: cfg.tombstoneTTL,
		logger:       logging.OrNoOp(cfg.logger),
	}
}

// Enabled reports whether a provider is configured.
func (c *ModelCache[T]) Enabled() bool {
	return c != nil && c.provider != nil
}

// PrimaryKey returns the cache key of the primary entry for pk.
func (c *ModelCache[T]) PrimaryKey(pk any) string {
	return Key(c.model.Namespace, PrimaryAttr, pk)
}

// ReferenceKey returns the cache key of the reference entry for attrs.
func (c *ModelCache[T]) ReferenceKey(attrs map[string]any) string {
	return GenerateKey(c.model.Namespace, attrs)
}

// Set stores v under its primary key, replacing tombstones.
func (c *ModelCache[T]) Set(ctx context.Context, v T) error {
	if !c.Enabled() {
		return nil
	}
	return c.provider.Set(ctx, c.PrimaryKey(c.model.PrimaryKey(v)), v, c.ttl)
}

// Add stores v under its primary key unless an entry, including a
// tombstone, is already present. Readers populating after a miss use Add
// so they never overwrite a writer's tombstone.
func (c *ModelCache[T]) Add(ctx context.Context, v T) (bool, error) {
	if !c.Enabled() {
		return false, nil
	}
	key := c.PrimaryKey(c.model.PrimaryKey(v))
	if adder, ok := c.provider.(interfaces.CacheAdder); ok {
		return adder.Add(ctx, key, v, c.ttl)
	}
	if _, err := c.provider.Get(ctx, key); err == nil {
		return false, nil
	} else if !errors.Is(err, interfaces.ErrCacheMiss) {
		return false, err
	}
	return true, c.provider.Set(ctx, key, v, c.ttl)
}

// Get returns the value cached for pk. The boolean is false on a miss,
// a tombstone or a provider error.
func (c *ModelCache[T]) Get(ctx context.Context, pk any) (T, bool) {
	if !c.Enabled() {
		var zero T
		return zero, false
	}
	return c.load(ctx, c.PrimaryKey(pk))
}

// Clear replaces the primary entry of v with a tombstone.
func (c *ModelCache[T]) Clear(ctx context.Context, v T) error {
	if !c.Enabled() {
		return nil
	}
	return c.ClearKey(ctx, c.model.PrimaryKey(v))
}

// ClearKey tombstones the primary entry for pk.
func (c *ModelCache[T]) ClearKey(ctx context.Context, pk any) error {
	if !c.Enabled() {
		return nil
	}
	return c.provider.Set(ctx, c.PrimaryKey(pk), Tombstone, c.tombstoneTTL)
}

// SetByAttribute stores v under its primary key and then points the
// reference entry for the named attributes at that key.
func (c *ModelCache[T]) SetByAttribute(ctx context.Context, v T, attrs ...string) error {
	if !c.Enabled() {
		return nil
	}
	if err := c.Set(ctx, v); err != nil {
		return err
	}
	return c.setReference(ctx, v, attrs)
}

// AddByAttribute is SetByAttribute with Add semantics on the primary entry.
// The reference entry is written even when the primary entry was kept; a
// reference to a tombstoned key still resolves to a miss.
func (c *ModelCache[T]) AddByAttribute(ctx context.Context, v T, attrs ...string) error {
	if !c.Enabled() {
		return nil
	}
	if _, err := c.Add(ctx, v); err != nil {
		return err
	}
	return c.setReference(ctx, v, attrs)
}

func (c *ModelCache[T]) setReference(ctx context.Context, v T, names []string) error {
	if len(names) == 0 {
		return fmt.Errorf("cache: %s reference needs an attribute", c.model.Namespace)
	}
	attrs := make(map[string]any, len(names))
	for _, name := range names {
		value, ok := c.attribute(v, name)
		if !ok {
			return fmt.Errorf("cache: %s has no attribute %q", c.model.Namespace, name)
		}
		attrs[name] = value
	}
	return c.provider.Set(ctx, c.ReferenceKey(attrs), c.model.PrimaryKey(v), c.ttl)
}

// GetByAttribute resolves attr=value through its reference entry.
func (c *ModelCache[T]) GetByAttribute(ctx context.Context, attr string, value any) (T, bool) {
	return c.GetByAttributes(ctx, map[string]any{attr: value})
}

// GetByAttributes resolves a reference entry, then the primary entry it
// points to. A primary entry whose attributes no longer match is a miss.
func (c *ModelCache[T]) GetByAttributes(ctx context.Context, attrs map[string]any) (T, bool) {
	var zero T
	if !c.Enabled() || len(attrs) == 0 {
		return zero, false
	}
	refKey := c.ReferenceKey(attrs)
	raw, err := c.provider.Get(ctx, refKey)
	if err != nil {
		c.logMiss(refKey, err)
		return zero, false
	}
	var pk string
	if !decode(raw, &pk) {
		return zero, false
	}
	v, ok := c.Get(ctx, pk)
	if !ok {
		return zero, false
	}
	for name, want := range attrs {
		if current, has := c.attribute(v, name); has && formatAttr(current) != formatAttr(want) {
			return zero, false
		}
	}
	return v, true
}

// Forget drops the reference entry for attrs.
func (c *ModelCache[T]) Forget(ctx context.Context, attrs map[string]any) error {
	if !c.Enabled() {
		return nil
	}
	return c.provider.Delete(ctx, c.ReferenceKey(attrs))
}

func (c *ModelCache[T]) attribute(v T, attr string) (any, bool) {
	if attr == PrimaryAttr {
		return c.model.PrimaryKey(v), true
	}
	if c.model.Attribute == nil {
		return nil, false
	}
	return c.model.Attribute(v, attr)
}

func (c *ModelCache[T]) load(ctx context.Context, key string) (T, bool) {
	var zero T
	if !c.Enabled() {
		return zero, false
	}
	raw, err := c.provider.Get(ctx, key)
	if err != nil {
		c.logMiss(key, err)
		return zero, false
	}
	var v T
	if !decode(raw, &v) {
		return zero, false
	}
	return v, true
}

func (c *ModelCache[T]) logMiss(key string, err error) {
	if errors.Is(err, interfaces.ErrCacheMiss) {
		return
	}
	c.logger.Warn("cache.provider.error", logging.FieldCacheKey, key, "error", err)
}

// decode copies a provider value into out. Tombstones and values of an
// unexpected type are misses; a cached nil is a hit with the zero value.
func decode[T any](raw any, out *T) bool {
	switch v := raw.(type) {
	case nil:
		var zero T
		*out = zero
		return true
	case tombstone:
		return false
	case T:
		*out = v
		return true
	case json.RawMessage:
		return json.Unmarshal(v, out) == nil
	case []byte:
		return json.Unmarshal(v, out) == nil
	default:
		return false
	}
}
