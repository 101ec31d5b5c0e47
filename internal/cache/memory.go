package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goliatone/go-resource-cms/pkg/interfaces"
)

// MemoryProvider is an in-process CacheProvider with per entry expiry.
type MemoryProvider struct {
	data       sync.Map
	defaultTTL time.Duration
	now        func() time.Time
	stop       chan struct{}
	closed     atomic.Bool
}

type memoryEntry struct {
	value     any
	expiresAt time.Time
}

func (e *memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// MemoryOptions configures NewMemoryProvider. A zero DefaultTTL keeps
// entries until deleted; a zero CleanupInterval disables the sweeper.
type MemoryOptions struct {
	DefaultTTL      time.Duration
	CleanupInterval time.Duration
	Clock           func() time.Time
}

var (
	_ interfaces.CacheProvider = (*MemoryProvider)(nil)
	_ interfaces.CacheAdder    = (*MemoryProvider)(nil)
)

func NewMemoryProvider(opts MemoryOptions) *MemoryProvider {
	p := &MemoryProvider{
		defaultTTL: opts.DefaultTTL,
		now:        opts.Clock,
		stop:       make(chan struct{}),
	}
	if p.now == nil {
		p.now = time.Now
	}
	if opts.CleanupInterval > 0 {
		go p.sweep(opts.CleanupInterval)
	}
	return p
}

func (p *MemoryProvider) Get(_ context.Context, key string) (any, error) {
	raw, ok := p.data.Load(key)
	if !ok {
		return nil, interfaces.ErrCacheMiss
	}
	entry := raw.(*memoryEntry)
	if entry.expired(p.now()) {
		p.data.CompareAndDelete(key, entry)
		return nil, interfaces.ErrCacheMiss
	}
	return entry.value, nil
}

func (p *MemoryProvider) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	p.data.Store(key, p.entry(value, ttl))
	return nil
}

// Add stores value unless a live entry exists for key.
func (p *MemoryProvider) Add(_ context.Context, key string, value any, ttl time.Duration) (bool, error) {
	entry := p.entry(value, ttl)
	for {
		raw, loaded := p.data.LoadOrStore(key, entry)
		if !loaded {
			return true, nil
		}
		existing := raw.(*memoryEntry)
		if !existing.expired(p.now()) {
			return false, nil
		}
		if p.data.CompareAndSwap(key, existing, entry) {
			return true, nil
		}
	}
}

func (p *MemoryProvider) Delete(_ context.Context, key string) error {
	p.data.Delete(key)
	return nil
}

func (p *MemoryProvider) Clear(_ context.Context) error {
	p.data.Clear()
	return nil
}

// Len counts live entries.
func (p *MemoryProvider) Len() int {
	now := p.now()
	n := 0
	p.data.Range(func(_, raw any) bool {
		if !raw.(*memoryEntry).expired(now) {
			n++
		}
		return true
	})
	return n
}

// Close stops the sweeper.
func (p *MemoryProvider) Close() error {
	if p.closed.CompareAndSwap(false, true) {
		close(p.stop)
	}
	return nil
}

func (p *MemoryProvider) entry(value any, ttl time.Duration) *memoryEntry {
	if ttl <= 0 {
		ttl = p.defaultTTL
	}
	e := &memoryEntry{value: value}
	if ttl > 0 {
		e.expiresAt = p.now().Add(ttl)
	}
	return e
}

func (p *MemoryProvider) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-p.stop:
			return
		case <-ticker.C:
			now := p.now()
			p.data.Range(func(key, raw any) bool {
				if entry := raw.(*memoryEntry); entry.expired(now) {
					p.data.CompareAndDelete(key, entry)
				}
				return true
			})
		}
	}
}
