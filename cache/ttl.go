package cache

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/store"
	"github.com/grzegorzmaniak/fieldguard/helpers"
	"go.uber.org/zap"
)

// DefaultTTL is the lifetime of a cached entry when none is configured.
const DefaultTTL = 5 * time.Minute

// Clock is the time source used to age entries.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Entry is what the backing store holds for one key.
type Entry[T any] struct {
	Key       string
	Value     T
	Timestamp time.Time
}

// Stats is a snapshot of a TTLCache.
type Stats struct {
	Name   string   `json:"name"`
	Size   int      `json:"size"`
	Keys   []string `json:"keys"`
	Hits   uint64   `json:"hits"`
	Misses uint64   `json:"misses"`
}

// TTLCache keeps values for a fixed time-to-live. An entry is served only while
// Now() - Timestamp < TTL; older entries are removed on access.
type TTLCache[T any] struct {
	name    string
	ttl     time.Duration
	clock   Clock
	backend cache.CacheInterface[Entry[T]]

	mu    sync.RWMutex
	index map[string]indexed
	gen   uint64

	hits   atomic.Uint64
	misses atomic.Uint64
}

// indexed tracks one stored key. gen changes on every Put, so a reader can
// tell whether the key was rewritten while it was looking it up.
type indexed struct {
	stored time.Time
	gen    uint64
}

// TTLOption configures a TTLCache.
type TTLOption[T any] func(*TTLCache[T])

// WithClock replaces the wall clock, mostly for tests.
func WithClock[T any](clock Clock) TTLOption[T] {
	return func(c *TTLCache[T]) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithBackend uses an existing gocache instance instead of building one.
func WithBackend[T any](backend cache.CacheInterface[Entry[T]]) TTLOption[T] {
	return func(c *TTLCache[T]) {
		c.backend = backend
	}
}

// NewTTLCache builds a cache named name (also the key prefix inside the store).
// Without WithBackend a Ristretto store is created from config.
func NewTTLCache[T any](name string, ttl time.Duration, config *Config, opts ...TTLOption[T]) (*TTLCache[T], error) {
	c := &TTLCache[T]{
		name:  name,
		ttl:   helpers.DefaultPositive(ttl, DefaultTTL),
		clock: SystemClock{},
		index: make(map[string]indexed),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.backend == nil {
		backend, err := NewManager[Entry[T]](config).GetCache()
		if err != nil {
			return nil, err
		}
		c.backend = backend
	}

	return c, nil
}

func (c *TTLCache[T]) storeKey(key string) string {
	return c.name + ":" + key
}

// TTL returns the configured time-to-live.
func (c *TTLCache[T]) TTL() time.Duration {
	return c.ttl
}

// Get returns the value for key if it is present and fresh.
func (c *TTLCache[T]) Get(ctx context.Context, key string) (T, bool) {
	var zero T
	seen := c.generation(key)

	entry, err := c.backend.Get(ctx, c.storeKey(key))
	if err != nil {
		if !errors.Is(err, store.NotFound{}) {
			zap.L().Debug("TTLCache: backend get failed", zap.String("cache", c.name), zap.String("key", key), zap.Error(err))
		}
		c.forgetIfUnchanged(key, seen)
		c.misses.Add(1)
		return zero, false
	}

	if c.clock.Now().Sub(entry.Timestamp) >= c.ttl {
		// - Only drop what we read; a Put that raced us owns the key now
		if c.forgetIfUnchanged(key, seen) {
			_ = c.backend.Delete(ctx, c.storeKey(key))
		}
		c.misses.Add(1)
		return zero, false
	}

	c.hits.Add(1)
	return entry.Value, true
}

// Put stores value under key, replacing any prior entry and restarting its age.
func (c *TTLCache[T]) Put(ctx context.Context, key string, value T) error {
	entry := Entry[T]{Key: key, Value: value, Timestamp: c.clock.Now()}

	err := c.backend.Set(ctx, c.storeKey(key), entry,
		store.WithExpiration(c.ttl),
		store.WithCost(1),
		store.WithSynchronousSet(),
	)
	if err != nil {
		zap.L().Warn("TTLCache: failed to store entry", zap.String("cache", c.name), zap.String("key", key), zap.Error(err))
		return err
	}

	c.mu.Lock()
	c.gen++
	c.index[key] = indexed{stored: entry.Timestamp, gen: c.gen}
	c.mu.Unlock()
	return nil
}

// Invalidate removes the given keys, or every entry when none are given.
// Missing keys are ignored.
func (c *TTLCache[T]) Invalidate(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		keys = c.allKeys()
	}

	for _, key := range keys {
		if err := c.backend.Delete(ctx, c.storeKey(key)); err != nil {
			zap.L().Debug("TTLCache: backend delete failed", zap.String("cache", c.name), zap.String("key", key), zap.Error(err))
		}
		c.forget(key)
	}
}

// Stats reports the current size, keys and hit counters. Entries past their
// TTL are evicted from the index first, read or not.
func (c *TTLCache[T]) Stats() Stats {
	keys := c.keys()
	return Stats{
		Name:   c.name,
		Size:   len(keys),
		Keys:   keys,
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
	}
}

func (c *TTLCache[T]) forget(key string) {
	c.mu.Lock()
	delete(c.index, key)
	c.mu.Unlock()
}

func (c *TTLCache[T]) generation(key string) uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.index[key].gen
}

// forgetIfUnchanged drops key from the index unless it was Put again after gen
// was read. It reports whether the key was dropped.
func (c *TTLCache[T]) forgetIfUnchanged(key string, gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	current, ok := c.index[key]
	if !ok {
		return true
	}
	if current.gen != gen {
		return false
	}
	delete(c.index, key)
	return true
}

// keys returns the live keys, evicting index entries whose age reached the TTL.
// The backend copies expire on their own or are removed on the next Get.
func (c *TTLCache[T]) keys() []string {
	now := c.clock.Now()

	c.mu.Lock()
	out := make([]string, 0, len(c.index))
	for k, idx := range c.index {
		if now.Sub(idx.stored) >= c.ttl {
			delete(c.index, k)
			continue
		}
		out = append(out, k)
	}
	c.mu.Unlock()

	sort.Strings(out)
	return out
}

func (c *TTLCache[T]) allKeys() []string {
	c.mu.RLock()
	out := make([]string, 0, len(c.index))
	for k := range c.index {
		out = append(out, k)
	}
	c.mu.RUnlock()

	sort.Strings(out)
	return out
}
