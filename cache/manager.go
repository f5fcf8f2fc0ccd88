package cache

import (
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/store"
	ristrettoStore "github.com/eko/gocache/store/ristretto/v4"
	"github.com/grzegorzmaniak/fieldguard/helpers"
	"go.uber.org/zap"
)

const (
	DefaultRistrettoMaxCost                   = 100000
	DefaultRistrettoNumCounters               = DefaultRistrettoMaxCost * 10
	DefaultRistrettoBufferItems               = 64
	DefaultStoreExpirationForRistrettoAdapter = 5 * time.Minute
)

type Config struct {

	// RistrettoMaxCost defines the maximum "cost" for the Ristretto cache.
	// Every entry has a cost of 1, so this is the max number of entries.
	// If 0, DefaultRistrettoMaxCost is used.
	RistrettoMaxCost int64

	// RistrettoNumCounters determines the number of counters for Ristretto's admission/eviction policy.
	// A common rule of thumb is 10 * MaxCost.
	// If 0, DefaultRistrettoNumCounters is used.
	RistrettoNumCounters int64

	// RistrettoBufferItems configures the number of items Ristretto buffers for better concurrency.
	// If 0, DefaultRistrettoBufferItems is used.
	RistrettoBufferItems int64

	// DefaultStoreExpirationForRistrettoAdapter is the adapter level TTL, used when a
	// Set() call does not pass its own store.WithExpiration option.
	DefaultStoreExpirationForRistrettoAdapter time.Duration
}

// withDefaults returns a copy of c with every zero field replaced by its default.
func (c Config) withDefaults() Config {
	c.RistrettoMaxCost = helpers.DefaultPositive(c.RistrettoMaxCost, DefaultRistrettoMaxCost)
	c.RistrettoNumCounters = helpers.DefaultPositive(c.RistrettoNumCounters, DefaultRistrettoNumCounters)
	c.RistrettoBufferItems = helpers.DefaultPositive(c.RistrettoBufferItems, DefaultRistrettoBufferItems)
	c.DefaultStoreExpirationForRistrettoAdapter = helpers.DefaultPositive(
		c.DefaultStoreExpirationForRistrettoAdapter,
		DefaultStoreExpirationForRistrettoAdapter,
	)
	return c
}

// Manager lazily builds one gocache instance over a Ristretto store.
type Manager[T any] struct {
	Config    Config
	instance  cache.CacheInterface[T]
	initOnce  sync.Once
	initError error
}

func (m *Manager[T]) GetCache() (cache.CacheInterface[T], error) {
	m.initOnce.Do(func() {
		ristrettoClient, err := ristretto.NewCache(&ristretto.Config{
			NumCounters: m.Config.RistrettoNumCounters,
			MaxCost:     m.Config.RistrettoMaxCost,
			BufferItems: m.Config.RistrettoBufferItems,
			Metrics:     false,
		})

		if err != nil {
			zap.L().Error("Manager: Failed to create Ristretto cache client during initialization", zap.Error(err))
			m.initError = fmt.Errorf("ristretto client initialization failed: %w", err)
			return
		}

		adapter := ristrettoStore.NewRistretto(
			ristrettoClient,
			store.WithExpiration(m.Config.DefaultStoreExpirationForRistrettoAdapter),
		)

		m.instance = cache.New[T](adapter)
		zap.L().Debug("Manager: Ristretto cache instance initialized")
	})

	if m.initError != nil {
		return nil, m.initError
	}

	if m.instance == nil {
		zap.L().Error("Manager: Cache instance is nil after initialization attempt without a stored error.")
		return nil, fmt.Errorf("internal error: cache not initialized despite no explicit init error")
	}

	return m.instance, nil
}

// NewManager returns a manager for config; a nil config selects every default.
func NewManager[T any](config *Config) *Manager[T] {
	if config == nil {
		config = &Config{}
	}

	return &Manager[T]{
		Config: config.withDefaults(),
	}
}
