package titlefetch

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// Cache stores fetched titles by normalized URL.
type Cache interface {
	Get(key string) (Result, bool)
	Set(key string, r Result)
	Close() error
}

const cacheKeyPrefix = "title:"

// BadgerCache persists titles in a badger database with per-entry TTLs.
type BadgerCache struct {
	db     *badger.DB
	ttl    time.Duration
	logger *slog.Logger
}

// OpenBadgerCache opens the cache at path. An empty path keeps it in memory.
func OpenBadgerCache(path string, ttl time.Duration, logger *slog.Logger) (*BadgerCache, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	if path == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open title cache: %w", err)
	}
	return &BadgerCache{db: db, ttl: ttl, logger: logger}, nil
}

// Get returns the cached result for key, if present and not expired.
func (c *BadgerCache) Get(key string) (Result, bool) {
	var r Result
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(cacheKeyPrefix + key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &r)
		})
	})
	if err != nil {
		if !errors.Is(err, badger.ErrKeyNotFound) {
			c.logger.Warn("title cache read failed", "key", key, "error", err)
		}
		return Result{}, false
	}
	return r, true
}

// Set stores r under key for the configured TTL. Failures are logged only.
func (c *BadgerCache) Set(key string, r Result) {
	val, err := json.Marshal(r)
	if err != nil {
		return
	}
	err = c.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(cacheKeyPrefix+key), val)
		if c.ttl > 0 {
			e = e.WithTTL(c.ttl)
		}
		return txn.SetEntry(e)
	})
	if err != nil {
		c.logger.Warn("title cache write failed", "key", key, "error", err)
	}
}

// Close closes the underlying database.
func (c *BadgerCache) Close() error {
	return c.db.Close()
}

// MemoryCache is an unbounded map cache without expiry, used in tests and
// when the on-disk cache cannot be opened.
type MemoryCache struct {
	mu sync.RWMutex
	m  map[string]Result
}

// NewMemoryCache creates an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{m: make(map[string]Result)}
}

func (c *MemoryCache) Get(key string) (Result, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.m[key]
	return r, ok
}

func (c *MemoryCache) Set(key string, r Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[key] = r
}

func (c *MemoryCache) Close() error { return nil }
