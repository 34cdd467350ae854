// Package scancache is the durable, cross-document warm cache for the
// engine's most expensive per-document dictionary scans (principally the
// NAME coordinator's cross-reference pass, §4.5). It is distinct from
// internal/dctx's per-document in-memory LRU: that one is scoped to a
// single DocumentContext and discarded when the pipeline returns; this one
// survives process restarts. internal/engine opens one per Engine and
// closes it in Close, but no detector or pipeline stage reads from or
// writes to it, so no document gets a cache hit from it.
//
// Adapted from the teacher's cross-session Ollama value cache
// (internal/anonymizer's PersistentCache + s3fifoCache): original PII
// value → anonymized token becomes content-hash → gob-encoded scan result,
// and the S3-FIFO in-memory eviction layer in front of a bbolt backing
// store carries over unchanged in shape.
package scancache

import (
	"fmt"
	"log"
	"sync"

	bolt "go.etcd.io/bbolt"
)

// Cache is the durable scan-result cache interface. All implementations
// must be safe for concurrent use; the engine shares one Cache across every
// detector worker and every document.
type Cache interface {
	// Get returns the cached, gob-encoded scan result for key, if present.
	Get(key string) (value []byte, ok bool)
	// Set stores key → value, overwriting any existing entry.
	Set(key string, value []byte)
	// Delete removes key, if present.
	Delete(key string)
	// Close releases any resources held by the cache.
	Close() error
}

// --- memoryCache -----------------------------------------------------------

// memoryCache is an unbounded in-memory Cache, used in tests and when no
// on-disk path is configured.
type memoryCache struct {
	mu    sync.RWMutex
	store map[string][]byte
}

// NewMemory returns an unbounded in-memory Cache.
func NewMemory() Cache {
	return &memoryCache{store: make(map[string][]byte)}
}

func (c *memoryCache) Get(key string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.store[key]
	return v, ok
}

func (c *memoryCache) Set(key string, value []byte) {
	c.mu.Lock()
	c.store[key] = value
	c.mu.Unlock()
}

func (c *memoryCache) Delete(key string) {
	c.mu.Lock()
	delete(c.store, key)
	c.mu.Unlock()
}

func (c *memoryCache) Close() error { return nil }

// --- bboltCache --------------------------------------------------------------

const bboltBucket = "scan_cache"

// bboltCache is a Cache backed by an embedded bbolt database; entries
// survive process restarts.
type bboltCache struct {
	db *bolt.DB
}

// NewBbolt opens (or creates) a bbolt database at path and ensures the
// scan-cache bucket exists.
func NewBbolt(path string) (Cache, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("open bbolt scan cache %q: %w", path, err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bboltBucket))
		return err
	}); err != nil {
		db.Close() //nolint:errcheck // best-effort close on init failure
		return nil, fmt.Errorf("create scan cache bucket: %w", err)
	}
	log.Printf("[SCANCACHE] persistent cache opened at %s", path)
	return &bboltCache{db: db}, nil
}

func (c *bboltCache) Get(key string) ([]byte, bool) {
	var value []byte
	err := c.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bboltBucket))
		if b == nil {
			return nil
		}
		if v := b.Get([]byte(key)); v != nil {
			value = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		log.Printf("[SCANCACHE] bbolt Get error: %v", err)
		return nil, false
	}
	return value, value != nil
}

func (c *bboltCache) Set(key string, value []byte) {
	if err := c.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bboltBucket))
		if b == nil {
			return fmt.Errorf("bucket %q not found", bboltBucket)
		}
		return b.Put([]byte(key), value)
	}); err != nil {
		log.Printf("[SCANCACHE] bbolt Set error: %v", err)
	}
}

func (c *bboltCache) Delete(key string) {
	if err := c.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bboltBucket))
		if b == nil {
			return nil
		}
		return b.Delete([]byte(key))
	}); err != nil {
		log.Printf("[SCANCACHE] bbolt Delete error: %v", err)
	}
}

func (c *bboltCache) Close() error { return c.db.Close() }

// Open returns a scan-result Cache appropriate for path and capacity: an
// S3-FIFO-fronted bbolt store if path is non-empty, or an unbounded
// in-memory cache otherwise. A bbolt open failure falls back to memory
// rather than failing the engine's construction, since the scan cache is a
// pure performance optimization, never a correctness dependency (§7:
// detector-level and cache-level failures never fail a document).
func Open(path string, capacity int) Cache {
	if path == "" {
		return NewMemory()
	}
	backing, err := NewBbolt(path)
	if err != nil {
		log.Printf("[SCANCACHE] failed to open persistent cache at %q, falling back to memory: %v", path, err)
		return NewMemory()
	}
	if capacity <= 0 {
		return backing
	}
	return NewS3FIFO(backing, capacity)
}
