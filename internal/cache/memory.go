package cache

import (
	"bytes"
	"sync/atomic"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryCache keeps lookup answers in process, backed by go-cache
type MemoryCache struct {
	items  *gocache.Cache
	hits   atomic.Int64
	misses atomic.Int64
}

// NewMemoryCache creates a memory cache. Expired items are evicted every
// cleanupInterval.
func NewMemoryCache(defaultTTL time.Duration, cleanupInterval time.Duration) *MemoryCache {
	return &MemoryCache{items: gocache.New(defaultTTL, cleanupInterval)}
}

// Get returns a copy of the stored value
func (c *MemoryCache) Get(key string) ([]byte, bool) {
	v, ok := c.items.Get(key)
	data, isBytes := v.([]byte)
	if !ok || !isBytes {
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return bytes.Clone(data), true
}

// Set stores a copy of value. ttl 0 means the default TTL.
func (c *MemoryCache) Set(key string, value []byte, ttl time.Duration) error {
	if ttl == 0 {
		ttl = gocache.DefaultExpiration
	}
	c.items.Set(key, bytes.Clone(value), ttl)
	return nil
}

// Delete drops key
func (c *MemoryCache) Delete(key string) error {
	c.items.Delete(key)
	return nil
}

// Clear drops every item and resets the counters
func (c *MemoryCache) Clear() error {
	c.items.Flush()
	c.hits.Store(0)
	c.misses.Store(0)
	return nil
}

// Stats reports hit and miss counts. Items includes expired entries that
// were not evicted yet.
func (c *MemoryCache) Stats() Stats {
	return Stats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Items:  c.items.ItemCount(),
	}
}
