package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// Cache stores encoded lookup answers with a TTL
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Stats counts cache lookups
type Stats struct {
	Hits   int64
	Misses int64
	Items  int
}

// StatsReporter is implemented by caches that count lookups
type StatsReporter interface {
	Stats() Stats
}

// Key builds a cache key for a lookup in the given namespace.
// Parts are hashed so keys are safe as file names.
func Key(namespace string, parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return "activearchive:v1:" + namespace + ":" + hex.EncodeToString(h.Sum(nil))
}

// GetJSON reads a cached value and decodes it into v.
// A value that fails to decode counts as a miss.
func GetJSON(c Cache, key string, v any) bool {
	data, ok := c.Get(key)
	if !ok {
		return false
	}
	return json.Unmarshal(data, v) == nil
}

// SetJSON encodes v and stores it under key
func SetJSON(c Cache, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal cache value: %w", err)
	}
	return c.Set(key, data, ttl)
}
