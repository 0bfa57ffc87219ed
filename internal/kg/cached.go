package kg

import (
	"context"
	"time"

	"github.com/ppiankov/activearchive/internal/cache"
	"github.com/ppiankov/activearchive/internal/model"
	"go.uber.org/zap"
)

// CachedLookup memoizes successful lookups of another Lookup.
// Errors are never cached.
type CachedLookup struct {
	inner     Lookup
	cache     cache.Cache
	namespace string
	ttl       time.Duration
	logger    *zap.Logger
}

// NewCachedLookup wraps inner. namespace separates entries of different
// sources sharing one cache (e.g. the service URL).
func NewCachedLookup(inner Lookup, c cache.Cache, namespace string, ttl time.Duration, logger *zap.Logger) (*CachedLookup, error) {
	if inner == nil || c == nil {
		return nil, ErrNilLookup
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedLookup{
		inner:     inner,
		cache:     c,
		namespace: namespace,
		ttl:       ttl,
		logger:    logger,
	}, nil
}

// FindEntities returns cached entities for token or asks the wrapped lookup
func (c *CachedLookup) FindEntities(ctx context.Context, token string) ([]model.Entity, error) {
	key := cache.Key("find", c.namespace, token)

	var entities []model.Entity
	if cache.GetJSON(c.cache, key, &entities) {
		return entities, nil
	}

	entities, err := c.inner.FindEntities(ctx, token)
	if err != nil {
		return nil, err
	}
	c.store(key, entities)
	return entities, nil
}

// RelatedTerms returns cached terms for entityID or asks the wrapped lookup
func (c *CachedLookup) RelatedTerms(ctx context.Context, entityID string) ([]string, error) {
	key := cache.Key("related", c.namespace, entityID)

	var terms []string
	if cache.GetJSON(c.cache, key, &terms) {
		return terms, nil
	}

	terms, err := c.inner.RelatedTerms(ctx, entityID)
	if err != nil {
		return nil, err
	}
	c.store(key, terms)
	return terms, nil
}

// Describe returns the cached description or asks the wrapped lookup
func (c *CachedLookup) Describe(ctx context.Context, entityID string) (string, error) {
	key := cache.Key("describe", c.namespace, entityID)

	var desc string
	if cache.GetJSON(c.cache, key, &desc) {
		return desc, nil
	}

	desc, err := c.inner.Describe(ctx, entityID)
	if err != nil {
		return "", err
	}
	c.store(key, desc)
	return desc, nil
}

func (c *CachedLookup) store(key string, v any) {
	if err := cache.SetJSON(c.cache, key, v, c.ttl); err != nil {
		c.logger.Warn("kg cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// Stats reports the counters of the underlying cache when it keeps any
func (c *CachedLookup) Stats() (cache.Stats, bool) {
	r, ok := c.cache.(cache.StatsReporter)
	if !ok {
		return cache.Stats{}, false
	}
	return r.Stats(), true
}
