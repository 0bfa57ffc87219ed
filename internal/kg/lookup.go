// Package kg resolves query tokens against a knowledge graph.
//
// The pipeline only sees the Lookup interface; the static table, the remote
// HTTP service and the caching decorator are interchangeable behind it.
package kg

import (
	"context"
	"errors"

	"github.com/ppiankov/activearchive/internal/model"
)

// Lookup is the knowledge graph capability consumed by linking, expansion
// and curation. Misses are empty results, not errors; errors mean the
// service itself failed.
type Lookup interface {
	// FindEntities returns the entities a token links to, in a stable order
	FindEntities(ctx context.Context, token string) ([]model.Entity, error)

	// RelatedTerms returns expansion terms for an entity in their configured order
	RelatedTerms(ctx context.Context, entityID string) ([]string, error)

	// Describe returns a short explanatory fact for an entity, or "" if none
	Describe(ctx context.Context, entityID string) (string, error)
}

var (
	// ErrUnknownPolicy is returned for match policies other than exact and substring
	ErrUnknownPolicy = errors.New("unknown match policy")

	// ErrNilLookup is returned when a decorator is given no lookup to wrap
	ErrNilLookup = errors.New("kg lookup is nil")

	// ErrDisallowed is returned when robots.txt forbids a lookup URL
	ErrDisallowed = errors.New("lookup disallowed by robots.txt")
)
