package kg

import (
	"context"
	"fmt"
	"strings"

	"github.com/ppiankov/activearchive/internal/model"
)

// StaticLookup answers lookups from an in-memory table
type StaticLookup struct {
	entries []Entry
	byID    map[string]int
	policy  model.MatchPolicy
}

// NewStaticLookup creates a lookup over table using the given match policy.
// An empty policy means exact.
func NewStaticLookup(table Table, policy model.MatchPolicy) (*StaticLookup, error) {
	if policy == "" {
		policy = model.MatchExact
	}
	if policy != model.MatchExact && policy != model.MatchSubstring {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPolicy, policy)
	}
	if err := table.Validate(); err != nil {
		return nil, err
	}

	s := &StaticLookup{
		entries: table.Entities,
		byID:    make(map[string]int, len(table.Entities)),
		policy:  policy,
	}
	for i, e := range table.Entities {
		s.byID[e.ID] = i
	}

	return s, nil
}

// FindEntities returns the entities whose key matches token, in table order
func (s *StaticLookup) FindEntities(_ context.Context, token string) ([]model.Entity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, nil
	}

	var found []model.Entity
	for _, e := range s.entries {
		if s.matches(e.ID, token) {
			found = append(found, e.Entity)
		}
	}
	return found, nil
}

// RelatedTerms returns a copy of the entity's expansion terms
func (s *StaticLookup) RelatedTerms(_ context.Context, entityID string) ([]string, error) {
	e, ok := s.entry(entityID)
	if !ok || len(e.Related) == 0 {
		return nil, nil
	}
	out := make([]string, len(e.Related))
	copy(out, e.Related)
	return out, nil
}

// Describe returns the entity description
func (s *StaticLookup) Describe(_ context.Context, entityID string) (string, error) {
	e, ok := s.entry(entityID)
	if !ok {
		return "", nil
	}
	return e.Description, nil
}

func (s *StaticLookup) entry(id string) (Entry, bool) {
	if i, ok := s.byID[id]; ok {
		return s.entries[i], true
	}
	// IDs coming from user input may differ in case
	for _, e := range s.entries {
		if strings.EqualFold(e.ID, id) {
			return e, true
		}
	}
	return Entry{}, false
}

func (s *StaticLookup) matches(key, token string) bool {
	switch s.policy {
	case model.MatchSubstring:
		return strings.Contains(strings.ToLower(token), strings.ToLower(key))
	default:
		return strings.EqualFold(key, token)
	}
}
