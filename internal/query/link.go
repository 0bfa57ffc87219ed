package query

import (
	"context"
	"strings"

	"github.com/ppiankov/activearchive/internal/kg"
	"github.com/ppiankov/activearchive/internal/model"
	"go.uber.org/zap"
)

// Linker resolves query tokens to knowledge graph entities
type Linker struct {
	lookup kg.Lookup
	logger *zap.Logger
}

// NewLinker creates a linker backed by lookup
func NewLinker(lookup kg.Lookup, logger *zap.Logger) (*Linker, error) {
	if lookup == nil {
		return nil, kg.ErrNilLookup
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Linker{lookup: lookup, logger: logger}, nil
}

// Link returns the token-entity associations for tokens, in token order.
// Tokens without entities are dropped; a failed lookup counts as a miss.
func (l *Linker) Link(ctx context.Context, tokens []string) model.Links {
	links := model.Links{}
	seen := make(map[[2]string]bool)

	for _, token := range tokens {
		if ctx.Err() != nil {
			break
		}
		if strings.TrimSpace(token) == "" {
			continue
		}

		entities, err := l.lookup.FindEntities(ctx, token)
		if err != nil {
			l.logger.Warn("entity lookup failed", zap.String("token", token), zap.Error(err))
			continue
		}
		if len(entities) == 0 {
			l.logger.Debug("no entity for token", zap.String("token", token))
			continue
		}

		for _, e := range entities {
			if e.ID == "" {
				continue
			}
			key := [2]string{token, e.ID}
			if seen[key] {
				continue
			}
			seen[key] = true
			links = append(links, model.Link{Token: token, Entity: e})
		}
	}

	return links
}
