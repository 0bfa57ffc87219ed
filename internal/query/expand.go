package query

import (
	"context"

	"github.com/ppiankov/activearchive/internal/kg"
	"github.com/ppiankov/activearchive/internal/model"
	"go.uber.org/zap"
)

// Expander broadens tokens with the related terms of their linked entities
type Expander struct {
	lookup kg.Lookup
	logger *zap.Logger
}

// NewExpander creates an expander backed by lookup
func NewExpander(lookup kg.Lookup, logger *zap.Logger) (*Expander, error) {
	if lookup == nil {
		return nil, kg.ErrNilLookup
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Expander{lookup: lookup, logger: logger}, nil
}

// Expand returns tokens followed by the related terms of each linked entity,
// without blanks or duplicates, first occurrence kept
func (e *Expander) Expand(ctx context.Context, tokens []string, links model.Links) model.ExpansionSet {
	groups := make([][]string, 0, len(links)+1)
	groups = append(groups, tokens)

	fetched := make(map[string]bool, len(links))
	for _, link := range links {
		id := link.Entity.ID
		if fetched[id] {
			continue
		}
		fetched[id] = true

		if ctx.Err() != nil {
			break
		}

		related, err := e.lookup.RelatedTerms(ctx, id)
		if err != nil {
			e.logger.Warn("related terms lookup failed", zap.String("entity", id), zap.Error(err))
			continue
		}
		groups = append(groups, related)
	}

	return model.NewExpansionSet(groups...)
}
