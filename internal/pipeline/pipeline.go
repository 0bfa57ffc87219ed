// Package pipeline wires the exploration and curation flows together.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/ppiankov/activearchive/internal/corpus"
	"github.com/ppiankov/activearchive/internal/graph"
	"github.com/ppiankov/activearchive/internal/kg"
	"github.com/ppiankov/activearchive/internal/model"
	"github.com/ppiankov/activearchive/internal/query"
	"github.com/ppiankov/activearchive/internal/score"
	"go.uber.org/zap"
)

var (
	// ErrNilExtractor is returned when the curator has no text extractor
	ErrNilExtractor = errors.New("nil text extractor")
	// ErrNilGenerator is returned when the curator has no LLM provider
	ErrNilGenerator = errors.New("nil llm provider")
	// ErrNilStore is returned when the curator has no record store
	ErrNilStore = errors.New("nil record store")
)

// ExplorerConfig controls scanning and result truncation
type ExplorerConfig struct {
	Scan       corpus.ScannerConfig
	MaxResults int // 0 = unlimited
}

// ExplorerConfigFromModel maps the application config onto the explorer
func ExplorerConfigFromModel(cfg *model.Config) ExplorerConfig {
	return ExplorerConfig{
		Scan: corpus.ScannerConfig{
			Window:       cfg.Scan.Window,
			Mode:         cfg.Scan.ExcerptMode,
			PrefixLength: cfg.Scan.PrefixLength,
			Workers:      cfg.Scan.Workers,
		},
		MaxResults: cfg.Explore.MaxResults,
	}
}

// Explorer runs a query through linking, expansion, scanning, ranking and
// subgraph construction
type Explorer struct {
	provider corpus.Provider
	linker   *query.Linker
	expander *query.Expander
	scanner  *corpus.Scanner
	ranker   *score.Ranker
	builder  *graph.Builder
	logger   *zap.Logger
}

// NewExplorer creates an explorer over a corpus and a knowledge graph lookup
func NewExplorer(provider corpus.Provider, lookup kg.Lookup, cfg ExplorerConfig, logger *zap.Logger) (*Explorer, error) {
	if provider == nil {
		return nil, corpus.ErrNilProvider
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	linker, err := query.NewLinker(lookup, logger)
	if err != nil {
		return nil, fmt.Errorf("create linker: %w", err)
	}
	expander, err := query.NewExpander(lookup, logger)
	if err != nil {
		return nil, fmt.Errorf("create expander: %w", err)
	}
	scanner, err := corpus.NewScanner(cfg.Scan)
	if err != nil {
		return nil, fmt.Errorf("create scanner: %w", err)
	}

	return &Explorer{
		provider: provider,
		linker:   linker,
		expander: expander,
		scanner:  scanner,
		ranker:   score.NewRanker(cfg.MaxResults),
		builder:  graph.NewBuilder(),
		logger:   logger,
	}, nil
}

// Explore runs one query. An empty query yields an empty exploration
// without reading the corpus.
func (e *Explorer) Explore(ctx context.Context, raw string) (*model.Exploration, error) {
	tokens := query.Tokenize(raw)
	links := e.linker.Link(ctx, tokens)
	terms := e.expander.Expand(ctx, tokens, links)

	exploration := &model.Exploration{
		Query:   raw,
		Tokens:  tokens,
		Links:   links,
		Terms:   terms,
		Results: []model.RankedResult{},
		Graph:   e.builder.Build(links),
	}

	e.logger.Info("query expanded",
		zap.String("query", raw),
		zap.Strings("tokens", tokens),
		zap.Strings("terms", terms),
		zap.Int("links", len(links)))

	if len(terms) == 0 {
		return exploration, nil
	}

	docs, err := e.provider.ListDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	exploration.Scanned = len(docs)

	hits, err := e.scanner.Scan(ctx, terms, docs)
	if err != nil {
		return nil, fmt.Errorf("scan corpus: %w", err)
	}

	exploration.Results = e.ranker.Rank(hits, terms)

	e.logger.Debug("corpus scanned",
		zap.Int("documents", len(docs)),
		zap.Int("hits", len(hits)),
		zap.Int("results", len(exploration.Results)))

	return exploration, nil
}
