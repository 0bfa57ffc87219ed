package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ppiankov/activearchive/internal/extract"
	"github.com/ppiankov/activearchive/internal/kg"
	"github.com/ppiankov/activearchive/internal/llm"
	"github.com/ppiankov/activearchive/internal/model"
	"github.com/ppiankov/activearchive/internal/query"
	"go.uber.org/zap"
)

// nowFunc stamps curator decisions; replaced in tests
var nowFunc = time.Now

// RecordStore persists curated records
type RecordStore interface {
	Append(ctx context.Context, record *model.MetadataRecord) error
}

// CuratorConfig selects passages and enrichment
type CuratorConfig struct {
	Keywords    []string
	Entities    []string
	MaxPassages int
	MaxChars    int
	Enrich      bool
}

// CuratorConfigFromModel maps the application config onto the curator
func CuratorConfigFromModel(cfg model.CurationConfig) CuratorConfig {
	return CuratorConfig{
		Keywords:    cfg.Keywords,
		Entities:    cfg.Entities,
		MaxPassages: cfg.MaxPassages,
		MaxChars:    cfg.MaxChars,
		Enrich:      cfg.Enrich,
	}
}

// Curator turns a document into an approved metadata record
type Curator struct {
	extractor extract.TextExtractor
	lookup    kg.Lookup
	linker    *query.Linker
	generator llm.Provider
	fallback  llm.Provider
	reviewer  Reviewer
	store     RecordStore
	config    CuratorConfig
	logger    *zap.Logger
}

// CuratorOption configures a Curator
type CuratorOption func(*Curator)

// WithReviewer replaces the default AutoApprove reviewer
func WithReviewer(r Reviewer) CuratorOption {
	return func(c *Curator) {
		if r != nil {
			c.reviewer = r
		}
	}
}

// WithCuratorLogger sets the curator logger
func WithCuratorLogger(logger *zap.Logger) CuratorOption {
	return func(c *Curator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewCurator creates a curator. lookup may be nil, in which case no
// external facts are added to the prompt.
func NewCurator(extractor extract.TextExtractor, lookup kg.Lookup, generator llm.Provider, store RecordStore, cfg CuratorConfig, opts ...CuratorOption) (*Curator, error) {
	if extractor == nil {
		return nil, ErrNilExtractor
	}
	if generator == nil {
		return nil, ErrNilGenerator
	}
	if store == nil {
		return nil, ErrNilStore
	}

	c := &Curator{
		extractor: extractor,
		lookup:    lookup,
		generator: generator,
		fallback:  llm.NewHeuristicProvider(),
		reviewer:  AutoApprove{},
		store:     store,
		config:    cfg,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if lookup != nil {
		linker, err := query.NewLinker(lookup, c.logger)
		if err != nil {
			return nil, fmt.Errorf("create linker: %w", err)
		}
		c.linker = linker
	}

	return c, nil
}

// Curate extracts, generates, reviews and stores the metadata of one document
func (c *Curator) Curate(ctx context.Context, path string) (*model.MetadataRecord, error) {
	text, err := c.extractor.ExtractText(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", path, err)
	}

	passages := extract.Passages(text, c.config.Keywords, c.config.MaxPassages)
	c.logger.Debug("passages selected", zap.String("file", path), zap.Int("passages", len(passages)))

	facts := c.facts(ctx, passages)
	prompt := llm.BuildMetadataPrompt(passages, facts)

	metadata, err := c.metadata(ctx, prompt)
	if err != nil {
		return nil, err
	}

	record := &model.MetadataRecord{
		SourceFile:   path,
		Year:         metadata.Year,
		Metric:       metadata.Metric,
		Value:        metadata.Value,
		Unit:         metadata.Unit,
		CitedPassage: metadata.CitedPassage,
	}
	if len(facts) > 0 {
		record.Facts = make(map[string]string, len(facts))
		for _, f := range facts {
			record.Facts[f.Entity] = f.Description
		}
	}

	if c.config.Enrich {
		c.enrich(ctx, record, extract.Truncate(text, c.config.MaxChars))
	}

	approved, err := c.reviewer.Review(ctx, record)
	if err != nil {
		return nil, fmt.Errorf("review: %w", err)
	}
	record.CuratorApproved = approved
	record.CuratorTimestamp = nowFunc().UTC().Format(time.RFC3339)

	if err := c.store.Append(ctx, record); err != nil {
		return nil, fmt.Errorf("store record: %w", err)
	}

	c.logger.Info("record curated",
		zap.String("file", path),
		zap.String("id", record.ID),
		zap.Bool("approved", record.CuratorApproved))

	return record, nil
}

// facts describes the configured entities followed by entities linked from
// passage tokens. Entities without a description are dropped.
func (c *Curator) facts(ctx context.Context, passages []string) []llm.Fact {
	if c.lookup == nil {
		return nil
	}

	ids := make([]string, 0, len(c.config.Entities))
	ids = append(ids, c.config.Entities...)
	for _, link := range c.linker.Link(ctx, query.Tokenize(strings.Join(passages, " "))) {
		ids = append(ids, link.Entity.ID)
	}

	var facts []llm.Fact
	seen := make(map[string]bool)
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true

		desc, err := c.lookup.Describe(ctx, id)
		if err != nil {
			c.logger.Warn("describe entity failed", zap.String("entity", id), zap.Error(err))
			continue
		}
		if strings.TrimSpace(desc) == "" {
			continue
		}
		facts = append(facts, llm.Fact{Entity: id, Description: desc})
	}

	return facts
}

// metadata asks the generator for metadata and falls back to the
// heuristic provider when the answer is unusable
func (c *Curator) metadata(ctx context.Context, prompt string) (*llm.Metadata, error) {
	req := llm.GenerateRequest{Task: llm.TaskMetadata, Prompt: prompt}

	resp, err := c.generator.Generate(ctx, req)
	if err == nil {
		metadata, parseErr := llm.ParseMetadata(resp.Text)
		if parseErr == nil {
			return metadata, nil
		}
		err = parseErr
	}
	if ctx.Err() != nil {
		return nil, fmt.Errorf("generate metadata: %w", ctx.Err())
	}
	if c.generator.Name() == c.fallback.Name() {
		return nil, fmt.Errorf("generate metadata: %w", err)
	}

	c.logger.Warn("metadata generation failed, using heuristic",
		zap.String("provider", c.generator.Name()),
		zap.Error(err))

	resp, err = c.fallback.Generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("generate metadata: %w", err)
	}
	metadata, err := llm.ParseMetadata(resp.Text)
	if err != nil {
		return nil, fmt.Errorf("parse metadata: %w", err)
	}
	return metadata, nil
}

// enrich adds a summary and tags. Failures leave the summary empty and the
// default tags in place.
func (c *Curator) enrich(ctx context.Context, record *model.MetadataRecord, text string) {
	resp, err := c.generator.Generate(ctx, llm.GenerateRequest{
		Task:   llm.TaskSummary,
		Prompt: llm.BuildSummaryPrompt(text),
	})
	if err != nil {
		c.logger.Warn("summary generation failed", zap.String("file", record.SourceFile), zap.Error(err))
	} else {
		record.Summary = strings.TrimSpace(resp.Text)
	}

	resp, err = c.generator.Generate(ctx, llm.GenerateRequest{
		Task:   llm.TaskTags,
		Prompt: llm.BuildTagsPrompt(text),
	})
	if err != nil {
		c.logger.Warn("tag generation failed", zap.String("file", record.SourceFile), zap.Error(err))
		record.Tags = append([]string(nil), llm.DefaultTags...)
		return
	}
	record.Tags = llm.ParseTags(resp.Text)
}
