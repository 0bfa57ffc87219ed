// Package corpus enumerates documents and scans them for expansion terms.
package corpus

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ppiankov/activearchive/internal/extract"
	"github.com/ppiankov/activearchive/internal/model"
	"go.uber.org/zap"
)

var (
	// ErrNilProvider is returned when a corpus provider is missing
	ErrNilProvider = errors.New("nil corpus provider")
	// ErrNotDirectory is returned when the corpus root is not a directory
	ErrNotDirectory = errors.New("corpus root is not a directory")
)

// Provider lists the documents of a finite corpus
type Provider interface {
	ListDocuments(ctx context.Context) ([]model.Document, error)
}

// MemoryProvider serves a fixed set of documents
type MemoryProvider struct {
	docs []model.Document
}

// NewMemoryProvider creates a provider over docs
func NewMemoryProvider(docs ...model.Document) *MemoryProvider {
	copied := make([]model.Document, len(docs))
	copy(copied, docs)
	return &MemoryProvider{docs: copied}
}

// ListDocuments returns a copy of the documents
func (p *MemoryProvider) ListDocuments(ctx context.Context) ([]model.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	docs := make([]model.Document, len(p.docs))
	copy(docs, p.docs)
	return docs, nil
}

// DirProvider reads the files of one directory that match glob patterns.
// Unreadable files are skipped with a warning.
type DirProvider struct {
	dir       string
	patterns  []string
	extractor extract.TextExtractor
	logger    *zap.Logger
}

// DirOption customizes a DirProvider
type DirOption func(*DirProvider)

// WithExtractor replaces the text extractor
func WithExtractor(e extract.TextExtractor) DirOption {
	return func(p *DirProvider) {
		if e != nil {
			p.extractor = e
		}
	}
}

// WithLogger sets the logger used for skipped files
func WithLogger(logger *zap.Logger) DirOption {
	return func(p *DirProvider) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewDirProvider creates a provider for dir. No patterns means "*.txt".
func NewDirProvider(dir string, patterns []string, opts ...DirOption) *DirProvider {
	var cleaned []string
	for _, p := range patterns {
		if p = strings.TrimSpace(p); p != "" {
			cleaned = append(cleaned, p)
		}
	}
	if len(cleaned) == 0 {
		cleaned = []string{"*.txt"}
	}

	p := &DirProvider{
		dir:       dir,
		patterns:  cleaned,
		extractor: extract.NewAutoExtractor(),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Files returns the matching regular files, sorted by name
func (p *DirProvider) Files() ([]string, error) {
	info, err := os.Stat(p.dir)
	if err != nil {
		return nil, fmt.Errorf("stat corpus: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, p.dir)
	}

	seen := make(map[string]bool)
	var files []string
	for _, pattern := range p.patterns {
		matches, err := filepath.Glob(filepath.Join(p.dir, pattern))
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", pattern, err)
		}
		for _, m := range matches {
			if seen[m] {
				continue
			}
			fi, err := os.Stat(m)
			if err != nil || !fi.Mode().IsRegular() {
				continue
			}
			seen[m] = true
			files = append(files, m)
		}
	}

	sort.Strings(files)
	return files, nil
}

// ListDocuments reads every matching file. Document names are paths
// relative to the corpus directory.
func (p *DirProvider) ListDocuments(ctx context.Context) ([]model.Document, error) {
	files, err := p.Files()
	if err != nil {
		return nil, err
	}

	docs := make([]model.Document, 0, len(files))
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		text, err := p.extractor.ExtractText(ctx, path)
		if err != nil {
			p.logger.Warn("skipping unreadable document", zap.String("path", path), zap.Error(err))
			continue
		}

		name, err := filepath.Rel(p.dir, path)
		if err != nil {
			name = filepath.Base(path)
		}

		docs = append(docs, model.Document{
			Name: filepath.ToSlash(name),
			Text: strings.ToValidUTF8(text, ""),
		})
	}

	return docs, nil
}
