package corpus

import (
	"context"
	"fmt"
	"regexp"
	"runtime"
	"sort"
	"sync"

	"github.com/ppiankov/activearchive/internal/model"
	"github.com/ppiankov/activearchive/internal/query"
)

// DefaultPrefixLength is the excerpt length in prefix mode
const DefaultPrefixLength = 200

// ScannerConfig controls excerpt selection and parallelism
type ScannerConfig struct {
	Window       int               // Runes kept on each side of the match
	Mode         model.ExcerptMode // window (default) or prefix
	PrefixLength int               // Excerpt length in prefix mode
	Workers      int               // Documents scanned concurrently
}

// Scanner finds the documents that mention an expansion term
type Scanner struct {
	window       int
	mode         model.ExcerptMode
	prefixLength int
	workers      int
}

// NewScanner validates cfg and fills defaults
func NewScanner(cfg ScannerConfig) (*Scanner, error) {
	window := cfg.Window
	if window == 0 {
		window = model.DefaultWindow
	}
	if window < 0 || window > model.MaxWindow {
		return nil, fmt.Errorf("window must be in 1..%d, got %d", model.MaxWindow, window)
	}

	mode := cfg.Mode
	if mode == "" {
		mode = model.ExcerptWindow
	}
	if mode != model.ExcerptWindow && mode != model.ExcerptPrefix {
		return nil, fmt.Errorf("unknown excerpt mode %q", mode)
	}

	prefix := cfg.PrefixLength
	if prefix <= 0 {
		prefix = DefaultPrefixLength
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	return &Scanner{
		window:       window,
		mode:         mode,
		prefixLength: prefix,
		workers:      workers,
	}, nil
}

// compiledTerm pairs a term with its excerpt pattern
type compiledTerm struct {
	matcher query.TermMatcher
	excerpt *regexp.Regexp
}

// Scan returns one hit per document containing any term, ordered by
// document name. The first term (in expansion order) found in a document
// selects the excerpt.
func (s *Scanner) Scan(ctx context.Context, terms model.ExpansionSet, docs []model.Document) ([]model.Hit, error) {
	if len(terms) == 0 || len(docs) == 0 {
		return []model.Hit{}, nil
	}

	compiled := s.compile(terms)

	sorted := make([]model.Document, len(docs))
	copy(sorted, docs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Name < sorted[j].Name
	})

	results := make([]*model.Hit, len(sorted))

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, s.workers)

	for i, doc := range sorted {
		wg.Add(1)
		go func(idx int, d model.Document) {
			defer wg.Done()

			select {
			case semaphore <- struct{}{}:
				defer func() { <-semaphore }()
			case <-ctx.Done():
				return
			}

			results[idx] = s.scanDocument(d, compiled)
		}(i, doc)
	}

	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	hits := make([]model.Hit, 0, len(results))
	for _, h := range results {
		if h != nil {
			hits = append(hits, *h)
		}
	}
	return hits, nil
}

func (s *Scanner) compile(terms model.ExpansionSet) []compiledTerm {
	matchers := query.CompileTerms(terms)
	compiled := make([]compiledTerm, len(matchers))
	for i, m := range matchers {
		compiled[i] = compiledTerm{matcher: m}
		if s.mode == model.ExcerptWindow {
			compiled[i].excerpt = regexp.MustCompile(
				fmt.Sprintf(`(?i).{0,%d}%s.{0,%d}`, s.window, m.Pattern(), s.window))
		}
	}
	return compiled
}

func (s *Scanner) scanDocument(doc model.Document, terms []compiledTerm) *model.Hit {
	for _, t := range terms {
		if !t.matcher.MatchString(doc.Text) {
			continue
		}
		return &model.Hit{
			Document: doc.Name,
			Excerpt:  s.excerpt(doc.Text, t),
			Term:     t.matcher.Term,
		}
	}
	return nil
}

func (s *Scanner) excerpt(text string, t compiledTerm) string {
	if s.mode == model.ExcerptPrefix {
		runes := []rune(text)
		if len(runes) > s.prefixLength {
			runes = runes[:s.prefixLength]
		}
		return string(runes)
	}
	return t.excerpt.FindString(text)
}
