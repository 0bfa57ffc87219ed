package worker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ppiankov/activearchive/internal/model"
)

// ErrJobNotRun marks files the pool never picked up
var ErrJobNotRun = errors.New("job not run")

// Curator curates one document
type Curator interface {
	Curate(ctx context.Context, path string) (*model.MetadataRecord, error)
}

// CurateJob curates one file
type CurateJob struct {
	Path    string
	Curator Curator
}

// Execute executes the curation job
func (j *CurateJob) Execute(ctx context.Context) Result {
	record, err := j.Curator.Curate(ctx, j.Path)
	return &CurateResult{
		Path:   j.Path,
		Record: record,
		Error:  err,
	}
}

// CurateResult is the outcome of one curation job
type CurateResult struct {
	Path   string
	Record *model.MetadataRecord
	Error  error
}

// GetError returns the error from the curation result
func (r *CurateResult) GetError() error {
	return r.Error
}

// BatchCurator curates many files concurrently
type BatchCurator struct {
	curator     Curator
	concurrency int
}

// NewBatchCurator creates a batch curator
func NewBatchCurator(curator Curator, concurrency int) *BatchCurator {
	return &BatchCurator{
		curator:     curator,
		concurrency: concurrency,
	}
}

// ProcessFiles curates files concurrently. Results are returned in input
// order; a failed file does not stop the batch.
func (b *BatchCurator) ProcessFiles(ctx context.Context, paths []string) []*CurateResult {
	if len(paths) == 0 {
		return []*CurateResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	for _, path := range paths {
		if !pool.Submit(&CurateJob{Path: path, Curator: b.curator}) {
			break
		}
	}

	byPath := make(map[string]*CurateResult, len(paths))
	for _, result := range pool.Wait() {
		if r, ok := result.(*CurateResult); ok {
			byPath[r.Path] = r
		}
	}

	results := make([]*CurateResult, 0, len(paths))
	for _, path := range paths {
		r, ok := byPath[path]
		if !ok {
			err := ctx.Err()
			if err == nil {
				err = ErrJobNotRun
			}
			r = &CurateResult{Path: path, Error: err}
		}
		results = append(results, r)
	}

	return results
}

// ProcessDir curates every file in dir matching one of patterns
func (b *BatchCurator) ProcessDir(ctx context.Context, dir string, patterns []string) ([]*CurateResult, error) {
	paths, err := MatchFiles(dir, patterns)
	if err != nil {
		return nil, err
	}
	return b.ProcessFiles(ctx, paths), nil
}

// MatchFiles lists the regular files of dir matching any pattern, sorted
// and without duplicates
func MatchFiles(dir string, patterns []string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}

	seen := make(map[string]bool)
	var paths []string
	for _, pattern := range patterns {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}

		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", pattern, err)
		}
		for _, m := range matches {
			if seen[m] {
				continue
			}
			if fi, err := os.Stat(m); err != nil || !fi.Mode().IsRegular() {
				continue
			}
			seen[m] = true
			paths = append(paths, m)
		}
	}

	sort.Strings(paths)
	return paths, nil
}
