// Package store persists curated metadata records as a JSON list.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ppiankov/activearchive/internal/model"
)

var (
	// ErrNilRecord is returned when Append is called without a record
	ErrNilRecord = errors.New("nil record")
	// ErrEmptyPath is returned when the store has no file path
	ErrEmptyPath = errors.New("empty store path")
)

var (
	nowFunc   = time.Now
	newIDFunc = func() string { return uuid.NewString() }
)

// JSONStore keeps records in a single JSON array file
type JSONStore struct {
	path string
	mu   sync.Mutex
}

// NewJSONStore creates a store backed by path
func NewJSONStore(path string) (*JSONStore, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}
	return &JSONStore{path: path}, nil
}

// Path returns the backing file
func (s *JSONStore) Path() string {
	return s.path
}

// Append assigns an id and creation time when missing and adds the
// record to the end of the list
func (s *JSONStore) Append(ctx context.Context, record *model.MetadataRecord) error {
	if record == nil {
		return ErrNilRecord
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return err
	}

	if record.ID == "" {
		record.ID = newIDFunc()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = nowFunc().UTC()
	}

	records = append(records, *record)
	return s.write(records)
}

// Load returns every stored record; a missing file is an empty store
func (s *JSONStore) Load(ctx context.Context) ([]model.MetadataRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *JSONStore) load() ([]model.MetadataRecord, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return []model.MetadataRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read store: %w", err)
	}

	if len(data) == 0 {
		return []model.MetadataRecord{}, nil
	}

	var records []model.MetadataRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode store %s: %w", s.path, err)
	}
	if records == nil {
		records = []model.MetadataRecord{}
	}
	return records, nil
}

// write replaces the file atomically via a temp file in the same directory
func (s *JSONStore) write(records []model.MetadataRecord) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(records); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("encode store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace store: %w", err)
	}
	return nil
}
