package cache

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// nowFunc drives disk entry expiry; replaced in tests
var nowFunc = time.Now

const diskSuffix = ".entry"

// DiskCache stores one file per key under dir, sharded by the last two
// characters of the key. A file holds the expiry time on its first line
// followed by the raw value.
type DiskCache struct {
	dir string
	ttl time.Duration
}

// NewDiskCache creates a disk cache rooted at dir
func NewDiskCache(dir string, ttl time.Duration) *DiskCache {
	return &DiskCache{dir: dir, ttl: ttl}
}

// Get reads key. Expired or corrupt entries are removed and reported as a
// miss.
func (c *DiskCache) Get(key string) ([]byte, bool) {
	path := c.path(key)

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}

	header, value, ok := bytes.Cut(raw, []byte{'\n'})
	if !ok {
		_ = os.Remove(path)
		return nil, false
	}

	expires, err := time.Parse(time.RFC3339Nano, string(header))
	if err != nil || !nowFunc().Before(expires) {
		_ = os.Remove(path)
		return nil, false
	}

	return value, true
}

// Set writes key atomically. ttl 0 means the cache TTL.
func (c *DiskCache) Set(key string, value []byte, ttl time.Duration) error {
	if ttl == 0 {
		ttl = c.ttl
	}

	path := c.path(key)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	w := bufio.NewWriter(tmp)
	_, _ = w.WriteString(nowFunc().Add(ttl).UTC().Format(time.RFC3339Nano))
	_ = w.WriteByte('\n')
	_, _ = w.Write(value)
	if err := errors.Join(w.Flush(), tmp.Close()); err != nil {
		return fmt.Errorf("write cache entry: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("commit cache entry: %w", err)
	}
	return nil
}

// Delete removes key; a missing key is not an error
func (c *DiskCache) Delete(key string) error {
	err := os.Remove(c.path(key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete cache entry: %w", err)
	}
	return nil
}

// Clear removes every entry file, leaving unrelated files in dir alone
func (c *DiskCache) Clear() error {
	err := filepath.WalkDir(c.dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, diskSuffix) {
			return os.Remove(path)
		}
		return nil
	})
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("clear cache: %w", err)
	}
	return nil
}

func (c *DiskCache) path(key string) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, key)

	shard := "00"
	if len(name) >= 2 {
		shard = name[len(name)-2:]
	}
	return filepath.Join(c.dir, shard, name+diskSuffix)
}
