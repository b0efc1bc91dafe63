// Package cache stores derived lookup data (never computed statistics) as
// checksummed JSON files.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
)

// entryVersion is bumped whenever the on-disk layout changes; older files
// then read as misses.
const entryVersion = 1

type entry[T any] struct {
	Version  int       `json:"version"`
	Data     T         `json:"data"`
	StoredAt time.Time `json:"stored_at"`
	Sum      string    `json:"sum"`
}

// FileCache keeps one JSON file per key under dir. Corrupt, tampered or
// outdated files are treated as misses.
type FileCache[T any] struct {
	dir string
}

func NewFileCache[T any](dir string) *FileCache[T] {
	return &FileCache[T]{dir: dir}
}

func (c *FileCache[T]) Dir() string { return c.dir }

// GenerateKey hashes parts into a file name safe key.
func (c *FileCache[T]) GenerateKey(parts ...any) string {
	h := xxhash.New()
	for _, p := range parts {
		_, _ = fmt.Fprintf(h, "%v\x00", p)
	}
	return strconv.FormatUint(h.Sum64(), 16)
}

func (c *FileCache[T]) Get(key string) (T, bool) {
	var zero T
	raw, err := os.ReadFile(c.file(key))
	if err != nil {
		return zero, false
	}

	var e entry[T]
	if json.Unmarshal(raw, &e) != nil || e.Version != entryVersion {
		return zero, false
	}
	if sum, err := digest(e.Data); err != nil || sum != e.Sum {
		return zero, false
	}
	return e.Data, true
}

// Set replaces the entry for key. The file is written beside its final
// name and renamed, so readers never see a partial entry.
func (c *FileCache[T]) Set(key string, data T) error {
	sum, err := digest(data)
	if err != nil {
		return fmt.Errorf("cache %s: %w", key, err)
	}
	raw, err := json.Marshal(entry[T]{Version: entryVersion, Data: data, StoredAt: time.Now().UTC(), Sum: sum})
	if err != nil {
		return fmt.Errorf("cache %s: %w", key, err)
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("cache dir %s: %w", c.dir, err)
	}

	tmp, err := os.CreateTemp(c.dir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("cache %s: %w", key, err)
	}
	_, werr := tmp.Write(raw)
	cerr := tmp.Close()
	if err := errors.Join(werr, cerr); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("cache %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), c.file(key)); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("cache %s: %w", key, err)
	}
	return nil
}

// Invalidate drops key; a missing entry is not an error.
func (c *FileCache[T]) Invalidate(key string) error {
	if err := os.Remove(c.file(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("cache %s: %w", key, err)
	}
	return nil
}

func (c *FileCache[T]) file(key string) string {
	return filepath.Join(c.dir, key+".json")
}

func digest(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return strconv.FormatUint(xxhash.Sum64(raw), 16), nil
}
