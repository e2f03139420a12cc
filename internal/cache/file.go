package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// FileCache keeps every entry in one JSON document on disk. Entries are
// held in memory and written back on Flush, so a long batch run pays for
// a single write per checkpoint rather than one file per lookup.
type FileCache struct {
	path  string
	ttl   time.Duration
	clock clockwork.Clock

	mu      sync.Mutex
	entries map[string]fileEntry
	loaded  bool
	dirty   bool
}

type fileEntry struct {
	Data      json.RawMessage `json:"data"`
	ExpiresAt time.Time       `json:"expires_at"`
}

// NewFileCache creates a cache backed by path. ttl applies when Set is
// called with a zero ttl.
func NewFileCache(path string, ttl time.Duration) *FileCache {
	return &FileCache{
		path:    path,
		ttl:     ttl,
		clock:   clockwork.NewRealClock(),
		entries: make(map[string]fileEntry),
	}
}

// SetClock replaces the clock used for expiry
func (c *FileCache) SetClock(clock clockwork.Clock) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clock = clock
}

func (c *FileCache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.load(); err != nil {
		return nil, false
	}

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.clock.Now().After(entry.ExpiresAt) {
		delete(c.entries, key)
		c.dirty = true
		return nil, false
	}
	return []byte(entry.Data), true
}

// Set stores value, which must be valid JSON
func (c *FileCache) Set(key string, value []byte, ttl time.Duration) error {
	if !json.Valid(value) {
		return fmt.Errorf("file cache value for %s is not JSON", key)
	}
	if ttl == 0 {
		ttl = c.ttl
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.load(); err != nil {
		return err
	}
	c.entries[key] = fileEntry{
		Data:      append(json.RawMessage{}, value...),
		ExpiresAt: c.clock.Now().Add(ttl),
	}
	c.dirty = true
	return nil
}

func (c *FileCache) Delete(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.load(); err != nil {
		return err
	}
	if _, ok := c.entries[key]; ok {
		delete(c.entries, key)
		c.dirty = true
	}
	return nil
}

// Clear drops every entry and removes the backing file
func (c *FileCache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]fileEntry)
	c.loaded = true
	c.dirty = false
	if err := os.Remove(c.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove cache file: %w", err)
	}
	return nil
}

// Flush writes pending changes to disk
func (c *FileCache) Flush() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.dirty {
		return nil
	}

	data, err := json.MarshalIndent(c.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal cache: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write cache file: %w", err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		return fmt.Errorf("replace cache file: %w", err)
	}
	c.dirty = false
	return nil
}

// load reads the backing file once. A missing file is an empty cache.
func (c *FileCache) load() error {
	if c.loaded {
		return nil
	}

	data, err := os.ReadFile(c.path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		c.loaded = true
		return nil
	case err != nil:
		return fmt.Errorf("read cache file: %w", err)
	}

	entries := make(map[string]fileEntry)
	if err := json.Unmarshal(data, &entries); err != nil {
		// a corrupt cache is discarded rather than failing the run
		entries = make(map[string]fileEntry)
		c.dirty = true
	}
	c.entries = entries
	c.loaded = true
	return nil
}
