package cache

import "time"

// LayeredCache checks memory before the file layer and writes to both
type LayeredCache struct {
	memory *MemoryCache
	file   *FileCache
}

// NewLayeredCache creates a memory cache in front of a JSON file cache
func NewLayeredCache(memoryTTL time.Duration, path string, fileTTL time.Duration) *LayeredCache {
	return &LayeredCache{
		memory: NewMemoryCache(memoryTTL, 10*time.Minute),
		file:   NewFileCache(path, fileTTL),
	}
}

func (c *LayeredCache) Get(key string) ([]byte, bool) {
	if val, found := c.memory.Get(key); found {
		return val, true
	}

	if val, found := c.file.Get(key); found {
		_ = c.memory.Set(key, val, 0)
		return val, true
	}

	return nil, false
}

func (c *LayeredCache) Set(key string, value []byte, ttl time.Duration) error {
	if err := c.memory.Set(key, value, ttl); err != nil {
		return err
	}
	return c.file.Set(key, value, ttl)
}

func (c *LayeredCache) Delete(key string) error {
	_ = c.memory.Delete(key)
	return c.file.Delete(key)
}

func (c *LayeredCache) Clear() error {
	_ = c.memory.Clear()
	return c.file.Clear()
}

// Flush persists the file layer
func (c *LayeredCache) Flush() error {
	return c.file.Flush()
}

// File exposes the file layer, mainly so tests can swap its clock
func (c *LayeredCache) File() *FileCache {
	return c.file
}
