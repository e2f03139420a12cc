package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache stores opaque values by key
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Flusher is implemented by caches that buffer writes
type Flusher interface {
	Flush() error
}

// Key builds a namespaced cache key. The query is hashed so keys stay
// short and file-safe.
func Key(namespace, query string) string {
	hash := sha256.Sum256([]byte(query))
	return "nobelmap:v1:" + namespace + ":" + hex.EncodeToString(hash[:12])
}
