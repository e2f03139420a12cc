package geo

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ppiankov/nobelmap/internal/cache"
	"github.com/ppiankov/nobelmap/internal/location"
	"github.com/ppiankov/nobelmap/internal/model"
	"github.com/ppiankov/nobelmap/internal/observability"
)

// Cached wraps a strategy with a result cache. Only positive results are
// stored so a transient "not found" is retried on the next run.
type Cached struct {
	inner   Strategy
	cache   cache.Cache
	ttl     time.Duration
	metrics *observability.Metrics
}

// NewCached creates a cache decorator around inner
func NewCached(inner Strategy, c cache.Cache, ttl time.Duration, metrics *observability.Metrics) *Cached {
	return &Cached{inner: inner, cache: c, ttl: ttl, metrics: metrics}
}

func (c *Cached) Name() string { return c.inner.Name() }

func (c *Cached) Lookup(ctx context.Context, query string) (model.Coordinates, bool, error) {
	key := cache.Key("geo:"+c.inner.Name(), location.Fold(query))

	if data, ok := c.cache.Get(key); ok {
		var coords model.Coordinates
		if err := json.Unmarshal(data, &coords); err == nil && !coords.IsZero() {
			c.observe("hit")
			return coords, true, nil
		}
		_ = c.cache.Delete(key)
	}
	c.observe("miss")

	coords, ok, err := c.inner.Lookup(ctx, query)
	if err != nil || !ok || coords.IsZero() {
		return coords, ok, err
	}

	if data, err := json.Marshal(coords); err == nil {
		_ = c.cache.Set(key, data, c.ttl)
	}
	return coords, true, nil
}

// Flush writes buffered entries when the underlying cache supports it
func (c *Cached) Flush() error {
	if f, ok := c.cache.(cache.Flusher); ok {
		return f.Flush()
	}
	return nil
}

func (c *Cached) observe(result string) {
	if c.metrics != nil {
		c.metrics.GeocodeCache.WithLabelValues(result).Inc()
	}
}
