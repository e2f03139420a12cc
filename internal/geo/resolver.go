// Package geo resolves free-text place names to coordinates through an
// ordered chain of lookup strategies.
package geo

import (
	"context"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ppiankov/nobelmap/internal/cache"
	"github.com/ppiankov/nobelmap/internal/model"
	"github.com/ppiankov/nobelmap/internal/observability"
)

// Resolver turns a location string into coordinates. ok is false when no
// backend produced a usable point.
type Resolver interface {
	Resolve(ctx context.Context, text string) (model.Coordinates, bool)
}

// ResolverFunc adapts a plain function to Resolver
type ResolverFunc func(ctx context.Context, text string) (model.Coordinates, bool)

func (f ResolverFunc) Resolve(ctx context.Context, text string) (model.Coordinates, bool) {
	return f(ctx, text)
}

// Strategy is one geocoding backend. An empty result is (zero, false, nil);
// errors are reserved for transport and decoding failures.
type Strategy interface {
	Name() string
	Lookup(ctx context.Context, query string) (model.Coordinates, bool, error)
}

// Chain tries each strategy in order and returns the first match
type Chain struct {
	strategies []Strategy
	logger     *log.Entry
	metrics    *observability.Metrics
}

// NewChain builds a resolver over strategies, tried in the given order
func NewChain(logger *log.Entry, metrics *observability.Metrics, strategies ...Strategy) *Chain {
	if logger == nil {
		logger = observability.Logger("geo")
	}
	return &Chain{
		strategies: strategies,
		logger:     logger,
		metrics:    metrics,
	}
}

// Resolve never fails: backend errors are logged and counted, then the
// next strategy is tried. A backend answering (0,0) is treated as no match.
func (c *Chain) Resolve(ctx context.Context, text string) (model.Coordinates, bool) {
	query := strings.TrimSpace(text)
	if query == "" {
		return model.Coordinates{}, false
	}

	for _, s := range c.strategies {
		if ctx.Err() != nil {
			return model.Coordinates{}, false
		}

		start := time.Now()
		coords, ok, err := s.Lookup(ctx, query)
		c.observeDuration(s.Name(), time.Since(start))

		switch {
		case err != nil:
			c.count(s.Name(), "error")
			c.logger.WithError(err).WithField("backend", s.Name()).Warnf("lookup failed for %q", query)
		case ok && !coords.IsZero():
			c.count(s.Name(), "hit")
			c.logger.Debugf("%s resolved %q to %.4f,%.4f", s.Name(), query, coords.Lat, coords.Lon)
			return coords, true
		default:
			c.count(s.Name(), "miss")
		}
	}

	c.logger.Debugf("no backend resolved %q", query)
	return model.Coordinates{}, false
}

// Flush persists any buffered cache writes held by the strategies
func (c *Chain) Flush() error {
	for _, s := range c.strategies {
		if f, ok := s.(cache.Flusher); ok {
			if err := f.Flush(); err != nil {
				return err
			}
		}
	}
	return nil
}

// Strategies returns the backend names in lookup order
func (c *Chain) Strategies() []string {
	names := make([]string, len(c.strategies))
	for i, s := range c.strategies {
		names[i] = s.Name()
	}
	return names
}

func (c *Chain) count(backend, outcome string) {
	if c.metrics != nil {
		c.metrics.GeocodeRequests.WithLabelValues(backend, outcome).Inc()
	}
}

func (c *Chain) observeDuration(backend string, d time.Duration) {
	if c.metrics != nil {
		c.metrics.GeocodeDuration.WithLabelValues(backend).Observe(d.Seconds())
	}
}
