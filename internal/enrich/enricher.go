// Package enrich fills in work locations for laureates the Nobel API left
// on the birth placeholder.
package enrich

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/ppiankov/nobelmap/internal/geo"
	"github.com/ppiankov/nobelmap/internal/location"
	"github.com/ppiankov/nobelmap/internal/model"
	"github.com/ppiankov/nobelmap/internal/observability"
	"github.com/ppiankov/nobelmap/internal/worker"
)

// Source finds a work location for one laureate. An empty string means the
// source has no answer; errors are transport or parse failures.
type Source interface {
	Name() string
	DataSource() model.DataSource
	Find(ctx context.Context, category string, l model.Laureate) (string, error)
}

// CheckpointFunc persists the dataset mid-run
type CheckpointFunc func(ctx context.Context, ds model.Dataset) error

// Enricher runs one source over every record still needing enrichment
type Enricher struct {
	source   Source
	resolver geo.Resolver
	every    int
	logger   *log.Entry
	metrics  *observability.Metrics
}

// NewEnricher creates an enricher that checkpoints every `every` records
func NewEnricher(source Source, resolver geo.Resolver, every int, logger *log.Entry, metrics *observability.Metrics) *Enricher {
	if logger == nil {
		logger = observability.Logger("enrich")
	}
	return &Enricher{
		source:   source,
		resolver: resolver,
		every:    every,
		logger:   logger.WithField("source", source.Name()),
		metrics:  metrics,
	}
}

type pending struct {
	category string
	record   *model.Laureate
}

// Run mutates ds in place. Records this source already tried are skipped,
// so a run resumed from a partial checkpoint continues where it stopped.
// Every visited record gets the source name appended to
// enrichment_attempts whether or not the source answers. A
// found location moves the record off the placeholder; coordinates that
// cannot be resolved are set to (0,0) for validation to flag.
func (e *Enricher) Run(ctx context.Context, ds model.Dataset, checkpoint CheckpointFunc) (model.Summary, error) {
	summary := model.Summary{Name: e.source.Name()}

	var queue []pending
	ds.Each(func(category string, l *model.Laureate) {
		if l.NeedsEnrichment && !l.Attempted(e.source.Name()) {
			queue = append(queue, pending{category: category, record: l})
		}
	})
	e.logger.Infof("%d records need enrichment", len(queue))

	var flush worker.FlushFunc
	if checkpoint != nil {
		flush = func(ctx context.Context, done int) error {
			e.logger.Debugf("checkpoint after %d/%d records", done, len(queue))
			return checkpoint(ctx, ds)
		}
	}

	batch := worker.NewBatch(e.every, flush)
	_, err := batch.Run(ctx, len(queue), func(ctx context.Context, i int) error {
		return e.enrichOne(ctx, queue[i], &summary)
	})
	return summary, err
}

func (e *Enricher) enrichOne(ctx context.Context, p pending, summary *model.Summary) error {
	l := p.record
	found, err := e.source.Find(ctx, p.category, *l)
	if err != nil && ctx.Err() != nil {
		// interrupted, not attempted
		return ctx.Err()
	}
	l.RecordAttempt(e.source.Name())

	if err != nil {
		e.count("error")
		e.logger.WithError(err).Warnf("%s (%s): lookup failed", l.Name, l.ID)
		summary.Fail(fmt.Sprintf("%s (%s): %v", l.Name, l.ID, err))
		return nil
	}
	if found == "" {
		e.count("empty")
		e.logger.Debugf("%s (%s): no affiliation found", l.Name, l.ID)
		summary.Unchanged++
		return nil
	}

	if !l.Advance(e.source.DataSource()) {
		e.logger.Warnf("%s (%s): refusing to move from %s to %s", l.Name, l.ID, l.DataSource, e.source.DataSource())
		summary.Unchanged++
		return nil
	}
	e.count("found")
	l.WorkLocation = found
	l.NeedsEnrichment = false

	coords, ok := e.resolve(ctx, found)
	l.SetWorkCoords(coords)
	summary.Updated++
	if ok {
		e.logger.Debugf("%s (%s): %s -> %.4f,%.4f", l.Name, l.ID, found, coords.Lat, coords.Lon)
	} else {
		e.logger.Warnf("%s (%s): found %q but could not geocode it", l.Name, l.ID, found)
	}
	return nil
}

// resolve tries the text as found, then its cleaned geographic tail
func (e *Enricher) resolve(ctx context.Context, text string) (model.Coordinates, bool) {
	if c, ok := e.resolver.Resolve(ctx, text); ok {
		return c, true
	}
	if clean, ok := location.Normalize(text); ok && clean != text {
		if c, ok := e.resolver.Resolve(ctx, clean); ok {
			return c, true
		}
	}
	return model.Coordinates{}, false
}

func (e *Enricher) count(outcome string) {
	if e.metrics != nil {
		e.metrics.EnrichmentAttempts.WithLabelValues(e.source.Name(), outcome).Inc()
	}
}
