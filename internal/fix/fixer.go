package fix

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/ppiankov/nobelmap/internal/geo"
	"github.com/ppiankov/nobelmap/internal/location"
	"github.com/ppiankov/nobelmap/internal/model"
	"github.com/ppiankov/nobelmap/internal/observability"
	"github.com/ppiankov/nobelmap/internal/worker"
)

// VerifyTolerance is the per-axis drift in degrees (about 1km) below which
// a re-geocoded point counts as unchanged
const VerifyTolerance = 0.01

// CheckpointFunc persists the dataset between records
type CheckpointFunc func(ctx context.Context, ds model.Dataset) error

type outcome int

const (
	skipped outcome = iota
	updated
	unchanged
	failed
)

// Fixer runs the geocoding repair steps over a dataset
type Fixer struct {
	resolver geo.Resolver
	rules    []Rule
	every    int
	logger   *log.Entry
}

// NewFixer creates a fixer with the default rules
func NewFixer(resolver geo.Resolver, every int, logger *log.Entry) *Fixer {
	if logger == nil {
		logger = observability.Logger("fix")
	}
	return &Fixer{resolver: resolver, rules: Rules(), every: every, logger: logger}
}

// WithRules replaces the rule list
func (f *Fixer) WithRules(rules ...Rule) *Fixer {
	f.rules = rules
	return f
}

// Run mutates ds in place and returns one summary per step:
//
//  1. re-resolve zero coordinates
//  2. each correction rule in order
//  3. replace affiliation text with its clean geography when that resolves
//  4. re-verify every work point against its text, skipping pinned points
//
// A second run over its own output reports no updates.
func (f *Fixer) Run(ctx context.Context, ds model.Dataset, checkpoint CheckpointFunc) ([]model.Summary, error) {
	var summaries []model.Summary

	s, err := f.step(ctx, ds, "reresolve_zero", checkpoint, f.reresolveZero)
	summaries = append(summaries, s)
	if err != nil {
		return summaries, err
	}

	for _, rule := range f.rules {
		rule := rule
		s, err := f.step(ctx, ds, rule.Name(), checkpoint, func(ctx context.Context, l *model.Laureate) outcome {
			if rule.Apply(ctx, l, f.resolver) {
				return updated
			}
			return skipped
		})
		summaries = append(summaries, s)
		if err != nil {
			return summaries, err
		}
	}

	s, err = f.step(ctx, ds, "extract_location", checkpoint, f.extractLocation)
	summaries = append(summaries, s)
	if err != nil {
		return summaries, err
	}

	s, err = f.step(ctx, ds, "reverify", checkpoint, f.reverify)
	summaries = append(summaries, s)
	return summaries, err
}

func (f *Fixer) step(ctx context.Context, ds model.Dataset, name string, checkpoint CheckpointFunc, fn func(context.Context, *model.Laureate) outcome) (model.Summary, error) {
	summary := model.Summary{Name: name}

	var records []*model.Laureate
	ds.Each(func(_ string, l *model.Laureate) {
		records = append(records, l)
	})

	var flush worker.FlushFunc
	if checkpoint != nil {
		flush = func(ctx context.Context, _ int) error { return checkpoint(ctx, ds) }
	}

	_, err := worker.NewBatch(f.every, flush).Run(ctx, len(records), func(ctx context.Context, i int) error {
		l := records[i]
		switch fn(ctx, l) {
		case updated:
			summary.Updated++
		case unchanged:
			summary.Unchanged++
		case failed:
			summary.Fail(l.ID + ": " + l.WorkLocation)
		}
		return nil
	})

	f.logger.Info(summary.String())
	return summary, err
}

func (f *Fixer) reresolveZero(ctx context.Context, l *model.Laureate) outcome {
	tried, fixed := false, false

	if l.BirthCoords().IsZero() && l.BirthLocation != "" {
		tried = true
		if c, ok := f.resolve(ctx, l.BirthLocation); ok {
			l.SetBirthCoords(c)
			fixed = true
		}
	}
	if l.WorkCoords().IsZero() && l.WorkLocation != "" {
		tried = true
		if c, ok := f.resolve(ctx, l.WorkLocation); ok {
			l.SetWorkCoords(c)
			fixed = true
		}
	}

	switch {
	case fixed:
		return updated
	case tried:
		f.logger.Debugf("%s: still unresolved", l.ID)
		return failed
	default:
		return skipped
	}
}

func (f *Fixer) extractLocation(ctx context.Context, l *model.Laureate) outcome {
	if !f.revisable(l) {
		return skipped
	}
	clean, ok := location.ExtractGeography(l.WorkLocation)
	if !ok || clean == l.WorkLocation {
		return skipped
	}

	c, ok := f.resolver.Resolve(ctx, clean)
	if !ok {
		return unchanged
	}
	f.logger.Debugf("%s: %q -> %q", l.ID, l.WorkLocation, clean)
	l.WorkLocation = clean
	l.SetWorkCoords(c)
	return updated
}

func (f *Fixer) reverify(ctx context.Context, l *model.Laureate) outcome {
	if l.WorkLocation == "" || l.DataSource == model.SourceManual || f.pinned(l) {
		return skipped
	}

	c, ok := f.resolve(ctx, l.WorkLocation)
	if !ok {
		return failed
	}
	old := l.WorkCoords()
	if !old.IsZero() && old.Within(c, VerifyTolerance) {
		return unchanged
	}
	f.logger.Debugf("%s: %q moved %.4f,%.4f -> %.4f,%.4f", l.ID, l.WorkLocation, old.Lat, old.Lon, c.Lat, c.Lon)
	l.SetWorkCoords(c)
	return updated
}

// revisable reports whether the work text may be rewritten. Placeholders
// must keep mirroring the birth location.
func (f *Fixer) revisable(l *model.Laureate) bool {
	return l.WorkLocation != "" &&
		!l.NeedsEnrichment &&
		l.DataSource != model.SourceManual &&
		!f.pinned(l)
}

func (f *Fixer) pinned(l *model.Laureate) bool {
	for _, r := range f.rules {
		if p, ok := r.(Pinner); ok && p.Pins(l) {
			return true
		}
	}
	return false
}

func (f *Fixer) resolve(ctx context.Context, text string) (model.Coordinates, bool) {
	if c, ok := f.resolver.Resolve(ctx, text); ok {
		return c, true
	}
	if clean, ok := location.Normalize(text); ok && clean != text {
		return f.resolver.Resolve(ctx, clean)
	}
	return model.Coordinates{}, false
}
