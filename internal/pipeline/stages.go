// Package pipeline runs the dataset through its stages, persisting a
// snapshot after each one so a failed run can resume where it stopped.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	log "github.com/sirupsen/logrus"

	"github.com/ppiankov/nobelmap/internal/enrich"
	"github.com/ppiankov/nobelmap/internal/fix"
	"github.com/ppiankov/nobelmap/internal/geo"
	"github.com/ppiankov/nobelmap/internal/model"
	"github.com/ppiankov/nobelmap/internal/nobel"
	"github.com/ppiankov/nobelmap/internal/observability"
	"github.com/ppiankov/nobelmap/internal/override"
	"github.com/ppiankov/nobelmap/internal/store"
	"github.com/ppiankov/nobelmap/internal/validate"
)

// Stage names in run order
const (
	StageFetch         = "fetch"
	StageNobelPrizeOrg = "nobelprize_org"
	StageWikipedia     = "wikipedia"
	StageFixGeocoding  = "fix_geocoding"
	StageOverrides     = "overrides"
	StageValidate      = "validate"
)

// Checkpointer saves partial progress of the running stage
type Checkpointer func(ctx context.Context, ds model.Dataset) error

// StageFunc transforms a dataset. The input is never mutated; the returned
// dataset is a new value even when nothing changed.
type StageFunc func(ctx context.Context, in model.Dataset, checkpoint Checkpointer) (model.Dataset, []model.Summary, error)

// Stage is one step of the run
type Stage struct {
	Number  int
	Name    string
	Output  string // snapshot file written on success
	Publish bool   // also copy the output to the presentation dataset
	Run     StageFunc
}

// LaureateSource lists every laureate known to the Nobel API
type LaureateSource interface {
	Laureates(ctx context.Context) ([]nobel.Laureate, error)
}

// Deps are the collaborators the stages need
type Deps struct {
	Nobel         LaureateSource
	Resolver      geo.Resolver
	NobelPrizeOrg enrich.Source
	Wikipedia     enrich.Source
	OverridesFile string
	Store         *store.Store
	Every         int
	Clock         clockwork.Clock
	Logger        *log.Entry
	Metrics       *observability.Metrics
}

func (d Deps) logger(component string) *log.Entry {
	if d.Logger != nil {
		return d.Logger.WithField("prefix", component)
	}
	return observability.Logger(component)
}

func (d Deps) clock() clockwork.Clock {
	if d.Clock == nil {
		return clockwork.NewRealClock()
	}
	return d.Clock
}

// Stages returns the six stages in their fixed order
func Stages(d Deps) []Stage {
	return []Stage{
		{Number: 1, Name: StageFetch, Output: store.SnapshotRaw, Run: fetchStage(d)},
		{Number: 2, Name: StageNobelPrizeOrg, Output: store.SnapshotNobelPrizeOrg, Run: enrichStage(d, d.NobelPrizeOrg)},
		{Number: 3, Name: StageWikipedia, Output: store.SnapshotWikipedia, Run: enrichStage(d, d.Wikipedia)},
		{Number: 4, Name: StageFixGeocoding, Output: store.SnapshotFixed, Run: fixStage(d)},
		{Number: 5, Name: StageOverrides, Output: store.SnapshotOverrides, Run: overridesStage(d)},
		{Number: 6, Name: StageValidate, Output: store.SnapshotFinal, Publish: true, Run: validateStage(d)},
	}
}

func fetchStage(d Deps) StageFunc {
	return func(ctx context.Context, _ model.Dataset, _ Checkpointer) (model.Dataset, []model.Summary, error) {
		if d.Nobel == nil {
			return nil, nil, fmt.Errorf("no Nobel API client configured")
		}
		logger := d.logger("nobel")

		laureates, err := d.Nobel.Laureates(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("fetch laureates: %w", err)
		}
		logger.Infof("fetched %d laureates", len(laureates))

		ds, stats, err := nobel.NewNormalizer(d.Resolver, logger).Normalize(ctx, laureates)
		if err != nil {
			return nil, nil, err
		}
		return ds, []model.Summary{stats.Summary()}, nil
	}
}

func enrichStage(d Deps, source enrich.Source) StageFunc {
	return func(ctx context.Context, in model.Dataset, checkpoint Checkpointer) (model.Dataset, []model.Summary, error) {
		if source == nil {
			return nil, nil, fmt.Errorf("no enrichment source configured")
		}
		ds := in.Clone()
		e := enrich.NewEnricher(source, d.Resolver, d.Every, d.logger("enrich"), d.Metrics)
		summary, err := e.Run(ctx, ds, enrich.CheckpointFunc(checkpoint))
		return ds, []model.Summary{summary}, err
	}
}

func fixStage(d Deps) StageFunc {
	return func(ctx context.Context, in model.Dataset, checkpoint Checkpointer) (model.Dataset, []model.Summary, error) {
		ds := in.Clone()
		summaries, err := fix.NewFixer(d.Resolver, d.Every, d.logger("fix")).Run(ctx, ds, fix.CheckpointFunc(checkpoint))
		return ds, summaries, err
	}
}

func overridesStage(d Deps) StageFunc {
	return func(ctx context.Context, in model.Dataset, _ Checkpointer) (model.Dataset, []model.Summary, error) {
		logger := d.logger("override")
		f, err := override.Load(d.OverridesFile)
		if err != nil {
			return nil, nil, fmt.Errorf("load overrides: %w", err)
		}
		if len(f.Entries) == 0 {
			logger.Warnf("no overrides in %s", d.OverridesFile)
		}

		ds := in.Clone()
		result := override.Apply(ctx, ds, f.Entries, d.Resolver, logger)
		return ds, []model.Summary{result.Summary()}, nil
	}
}

func validateStage(d Deps) StageFunc {
	return func(_ context.Context, in model.Dataset, _ Checkpointer) (model.Dataset, []model.Summary, error) {
		logger := d.logger("validate")
		ds := in.Clone()
		summary := model.Summary{Name: StageValidate}

		if err := ds.Validate(); err != nil {
			logger.WithError(err).Warn("dataset invariant violated")
			summary.Fail(err.Error())
		}

		report := validate.Partition(ds)
		report.GeneratedAt = d.clock().Now().UTC().Format(time.RFC3339)
		if d.Store != nil {
			if err := d.Store.WriteReport(report); err != nil {
				return nil, nil, fmt.Errorf("write review artifacts: %w", err)
			}
		}
		if d.Metrics != nil {
			for partition, n := range report.Stats.Counts() {
				d.Metrics.Partition.WithLabelValues(partition).Set(float64(n))
			}
		}

		summary.Unchanged = report.Stats.Complete
		summary.Failed += report.Stats.NeedsManualReview + report.Stats.Suspicious
		logger.Infof("%d complete, %d need manual review, %d suspicious",
			report.Stats.Complete, report.Stats.NeedsManualReview, report.Stats.Suspicious)
		return ds, []model.Summary{summary}, nil
	}
}
