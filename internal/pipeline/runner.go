package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"
	log "github.com/sirupsen/logrus"

	"github.com/ppiankov/nobelmap/internal/model"
	"github.com/ppiankov/nobelmap/internal/observability"
	"github.com/ppiankov/nobelmap/internal/store"
)

var (
	// ErrMissingSnapshot is returned when a stage's input snapshot is absent
	ErrMissingSnapshot = errors.New("input snapshot missing")

	// ErrMissingCredentials is returned when assisted search has no usable
	// provider key
	ErrMissingCredentials = errors.New("missing LLM credentials")
)

// Result is the outcome of one stage
type Result struct {
	Stage     string
	Summaries []model.Summary
	Duration  time.Duration
}

// Runner executes a range of stages, loading the snapshot before the
// first one and writing each stage's snapshot after it succeeds
type Runner struct {
	store   *store.Store
	stages  []Stage
	clock   clockwork.Clock
	logger  *log.Entry
	metrics *observability.Metrics
}

// NewRunner creates a runner over stages, which must be numbered from 1
// in order
func NewRunner(st *store.Store, stages []Stage, clock clockwork.Clock, logger *log.Entry, metrics *observability.Metrics) *Runner {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = observability.Logger("pipeline")
	}
	return &Runner{
		store:   st,
		stages:  stages,
		clock:   clock,
		logger:  logger,
		metrics: metrics,
	}
}

// Stages returns the configured stages
func (r *Runner) Stages() []Stage { return r.stages }

// Lookup finds a stage by name or number
func (r *Runner) Lookup(key string) (Stage, bool) {
	n, err := strconv.Atoi(key)
	for _, s := range r.stages {
		if s.Name == key || (err == nil && s.Number == n) {
			return s, true
		}
	}
	return Stage{}, false
}

// Run executes stages from..to inclusive. Zero values mean the first and
// last stage. A failing stage stops the run; snapshots of the stages that
// completed stay on disk, as does the partial checkpoint of the failed one.
func (r *Runner) Run(ctx context.Context, from, to int) ([]Result, error) {
	if from <= 0 {
		from = 1
	}
	if to <= 0 {
		to = len(r.stages)
	}
	if from > to || to > len(r.stages) {
		return nil, fmt.Errorf("invalid stage range %d..%d (have 1..%d)", from, to, len(r.stages))
	}

	var ds model.Dataset
	if from > 1 {
		var err error
		if ds, err = r.input(r.stages[from-2], r.stages[from-1]); err != nil {
			return nil, err
		}
	}

	var results []Result
	for _, s := range r.stages[from-1 : to] {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		r.logger.Infof("stage %d/%d: %s", s.Number, len(r.stages), s.Name)
		start := r.clock.Now()
		out, summaries, err := s.Run(ctx, ds, r.checkpointer(s))
		elapsed := r.clock.Since(start)

		results = append(results, Result{Stage: s.Name, Summaries: summaries, Duration: elapsed})
		r.observe(s, summaries, elapsed)
		if err != nil {
			return results, fmt.Errorf("stage %d (%s): %w", s.Number, s.Name, err)
		}

		if err := r.store.WriteDataset(s.Output, out); err != nil {
			return results, fmt.Errorf("stage %d (%s): write snapshot: %w", s.Number, s.Name, err)
		}
		if err := r.store.Remove(store.PartialName(s.Output)); err != nil {
			r.logger.WithError(err).Warnf("could not remove partial checkpoint of %s", s.Name)
		}
		if s.Publish {
			if err := r.store.Publish(out); err != nil {
				return results, fmt.Errorf("publish dataset: %w", err)
			}
			r.logger.Infof("published %d records to %s", out.Count(), r.store.PublishPath())
		}
		ds = out
	}
	return results, nil
}

// RunStage executes one stage against the previous stage's snapshot
func (r *Runner) RunStage(ctx context.Context, key string) (Result, error) {
	s, ok := r.Lookup(key)
	if !ok {
		return Result{}, fmt.Errorf("unknown stage %q", key)
	}
	results, err := r.Run(ctx, s.Number, s.Number)
	if len(results) == 0 {
		return Result{Stage: s.Name}, err
	}
	return results[0], err
}

// input picks the dataset the first stage of a run starts from: the
// partial checkpoint of an interrupted earlier attempt at that stage when it
// is newer than the previous stage's snapshot, otherwise that snapshot
func (r *Runner) input(prev, first Stage) (model.Dataset, error) {
	partial := store.PartialName(first.Output)
	if at, ok := r.store.ModTime(partial); ok {
		prevAt, prevOK := r.store.ModTime(prev.Output)
		if !prevOK || !at.Before(prevAt) {
			ds, err := r.load(partial)
			if err == nil {
				r.logger.Infof("resuming %s from partial checkpoint", first.Name)
				return ds, nil
			}
			r.logger.WithError(err).Warnf("ignoring unreadable checkpoint %s", partial)
		} else {
			r.logger.Infof("ignoring stale checkpoint %s", partial)
		}
	}

	ds, err := r.load(prev.Output)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s (run stage %d %s first)", ErrMissingSnapshot, r.store.Path(prev.Output), prev.Number, prev.Name)
	}
	return ds, err
}

func (r *Runner) load(name string) (model.Dataset, error) {
	ds, err := r.store.ReadDataset(name)
	if err != nil {
		return nil, err
	}
	if err := ds.Validate(); err != nil {
		r.logger.WithError(err).Warnf("snapshot %s is inconsistent", name)
	}
	r.logger.Infof("loaded %d records from %s", ds.Count(), name)
	return ds, nil
}

// checkpointer saves progress under the stage's partial name; the real
// snapshot is written only when the stage completes
func (r *Runner) checkpointer(s Stage) Checkpointer {
	name := store.PartialName(s.Output)
	return func(_ context.Context, ds model.Dataset) error {
		r.logger.Debugf("checkpoint %s", name)
		return r.store.WriteDataset(name, ds)
	}
}

func (r *Runner) observe(s Stage, summaries []model.Summary, elapsed time.Duration) {
	for _, sum := range summaries {
		r.logger.Info(sum.String())
		if len(sum.Failures) > 0 {
			r.logger.Debugf("%s failures:\n%s", sum.Name, sum.FailureList())
		}
	}
	if r.metrics == nil {
		return
	}
	r.metrics.StageDuration.WithLabelValues(s.Name).Observe(elapsed.Seconds())
	for _, sum := range summaries {
		r.metrics.StageChanges.WithLabelValues(s.Name, "updated").Add(float64(sum.Updated))
		r.metrics.StageChanges.WithLabelValues(s.Name, "unchanged").Add(float64(sum.Unchanged))
		r.metrics.StageChanges.WithLabelValues(s.Name, "failed").Add(float64(sum.Failed))
	}
}
