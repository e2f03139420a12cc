package enrich

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/ppiankov/nobelmap/internal/llm"
	"github.com/ppiankov/nobelmap/internal/model"
	"github.com/ppiankov/nobelmap/internal/observability"
	"github.com/ppiankov/nobelmap/internal/worker"
)

// ErrNoProvider is returned when assisted search runs without a configured
// LLM provider
var ErrNoProvider = errors.New("no LLM provider configured")

// SaveProposalsFunc persists the proposal map
type SaveProposalsFunc func(proposals map[string]model.Proposal) error

// Assistant asks an LLM where unenriched laureates did their prize work
type Assistant struct {
	provider llm.Provider
	every    int
	logger   *log.Entry
	metrics  *observability.Metrics
}

// NewAssistant creates an assistant saving proposals every `every` answers
func NewAssistant(provider llm.Provider, every int, logger *log.Entry, metrics *observability.Metrics) *Assistant {
	if logger == nil {
		logger = observability.Logger("assist")
	}
	return &Assistant{provider: provider, every: every, logger: logger, metrics: metrics}
}

// Run queries entries not already present in proposals, at most limit of
// them (0 means all). proposals is updated in place and saved in batches.
func (a *Assistant) Run(ctx context.Context, entries []model.ReviewEntry, proposals map[string]model.Proposal, limit int, save SaveProposalsFunc) (model.Summary, error) {
	summary := model.Summary{Name: "assist"}
	if a.provider == nil {
		return summary, ErrNoProvider
	}

	var todo []model.ReviewEntry
	for _, e := range entries {
		if _, done := proposals[e.ID]; done {
			summary.Unchanged++
			continue
		}
		todo = append(todo, e)
		if limit > 0 && len(todo) == limit {
			break
		}
	}
	a.logger.Infof("asking %s about %d laureates (%d already answered)", a.provider.Name(), len(todo), summary.Unchanged)

	var flush worker.FlushFunc
	if save != nil {
		flush = func(context.Context, int) error { return save(proposals) }
	}

	batch := worker.NewBatch(a.every, flush)
	_, err := batch.Run(ctx, len(todo), func(ctx context.Context, i int) error {
		e := todo[i]
		p, err := a.ask(ctx, e)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			a.count("error")
			a.logger.WithError(err).Warnf("%s (%s): assisted search failed", e.Name, e.ID)
			summary.Fail(fmt.Sprintf("%s (%s): %v", e.Name, e.ID, err))
			return nil
		}
		if p.WorkLocation == "" {
			a.count("empty")
		} else {
			a.count("found")
		}
		proposals[e.ID] = p
		summary.Updated++
		return nil
	})
	if err != nil {
		return summary, err
	}

	if save != nil && len(todo) > 0 {
		if err := save(proposals); err != nil {
			return summary, fmt.Errorf("save proposals: %w", err)
		}
	}
	return summary, nil
}

func (a *Assistant) ask(ctx context.Context, e model.ReviewEntry) (model.Proposal, error) {
	label, ok := model.CategoryLabel(e.Category)
	if !ok {
		label = e.Category
	}

	completion, err := a.provider.Complete(ctx, llm.LocationPrompt(e.Name, label, e.PrizeYear))
	if err != nil {
		return model.Proposal{}, err
	}
	answer, err := llm.ParseLocationAnswer(completion.Text)
	if err != nil {
		return model.Proposal{}, err
	}
	return model.Proposal{
		Name:         e.Name,
		WorkLocation: answer.WorkLocation,
		Confidence:   answer.Confidence,
		Source:       answer.Source,
	}, nil
}

func (a *Assistant) count(outcome string) {
	if a.metrics != nil {
		a.metrics.EnrichmentAttempts.WithLabelValues("assist", outcome).Inc()
	}
}
