package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	log "github.com/sirupsen/logrus"

	"github.com/ppiankov/nobelmap/internal/enrich"
	"github.com/ppiankov/nobelmap/internal/llm"
	"github.com/ppiankov/nobelmap/internal/model"
	"github.com/ppiankov/nobelmap/internal/observability"
	"github.com/ppiankov/nobelmap/internal/store"
)

// NewAssistProvider builds the LLM provider for assisted search. A missing
// provider name or key is ErrMissingCredentials.
func NewAssistProvider(cfg model.LLMConfig) (llm.Provider, error) {
	c := llm.ConfigFromModel(cfg)
	if c.Provider == "" {
		return nil, fmt.Errorf("%w: llm.provider is not set", ErrMissingCredentials)
	}
	if c.APIKey == "" {
		return nil, fmt.Errorf("%w: no API key for %s", ErrMissingCredentials, c.Provider)
	}
	return llm.NewProvider(c)
}

// Assist asks provider about the laureates in the needs-review list and
// saves the answers as proposals. Earlier proposals are kept and not asked
// again.
func Assist(ctx context.Context, st *store.Store, provider llm.Provider, every, limit int, logger *log.Entry, metrics *observability.Metrics) (model.Summary, error) {
	if provider == nil {
		return model.Summary{Name: "assist"}, ErrMissingCredentials
	}

	entries, err := st.ReadReviewEntries()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return model.Summary{Name: "assist"}, fmt.Errorf("%w: %s (run stage %s first)", ErrMissingSnapshot, st.Path(store.ReviewJSON), StageValidate)
		}
		return model.Summary{Name: "assist"}, err
	}

	proposals, err := st.ReadProposals()
	if err != nil {
		return model.Summary{Name: "assist"}, err
	}

	return enrich.NewAssistant(provider, every, logger, metrics).Run(ctx, entries, proposals, limit, st.WriteProposals)
}
