package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/nobelmap/internal/geo"
	"github.com/ppiankov/nobelmap/internal/llm"
	"github.com/ppiankov/nobelmap/internal/model"
	"github.com/ppiankov/nobelmap/internal/nobel"
	"github.com/ppiankov/nobelmap/internal/observability"
	"github.com/ppiankov/nobelmap/internal/store"
	"github.com/ppiankov/nobelmap/internal/validate"
)

const apiLaureates = `[
  {
    "id": "745",
    "givenName": {"en": "A. Michael"},
    "familyName": {"en": "Spence"},
    "birth": {"place": {
      "city": {"en": "Montclair, NJ"}, "country": {"en": "USA"},
      "cityNow": {"en": "Montclair, NJ", "latitude": "40.825930", "longitude": "-74.209030"}
    }},
    "nobelPrizes": [{
      "awardYear": "2001",
      "category": {"en": "Economic Sciences"},
      "motivation": {"en": "\"for their analyses of markets with asymmetric information\""},
      "affiliations": [{
        "name": {"en": "Stanford University"},
        "city": {"en": "Stanford, CA"}, "country": {"en": "USA"},
        "cityNow": {"en": "Stanford, CA", "latitude": "37.424107", "longitude": "-122.166077"}
      }]
    }]
  },
  {
    "id": "26",
    "givenName": {"en": "Albert"},
    "familyName": {"en": "Einstein"},
    "birth": {"place": {"city": {"en": "Ulm"}, "country": {"en": "Germany"}}},
    "nobelPrizes": [{"awardYear": "1921", "category": {"en": "Physics"}, "motivation": {"en": "photoelectric effect"}, "affiliations": []}]
  },
  {
    "id": "1004",
    "givenName": {"en": "Roger"},
    "familyName": {"en": "Penrose"},
    "birth": {"place": {"city": {"en": "Colchester"}, "country": {"en": "United Kingdom"}}},
    "nobelPrizes": [{"awardYear": "2020", "category": {"en": "Physics"}, "motivation": {"en": "black holes"}, "affiliations": []}]
  },
  {
    "id": "687",
    "givenName": {"en": "Rabindranath"},
    "familyName": {"en": "Tagore"},
    "birth": {"place": {"city": {"en": "Calcutta"}, "country": {"en": "India"}}},
    "nobelPrizes": [{"awardYear": "1913", "category": {"en": "Literature"}, "motivation": {"en": "verse"}, "affiliations": []}]
  }
]`

var places = map[string]model.Coordinates{
	"Colchester, United Kingdom": {Lat: 51.8959, Lon: 0.8919},
	"Calcutta, India":            {Lat: 22.5726, Lon: 88.3639},
	"Ulm, Germany":               {Lat: 48.4011, Lon: 9.9876},
	"Berlin, Germany":            {Lat: 52.5200, Lon: 13.4050},
	"Princeton, NJ, USA":         {Lat: 40.3573, Lon: -74.6672},
}

type staticLaureates struct {
	laureates []nobel.Laureate
	err       error
}

func (s staticLaureates) Laureates(context.Context) ([]nobel.Laureate, error) {
	return s.laureates, s.err
}

type answerSource struct {
	name    string
	answers map[string]string
}

func (s answerSource) Name() string                 { return s.name }
func (s answerSource) DataSource() model.DataSource { return model.DataSource(s.name) }

func (s answerSource) Find(_ context.Context, _ string, l model.Laureate) (string, error) {
	return s.answers[l.Name], nil
}

type cannedProvider struct{ reply string }

func (p cannedProvider) Name() string { return "canned" }

func (p cannedProvider) Complete(context.Context, string) (*llm.Completion, error) {
	return &llm.Completion{Text: p.reply}, nil
}

func tableResolver() geo.Resolver {
	return geo.ResolverFunc(func(_ context.Context, text string) (model.Coordinates, bool) {
		c, ok := places[text]
		return c, ok
	})
}

func testDeps(t *testing.T, st *store.Store, overrides string) Deps {
	t.Helper()
	var laureates []nobel.Laureate
	require.NoError(t, json.Unmarshal([]byte(apiLaureates), &laureates))

	return Deps{
		Nobel:         staticLaureates{laureates: laureates},
		Resolver:      tableResolver(),
		NobelPrizeOrg: answerSource{name: "nobelprize_org"},
		Wikipedia: answerSource{
			name:    "wikipedia",
			answers: map[string]string{"Albert Einstein": "Kaiser Wilhelm Institute, Berlin, Germany"},
		},
		OverridesFile: overrides,
		Store:         st,
		Every:         10,
		Clock:         clockwork.NewFakeClockAt(time.Date(2024, 10, 1, 12, 0, 0, 0, time.UTC)),
		Logger:        observability.DiscardLogger(),
		Metrics:       observability.NewMetricsForTesting(),
	}
}

func writeOverrides(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "manual_overrides.json")
	doc := `{
  "_comment": "curated",
  "physics_2020_1004": {"work_location": "Princeton, NJ, USA"}
}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	return path
}

func TestRunner_FullRun(t *testing.T) {
	dir := t.TempDir()
	publish := filepath.Join(dir, "nobel_laureates.json")
	st := store.New(filepath.Join(dir, "data"), publish)
	deps := testDeps(t, st, writeOverrides(t, dir))

	runner := NewRunner(st, Stages(deps), deps.Clock, observability.DiscardLogger(), deps.Metrics)
	results, err := runner.Run(context.Background(), 0, 0)
	require.NoError(t, err)
	require.Len(t, results, 6)

	for _, name := range []string{
		store.SnapshotRaw,
		store.SnapshotNobelPrizeOrg,
		store.SnapshotWikipedia,
		store.SnapshotFixed,
		store.SnapshotOverrides,
		store.SnapshotFinal,
		store.ReviewJSON,
		store.ReviewCSV,
		store.SuspiciousJSON,
		store.ReportJSON,
	} {
		assert.True(t, st.Exists(name), name)
	}

	final, err := store.ReadDataset(publish)
	require.NoError(t, err)
	idx := final.Index()
	require.Len(t, idx, 4)

	spence := idx["economics_2001_745"]
	assert.Equal(t, model.SourceAPI, spence.DataSource)
	assert.Empty(t, spence.EnrichmentAttempts)

	einstein := idx["physics_1921_26"]
	assert.Equal(t, model.SourceWikipedia, einstein.DataSource)
	assert.False(t, einstein.NeedsEnrichment)
	assert.Equal(t, places["Berlin, Germany"], einstein.WorkCoords())
	assert.Equal(t, []string{"nobelprize_org", "wikipedia"}, einstein.EnrichmentAttempts)

	penrose := idx["physics_2020_1004"]
	assert.Equal(t, model.SourceManual, penrose.DataSource)
	assert.False(t, penrose.NeedsEnrichment)
	assert.Equal(t, "Princeton, NJ, USA", penrose.WorkLocation)
	assert.Equal(t, places["Princeton, NJ, USA"], penrose.WorkCoords())

	tagore := idx["literature_1913_687"]
	assert.Equal(t, model.SourceBirthFallback, tagore.DataSource)
	assert.True(t, tagore.NeedsEnrichment)

	review, err := st.ReadReviewEntries()
	require.NoError(t, err)
	require.Len(t, review, 1)
	assert.Equal(t, "literature_1913_687", review[0].ID)
	assert.Equal(t, model.IssueNoAffiliation, review[0].Issue)
	assert.Equal(t, []string{"nobelprize_org", "wikipedia"}, review[0].EnrichmentAttempts)

	var report validate.Report
	require.NoError(t, store.ReadJSON(st.Path(store.ReportJSON), &report))
	assert.Equal(t, "2024-10-01T12:00:00Z", report.GeneratedAt)
	assert.Equal(t, 3, report.Stats.Complete)
	assert.Equal(t, 1, report.Stats.NeedsManualReview)
	assert.Equal(t, 0, report.Stats.Suspicious)

	assert.Equal(t, 3.0, testutil.ToFloat64(deps.Metrics.Partition.WithLabelValues(validate.PartitionComplete)))
	assert.Equal(t, 1.0, testutil.ToFloat64(deps.Metrics.StageChanges.WithLabelValues(StageOverrides, "updated")))
}

func TestRunner_ResumeFromSnapshot(t *testing.T) {
	dir := t.TempDir()
	st := store.New(dir, "")
	deps := testDeps(t, st, filepath.Join(dir, "absent.json"))
	deps.Nobel = staticLaureates{err: errors.New("API must not be called")}

	seed := model.NewDataset()
	seed[model.CategoryPhysics] = []model.Laureate{{
		ID:              "physics_1921_26",
		Name:            "Albert Einstein",
		BirthLocation:   "Ulm, Germany",
		BirthLat:        48.4011,
		BirthLon:        9.9876,
		WorkLocation:    "Ulm, Germany",
		WorkLat:         48.4011,
		WorkLon:         9.9876,
		PrizeYear:       1921,
		DataSource:      model.SourceBirthFallback,
		NeedsEnrichment: true,
	}}
	require.NoError(t, st.WriteDataset(store.SnapshotNobelPrizeOrg, seed))

	runner := NewRunner(st, Stages(deps), deps.Clock, observability.DiscardLogger(), nil)
	results, err := runner.Run(context.Background(), 3, 3)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, StageWikipedia, results[0].Stage)
	assert.Equal(t, 1, results[0].Summaries[0].Updated)

	out, err := st.ReadDataset(store.SnapshotWikipedia)
	require.NoError(t, err)
	assert.Equal(t, "Kaiser Wilhelm Institute, Berlin, Germany", out[model.CategoryPhysics][0].WorkLocation)
	assert.False(t, st.Exists(store.SnapshotRaw))
}

// interruptingSource answers every record and cancels the run on call
// cancelAt
type interruptingSource struct {
	calls    int
	cancelAt int
	cancel   context.CancelFunc
}

func (s *interruptingSource) Name() string                 { return "nobelprize_org" }
func (s *interruptingSource) DataSource() model.DataSource { return model.SourceNobelPrizeOrg }

func (s *interruptingSource) Find(ctx context.Context, _ string, _ model.Laureate) (string, error) {
	s.calls++
	if s.calls == s.cancelAt {
		s.cancel()
		return "", ctx.Err()
	}
	return "Princeton, NJ, USA", nil
}

func fallbackDataset(n int) model.Dataset {
	ds := model.NewDataset()
	for i := 1; i <= n; i++ {
		ds[model.CategoryPhysics] = append(ds[model.CategoryPhysics], model.Laureate{
			ID:              fmt.Sprintf("physics_1950_%d", i),
			Name:            fmt.Sprintf("Laureate %d", i),
			BirthLocation:   "Ulm, Germany",
			BirthLat:        48.4011,
			BirthLon:        9.9876,
			WorkLocation:    "Ulm, Germany",
			WorkLat:         48.4011,
			WorkLon:         9.9876,
			PrizeYear:       1950,
			DataSource:      model.SourceBirthFallback,
			NeedsEnrichment: true,
		})
	}
	return ds
}

func TestRunner_ResumeFromPartialCheckpoint(t *testing.T) {
	dir := t.TempDir()
	st := store.New(dir, "")
	require.NoError(t, st.WriteDataset(store.SnapshotRaw, fallbackDataset(30)))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	interrupted := &interruptingSource{cancelAt: 20, cancel: cancel}
	deps := testDeps(t, st, filepath.Join(dir, "absent.json"))
	deps.Every = 5
	deps.NobelPrizeOrg = interrupted

	_, err := NewRunner(st, Stages(deps), deps.Clock, observability.DiscardLogger(), nil).Run(ctx, 2, 2)
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, st.Exists(store.SnapshotNobelPrizeOrg))

	partial, err := st.ReadDataset(store.PartialName(store.SnapshotNobelPrizeOrg))
	require.NoError(t, err)
	enriched := 0
	partial.Each(func(_ string, l *model.Laureate) {
		if !l.NeedsEnrichment {
			enriched++
		}
	})
	assert.Equal(t, 19, enriched)

	resumed := &interruptingSource{}
	deps.NobelPrizeOrg = resumed
	results, err := NewRunner(st, Stages(deps), deps.Clock, observability.DiscardLogger(), nil).Run(context.Background(), 2, 2)
	require.NoError(t, err)
	assert.Equal(t, 11, resumed.calls)
	assert.Equal(t, 11, results[0].Summaries[0].Updated)

	out, err := st.ReadDataset(store.SnapshotNobelPrizeOrg)
	require.NoError(t, err)
	out.Each(func(_ string, l *model.Laureate) {
		assert.False(t, l.NeedsEnrichment, l.ID)
		assert.Equal(t, []string{"nobelprize_org"}, l.EnrichmentAttempts, l.ID)
	})
	assert.False(t, st.Exists(store.PartialName(store.SnapshotNobelPrizeOrg)), "completed stage drops its partial checkpoint")
}

func TestRunner_StalePartialCheckpointIgnored(t *testing.T) {
	dir := t.TempDir()
	st := store.New(dir, "")
	deps := testDeps(t, st, filepath.Join(dir, "absent.json"))

	stale := fallbackDataset(1)
	stale[model.CategoryPhysics][0].WorkLocation = "Stale, Nowhere"
	stale[model.CategoryPhysics][0].NeedsEnrichment = false
	partialName := store.PartialName(store.SnapshotWikipedia)
	require.NoError(t, st.WriteDataset(partialName, stale))
	old := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(st.Path(partialName), old, old))

	seed := fallbackDataset(1)
	seed[model.CategoryPhysics][0].Name = "Albert Einstein"
	require.NoError(t, st.WriteDataset(store.SnapshotNobelPrizeOrg, seed))

	_, err := NewRunner(st, Stages(deps), deps.Clock, observability.DiscardLogger(), nil).Run(context.Background(), 3, 3)
	require.NoError(t, err)

	out, err := st.ReadDataset(store.SnapshotWikipedia)
	require.NoError(t, err)
	assert.Equal(t, "Kaiser Wilhelm Institute, Berlin, Germany", out[model.CategoryPhysics][0].WorkLocation)
}

func TestRunner_MissingSnapshot(t *testing.T) {
	st := store.New(t.TempDir(), "")
	runner := NewRunner(st, Stages(testDeps(t, st, "")), nil, observability.DiscardLogger(), nil)

	_, err := runner.Run(context.Background(), 4, 6)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingSnapshot))
	assert.Contains(t, err.Error(), store.SnapshotWikipedia)
}

func TestRunner_FailingStageKeepsEarlierSnapshots(t *testing.T) {
	st := store.New(t.TempDir(), "")
	boom := errors.New("boom")

	stages := []Stage{
		{Number: 1, Name: "first", Output: "a.json", Run: func(context.Context, model.Dataset, Checkpointer) (model.Dataset, []model.Summary, error) {
			return model.NewDataset(), []model.Summary{{Name: "first", Updated: 1}}, nil
		}},
		{Number: 2, Name: "second", Output: "b.json", Run: func(ctx context.Context, in model.Dataset, cp Checkpointer) (model.Dataset, []model.Summary, error) {
			require.NoError(t, cp(ctx, in))
			return nil, nil, boom
		}},
		{Number: 3, Name: "third", Output: "c.json", Run: func(context.Context, model.Dataset, Checkpointer) (model.Dataset, []model.Summary, error) {
			t.Fatal("third stage must not run")
			return nil, nil, nil
		}},
	}

	results, err := NewRunner(st, stages, nil, observability.DiscardLogger(), nil).Run(context.Background(), 0, 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, boom))
	assert.Contains(t, err.Error(), "stage 2 (second)")
	assert.Len(t, results, 2)
	assert.True(t, st.Exists("a.json"))
	assert.True(t, st.Exists(store.PartialName("b.json")), "partial checkpoint is kept")
	assert.False(t, st.Exists("b.json"))
	assert.False(t, st.Exists("c.json"))
}

func TestRunner_InvalidRange(t *testing.T) {
	st := store.New(t.TempDir(), "")
	runner := NewRunner(st, Stages(testDeps(t, st, "")), nil, observability.DiscardLogger(), nil)

	_, err := runner.Run(context.Background(), 5, 2)
	assert.Error(t, err)
	_, err = runner.Run(context.Background(), 1, 7)
	assert.Error(t, err)
}

func TestRunner_Lookup(t *testing.T) {
	st := store.New(t.TempDir(), "")
	runner := NewRunner(st, Stages(testDeps(t, st, "")), nil, observability.DiscardLogger(), nil)

	s, ok := runner.Lookup("fix_geocoding")
	require.True(t, ok)
	assert.Equal(t, 4, s.Number)

	s, ok = runner.Lookup("5")
	require.True(t, ok)
	assert.Equal(t, StageOverrides, s.Name)

	_, ok = runner.Lookup("scrape")
	assert.False(t, ok)

	_, err := runner.RunStage(context.Background(), "scrape")
	assert.Error(t, err)
}

func TestStages_DoNotMutateInput(t *testing.T) {
	st := store.New(t.TempDir(), "")
	deps := testDeps(t, st, "")

	in := model.NewDataset()
	in[model.CategoryPhysics] = []model.Laureate{{
		ID:              "physics_1921_26",
		Name:            "Albert Einstein",
		BirthLocation:   "Ulm, Germany",
		WorkLocation:    "Ulm, Germany",
		PrizeYear:       1921,
		DataSource:      model.SourceBirthFallback,
		NeedsEnrichment: true,
	}}
	in.Normalize()
	before := in.Clone()

	for _, s := range Stages(deps)[1:] {
		out, _, err := s.Run(context.Background(), in, nil)
		require.NoError(t, err, s.Name)
		require.NotNil(t, out, s.Name)
		assert.Equal(t, before, in, s.Name)
	}
}

func TestNewAssistProvider_MissingCredentials(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	_, err := NewAssistProvider(model.LLMConfig{})
	assert.True(t, errors.Is(err, ErrMissingCredentials))

	_, err = NewAssistProvider(model.LLMConfig{Provider: "openai"})
	assert.True(t, errors.Is(err, ErrMissingCredentials))
}

func TestAssist(t *testing.T) {
	st := store.New(t.TempDir(), "")
	ctx := context.Background()

	_, err := Assist(ctx, st, nil, 10, 0, observability.DiscardLogger(), nil)
	assert.True(t, errors.Is(err, ErrMissingCredentials))

	provider := cannedProvider{reply: `{"work_location": "Visva-Bharati University, Santiniketan, India", "confidence": "medium", "source": "Nobel biography"}`}
	_, err = Assist(ctx, st, provider, 10, 0, observability.DiscardLogger(), nil)
	assert.True(t, errors.Is(err, ErrMissingSnapshot))

	require.NoError(t, store.WriteJSON(st.Path(store.ReviewJSON), []model.ReviewEntry{{
		ID:                 "literature_1913_687",
		Name:               "Rabindranath Tagore",
		Category:           model.CategoryLiterature,
		PrizeYear:          1913,
		BirthLocation:      "Calcutta, India",
		Issue:              model.IssueNoAffiliation,
		EnrichmentAttempts: []string{"nobelprize_org", "wikipedia"},
	}}))

	summary, err := Assist(ctx, st, provider, 10, 0, observability.DiscardLogger(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Updated)

	proposals, err := st.ReadProposals()
	require.NoError(t, err)
	require.Contains(t, proposals, "literature_1913_687")
	assert.Equal(t, "Visva-Bharati University, Santiniketan, India", proposals["literature_1913_687"].WorkLocation)
	assert.Equal(t, "medium", proposals["literature_1913_687"].Confidence)
}
