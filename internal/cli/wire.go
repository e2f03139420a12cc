package cli

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/ppiankov/nobelmap/internal/cache"
	"github.com/ppiankov/nobelmap/internal/enrich"
	"github.com/ppiankov/nobelmap/internal/fetch"
	"github.com/ppiankov/nobelmap/internal/geo"
	"github.com/ppiankov/nobelmap/internal/model"
	"github.com/ppiankov/nobelmap/internal/nobel"
	"github.com/ppiankov/nobelmap/internal/observability"
	"github.com/ppiankov/nobelmap/internal/pipeline"
	"github.com/ppiankov/nobelmap/internal/store"
	"github.com/ppiankov/nobelmap/internal/worker"
)

var (
	metricsOnce sync.Once
	metrics     *observability.Metrics
)

// processMetrics returns the process-wide collectors, registering them once
func processMetrics() *observability.Metrics {
	metricsOnce.Do(func() {
		metrics = observability.NewMetrics()
	})
	return metrics
}

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func newStore(c model.Config) *store.Store {
	return store.New(c.DataDir, c.PublishFile)
}

// newResolver builds the geocoding chain: cached Nominatim first, then the
// offline city table
func newResolver(c model.Config, m *observability.Metrics) *geo.Chain {
	g := c.Geocoder
	nominatim := geo.NewNominatim(g.NominatimURL, g.UserAgent, g.GeocodeTimeout(), worker.NewLimiter(g.MinInterval()))
	layered := cache.NewLayeredCache(time.Hour, filepath.Join(g.CacheDir, "geocode.json"), g.CacheTTL())

	return geo.NewChain(observability.Logger("geo"), m,
		geo.NewCached(nominatim, layered, g.CacheTTL(), m),
		geo.DefaultTable(g.FuzzyDistance),
	)
}

func newScraperFetcher(c model.ScraperConfig) *fetch.Fetcher {
	return fetch.NewFetcher(fetch.Options{
		Timeout:       c.Timeout(),
		UserAgent:     c.UserAgent,
		MaxBytes:      c.MaxBytes,
		RespectRobots: c.RespectRobots,
		HTTPProxy:     c.HTTPProxy,
		HTTPSProxy:    c.HTTPSProxy,
		Limiter:       worker.NewLimiter(c.MinInterval()),
	})
}

// newAPIClient talks to the Nobel API, which is not a crawl target and
// publishes no robots.txt rules for it
func newAPIClient(c model.Config) *nobel.Client {
	f := fetch.NewFetcher(fetch.Options{
		Timeout:    c.Scraper.Timeout(),
		UserAgent:  c.Scraper.UserAgent,
		MaxBytes:   c.Scraper.MaxBytes * 10,
		HTTPProxy:  c.Scraper.HTTPProxy,
		HTTPSProxy: c.Scraper.HTTPSProxy,
	})
	return nobel.NewClient(f, c.Nobel.BaseURL, c.Nobel.PageSize, observability.Logger("nobel"))
}

// newRunner wires every stage to its collaborators
func newRunner(c model.Config, resolver geo.Resolver, m *observability.Metrics) *pipeline.Runner {
	st := newStore(c)
	scraper := newScraperFetcher(c.Scraper)
	clock := clockwork.NewRealClock()

	deps := pipeline.Deps{
		Nobel:         newAPIClient(c),
		Resolver:      resolver,
		NobelPrizeOrg: enrich.NewNobelPrizeOrg(scraper, c.Scraper.NobelPrizeURL),
		Wikipedia:     enrich.NewWikipedia(scraper, c.Scraper.WikipediaURL),
		OverridesFile: c.OverridesFile,
		Store:         st,
		Every:         c.Batch(),
		Clock:         clock,
		Metrics:       m,
	}
	return pipeline.NewRunner(st, pipeline.Stages(deps), clock, observability.Logger("pipeline"), m)
}
