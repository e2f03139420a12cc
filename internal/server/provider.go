package server

import (
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/ppiankov/nobelmap/internal/model"
	"github.com/ppiankov/nobelmap/internal/store"
)

const datasetKey = "dataset"

// Provider loads the published dataset on first use and serves it from
// memory until Reload or until ttl expires. A zero ttl keeps it forever.
type Provider struct {
	path  string
	ttl   time.Duration
	mu    sync.Mutex
	cache *gocache.Cache
}

// NewProvider creates a provider over the dataset file at path
func NewProvider(path string, ttl time.Duration) *Provider {
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	return &Provider{
		path:  path,
		ttl:   ttl,
		cache: gocache.New(ttl, 10*time.Minute),
	}
}

// Path returns the dataset file
func (p *Provider) Path() string { return p.path }

// Dataset returns the cached dataset, loading it if needed. Callers must
// not mutate the result.
func (p *Provider) Dataset() (model.Dataset, error) {
	if v, ok := p.cache.Get(datasetKey); ok {
		return v.(model.Dataset), nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if v, ok := p.cache.Get(datasetKey); ok {
		return v.(model.Dataset), nil
	}
	return p.load()
}

// Reload drops the cached dataset and reads the file again
func (p *Provider) Reload() (model.Dataset, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cache.Delete(datasetKey)
	return p.load()
}

func (p *Provider) load() (model.Dataset, error) {
	ds, err := store.ReadDataset(p.path)
	if err != nil {
		return nil, err
	}
	p.cache.Set(datasetKey, ds, p.ttl)
	return ds, nil
}
