package nobel

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/ppiankov/nobelmap/internal/geo"
	"github.com/ppiankov/nobelmap/internal/location"
	"github.com/ppiankov/nobelmap/internal/model"
)

// Stats counts how records were seeded
type Stats struct {
	Total           int
	HasAffiliation  int
	NeedsEnrichment int
	Skipped         int
}

// Summary renders the stats as a batch summary
func (s Stats) Summary() model.Summary {
	return model.Summary{
		Name:      "fetch",
		Updated:   s.HasAffiliation,
		Unchanged: s.NeedsEnrichment,
		Failed:    s.Skipped,
	}
}

// Normalizer converts API laureates into dataset records
type Normalizer struct {
	resolver geo.Resolver
	logger   *log.Entry
}

// NewNormalizer creates a normalizer that resolves places with resolver
func NewNormalizer(resolver geo.Resolver, logger *log.Entry) *Normalizer {
	return &Normalizer{resolver: resolver, logger: logger}
}

// Normalize builds one record per prize. Records with an API affiliation
// get data_source api; the rest start on the birth placeholder and are
// queued for enrichment. An affiliation that cannot be resolved gets
// (0,0) so validation flags it, never the birth coordinates.
func (n *Normalizer) Normalize(ctx context.Context, laureates []Laureate) (model.Dataset, Stats, error) {
	ds := model.NewDataset()
	var stats Stats

	for _, l := range laureates {
		for _, prize := range l.NobelPrizes {
			if err := ctx.Err(); err != nil {
				return ds, stats, err
			}

			category, ok := CategoryKey(prize.Category.En)
			if !ok {
				n.logger.Warnf("laureate %s: unknown category %q", l.ID, prize.Category.En)
				stats.Skipped++
				continue
			}
			year, err := strconv.Atoi(strings.TrimSpace(prize.AwardYear))
			if err != nil {
				n.logger.Warnf("laureate %s: bad award year %q", l.ID, prize.AwardYear)
				stats.Skipped++
				continue
			}

			rec := n.record(ctx, l, prize, category, year)
			stats.Total++
			if rec.NeedsEnrichment {
				stats.NeedsEnrichment++
			} else {
				stats.HasAffiliation++
			}
			ds[category] = append(ds[category], rec)
		}
	}

	ds.LinkSharedWith()
	ds.Normalize()

	if err := ds.Validate(); err != nil {
		return ds, stats, fmt.Errorf("normalized dataset: %w", err)
	}
	return ds, stats, nil
}

func (n *Normalizer) record(ctx context.Context, l Laureate, prize Prize, category string, year int) model.Laureate {
	rec := model.Laureate{
		ID:                 fmt.Sprintf("%s_%d_%s", category, year, l.ID),
		Name:               displayName(l),
		WorkYears:          fmt.Sprintf("%d-%d", year-5, year),
		PrizeYear:          year,
		Achievement:        strings.Trim(strings.TrimSpace(prize.Motivation.En), "\"“”"),
		SharedWith:         []string{},
		EnrichmentAttempts: []string{},
	}

	var birthPlace *Place
	switch {
	case l.Birth != nil && l.Birth.Place != nil:
		birthPlace = l.Birth.Place
	case l.Founded != nil && l.Founded.Place != nil:
		birthPlace = l.Founded.Place
	}
	if birthPlace != nil {
		rec.BirthLocation = location.Join(birthPlace.City.En, birthPlace.Country.En)
		rec.SetBirthCoords(n.coords(ctx, birthPlace.CityNow, rec.BirthLocation))
	}

	if aff, ok := firstAffiliation(prize); ok {
		rec.WorkLocation = location.Join(aff.City.En, aff.Country.En)
		rec.SetWorkCoords(n.coords(ctx, aff.CityNow, rec.WorkLocation))
		rec.DataSource = model.SourceAPI
		rec.NeedsEnrichment = false
		return rec
	}

	rec.WorkLocation = rec.BirthLocation
	rec.SetWorkCoords(rec.BirthCoords())
	rec.DataSource = model.SourceBirthFallback
	rec.NeedsEnrichment = true
	return rec
}

// coords prefers the API's own coordinates and falls back to the resolver
func (n *Normalizer) coords(ctx context.Context, now *CityNow, text string) model.Coordinates {
	if lat, lon, ok := now.Coords(); ok {
		return model.Coordinates{Lat: lat, Lon: lon}
	}
	if text == "" {
		return model.Coordinates{}
	}
	if c, ok := n.resolver.Resolve(ctx, text); ok {
		return c
	}
	n.logger.Debugf("could not resolve %q", text)
	return model.Coordinates{}
}

func firstAffiliation(p Prize) (Affiliation, bool) {
	if len(p.Affiliations) == 0 {
		return Affiliation{}, false
	}
	aff := p.Affiliations[0]
	if strings.TrimSpace(aff.City.En) == "" && strings.TrimSpace(aff.Country.En) == "" {
		return Affiliation{}, false
	}
	return aff, true
}

func displayName(l Laureate) string {
	if l.IsOrganization() {
		return strings.TrimSpace(l.OrgName.En)
	}
	if name := strings.Join(strings.Fields(l.GivenName.En+" "+l.FamilyName.En), " "); name != "" {
		return name
	}
	if l.KnownName.En != "" {
		return strings.TrimSpace(l.KnownName.En)
	}
	return strings.TrimSpace(l.OrgName.En)
}
