package model

import "math"

// DataSource records where a laureate's work location came from
type DataSource string

const (
	SourceAPI           DataSource = "api"            // Affiliation supplied by the Nobel Prize API
	SourceBirthFallback DataSource = "birth_fallback" // Placeholder copied from birth location
	SourceNobelPrizeOrg DataSource = "nobelprize_org" // Scraped from the nobelprize.org facts page
	SourceWikipedia     DataSource = "wikipedia"      // Scraped from a Wikipedia infobox
	SourceManual        DataSource = "manual"         // Hand-curated override
)

// Rank orders sources by reliability. Enrichment may only move a record to
// a source of equal or higher rank.
func (s DataSource) Rank() int {
	switch s {
	case SourceBirthFallback:
		return 0
	case SourceNobelPrizeOrg, SourceWikipedia:
		return 1
	case SourceAPI:
		return 2
	case SourceManual:
		return 3
	default:
		return -1
	}
}

// Coordinates is a latitude/longitude pair in degrees.
// The zero value means "not resolved".
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// IsZero reports whether c is the (0,0) sentinel
func (c Coordinates) IsZero() bool {
	return c.Lat == 0 && c.Lon == 0
}

// Within reports whether both axes differ from other by less than tolerance degrees
func (c Coordinates) Within(other Coordinates, tolerance float64) bool {
	return math.Abs(c.Lat-other.Lat) < tolerance && math.Abs(c.Lon-other.Lon) < tolerance
}

// Laureate is one prize-category win by one person or organization
type Laureate struct {
	ID                 string     `json:"laureate_id"`
	Name               string     `json:"name"`
	BirthLocation      string     `json:"birth_location"`
	BirthLat           float64    `json:"birth_lat"`
	BirthLon           float64    `json:"birth_lon"`
	WorkLocation       string     `json:"work_location"`
	WorkLat            float64    `json:"work_lat"`
	WorkLon            float64    `json:"work_lon"`
	WorkYears          string     `json:"work_years"`
	PrizeYear          int        `json:"prize_year"`
	Achievement        string     `json:"achievement"`
	SharedWith         []string   `json:"shared_with"`
	DataSource         DataSource `json:"data_source"`
	NeedsEnrichment    bool       `json:"needs_enrichment"`
	EnrichmentAttempts []string   `json:"enrichment_attempts"`
	ManualNote         string     `json:"manual_note,omitempty"`
}

// BirthCoords returns the birth coordinates
func (l *Laureate) BirthCoords() Coordinates {
	return Coordinates{Lat: l.BirthLat, Lon: l.BirthLon}
}

// WorkCoords returns the work coordinates
func (l *Laureate) WorkCoords() Coordinates {
	return Coordinates{Lat: l.WorkLat, Lon: l.WorkLon}
}

// SetBirthCoords sets the birth coordinates
func (l *Laureate) SetBirthCoords(c Coordinates) {
	l.BirthLat, l.BirthLon = c.Lat, c.Lon
}

// SetWorkCoords sets the work coordinates
func (l *Laureate) SetWorkCoords(c Coordinates) {
	l.WorkLat, l.WorkLon = c.Lat, c.Lon
}

// RecordAttempt appends a source name to the enrichment audit trail
func (l *Laureate) RecordAttempt(source string) {
	l.EnrichmentAttempts = append(l.EnrichmentAttempts, source)
}

// Attempted reports whether source is already in the audit trail
func (l *Laureate) Attempted(source string) bool {
	for _, a := range l.EnrichmentAttempts {
		if a == source {
			return true
		}
	}
	return false
}

// Advance moves the record to src unless that would regress its reliability.
// It returns false and leaves the record untouched on regression.
func (l *Laureate) Advance(src DataSource) bool {
	if src.Rank() < l.DataSource.Rank() {
		return false
	}
	l.DataSource = src
	return true
}

// normalize replaces nil slices so they serialize as [] rather than null
func (l *Laureate) normalize() {
	if l.SharedWith == nil {
		l.SharedWith = []string{}
	}
	if l.EnrichmentAttempts == nil {
		l.EnrichmentAttempts = []string{}
	}
}

func (l Laureate) clone() Laureate {
	out := l
	out.SharedWith = append([]string{}, l.SharedWith...)
	out.EnrichmentAttempts = append([]string{}, l.EnrichmentAttempts...)
	return out
}
