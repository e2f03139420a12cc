package model

import (
	"fmt"
	"strings"
)

// Override is a hand-curated correction for one laureate
type Override struct {
	WorkLocation string   `json:"work_location,omitempty"`
	Note         string   `json:"note,omitempty"`
	WorkLat      *float64 `json:"work_lat,omitempty"` // Legacy format: explicit coordinates, no text
	WorkLon      *float64 `json:"work_lon,omitempty"`
}

// Issue texts used in review artifacts
const (
	IssueNoAffiliation      = "No affiliation data from any source"
	IssueGeocodeFailed      = "Geocoding failed (coordinates are 0,0)"
	IssueBirthGeocodeFailed = "Birth location geocoding failed (coordinates are 0,0)"
	IssueCollision          = "Work coordinates identical to birth coordinates"
	IssueRegionMismatch     = "Coordinates fall outside the named country"
)

// SuspiciousEntry is a record flagged as likely wrong despite enrichment
type SuspiciousEntry struct {
	ID           string     `json:"laureate_id"`
	Name         string     `json:"name"`
	Category     string     `json:"category"`
	PrizeYear    int        `json:"prize_year"`
	WorkLocation string     `json:"work_location"`
	Issue        string     `json:"issue"`
	DataSource   DataSource `json:"data_source"`
}

// ReviewEntry is a record that no automated source could enrich
type ReviewEntry struct {
	ID                  string   `json:"laureate_id"`
	Name                string   `json:"name"`
	Category            string   `json:"category"`
	PrizeYear           int      `json:"prize_year"`
	BirthLocation       string   `json:"birth_location"`
	CurrentWorkLocation string   `json:"current_work_location"`
	Issue               string   `json:"issue"`
	EnrichmentAttempts  []string `json:"enrichment_attempts"`
}

// CompleteEntry is a record with enriched, resolved data
type CompleteEntry struct {
	ID         string     `json:"laureate_id"`
	Name       string     `json:"name"`
	DataSource DataSource `json:"data_source"`
}

// Summary is the outcome of one batch operation
type Summary struct {
	Name      string   `json:"name"`
	Updated   int      `json:"updated"`
	Unchanged int      `json:"unchanged"`
	Failed    int      `json:"failed"`
	Failures  []string `json:"failures,omitempty"`
}

// Fail counts a failure and remembers what failed
func (s *Summary) Fail(what string) {
	s.Failed++
	if what != "" {
		s.Failures = append(s.Failures, what)
	}
}

// String renders the counts on one line
func (s Summary) String() string {
	return fmt.Sprintf("%s: %d updated, %d unchanged, %d failed", s.Name, s.Updated, s.Unchanged, s.Failed)
}

// Changed reports whether the operation modified anything
func (s Summary) Changed() bool {
	return s.Updated > 0
}

// FailureList renders failures one per line, indented
func (s Summary) FailureList() string {
	if len(s.Failures) == 0 {
		return ""
	}
	return "  - " + strings.Join(s.Failures, "\n  - ")
}

// Proposal is an assisted-search answer awaiting human review. Proposals
// never change the dataset; a reviewer promotes them into overrides.
type Proposal struct {
	Name         string `json:"name"`
	WorkLocation string `json:"work_location"`
	Confidence   string `json:"confidence"`
	Source       string `json:"source"`
}
