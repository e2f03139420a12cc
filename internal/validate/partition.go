package validate

import (
	"github.com/ppiankov/nobelmap/internal/model"
)

// Partition names
const (
	PartitionComplete    = "complete"
	PartitionNeedsReview = "needs_manual_review"
	PartitionSuspicious  = "suspicious"
)

// Report is the hand-off from the pipeline to human review
type Report struct {
	GeneratedAt       string                  `json:"generated_at,omitempty"`
	Complete          []model.CompleteEntry   `json:"complete"`
	NeedsManualReview []model.ReviewEntry     `json:"needs_manual_review"`
	Suspicious        []model.SuspiciousEntry `json:"suspicious"`
	Stats             Stats                   `json:"stats"`
}

// Stats summarises a partition run
type Stats struct {
	Total             int                      `json:"total"`
	Complete          int                      `json:"complete"`
	NeedsManualReview int                      `json:"needs_manual_review"`
	Suspicious        int                      `json:"suspicious"`
	BySource          map[model.DataSource]int `json:"by_source"`
	ByVerdict         map[Verdict]int          `json:"by_verdict"`
}

// Counts returns the partition sizes keyed by partition name
func (s Stats) Counts() map[string]int {
	return map[string]int{
		PartitionComplete:    s.Complete,
		PartitionNeedsReview: s.NeedsManualReview,
		PartitionSuspicious:  s.Suspicious,
	}
}

// Partition splits ds into complete, needs_manual_review and suspicious.
// Records still on the birth placeholder need a human; enriched records
// with unresolved or implausible coordinates are suspicious.
func Partition(ds model.Dataset) Report {
	r := Report{
		Complete:          []model.CompleteEntry{},
		NeedsManualReview: []model.ReviewEntry{},
		Suspicious:        []model.SuspiciousEntry{},
		Stats: Stats{
			BySource:  make(map[model.DataSource]int),
			ByVerdict: make(map[Verdict]int),
		},
	}

	ds.Each(func(category string, l *model.Laureate) {
		r.Stats.Total++
		r.Stats.BySource[l.DataSource]++

		verdict := Classify(*l)
		if verdict != VerdictOK {
			r.Stats.ByVerdict[verdict]++
		}

		switch {
		case l.DataSource == model.SourceBirthFallback:
			attempts := append([]string{}, l.EnrichmentAttempts...)
			r.NeedsManualReview = append(r.NeedsManualReview, model.ReviewEntry{
				ID:                  l.ID,
				Name:                l.Name,
				Category:            category,
				PrizeYear:           l.PrizeYear,
				BirthLocation:       l.BirthLocation,
				CurrentWorkLocation: l.WorkLocation,
				Issue:               model.IssueNoAffiliation,
				EnrichmentAttempts:  attempts,
			})
		case l.WorkCoords().IsZero():
			r.Suspicious = append(r.Suspicious, suspicious(category, l, model.IssueGeocodeFailed))
		case verdict != VerdictOK:
			r.Suspicious = append(r.Suspicious, suspicious(category, l, Issue(verdict, *l)))
		default:
			r.Complete = append(r.Complete, model.CompleteEntry{
				ID:         l.ID,
				Name:       l.Name,
				DataSource: l.DataSource,
			})
		}
	})

	r.Stats.Complete = len(r.Complete)
	r.Stats.NeedsManualReview = len(r.NeedsManualReview)
	r.Stats.Suspicious = len(r.Suspicious)
	return r
}

func suspicious(category string, l *model.Laureate, issue string) model.SuspiciousEntry {
	return model.SuspiciousEntry{
		ID:           l.ID,
		Name:         l.Name,
		Category:     category,
		PrizeYear:    l.PrizeYear,
		WorkLocation: l.WorkLocation,
		Issue:        issue,
		DataSource:   l.DataSource,
	}
}
