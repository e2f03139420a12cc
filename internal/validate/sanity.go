// Package validate flags coordinates that are probably wrong and splits a
// dataset into the review partitions handed to humans.
package validate

import (
	"github.com/ppiankov/nobelmap/internal/model"
)

// Verdict is the advisory outcome of a sanity check
type Verdict string

const (
	VerdictOK             Verdict = "ok"
	VerdictZeroCoords     Verdict = "zero_coords"
	VerdictCollision      Verdict = "birth_work_collision"
	VerdictRegionMismatch Verdict = "region_mismatch"
)

// CollisionEpsilon is the per-axis distance in degrees under which work and
// birth coordinates count as the same point
const CollisionEpsilon = 0.0001

// Classify checks one record. Precedence is zero coordinates, then a
// birth/work collision, then a region mismatch. The record is not changed.
func Classify(l model.Laureate) Verdict {
	work, birth := l.WorkCoords(), l.BirthCoords()

	if (work.IsZero() && l.WorkLocation != "") || (birth.IsZero() && l.BirthLocation != "") {
		return VerdictZeroCoords
	}

	if l.WorkLocation != l.BirthLocation && work.Within(birth, CollisionEpsilon) {
		return VerdictCollision
	}

	if r, ok := regionFor(l.WorkLocation); ok && !r.contains(work) {
		return VerdictRegionMismatch
	}

	return VerdictOK
}

// ClassifyAll returns the verdict of every record that is not ok
func ClassifyAll(ds model.Dataset) map[string]Verdict {
	flagged := make(map[string]Verdict)
	ds.Each(func(_ string, l *model.Laureate) {
		if v := Classify(*l); v != VerdictOK {
			flagged[l.ID] = v
		}
	})
	return flagged
}

// Issue returns the review text for a verdict on l
func Issue(v Verdict, l model.Laureate) string {
	switch v {
	case VerdictZeroCoords:
		if l.WorkCoords().IsZero() && l.WorkLocation != "" {
			return model.IssueGeocodeFailed
		}
		return model.IssueBirthGeocodeFailed
	case VerdictCollision:
		return model.IssueCollision
	case VerdictRegionMismatch:
		if r, ok := regionFor(l.WorkLocation); ok {
			return model.IssueRegionMismatch + " (" + r.name + ")"
		}
		return model.IssueRegionMismatch
	default:
		return ""
	}
}
