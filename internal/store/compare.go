package store

import (
	"math"
	"sort"

	geohash "github.com/TomiHiltunen/geohash-golang"
	"github.com/golang/geo/s2"

	"github.com/ppiankov/nobelmap/internal/model"
)

// CoordChangeThreshold is the per-axis movement in degrees that counts as
// a coordinate change
const CoordChangeThreshold = 0.01

const earthRadiusKM = 6371.0088

// Entry names a record present in only one snapshot
type Entry struct {
	ID   string `json:"laureate_id"`
	Name string `json:"name"`
}

// LocationChange is a record whose work location text differs
type LocationChange struct {
	ID             string            `json:"laureate_id"`
	Name           string            `json:"name"`
	BackupLocation string            `json:"backup_location"`
	NewLocation    string            `json:"new_location"`
	BackupCoords   model.Coordinates `json:"backup_coords"`
	NewCoords      model.Coordinates `json:"new_coords"`
}

// CoordChange is a record whose text is unchanged but whose point moved
type CoordChange struct {
	ID             string            `json:"laureate_id"`
	Name           string            `json:"name"`
	WorkLocation   string            `json:"work_location"`
	BackupCoords   model.Coordinates `json:"backup_coords"`
	NewCoords      model.Coordinates `json:"new_coords"`
	DistanceChange float64           `json:"distance_change"` // degrees, Euclidean
	DistanceKM     float64           `json:"distance_km"`
	Geohash        string            `json:"geohash"`
}

// Diff is the result of comparing two snapshots. Every list is ordered by
// laureate id.
type Diff struct {
	OnlyInBackup    []Entry          `json:"only_in_backup"`
	OnlyInNew       []Entry          `json:"only_in_new"`
	LocationChanges []LocationChange `json:"location_changes"`
	CoordChanges    []CoordChange    `json:"coord_changes"`
}

// Empty reports whether the snapshots agree
func (d Diff) Empty() bool {
	return len(d.OnlyInBackup) == 0 && len(d.OnlyInNew) == 0 &&
		len(d.LocationChanges) == 0 && len(d.CoordChanges) == 0
}

// LargestMoves returns up to n coordinate changes, biggest first
func (d Diff) LargestMoves(n int) []CoordChange {
	moves := append([]CoordChange{}, d.CoordChanges...)
	sort.SliceStable(moves, func(i, j int) bool {
		return moves[i].DistanceChange > moves[j].DistanceChange
	})
	if n > 0 && len(moves) > n {
		moves = moves[:n]
	}
	return moves
}

// Compare reports what changed between a backup and a new snapshot
func Compare(backup, current model.Dataset) Diff {
	d := Diff{
		OnlyInBackup:    []Entry{},
		OnlyInNew:       []Entry{},
		LocationChanges: []LocationChange{},
		CoordChanges:    []CoordChange{},
	}

	oldIdx, newIdx := backup.Index(), current.Index()
	ids := make([]string, 0, len(oldIdx)+len(newIdx))
	for id := range oldIdx {
		ids = append(ids, id)
	}
	for id := range newIdx {
		if _, ok := oldIdx[id]; !ok {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	for _, id := range ids {
		o, inOld := oldIdx[id]
		n, inNew := newIdx[id]
		switch {
		case !inNew:
			d.OnlyInBackup = append(d.OnlyInBackup, Entry{ID: id, Name: o.Name})
		case !inOld:
			d.OnlyInNew = append(d.OnlyInNew, Entry{ID: id, Name: n.Name})
		case o.WorkLocation != n.WorkLocation:
			d.LocationChanges = append(d.LocationChanges, LocationChange{
				ID:             id,
				Name:           n.Name,
				BackupLocation: o.WorkLocation,
				NewLocation:    n.WorkLocation,
				BackupCoords:   o.WorkCoords(),
				NewCoords:      n.WorkCoords(),
			})
		case moved(o.WorkCoords(), n.WorkCoords()):
			from, to := o.WorkCoords(), n.WorkCoords()
			d.CoordChanges = append(d.CoordChanges, CoordChange{
				ID:             id,
				Name:           n.Name,
				WorkLocation:   n.WorkLocation,
				BackupCoords:   from,
				NewCoords:      to,
				DistanceChange: math.Hypot(from.Lat-to.Lat, from.Lon-to.Lon),
				DistanceKM:     GreatCircleKM(from, to),
				Geohash:        geohash.Encode(to.Lat, to.Lon),
			})
		}
	}
	return d
}

// GreatCircleKM returns the surface distance between two points
func GreatCircleKM(a, b model.Coordinates) float64 {
	angle := s2.LatLngFromDegrees(a.Lat, a.Lon).Distance(s2.LatLngFromDegrees(b.Lat, b.Lon))
	return angle.Radians() * earthRadiusKM
}

func moved(a, b model.Coordinates) bool {
	return math.Abs(a.Lat-b.Lat) > CoordChangeThreshold || math.Abs(a.Lon-b.Lon) > CoordChangeThreshold
}
