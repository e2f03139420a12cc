package validate

import (
	"github.com/golang/geo/s2"

	"github.com/ppiankov/nobelmap/internal/location"
	"github.com/ppiankov/nobelmap/internal/model"
)

// region is a country bounding box. Boxes are deliberately loose: they
// only catch a geocoder that picked a namesake on another continent.
type region struct {
	name string
	rect s2.Rect
}

func box(name string, latLo, lonLo, latHi, lonHi float64) region {
	rect := s2.RectFromLatLng(s2.LatLngFromDegrees(latLo, lonLo)).
		AddPoint(s2.LatLngFromDegrees(latHi, lonHi))
	return region{name: name, rect: rect}
}

var (
	regionUSA         = box("United States", 24.5, -125, 50, -65)
	regionUK          = box("United Kingdom", 49.8, -8.7, 60.9, 1.8)
	regionFrance      = box("France", 41.3, -5.2, 51.1, 9.6)
	regionGermany     = box("Germany", 47.2, 5.8, 55.1, 15.1)
	regionSweden      = box("Sweden", 55.3, 11.0, 69.1, 24.2)
	regionSwitzerland = box("Switzerland", 45.8, 5.9, 47.9, 10.5)
	regionNetherlands = box("Netherlands", 50.7, 3.3, 53.6, 7.3)
	regionJapan       = box("Japan", 24.0, 122.9, 45.6, 145.9)
	regionCanada      = box("Canada", 41.6, -141.0, 83.2, -52.6)
	regionItaly       = box("Italy", 35.4, 6.6, 47.1, 18.6)
	regionDenmark     = box("Denmark", 54.5, 8.0, 57.8, 15.2)
	regionAustria     = box("Austria", 46.3, 9.5, 49.1, 17.2)
	regionNorway      = box("Norway", 57.9, 4.6, 71.2, 31.1)
	regionIsrael      = box("Israel", 29.4, 34.2, 33.4, 35.9)
	regionAustralia   = box("Australia", -43.7, 113.1, -10.6, 153.7)
)

// regionsByName maps folded country segments to their boxes
var regionsByName = map[string]region{
	"usa":              regionUSA,
	"u.s.a.":           regionUSA,
	"united states":    regionUSA,
	"uk":               regionUK,
	"united kingdom":   regionUK,
	"england":          regionUK,
	"scotland":         regionUK,
	"wales":            regionUK,
	"northern ireland": regionUK,
	"france":           regionFrance,
	"germany":          regionGermany,
	"west germany":     regionGermany,
	"east germany":     regionGermany,
	"sweden":           regionSweden,
	"switzerland":      regionSwitzerland,
	"the netherlands":  regionNetherlands,
	"netherlands":      regionNetherlands,
	"japan":            regionJapan,
	"canada":           regionCanada,
	"italy":            regionItaly,
	"denmark":          regionDenmark,
	"austria":          regionAustria,
	"norway":           regionNorway,
	"israel":           regionIsrael,
	"australia":        regionAustralia,
}

// regionFor returns the box of the rightmost segment of text naming a
// known country
func regionFor(text string) (region, bool) {
	parts := location.Segments(text)
	for i := len(parts) - 1; i >= 0; i-- {
		if r, ok := regionsByName[location.Fold(parts[i])]; ok {
			return r, true
		}
	}
	return region{}, false
}

func (r region) contains(c model.Coordinates) bool {
	return r.rect.ContainsLatLng(s2.LatLngFromDegrees(c.Lat, c.Lon))
}
