// Package fix repairs geocoding errors left by ingestion and enrichment.
package fix

import (
	"context"
	"strings"

	"github.com/ppiankov/nobelmap/internal/geo"
	"github.com/ppiankov/nobelmap/internal/location"
	"github.com/ppiankov/nobelmap/internal/model"
)

// Rule is one named correction applied to a single record. Apply reports
// whether the record changed.
type Rule interface {
	Name() string
	Apply(ctx context.Context, l *model.Laureate, resolver geo.Resolver) bool
}

// Pinner is implemented by rules whose work coordinates must not be
// replaced by a later geocode
type Pinner interface {
	Pins(l *model.Laureate) bool
}

// Rules returns the correction rules in the order they run
func Rules() []Rule {
	return []Rule{
		Encoding{Table: encodingCorrections},
		HistoricalNames{},
		ManualCoordinates{Table: manualCoordinates},
		Cambridge{Table: cambridgePins},
	}
}

// Encoding repairs location text whose accented characters were dropped
// by an earlier export
type Encoding struct {
	Table map[string]string
}

func (Encoding) Name() string { return "encoding" }

func (r Encoding) Apply(ctx context.Context, l *model.Laureate, resolver geo.Resolver) bool {
	changed := false
	if fixed, ok := r.Table[l.BirthLocation]; ok {
		l.BirthLocation = fixed
		if l.BirthCoords().IsZero() {
			if c, ok := resolver.Resolve(ctx, fixed); ok {
				l.SetBirthCoords(c)
			}
		}
		changed = true
	}
	if fixed, ok := r.Table[l.WorkLocation]; ok {
		l.WorkLocation = fixed
		if l.WorkCoords().IsZero() {
			if c, ok := resolver.Resolve(ctx, fixed); ok {
				l.SetWorkCoords(c)
			}
		}
		changed = true
	}
	return changed
}

// HistoricalNames resolves "Old (now New)" text through the modern name
// when the original failed to geocode. The text itself is kept.
type HistoricalNames struct{}

func (HistoricalNames) Name() string { return "historical_names" }

func (HistoricalNames) Apply(ctx context.Context, l *model.Laureate, resolver geo.Resolver) bool {
	changed := false
	if l.BirthCoords().IsZero() {
		if modern, ok := location.ModernName(l.BirthLocation); ok {
			if c, ok := resolver.Resolve(ctx, modern); ok {
				l.SetBirthCoords(c)
				changed = true
			}
		}
	}
	if l.WorkCoords().IsZero() {
		if modern, ok := location.ModernName(l.WorkLocation); ok {
			if c, ok := resolver.Resolve(ctx, modern); ok {
				l.SetWorkCoords(c)
				changed = true
			}
		}
	}
	return changed
}

// ManualCoordinates fills researched points for places no geocoder knows.
// Only zero coordinates are replaced.
type ManualCoordinates struct {
	Table map[string]model.Coordinates
}

func (ManualCoordinates) Name() string { return "manual_coordinates" }

func (r ManualCoordinates) Apply(_ context.Context, l *model.Laureate, _ geo.Resolver) bool {
	changed := false
	if c, ok := r.Table[l.BirthLocation]; ok && l.BirthCoords().IsZero() {
		l.SetBirthCoords(c)
		changed = true
	}
	if c, ok := r.Table[l.WorkLocation]; ok && l.WorkCoords().IsZero() {
		l.SetWorkCoords(c)
		changed = true
	}
	return changed
}

func (r ManualCoordinates) Pins(l *model.Laureate) bool {
	_, ok := r.Table[l.WorkLocation]
	return ok
}

// CambridgePin maps a case-insensitive segment run to a fixed point
type CambridgePin struct {
	Pattern string
	Coords  model.Coordinates
}

// Cambridge separates Cambridge, Massachusetts from Cambridge, England.
// Geocoders often answer one for the other.
type Cambridge struct {
	Table []CambridgePin
}

func (Cambridge) Name() string { return "cambridge" }

func (r Cambridge) Apply(_ context.Context, l *model.Laureate, _ geo.Resolver) bool {
	pin, ok := r.match(l.WorkLocation)
	if !ok || l.WorkCoords() == pin {
		return false
	}
	l.SetWorkCoords(pin)
	return true
}

func (r Cambridge) Pins(l *model.Laureate) bool {
	_, ok := r.match(l.WorkLocation)
	return ok
}

func (r Cambridge) match(text string) (model.Coordinates, bool) {
	lower := strings.ToLower(text)
	for _, p := range r.Table {
		if endsSegment(lower, strings.ToLower(p.Pattern)) {
			return p.Coords, true
		}
	}
	return model.Coordinates{}, false
}

// endsSegment reports whether pattern occurs in text followed by a comma or
// the end of the text, so "Cambridge, MA" does not match "Cambridge, Maryland"
func endsSegment(text, pattern string) bool {
	for from := 0; from < len(text); {
		i := strings.Index(text[from:], pattern)
		if i < 0 {
			return false
		}
		end := from + i + len(pattern)
		if rest := strings.TrimLeft(text[end:], " "); rest == "" || rest[0] == ',' {
			return true
		}
		from += i + 1
	}
	return false
}

var (
	cambridgeMA = model.Coordinates{Lat: 42.3656347, Lon: -71.1040018}
	cambridgeUK = model.Coordinates{Lat: 52.2055314, Lon: 0.1186637}
)

// Massachusetts patterns come first so "Cambridge, MA" never reaches the
// English ones
var cambridgePins = []CambridgePin{
	{"Cambridge, MA, USA", cambridgeMA},
	{"Cambridge, MA", cambridgeMA},
	{"Cambridge, Massachusetts, USA", cambridgeMA},
	{"Cambridge, Massachusetts", cambridgeMA},
	{"MIT, Cambridge, MA, USA", cambridgeMA},
	{"Harvard, Cambridge, MA, USA", cambridgeMA},
	{"Cambridge, England", cambridgeUK},
	{"Cambridge, United Kingdom", cambridgeUK},
	{"Cambridge, UK", cambridgeUK},
}

var encodingCorrections = map[string]string{
	"Bellme, France":            "Bellême, France",
	"Hmeenkyr, Finland":         "Hämeenkyrö, Finland",
	"Liding, Sweden":            "Lidingö, Sweden",
	"Reykjavk, Iceland":         "Reykjavík, Iceland",
	"Sdermanland, Sweden":       "Södermanland, Sweden",
	"Krakw, Poland":             "Kraków, Poland",
	"Lambarn, Gabon":            "Lambaréné, Gabon",
	"San Jos, Costa Rica":       "San José, Costa Rica",
	"Bogot, Colombia":           "Bogotá, Colombia",
	"Baden-Wrttemberg, Germany": "Baden-Württemberg, Germany",
}

var manualCoordinates = map[string]model.Coordinates{
	"Aldea Chimel, Guatemala":                                      {Lat: 15.43, Lon: -91.22},
	"Casteldàwson, Northern Ireland":                               {Lat: 54.76, Lon: -6.52},
	"Dabrovica, Poland":                                            {Lat: 52.14, Lon: 19.41},
	"Frankfurt-on-the-Main, Germany":                               {Lat: 50.1109, Lon: 8.6821},
	"Kibbutz Sde-Nahum, British Mandate of Palestine (now Israel)": {Lat: 32.706, Lon: 35.559},
	"Mit Abu al-Kawm, Egypt":                                       {Lat: 30.57, Lon: 30.93},
	"Tardebigg, United Kingdom":                                    {Lat: 52.31, Lon: -2.03},
	"Wailacama, East Timor":                                        {Lat: -8.55, Lon: 126.42},
}
