package geo

import (
	"context"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/ppiankov/nobelmap/internal/location"
	"github.com/ppiankov/nobelmap/internal/model"
)

// StaticTable answers from a fixed city table. It never touches the
// network, so it is the last resort when the geocoder is down.
type StaticTable struct {
	entries map[string]model.Coordinates
	keys    []string
	fuzzy   int
}

// NewStaticTable folds the entry keys and enables fuzzy matching on the
// first segment when fuzzyDistance > 0
func NewStaticTable(entries map[string]model.Coordinates, fuzzyDistance int) *StaticTable {
	t := &StaticTable{
		entries: make(map[string]model.Coordinates, len(entries)),
		fuzzy:   fuzzyDistance,
	}
	for k, v := range entries {
		folded := location.Fold(k)
		t.entries[folded] = v
		t.keys = append(t.keys, folded)
	}
	sort.Strings(t.keys)
	return t
}

// DefaultTable returns the built-in research-city table
func DefaultTable(fuzzyDistance int) *StaticTable {
	return NewStaticTable(cityCoords, fuzzyDistance)
}

func (t *StaticTable) Name() string { return "static" }

// Len reports the number of distinct keys
func (t *StaticTable) Len() int { return len(t.keys) }

func (t *StaticTable) Lookup(_ context.Context, query string) (model.Coordinates, bool, error) {
	key := location.StripNationalSuffix(query)
	if key == "" {
		return model.Coordinates{}, false, nil
	}

	if c, ok := t.entries[key]; ok {
		return c, true, nil
	}

	first := strings.TrimSpace(strings.Split(key, ",")[0])
	if c, ok := t.entries[first]; ok {
		return c, true, nil
	}

	if t.fuzzy > 0 && first != "" {
		best, bestDist := "", t.fuzzy+1
		for _, k := range t.keys {
			if d := levenshtein.ComputeDistance(first, k); d < bestDist {
				best, bestDist = k, d
			}
		}
		if best != "" {
			return t.entries[best], true, nil
		}
	}

	return model.Coordinates{}, false, nil
}

var cityCoords = map[string]model.Coordinates{
	"cambridge, massachusetts": {Lat: 42.3736, Lon: -71.1097},
	"cambridge, ma":            {Lat: 42.3736, Lon: -71.1097},
	"cambridge, england":       {Lat: 52.2053, Lon: 0.1218},
	"cambridge":                {Lat: 52.2053, Lon: 0.1218},
	"oxford":                   {Lat: 51.7520, Lon: -1.2577},
	"london":                   {Lat: 51.5074, Lon: -0.1278},
	"paris":                    {Lat: 48.8566, Lon: 2.3522},
	"berlin":                   {Lat: 52.5200, Lon: 13.4050},
	"munich":                   {Lat: 48.1351, Lon: 11.5820},
	"stockholm":                {Lat: 59.3293, Lon: 18.0686},
	"oslo":                     {Lat: 59.9139, Lon: 10.7522},
	"copenhagen":               {Lat: 55.6761, Lon: 12.5683},
	"zurich":                   {Lat: 47.3769, Lon: 8.5417},
	"geneva":                   {Lat: 46.2044, Lon: 6.1432},
	"vienna":                   {Lat: 48.2082, Lon: 16.3738},
	"amsterdam":                {Lat: 52.3676, Lon: 4.9041},
	"brussels":                 {Lat: 50.8503, Lon: 4.3517},
	"moscow":                   {Lat: 55.7558, Lon: 37.6173},
	"st. petersburg":           {Lat: 59.9311, Lon: 30.3609},
	"tokyo":                    {Lat: 35.6762, Lon: 139.6503},
	"kyoto":                    {Lat: 35.0116, Lon: 135.7681},
	"beijing":                  {Lat: 39.9042, Lon: 116.4074},
	"shanghai":                 {Lat: 31.2304, Lon: 121.4737},
	"new york":                 {Lat: 40.7128, Lon: -74.0060},
	"new york city":            {Lat: 40.7128, Lon: -74.0060},
	"boston":                   {Lat: 42.3601, Lon: -71.0589},
	"chicago":                  {Lat: 41.8781, Lon: -87.6298},
	"los angeles":              {Lat: 34.0522, Lon: -118.2437},
	"san francisco":            {Lat: 37.7749, Lon: -122.4194},
	"berkeley":                 {Lat: 37.8715, Lon: -122.2730},
	"princeton":                {Lat: 40.3573, Lon: -74.6672},
	"stanford":                 {Lat: 37.4275, Lon: -122.1697},
	"pasadena":                 {Lat: 34.1478, Lon: -118.1445},
	"baltimore":                {Lat: 39.2904, Lon: -76.6122},
	"philadelphia":             {Lat: 39.9526, Lon: -75.1652},
	"washington":               {Lat: 38.9072, Lon: -77.0369},
	"washington, d.c.":         {Lat: 38.9072, Lon: -77.0369},
	"seattle":                  {Lat: 47.6062, Lon: -122.3321},
	"toronto":                  {Lat: 43.6532, Lon: -79.3832},
	"montreal":                 {Lat: 45.5017, Lon: -73.5673},
	"sydney":                   {Lat: -33.8688, Lon: 151.2093},
	"melbourne":                {Lat: -37.8136, Lon: 144.9631},
	"wellington":               {Lat: -41.2865, Lon: 174.7762},
	"auckland":                 {Lat: -36.8485, Lon: 174.7633},
	"cape town":                {Lat: -33.9249, Lon: 18.4241},
	"tel aviv":                 {Lat: 32.0853, Lon: 34.7818},
	"jerusalem":                {Lat: 31.7683, Lon: 35.2137},
	"delhi":                    {Lat: 28.7041, Lon: 77.1025},
	"mumbai":                   {Lat: 19.0760, Lon: 72.8777},
	"bangalore":                {Lat: 12.9716, Lon: 77.5946},
	"buenos aires":             {Lat: -34.6037, Lon: -58.3816},
	"mexico city":              {Lat: 19.4326, Lon: -99.1332},
	"rio de janeiro":           {Lat: -22.9068, Lon: -43.1729},
	"sao paulo":                {Lat: -23.5505, Lon: -46.6333},
}
