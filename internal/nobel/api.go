// Package nobel reads the Nobel Prize API (v2.1) and turns it into the
// initial laureate dataset.
package nobel

import (
	"strconv"
	"strings"
)

// Text is a localized string. Only English is used.
type Text struct {
	En string `json:"en"`
}

// Place is a city or country reference. CityNow carries coordinates as
// strings.
type Place struct {
	City       Text     `json:"city"`
	Country    Text     `json:"country"`
	CityNow    *CityNow `json:"cityNow,omitempty"`
	CountryNow Text     `json:"countryNow"`
}

// CityNow is the modern city with coordinates
type CityNow struct {
	En        string `json:"en"`
	Latitude  string `json:"latitude"`
	Longitude string `json:"longitude"`
}

// Coords parses the coordinate strings. ok is false when either is
// missing or both are zero.
func (c *CityNow) Coords() (lat, lon float64, ok bool) {
	if c == nil {
		return 0, 0, false
	}
	lat, errLat := strconv.ParseFloat(strings.TrimSpace(c.Latitude), 64)
	lon, errLon := strconv.ParseFloat(strings.TrimSpace(c.Longitude), 64)
	if errLat != nil || errLon != nil || (lat == 0 && lon == 0) {
		return 0, 0, false
	}
	return lat, lon, true
}

// Event is a birth or founding
type Event struct {
	Date  string `json:"date"`
	Place *Place `json:"place,omitempty"`
}

// Affiliation is the institution credited with a prize
type Affiliation struct {
	Name    Text     `json:"name"`
	City    Text     `json:"city"`
	Country Text     `json:"country"`
	CityNow *CityNow `json:"cityNow,omitempty"`
}

// Prize is one award to a laureate
type Prize struct {
	AwardYear    string        `json:"awardYear"`
	Category     Text          `json:"category"`
	Motivation   Text          `json:"motivation"`
	Affiliations []Affiliation `json:"affiliations"`
}

// Laureate is a person or organization as returned by /laureates
type Laureate struct {
	ID          string  `json:"id"`
	KnownName   Text    `json:"knownName"`
	GivenName   Text    `json:"givenName"`
	FamilyName  Text    `json:"familyName"`
	OrgName     Text    `json:"orgName"`
	Birth       *Event  `json:"birth,omitempty"`
	Founded     *Event  `json:"founded,omitempty"`
	NobelPrizes []Prize `json:"nobelPrizes"`
}

// IsOrganization reports whether the laureate is an organization
func (l Laureate) IsOrganization() bool {
	return l.OrgName.En != "" && l.FamilyName.En == "" && l.GivenName.En == ""
}

// Meta is the pagination block
type Meta struct {
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
	Count  int `json:"count"`
}

type page struct {
	Laureates []Laureate `json:"laureates"`
	Meta      Meta       `json:"meta"`
}

// categoryKeys maps API category names to dataset keys
var categoryKeys = map[string]string{
	"physics":                "physics",
	"chemistry":              "chemistry",
	"physiology or medicine": "medicine",
	"medicine":               "medicine",
	"literature":             "literature",
	"peace":                  "peace",
	"economic sciences":      "economics",
	"economics":              "economics",
}

// CategoryKey maps an API category name to its dataset key
func CategoryKey(name string) (string, bool) {
	key, ok := categoryKeys[strings.ToLower(strings.TrimSpace(name))]
	return key, ok
}
