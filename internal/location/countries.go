package location

// countryNames are the names recognised as a geographic anchor. Keys are folded.
var countryNames = buildSet([]string{
	"Afghanistan", "Algeria", "Argentina", "Australia", "Austria", "Austria-Hungary",
	"Azerbaijan", "Bangladesh", "Belarus", "Belgium", "Bosnia and Herzegovina",
	"Brazil", "British India", "British Mandate of Palestine", "Bulgaria", "Canada",
	"Chile", "China", "Colombia", "Costa Rica", "Croatia", "Cyprus", "Czech Republic",
	"Czechoslovakia", "Democratic Republic of the Congo", "Denmark", "East Timor",
	"Egypt", "England", "Ethiopia", "Faroe Islands", "Finland", "France", "Gabon",
	"Germany", "Ghana", "Greece", "Guadeloupe", "Guatemala", "Hungary", "Iceland",
	"India", "Indonesia", "Iran", "Iraq", "Ireland", "Israel", "Italy", "Japan",
	"Kenya", "Korea", "Latvia", "Lebanon", "Liberia", "Lithuania", "Luxembourg",
	"Madagascar", "Mexico", "Morocco", "Myanmar", "Netherlands", "New Zealand",
	"Nigeria", "Northern Ireland", "Norway", "Pakistan", "Persia", "Peru",
	"Philippines", "Poland", "Portugal", "Prussia", "Romania", "Russia",
	"Russian Empire", "Saint Lucia", "Scotland", "Slovakia", "Slovenia",
	"South Africa", "South Korea", "Spain", "Sweden", "Switzerland", "Taiwan",
	"Tanzania", "Trinidad and Tobago", "Tunisia", "Turkey", "Ukraine", "USSR",
	"United Kingdom", "United States", "United States of America", "USA", "U.S.A.",
	"UK", "Venezuela", "Vietnam", "Wales", "West Germany", "Yemen", "Yugoslavia",
	"Zimbabwe",
})

// regionCodes are US state and Canadian province abbreviations
var regionCodes = buildSet([]string{
	"AL", "AK", "AZ", "AR", "CA", "CO", "CT", "DE", "FL", "GA", "HI", "ID", "IL",
	"IN", "IA", "KS", "KY", "LA", "ME", "MD", "MA", "MI", "MN", "MS", "MO", "MT",
	"NE", "NV", "NH", "NJ", "NM", "NY", "NC", "ND", "OH", "OK", "OR", "PA", "RI",
	"SC", "SD", "TN", "TX", "UT", "VT", "VA", "WA", "WV", "WI", "WY", "DC", "D.C.",
	"AB", "BC", "MB", "NB", "NL", "NS", "ON", "PE", "QC", "SK",
	"Massachusetts", "California", "New York", "New Jersey", "Illinois",
	"Pennsylvania", "Maryland", "Connecticut", "Texas", "Washington",
	"Ontario", "Quebec", "British Columbia", "Bavaria", "Baden-Württemberg",
})

// cityRegionNames are region names that are also city names. Without a
// region code after them they are read as the city.
var cityRegionNames = buildSet([]string{"New York", "Washington", "Quebec"})

// nationalSuffixes are stripped before static table lookups
var nationalSuffixes = []string{
	"u.s.a.", "usa", "united states", "uk", "england", "france", "germany",
	"sweden", "norway", "denmark", "japan", "china",
}

func buildSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		set[Fold(item)] = struct{}{}
	}
	return set
}

// IsCountry reports whether segment is a recognised country name
func IsCountry(segment string) bool {
	_, ok := countryNames[Fold(segment)]
	return ok
}

// IsRegion reports whether segment is a recognised region code or name
func IsRegion(segment string) bool {
	_, ok := regionCodes[Fold(segment)]
	return ok
}

// IsGeographic reports whether segment is a country or region anchor
func IsGeographic(segment string) bool {
	return IsCountry(segment) || IsRegion(segment)
}
