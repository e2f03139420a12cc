// Package location turns raw affiliation and place text into clean,
// geocodable query strings. Every function here is pure.
package location

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	nowPattern     = regexp.MustCompile(`\(now ([^),]+)`)
	nowAnnotation  = regexp.MustCompile(`\s*\(now [^)]+\)`)
	titlePattern   = regexp.MustCompile(`(?i)\b(Jr\.?|Sr\.?|Dr\.?|Prof\.?|Sir|Lord|Lady|III|IV|II)(\s|$|,)`)
	nonSlugPattern = regexp.MustCompile(`[^\p{L}\p{N}-]`)
)

// Fold lower-cases s, strips diacritics and collapses whitespace.
// Used as the matching key for every lookup table.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.Join(strings.Fields(strings.ToLower(folded)), " ")
}

// Segments splits s on commas and trims each part, dropping empty ones
func Segments(s string) []string {
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, p := range raw {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

// Normalize returns a clean geocodable query for raw. It resolves
// "(now X)" annotations and then keeps only the trailing city and
// geography. ok is false when no geographic anchor is found, in which
// case the caller should fall back to the raw string.
func Normalize(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", false
	}
	if modern, ok := ModernName(s); ok {
		s = modern
	}
	return ExtractGeography(s)
}

// ModernName rewrites historical place names annotated as "Old (now New)".
// "Breslau (now Wroclaw), Germany (now Poland)" becomes "Wroclaw, Poland".
// ok is false when raw has no annotation.
func ModernName(raw string) (string, bool) {
	matches := nowPattern.FindAllStringSubmatch(raw, -1)
	if len(matches) == 0 {
		return "", false
	}
	if len(matches) >= 2 {
		return strings.TrimSpace(matches[0][1]) + ", " + strings.TrimSpace(matches[1][1]), true
	}

	parts := strings.Split(raw, ",")
	if len(parts) < 2 {
		return strings.TrimSpace(matches[0][1]), true
	}

	last := parts[len(parts)-1]
	if nowPattern.MatchString(last) {
		// only the country changed: keep the city text
		head := nowAnnotation.ReplaceAllString(strings.Join(parts[:len(parts)-1], ","), "")
		return strings.TrimSpace(head) + ", " + strings.TrimSpace(matches[0][1]), true
	}
	country := strings.TrimSpace(nowAnnotation.ReplaceAllString(last, ""))
	return strings.TrimSpace(matches[0][1]) + ", " + country, true
}

// ExtractGeography keeps the city plus trailing geography of a
// comma-separated affiliation string. Right to left it takes up to two
// country segments and then at most one region; the segment before those
// is the city. A region name that is also a city ("New York, USA") is kept
// as the city.
//
//	"Harvard University, Cambridge, MA, USA"    -> "Cambridge, MA, USA"
//	"Rockefeller University, New York, NY, USA" -> "New York, NY, USA"
func ExtractGeography(raw string) (string, bool) {
	parts := Segments(raw)
	anchor := len(parts)
	for n := 0; n < 2 && anchor > 0 && IsCountry(parts[anchor-1]); n++ {
		anchor--
	}
	if anchor > 0 && IsRegion(parts[anchor-1]) && !isCityRegion(parts[anchor-1]) {
		anchor--
	}
	if anchor == len(parts) || anchor <= 0 {
		return "", false
	}
	return strings.Join(parts[anchor-1:], ", "), true
}

func isCityRegion(segment string) bool {
	_, ok := cityRegionNames[Fold(segment)]
	return ok
}

// StripNationalSuffix removes a trailing national qualifier such as
// ", USA" or ", Germany" used to widen static table matches
func StripNationalSuffix(s string) string {
	folded := Fold(s)
	for _, suffix := range nationalSuffixes {
		if !strings.HasSuffix(folded, suffix) || folded == suffix {
			continue
		}
		head := folded[:len(folded)-len(suffix)]
		// the suffix must be its own segment or word
		if strings.HasSuffix(head, " ") || strings.HasSuffix(head, ",") {
			return strings.TrimSpace(strings.TrimRight(strings.TrimSpace(head), ","))
		}
	}
	return folded
}

// Surname returns the lower-cased URL slug of a person's family name,
// ignoring titles and generational suffixes
func Surname(name string) string {
	cleaned := titlePattern.ReplaceAllString(name+" ", " ")
	fields := strings.Fields(cleaned)
	if len(fields) == 0 {
		return ""
	}
	return nonSlugPattern.ReplaceAllString(Fold(fields[len(fields)-1]), "")
}

// Join builds "a, b" skipping empty parts
func Join(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ", ")
}
