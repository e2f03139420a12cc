package enrich

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/ppiankov/nobelmap/internal/fetch"
	"github.com/ppiankov/nobelmap/internal/location"
	"github.com/ppiankov/nobelmap/internal/model"
)

const DefaultNobelPrizeURL = "https://www.nobelprize.org"

var affiliationPattern = regexp.MustCompile(`(?i)Affiliation at the time of the award:[ \t]*([^\n]+)`)

// categorySlugs maps dataset keys to nobelprize.org path segments where
// they differ
var categorySlugs = map[string]string{
	model.CategoryEconomics: "economic-sciences",
}

// NobelPrizeOrg reads "Affiliation at the time of the award" from the
// laureate facts page
type NobelPrizeOrg struct {
	baseScraper
	fetcher *fetch.Fetcher
	baseURL string
}

// NewNobelPrizeOrg creates the facts-page source
func NewNobelPrizeOrg(fetcher *fetch.Fetcher, baseURL string) *NobelPrizeOrg {
	if baseURL == "" {
		baseURL = DefaultNobelPrizeURL
	}
	return &NobelPrizeOrg{fetcher: fetcher, baseURL: strings.TrimSuffix(baseURL, "/")}
}

func (s *NobelPrizeOrg) Name() string { return string(model.SourceNobelPrizeOrg) }

func (s *NobelPrizeOrg) DataSource() model.DataSource { return model.SourceNobelPrizeOrg }

// FactsURL builds the facts page address for a laureate
func (s *NobelPrizeOrg) FactsURL(category string, l model.Laureate) (string, bool) {
	surname := location.Surname(l.Name)
	if surname == "" {
		return "", false
	}
	slug := category
	if mapped, ok := categorySlugs[category]; ok {
		slug = mapped
	}
	return fmt.Sprintf("%s/prizes/%s/%d/%s/facts/", s.baseURL, slug, l.PrizeYear, surname), true
}

func (s *NobelPrizeOrg) Find(ctx context.Context, category string, l model.Laureate) (string, error) {
	pageURL, ok := s.FactsURL(category, l)
	if !ok {
		return "", nil
	}

	res, err := s.fetcher.FetchWithRetry(ctx, pageURL)
	if err != nil {
		if fetch.IsNotFound(err) {
			return "", nil
		}
		return "", err
	}

	doc, err := s.ParseHTML(res.Body)
	if err != nil {
		return "", fmt.Errorf("parse %s: %w", pageURL, err)
	}

	return ParseAffiliation(s.Text(doc)), nil
}

// ParseAffiliation extracts the affiliation line from facts page text.
// A dash or empty value means none.
func ParseAffiliation(pageText string) string {
	m := affiliationPattern.FindStringSubmatch(pageText)
	if m == nil {
		return ""
	}
	affiliation := strings.Join(strings.Fields(m[1]), " ")
	if affiliation == "-" || affiliation == "–" {
		return ""
	}
	return affiliation
}
