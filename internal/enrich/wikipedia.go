package enrich

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/ppiankov/nobelmap/internal/fetch"
	"github.com/ppiankov/nobelmap/internal/model"
)

const DefaultWikipediaURL = "https://en.wikipedia.org"

var (
	infoboxKeywords = []string{"institution", "workplace", "affiliation", "employer"}

	// "X of Y" forms take any leading words so "Massachusetts Institute of
	// Technology" is kept whole
	institutionPatterns = []*regexp.Regexp{
		regexp.MustCompile(`[^,\n\[(]*University of [^,\n\[(]+`),
		regexp.MustCompile(`[^,\n\[(]+ University`),
		regexp.MustCompile(`[^,\n\[(]*Institute of [^,\n\[(]+`),
		regexp.MustCompile(`[^,\n\[(]+ Institute`),
		regexp.MustCompile(`[^,\n\[(]*College of [^,\n\[(]+`),
		regexp.MustCompile(`[^,\n\[(]+ College`),
		regexp.MustCompile(`[^,\n\[(]+ Laboratory`),
	}

	referencePattern = regexp.MustCompile(`\[\d+\]`)
	dateRangePattern = regexp.MustCompile(`\s*\(\d{4}[–\-]?\d*\)`)
)

// Wikipedia reads the institution from a laureate's article infobox
type Wikipedia struct {
	baseScraper
	fetcher *fetch.Fetcher
	baseURL string
}

// NewWikipedia creates the infobox source
func NewWikipedia(fetcher *fetch.Fetcher, baseURL string) *Wikipedia {
	if baseURL == "" {
		baseURL = DefaultWikipediaURL
	}
	return &Wikipedia{fetcher: fetcher, baseURL: strings.TrimSuffix(baseURL, "/")}
}

func (s *Wikipedia) Name() string { return string(model.SourceWikipedia) }

func (s *Wikipedia) DataSource() model.DataSource { return model.SourceWikipedia }

func (s *Wikipedia) Find(ctx context.Context, _ string, l model.Laureate) (string, error) {
	name := strings.TrimSpace(l.Name)
	if name == "" {
		return "", nil
	}

	res, err := s.fetcher.FetchWithRetry(ctx, s.articleURL(name))
	if fetch.IsNotFound(err) {
		var pageURL string
		pageURL, err = s.search(ctx, name)
		if err != nil || pageURL == "" {
			return "", err
		}
		res, err = s.fetcher.FetchWithRetry(ctx, pageURL)
	}
	if err != nil {
		return "", err
	}

	doc, err := s.ParseHTML(res.Body)
	if err != nil {
		return "", fmt.Errorf("parse article for %s: %w", name, err)
	}
	return s.Institution(doc), nil
}

func (s *Wikipedia) articleURL(name string) string {
	return s.baseURL + "/wiki/" + url.PathEscape(strings.ReplaceAll(name, " ", "_"))
}

// search asks opensearch for the best article. The reply is
// [query, [titles], [descriptions], [urls]].
func (s *Wikipedia) search(ctx context.Context, name string) (string, error) {
	params := url.Values{
		"action": {"opensearch"},
		"search": {name},
		"limit":  {"1"},
		"format": {"json"},
	}

	var reply []any
	if err := s.fetcher.GetJSON(ctx, s.baseURL+"/w/api.php?"+params.Encode(), &reply); err != nil {
		return "", fmt.Errorf("wikipedia search for %s: %w", name, err)
	}
	if len(reply) < 4 {
		return "", nil
	}
	urls, ok := reply[3].([]any)
	if !ok || len(urls) == 0 {
		return "", nil
	}
	first, _ := urls[0].(string)
	return first, nil
}

// Institution returns the first institution named in an infobox row about
// institutions, workplaces, affiliations or employers
func (s *Wikipedia) Institution(doc *html.Node) string {
	infobox := firstElement(doc, "table", "infobox")
	if infobox == nil {
		return ""
	}

	for _, row := range elements(infobox, "tr") {
		header := firstElement(row, "th", "")
		if header == nil || !mentionsInstitution(s.Text(header)) {
			continue
		}
		value := firstElement(row, "td", "")
		if value == nil {
			continue
		}
		if inst := MatchInstitution(s.Text(value)); inst != "" {
			return inst
		}
	}
	return ""
}

func mentionsInstitution(header string) bool {
	h := strings.ToLower(header)
	for _, kw := range infoboxKeywords {
		if strings.Contains(h, kw) {
			return true
		}
	}
	return false
}

// MatchInstitution returns the first line of text that names an
// institution, with references and date ranges removed
func MatchInstitution(text string) string {
	text = referencePattern.ReplaceAllString(text, "")
	for _, line := range strings.Split(text, "\n") {
		for _, p := range institutionPatterns {
			if m := p.FindString(line); m != "" {
				return cleanInstitution(m)
			}
		}
	}
	return ""
}

func cleanInstitution(s string) string {
	s = dateRangePattern.ReplaceAllString(s, "")
	return strings.Join(strings.Fields(s), " ")
}
