package store

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/ppiankov/nobelmap/internal/model"
	"github.com/ppiankov/nobelmap/internal/validate"
)

// ReviewCSVHeader is the first line of the manual review export. The last
// two columns are left empty for the reviewer.
var ReviewCSVHeader = []string{
	"laureate_id", "name", "category", "year", "birth_location", "issue",
	"enrichment_attempts", "work_location_manual", "notes",
}

// ReviewRow is one line of a (possibly filled) manual review CSV
type ReviewRow struct {
	ID                 string
	Name               string
	Category           string
	Year               int
	BirthLocation      string
	Issue              string
	EnrichmentAttempts []string
	WorkLocationManual string
	Notes              string
}

// WriteReport writes every review artifact for r: the needs-review list as
// JSON and CSV, the suspicious list and the full report with statistics
func (s *Store) WriteReport(r validate.Report) error {
	if err := WriteJSON(s.Path(ReviewJSON), r.NeedsManualReview); err != nil {
		return err
	}
	if err := WriteReviewCSV(s.Path(ReviewCSV), r.NeedsManualReview); err != nil {
		return err
	}
	if err := WriteJSON(s.Path(SuspiciousJSON), r.Suspicious); err != nil {
		return err
	}
	return WriteJSON(s.Path(ReportJSON), r)
}

// ReadReviewEntries loads the needs-review JSON list
func (s *Store) ReadReviewEntries() ([]model.ReviewEntry, error) {
	var entries []model.ReviewEntry
	if err := ReadJSON(s.Path(ReviewJSON), &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// WriteReviewCSV writes entries with every string field quoted and the
// attempts joined by "; "
func WriteReviewCSV(path string, entries []model.ReviewEntry) error {
	var buf bytes.Buffer
	buf.WriteString(strings.Join(ReviewCSVHeader, ",") + "\n")
	for _, e := range entries {
		fields := []string{
			quote(e.ID),
			quote(e.Name),
			quote(e.Category),
			strconv.Itoa(e.PrizeYear),
			quote(e.BirthLocation),
			quote(e.Issue),
			quote(strings.Join(e.EnrichmentAttempts, "; ")),
			"",
			"",
		}
		buf.WriteString(strings.Join(fields, ",") + "\n")
	}
	return writeAtomic(path, buf.Bytes())
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// ReadReviewCSV parses a review CSV by header name. Missing columns read
// as empty.
func ReadReviewCSV(path string) ([]ReviewRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	rows, err := ParseReviewCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rows, nil
}

// ParseReviewCSV parses review rows from r
func ParseReviewCSV(r io.Reader) ([]ReviewRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	if _, ok := col["laureate_id"]; !ok {
		return nil, errors.New("missing laureate_id column")
	}

	var rows []ReviewRow
	for line := 2; ; line++ {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		get := func(name string) string {
			i, ok := col[name]
			if !ok || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}

		row := ReviewRow{
			ID:                 get("laureate_id"),
			Name:               get("name"),
			Category:           get("category"),
			BirthLocation:      get("birth_location"),
			Issue:              get("issue"),
			WorkLocationManual: get("work_location_manual"),
			Notes:              get("notes"),
		}
		if row.ID == "" {
			continue
		}
		if y := get("year"); y != "" {
			if row.Year, err = strconv.Atoi(y); err != nil {
				return nil, fmt.Errorf("line %d: bad year %q", line, y)
			}
		}
		for _, a := range strings.Split(get("enrichment_attempts"), ";") {
			if a = strings.TrimSpace(a); a != "" {
				row.EnrichmentAttempts = append(row.EnrichmentAttempts, a)
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}
