// Package override merges hand-curated work locations into the dataset.
package override

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/ppiankov/nobelmap/internal/geo"
	"github.com/ppiankov/nobelmap/internal/model"
	"github.com/ppiankov/nobelmap/internal/observability"
	"github.com/ppiankov/nobelmap/internal/store"
)

// File is an overrides document. Keys starting with "_" are metadata and
// are carried through Save untouched.
type File struct {
	Entries map[string]model.Override
	Meta    map[string]json.RawMessage
}

// NewFile returns an empty overrides document
func NewFile() *File {
	return &File{
		Entries: make(map[string]model.Override),
		Meta:    make(map[string]json.RawMessage),
	}
}

// IsMeta reports whether key is a metadata key
func IsMeta(key string) bool {
	return strings.HasPrefix(key, "_")
}

// Load reads an overrides file. A missing file is an empty document.
func Load(path string) (*File, error) {
	f := NewFile()

	var raw map[string]json.RawMessage
	if err := store.ReadJSON(path, &raw); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return f, nil
		}
		return nil, err
	}

	for key, value := range raw {
		if IsMeta(key) {
			f.Meta[key] = value
			continue
		}
		var o model.Override
		if err := json.Unmarshal(value, &o); err != nil {
			return nil, fmt.Errorf("override %s: %w", key, err)
		}
		f.Entries[key] = o
	}
	return f, nil
}

// Save writes the document with keys in sorted order
func (f *File) Save(path string) error {
	out := make(map[string]any, len(f.Entries)+len(f.Meta))
	for k, v := range f.Meta {
		out[k] = v
	}
	for k, v := range f.Entries {
		out[k] = v
	}
	return store.WriteJSON(path, out)
}

// MergeResult counts what Merge did
type MergeResult struct {
	Added    int
	Replaced int
	Kept     int
}

// Merge adds entries to f. Existing entries win unless force is set.
func (f *File) Merge(entries map[string]model.Override, force bool) MergeResult {
	var r MergeResult
	for id, o := range entries {
		if IsMeta(id) {
			continue
		}
		if _, exists := f.Entries[id]; exists {
			if !force {
				r.Kept++
				continue
			}
			r.Replaced++
		} else {
			r.Added++
		}
		f.Entries[id] = o
	}
	return r
}

// FromReviewRows turns filled review rows into overrides. Rows without a
// manual work location are skipped.
func FromReviewRows(rows []store.ReviewRow) map[string]model.Override {
	out := make(map[string]model.Override)
	for _, row := range rows {
		if row.ID == "" || row.WorkLocationManual == "" {
			continue
		}
		out[row.ID] = model.Override{
			WorkLocation: row.WorkLocationManual,
			Note:         row.Notes,
		}
	}
	return out
}

// FromReviewCSV reads a filled manual review CSV into overrides
func FromReviewCSV(path string) (map[string]model.Override, error) {
	rows, err := store.ReadReviewCSV(path)
	if err != nil {
		return nil, err
	}
	return FromReviewRows(rows), nil
}

// FailedGeocode is an applied override whose location did not geocode
type FailedGeocode struct {
	ID       string
	Location string
}

// Result lists the ids touched by Apply, each sorted
type Result struct {
	Applied []string        // override found a record
	Unknown []string        // no record with this id
	Failed  []FailedGeocode // applied, but the new text did not geocode
}

// Summary converts r to the common batch summary
func (r Result) Summary() model.Summary {
	s := model.Summary{Name: "overrides", Updated: len(r.Applied) - len(r.Failed)}
	for _, f := range r.Failed {
		s.Fail(fmt.Sprintf("%s: could not geocode %q, previous coordinates kept", f.ID, f.Location))
	}
	for _, id := range r.Unknown {
		s.Fail(id + ": no such laureate")
	}
	return s
}

// Apply writes every override into ds. The text is used verbatim and
// coordinates are resolved from it; when that fails the previous
// coordinates are kept and the id and text are reported in Failed. Legacy entries
// with coordinates but no text set the coordinates directly. Every
// matched record becomes manual and stops needing enrichment.
func Apply(ctx context.Context, ds model.Dataset, overrides map[string]model.Override, resolver geo.Resolver, logger *log.Entry) Result {
	if logger == nil {
		logger = observability.Logger("override")
	}
	idx := ds.Index()
	var r Result

	ids := make([]string, 0, len(overrides))
	for id := range overrides {
		if !IsMeta(id) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	for _, id := range ids {
		o := overrides[id]
		l, ok := idx[id]
		if !ok {
			logger.Warnf("override for unknown laureate %s", id)
			r.Unknown = append(r.Unknown, id)
			continue
		}

		switch {
		case o.WorkLocation != "":
			l.WorkLocation = o.WorkLocation
			if c, ok := resolver.Resolve(ctx, o.WorkLocation); ok {
				l.SetWorkCoords(c)
			} else {
				logger.Warnf("%s (%s): could not geocode %q, keeping %.4f,%.4f", l.Name, id, o.WorkLocation, l.WorkLat, l.WorkLon)
				r.Failed = append(r.Failed, FailedGeocode{ID: id, Location: o.WorkLocation})
			}
		case o.WorkLat != nil || o.WorkLon != nil:
			if o.WorkLat != nil {
				l.WorkLat = *o.WorkLat
			}
			if o.WorkLon != nil {
				l.WorkLon = *o.WorkLon
			}
		}

		l.DataSource = model.SourceManual
		l.NeedsEnrichment = false
		if o.Note != "" {
			l.ManualNote = o.Note
		}
		r.Applied = append(r.Applied, id)
		logger.Debugf("%s (%s): %s", l.Name, id, l.WorkLocation)
	}

	return r
}
