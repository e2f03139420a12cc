// Package store persists pipeline snapshots and the artifacts handed to
// human reviewers.
package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ppiankov/nobelmap/internal/model"
)

// Snapshot and artifact file names inside the data directory
const (
	SnapshotRaw           = "01_raw_from_api.json"
	SnapshotNobelPrizeOrg = "02_enriched_nobelprize_org.json"
	SnapshotWikipedia     = "03_enriched_wikipedia.json"
	SnapshotFixed         = "04_fixed_geocoding.json"
	SnapshotOverrides     = "05_with_overrides.json"
	SnapshotFinal         = "06_final.json"

	ReviewJSON     = "needs_manual_review.json"
	ReviewCSV      = "needs_manual_review.csv"
	SuspiciousJSON = "suspicious_entries.json"
	ReportJSON     = "validation_report.json"
	ProposalsJSON  = "assisted_proposals.json"
)

// Store reads and writes files under one data directory. The final dataset
// is also published to a separate path for the presentation layer.
type Store struct {
	dir         string
	publishPath string
}

// New creates a store rooted at dir
func New(dir, publishPath string) *Store {
	return &Store{dir: dir, publishPath: publishPath}
}

// Dir returns the data directory
func (s *Store) Dir() string { return s.dir }

// Path returns the full path of a file in the data directory
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name)
}

// Exists reports whether name is present in the data directory
func (s *Store) Exists(name string) bool {
	_, err := os.Stat(s.Path(name))
	return err == nil
}

// PartialName is where checkpoints of the stage writing name go until the
// stage completes
func PartialName(name string) string {
	return strings.TrimSuffix(name, ".json") + ".partial.json"
}

// ModTime returns the modification time of name
func (s *Store) ModTime(name string) (time.Time, bool) {
	fi, err := os.Stat(s.Path(name))
	if err != nil {
		return time.Time{}, false
	}
	return fi.ModTime(), true
}

// Remove deletes name. A missing file is not an error.
func (s *Store) Remove(name string) error {
	if err := os.Remove(s.Path(name)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// ReadDataset loads a snapshot. A missing file returns an error wrapping
// fs.ErrNotExist.
func (s *Store) ReadDataset(name string) (model.Dataset, error) {
	return ReadDataset(s.Path(name))
}

// WriteDataset replaces a snapshot
func (s *Store) WriteDataset(name string, ds model.Dataset) error {
	return WriteDataset(s.Path(name), ds)
}

// Publish writes the dataset served by the presentation API
func (s *Store) Publish(ds model.Dataset) error {
	if s.publishPath == "" {
		return nil
	}
	return WriteDataset(s.publishPath, ds)
}

// PublishPath returns where Publish writes
func (s *Store) PublishPath() string { return s.publishPath }

// ReadProposals loads the assisted-search proposals. A missing file is an
// empty map.
func (s *Store) ReadProposals() (map[string]model.Proposal, error) {
	proposals := make(map[string]model.Proposal)
	if !s.Exists(ProposalsJSON) {
		return proposals, nil
	}
	if err := ReadJSON(s.Path(ProposalsJSON), &proposals); err != nil {
		return nil, err
	}
	return proposals, nil
}

// WriteProposals replaces the proposals file
func (s *Store) WriteProposals(proposals map[string]model.Proposal) error {
	return WriteJSON(s.Path(ProposalsJSON), proposals)
}

// ReadDataset loads a dataset from path
func ReadDataset(path string) (model.Dataset, error) {
	var ds model.Dataset
	if err := ReadJSON(path, &ds); err != nil {
		return nil, err
	}
	ds.Normalize()
	return ds, nil
}

// WriteDataset writes ds to path
func WriteDataset(path string, ds model.Dataset) error {
	ds.Normalize()
	return WriteJSON(path, ds)
}

// ReadJSON decodes the file at path into v
func ReadJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// WriteJSON encodes v with two-space indentation and no HTML escaping and
// replaces path atomically
func WriteJSON(path string, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return writeAtomic(path, buf.Bytes())
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if err := tmp.Chmod(0o644); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("chmod %s: %w", tmpName, err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
