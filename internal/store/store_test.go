package store

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/nobelmap/internal/model"
	"github.com/ppiankov/nobelmap/internal/validate"
)

func twoRecordDataset() model.Dataset {
	ds := model.NewDataset()
	ds[model.CategoryPhysics] = []model.Laureate{
		{
			ID:            "physics_1921_26",
			Name:          "Albert Einstein",
			BirthLocation: "Ulm, Germany",
			BirthLat:      48.4011,
			BirthLon:      9.9876,
			WorkLocation:  "Kaiser-Wilhelm-Institut (now Max-Planck-Institut) für Physik, Berlin, Germany",
			WorkLat:       52.52,
			WorkLon:       13.405,
			PrizeYear:     1921,
			Achievement:   "for his services to Theoretical Physics & the photoelectric effect",
			DataSource:    model.SourceAPI,
		},
	}
	ds[model.CategoryLiterature] = []model.Laureate{
		{
			ID:              "literature_1913_1",
			Name:            "Rabindranath Tagore",
			BirthLocation:   "Calcutta, India",
			WorkLocation:    "Calcutta, India",
			PrizeYear:       1913,
			DataSource:      model.SourceBirthFallback,
			NeedsEnrichment: true,
		},
	}
	return ds
}

func TestWriteDataset_Format(t *testing.T) {
	s := New(t.TempDir(), "")
	require.NoError(t, s.WriteDataset(SnapshotRaw, twoRecordDataset()))

	data, err := os.ReadFile(s.Path(SnapshotRaw))
	require.NoError(t, err)
	text := string(data)

	assert.True(t, strings.HasSuffix(text, "}\n"))
	assert.Contains(t, text, "\n  \"literature\": [\n")
	assert.Contains(t, text, "für Physik")
	assert.Contains(t, text, "Physics & the photoelectric")
	assert.Contains(t, text, `"shared_with": []`)
	assert.Contains(t, text, `"enrichment_attempts": []`)
	assert.NotContains(t, text, "manual_note")

	entries, err := os.ReadDir(s.Dir())
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestReadDataset_RoundTrip(t *testing.T) {
	s := New(t.TempDir(), "")
	want := twoRecordDataset()
	require.NoError(t, s.WriteDataset(SnapshotFixed, want))

	got, err := s.ReadDataset(SnapshotFixed)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.True(t, s.Exists(SnapshotFixed))
	assert.False(t, s.Exists(SnapshotFinal))
}

func TestReadDataset_Missing(t *testing.T) {
	s := New(t.TempDir(), "")
	_, err := s.ReadDataset(SnapshotWikipedia)
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestPublish(t *testing.T) {
	dir := t.TempDir()
	publish := filepath.Join(dir, "site", "nobel_laureates.json")
	s := New(filepath.Join(dir, "data"), publish)

	require.NoError(t, s.Publish(twoRecordDataset()))
	got, err := ReadDataset(publish)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Count())

	assert.NoError(t, New(dir, "").Publish(twoRecordDataset()), "no publish path is a no-op")
}

func TestWriteReviewCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), ReviewCSV)
	entries := []model.ReviewEntry{{
		ID:                 "peace_1917_482",
		Name:               `International Committee of the "Red Cross"`,
		Category:           model.CategoryPeace,
		PrizeYear:          1917,
		BirthLocation:      "Geneva, Switzerland",
		Issue:              model.IssueNoAffiliation,
		EnrichmentAttempts: []string{"nobelprize_org", "wikipedia"},
	}}

	require.NoError(t, WriteReviewCSV(path, entries))
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "laureate_id,name,category,year,birth_location,issue,enrichment_attempts,work_location_manual,notes", lines[0])
	assert.Equal(t, `"peace_1917_482","International Committee of the ""Red Cross""","peace",1917,"Geneva, Switzerland","No affiliation data from any source","nobelprize_org; wikipedia",,`, lines[1])
}

func TestReadReviewCSV_FilledByReviewer(t *testing.T) {
	path := filepath.Join(t.TempDir(), ReviewCSV)
	require.NoError(t, WriteReviewCSV(path, []model.ReviewEntry{
		{ID: "physics_2020_1", Name: "Roger Penrose", Category: model.CategoryPhysics, PrizeYear: 2020, EnrichmentAttempts: []string{"nobelprize_org", "wikipedia"}},
		{ID: "literature_1913_1", Name: "Rabindranath Tagore", Category: model.CategoryLiterature, PrizeYear: 1913},
	}))

	// a reviewer fills the last two columns of the first row
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	filled := strings.Replace(string(data), `"nobelprize_org; wikipedia",,`, `"nobelprize_org; wikipedia","University of Oxford, Oxford, UK","from the Nobel lecture"`, 1)
	require.NoError(t, os.WriteFile(path, []byte(filled), 0o644))

	rows, err := ReadReviewCSV(path)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "physics_2020_1", rows[0].ID)
	assert.Equal(t, 2020, rows[0].Year)
	assert.Equal(t, []string{"nobelprize_org", "wikipedia"}, rows[0].EnrichmentAttempts)
	assert.Equal(t, "University of Oxford, Oxford, UK", rows[0].WorkLocationManual)
	assert.Equal(t, "from the Nobel lecture", rows[0].Notes)
	assert.Empty(t, rows[1].WorkLocationManual)
	assert.Nil(t, rows[1].EnrichmentAttempts)
}

func TestParseReviewCSV_Errors(t *testing.T) {
	_, err := ParseReviewCSV(strings.NewReader("id,name\n1,x\n"))
	assert.Error(t, err)

	_, err = ParseReviewCSV(strings.NewReader("laureate_id,year\nx,nineteen\n"))
	assert.Error(t, err)

	rows, err := ParseReviewCSV(strings.NewReader(""))
	assert.NoError(t, err)
	assert.Empty(t, rows)
}

func TestWriteReport(t *testing.T) {
	s := New(t.TempDir(), "")
	report := validate.Partition(twoRecordDataset())

	require.NoError(t, s.WriteReport(report))
	for _, name := range []string{ReviewJSON, ReviewCSV, SuspiciousJSON, ReportJSON} {
		assert.True(t, s.Exists(name), name)
	}

	entries, err := s.ReadReviewEntries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "literature_1913_1", entries[0].ID)
}

func TestProposals(t *testing.T) {
	s := New(t.TempDir(), "")

	got, err := s.ReadProposals()
	require.NoError(t, err)
	assert.Empty(t, got)

	want := map[string]model.Proposal{
		"medicine_2015_1": {Name: "Tu Youyou", WorkLocation: "Beijing, China", Confidence: "high", Source: "lecture"},
	}
	require.NoError(t, s.WriteProposals(want))
	got, err = s.ReadProposals()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestCompare(t *testing.T) {
	backup := twoRecordDataset()
	current := twoRecordDataset()

	current[model.CategoryChemistry] = []model.Laureate{{ID: "chemistry_1911_6", Name: "Marie Curie"}}
	current[model.CategoryPhysics][0].WorkLat = 52.5167
	current[model.CategoryLiterature][0].WorkLocation = "Santiniketan, India"

	d := Compare(backup, current)

	require.Len(t, d.OnlyInNew, 1)
	assert.Equal(t, Entry{ID: "chemistry_1911_6", Name: "Marie Curie"}, d.OnlyInNew[0])
	assert.Empty(t, d.OnlyInBackup)

	require.Len(t, d.LocationChanges, 1)
	assert.Equal(t, "literature_1913_1", d.LocationChanges[0].ID)
	for _, c := range d.LocationChanges {
		assert.NotEqual(t, "chemistry_1911_6", c.ID)
	}

	assert.Empty(t, d.CoordChanges, "a 0.0033 degree move is below the threshold")
	assert.False(t, d.Empty())
}

func TestCompare_CoordChange(t *testing.T) {
	backup := twoRecordDataset()
	current := twoRecordDataset()
	current[model.CategoryPhysics][0].WorkLat = 48.1351
	current[model.CategoryPhysics][0].WorkLon = 11.582

	d := Compare(backup, current)
	require.Len(t, d.CoordChanges, 1)

	c := d.CoordChanges[0]
	assert.InDelta(t, 4.749, c.DistanceChange, 0.001)
	assert.InDelta(t, 504, c.DistanceKM, 5)
	assert.True(t, strings.HasPrefix(c.Geohash, "u28"), c.Geohash)
	assert.Equal(t, []CoordChange{c}, d.LargestMoves(5))
}

func TestCompare_Identical(t *testing.T) {
	d := Compare(twoRecordDataset(), twoRecordDataset())
	assert.True(t, d.Empty())
}

func TestGreatCircleKM(t *testing.T) {
	paris := model.Coordinates{Lat: 48.8566, Lon: 2.3522}
	london := model.Coordinates{Lat: 51.5074, Lon: -0.1278}
	assert.InDelta(t, 343.5, GreatCircleKM(paris, london), 2)
	assert.Zero(t, GreatCircleKM(paris, paris))
}
