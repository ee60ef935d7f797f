package archive

import (
	"listenerd/internal/models"
	"listenerd/internal/structures"
	"listenerd/internal/testutil"
	"os"
	"path/filepath"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func archiveConfig(dir string, buckets bool) *structures.Config {
	conf := &structures.Config{
		Entities: []structures.Entity{
			{ID: "t1", Label: "Tower 1", Endpoint: "main", Mount: "/tower1", IncludeInTotals: true, IncludeInHistory: true},
			{ID: "t2", Label: "Tower 2", Endpoint: "main", Mount: "/tower2", IncludeInTotals: true, IncludeInHistory: true},
			{ID: "t3", Label: "Tower 3", Endpoint: "main", Mount: "/tower3"},
		},
		Archive: structures.ArchiveConfig{
			Dir:           dir,
			RollingWindow: time.Hour,
			Buckets:       buckets,
		},
	}
	conf.ApplyDefaults()
	return conf
}

func cycle(ts int64, t1, t2, t3 int) *models.Snapshot {
	return testutil.Snapshot(ts,
		&models.SourceRecord{ID: "t1", Listeners: t1, IncludeInTotals: true, IncludeInHistory: true},
		&models.SourceRecord{ID: "t2", Listeners: t2, IncludeInTotals: true, IncludeInHistory: true},
		&models.SourceRecord{ID: "t3", Listeners: t3},
	)
}

func newArchive(t *testing.T, buckets bool) (*Archive, *testutil.MockMetrics) {
	t.Helper()
	metrics := testutil.NewMockMetrics()
	a := NewArchive(archiveConfig(t.TempDir(), buckets), &testutil.MockLogger{}, metrics).(*Archive)
	require.NoError(t, a.Restore())
	return a, metrics
}

func TestArchive_AppendWritesHistorySeriesAndTotal(t *testing.T) {
	a, metrics := newArchive(t, false)

	require.NoError(t, a.Append(cycle(1000, 10, 5, 99)))
	require.NoError(t, a.Append(cycle(2000, 12, 6, 99)))

	p, err := a.Load(models.ArchiveRange{Kind: models.RangeRolling})
	require.NoError(t, err)
	require.Len(t, p.Series, 3)
	assert.Equal(t, "Tower 1", p.Series[0].Name)
	assert.Equal(t, "Tower 2", p.Series[1].Name)
	assert.Equal(t, models.TotalSeries, p.Series[2].Name)
	assert.Nil(t, p.Find("Tower 3"))

	assert.Equal(t, []models.SeriesPoint{{Timestamp: 1000, Value: 15}, {Timestamp: 2000, Value: 18}}, p.Find(models.TotalSeries).Points)
	assert.NotEmpty(t, p.GeneratedAt)
	assert.Equal(t, models.RangeRolling, p.Range)
	assert.Equal(t, 2, metrics.SeriesPoints["Total"])
	assert.Equal(t, 2, metrics.Persists)
}

func TestArchive_TotalMatchesSnapshotTotal(t *testing.T) {
	a, _ := newArchive(t, false)
	snap := cycle(1000, 7, 8, 1000)
	require.NoError(t, a.Append(snap))

	p, err := a.Load(models.ArchiveRange{Kind: models.RangeFull})
	require.NoError(t, err)
	assert.Equal(t, float64(snap.TotalListeners), p.Find(models.TotalSeries).Points[0].Value)
}

func TestArchive_RollingEvictsFullKeeps(t *testing.T) {
	a, _ := newArchive(t, false)
	hour := time.Hour.Milliseconds()

	require.NoError(t, a.Append(cycle(0, 1, 1, 0)))
	require.NoError(t, a.Append(cycle(hour/2, 2, 2, 0)))
	require.NoError(t, a.Append(cycle(2*hour, 3, 3, 0)))

	rolling, err := a.Load(models.ArchiveRange{Kind: models.RangeRolling})
	require.NoError(t, err)
	for _, s := range rolling.Series {
		require.Len(t, s.Points, 1, s.Name)
		assert.Equal(t, 2*hour, s.Points[0].Timestamp)
	}

	full, err := a.Load(models.ArchiveRange{Kind: models.RangeFull})
	require.NoError(t, err)
	assert.Len(t, full.Find(models.TotalSeries).Points, 3)
}

func TestArchive_RollingBoundaryIsInclusive(t *testing.T) {
	a, _ := newArchive(t, false)
	hour := time.Hour.Milliseconds()

	require.NoError(t, a.Append(cycle(1000, 1, 1, 0)))
	require.NoError(t, a.Append(cycle(1000+hour, 1, 1, 0)))

	rolling, err := a.Load(models.ArchiveRange{Kind: models.RangeRolling})
	require.NoError(t, err)
	assert.Len(t, rolling.Find(models.TotalSeries).Points, 2)
}

func TestArchive_RestoreContinuesHistory(t *testing.T) {
	dir := t.TempDir()
	conf := archiveConfig(dir, false)

	first := NewArchive(conf, &testutil.MockLogger{}, testutil.NewMockMetrics())
	require.NoError(t, first.Restore())
	require.NoError(t, first.Append(cycle(1000, 1, 2, 0)))

	second := NewArchive(conf, &testutil.MockLogger{}, testutil.NewMockMetrics())
	require.NoError(t, second.Restore())
	require.NoError(t, second.Append(cycle(2000, 3, 4, 0)))

	full, err := second.Load(models.ArchiveRange{Kind: models.RangeFull})
	require.NoError(t, err)
	assert.Len(t, full.Find("Tower 1").Points, 2)
}

func TestArchive_LatestTimestamp(t *testing.T) {
	dir := t.TempDir()
	conf := archiveConfig(dir, false)
	a := NewArchive(conf, &testutil.MockLogger{}, testutil.NewMockMetrics())
	require.NoError(t, a.Restore())
	assert.Zero(t, a.LatestTimestamp())

	require.NoError(t, a.Append(cycle(1000, 1, 1, 0)))
	require.NoError(t, a.Append(cycle(4000, 2, 2, 0)))

	restored := NewArchive(conf, &testutil.MockLogger{}, testutil.NewMockMetrics())
	require.NoError(t, restored.Restore())
	assert.Equal(t, int64(4000), restored.LatestTimestamp())
}

func TestArchive_RestoreCorruptFails(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, fullFile), []byte("{not json"), 0644))

	a := NewArchive(archiveConfig(dir, false), &testutil.MockLogger{}, testutil.NewMockMetrics())
	assert.ErrorIs(t, a.Restore(), ErrCorrupt)
}

func TestArchive_LoadMissing(t *testing.T) {
	a, _ := newArchive(t, true)

	_, err := a.Load(models.ArchiveRange{Kind: models.RangeRolling})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = a.Load(models.ArchiveRange{Kind: models.RangeMonthly, Key: "1999-01"})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = a.LoadRaw(models.ArchiveRange{Kind: models.RangeYearly, Key: "abc"})
	assert.ErrorIs(t, err, models.ErrInvalidRange)
}

func TestArchive_AppendWriteFailure(t *testing.T) {
	dir := t.TempDir()
	a := NewArchive(archiveConfig(dir, false), &testutil.MockLogger{}, testutil.NewMockMetrics())
	require.NoError(t, a.Restore())

	// a directory where the payload file should go makes the rename fail
	require.NoError(t, os.MkdirAll(filepath.Join(dir, rollingFile, "x"), 0755))
	assert.Error(t, a.Append(cycle(1000, 1, 1, 1)))
}

func TestArchive_LoadRawIsVerbatim(t *testing.T) {
	a, _ := newArchive(t, false)
	require.NoError(t, a.Append(cycle(1000, 1, 1, 0)))

	raw, err := a.LoadRaw(models.ArchiveRange{Kind: models.RangeRolling})
	require.NoError(t, err)
	onDisk, err := os.ReadFile(filepath.Join(a.dir, rollingFile))
	require.NoError(t, err)
	assert.Equal(t, onDisk, raw)
}

func TestArchive_BucketsAndIndexes(t *testing.T) {
	a, _ := newArchive(t, true)

	may := time.Date(2024, 5, 31, 23, 59, 0, 0, time.UTC).UnixMilli()
	june := time.Date(2024, 6, 1, 0, 1, 0, 0, time.UTC).UnixMilli()
	require.NoError(t, a.Append(cycle(may, 1, 2, 0)))
	require.NoError(t, a.Append(cycle(june, 3, 4, 0)))

	assert.Equal(t, []string{"2024-05", "2024-06"}, a.Keys(models.RangeMonthly))
	assert.Equal(t, []string{"2024"}, a.Keys(models.RangeYearly))

	p, err := a.Load(models.ArchiveRange{Kind: models.RangeMonthly, Key: "2024-06"})
	require.NoError(t, err)
	assert.Equal(t, "2024-06", p.Key)
	assert.Equal(t, []models.SeriesPoint{{Timestamp: june, Value: 7}}, p.Find(models.TotalSeries).Points)

	year, err := a.Load(models.ArchiveRange{Kind: models.RangeYearly, Key: "2024"})
	require.NoError(t, err)
	assert.Len(t, year.Find("Tower 1").Points, 2)

	var idx struct {
		Months []string `json:"months"`
	}
	data, err := os.ReadFile(filepath.Join(a.dir, "monthly_index.json"))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &idx))
	assert.Equal(t, []string{"2024-05", "2024-06"}, idx.Months)
}

func TestArchive_BucketIndexRestoredFromDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "yearly"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "yearly", "2022.json"), []byte(`{"series":[]}`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "yearly", "notes.json"), []byte(`{}`), 0644))

	a := NewArchive(archiveConfig(dir, true), &testutil.MockLogger{}, testutil.NewMockMetrics())
	require.NoError(t, a.Restore())

	assert.Equal(t, []string{"2022"}, a.Keys(models.RangeYearly))
	data, err := os.ReadFile(filepath.Join(dir, "yearly_index.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"years":["2022"]}`, string(data))
}

func TestArchive_KeysWithoutBuckets(t *testing.T) {
	a, _ := newArchive(t, false)
	assert.Empty(t, a.Keys(models.RangeMonthly))
}

func TestWriteFileAtomic_LeavesNoTmp(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "x.json")
	require.NoError(t, writeFileAtomic(path, []byte("{}")))

	_, err := os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))
}
