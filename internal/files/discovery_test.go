package files

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wdpkr/zillowdata/internal/config"
)

func testPaths(t *testing.T) *config.Paths {
	t.Helper()
	dir := t.TempDir()
	return &config.Paths{
		ExecutableDir: dir,
		ExportsDir:    filepath.Join(dir, "exports"),
		SnapshotsDir:  filepath.Join(dir, "snapshots"),
	}
}

func writeFile(t *testing.T, dir, name string, modTime time.Time) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(name), 0o644))
	require.NoError(t, os.Chtimes(path, modTime, modTime))
}

func TestListExports(t *testing.T) {
	paths := testPaths(t)
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	writeFile(t, paths.ExportsDir, "choropleth-2020.csv", base)
	writeFile(t, paths.ExportsDir, "timeseries.XLSX", base.Add(time.Hour))
	writeFile(t, paths.ExportsDir, "notes.txt", base.Add(2*time.Hour))
	require.NoError(t, os.MkdirAll(filepath.Join(paths.ExportsDir, "old.csv"), 0o755))

	files, err := NewDiscovery(paths).ListExports()
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "timeseries.XLSX", files[0].Name, "newest first")
	assert.Equal(t, "choropleth-2020.csv", files[1].Name)
	assert.Equal(t, KindExport, files[1].Kind)
	assert.Equal(t, int64(len("choropleth-2020.csv")), files[1].Size)
}

func TestListSnapshots(t *testing.T) {
	paths := testPaths(t)
	d := NewDiscovery(paths)

	files, err := d.ListSnapshots()
	require.NoError(t, err, "a missing directory is empty")
	assert.Empty(t, files)

	now := time.Now()
	writeFile(t, paths.SnapshotsDir, "wave-20240101-120000.png", now)
	writeFile(t, paths.SnapshotsDir, "wave.csv", now)

	files, err = d.ListSnapshots()
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, KindSnapshot, files[0].Kind)
}

func TestFind(t *testing.T) {
	paths := testPaths(t)
	writeFile(t, paths.ExportsDir, "histogram-state-2020.csv", time.Now())
	d := NewDiscovery(paths)

	f, err := d.Find(KindExport, "histogram-state-2020.csv")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(paths.ExportsDir, "histogram-state-2020.csv"), f.Path)

	for _, name := range []string{"", "../secret.csv", "sub/file.csv", ".hidden.csv", "report.pdf"} {
		_, err := d.Find(KindExport, name)
		assert.ErrorIs(t, err, ErrInvalidName, name)
	}

	_, err = d.Find(KindExport, "missing.csv")
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = d.List(Kind("logs"))
	assert.Error(t, err)
}

func TestGetLatestFile(t *testing.T) {
	_, ok := GetLatestFile(nil)
	assert.False(t, ok)

	now := time.Now()
	files := []FileInfo{
		{Name: "a", ModTime: now.Add(-time.Hour)},
		{Name: "b", ModTime: now},
		{Name: "c", ModTime: now.Add(-2 * time.Hour)},
	}
	latest, ok := GetLatestFile(files)
	require.True(t, ok)
	assert.Equal(t, "b", latest.Name)
}

func TestFilterFilesByDateRange(t *testing.T) {
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	files := []FileInfo{
		{Name: "before", ModTime: base.Add(-time.Hour)},
		{Name: "inside", ModTime: base.Add(time.Hour)},
		{Name: "after", ModTime: base.Add(48 * time.Hour)},
	}
	got := FilterFilesByDateRange(files, base, base.Add(24*time.Hour))
	require.Len(t, got, 1)
	assert.Equal(t, "inside", got[0].Name)
}
