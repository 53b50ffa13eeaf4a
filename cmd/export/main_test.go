package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wdpkr/zillowdata/internal/config"
	"github.com/wdpkr/zillowdata/internal/exporter"
	"github.com/wdpkr/zillowdata/internal/shared/testutil"
	"github.com/wdpkr/zillowdata/internal/views"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	urls := testutil.NewFixtureServer(t).URLs()

	cfg := config.Default()
	cfg.Sources.StateZHVI = urls["state_zhvi"]
	cfg.Sources.CountyZHVI = urls["county_zhvi"]
	cfg.Sources.MetroZHVI = urls["metro_zhvi"]
	cfg.Sources.ZipZHVI = urls["zip_zhvi"]
	cfg.Sources.StateZORI = urls["state_zori"]
	cfg.Sources.MetroZORI = urls["metro_zori"]
	cfg.Sources.ZipZORI = urls["zip_zori"]
	cfg.Sources.CountyBoundaries = urls["counties"]
	cfg.Sources.FetchTimeout = 5 * time.Second
	cfg.Sources.LoadTimeout = 10 * time.Second

	dir := t.TempDir()
	cfg.Paths.ExecutableDir = dir
	cfg.Paths.LogsDir = filepath.Join(dir, "logs")
	cfg.Paths.ExportsDir = filepath.Join(dir, "exports")
	cfg.Paths.SnapshotsDir = filepath.Join(dir, "snapshots")
	return cfg
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestOptionsParams(t *testing.T) {
	o := options{year: 2020, scale: "LOG", states: " ca, tx ,,ny", state: "wa ", level: "Zip", bins: 12, amplitude: "2.5"}
	p, err := o.params()
	require.NoError(t, err)

	assert.Equal(t, 2020, p.Year)
	assert.Equal(t, views.ScaleLog, p.Scale)
	assert.Equal(t, []string{"CA", "TX", "NY"}, p.States)
	assert.Equal(t, "WA", p.State)
	assert.Equal(t, views.LevelZip, p.Level)
	assert.Equal(t, 12, p.Bins)
	require.NotNil(t, p.Amplitude)
	assert.Equal(t, 2.5, *p.Amplitude)

	p, err = options{}.params()
	require.NoError(t, err)
	assert.Nil(t, p.Amplitude)
	assert.Empty(t, p.States)

	_, err = options{amplitude: "loud"}.params()
	assert.Error(t, err)
}

func TestOutputName(t *testing.T) {
	v := &views.View{Name: "choropleth", Params: views.Params{Year: 2020}}
	assert.Equal(t, "choropleth-2020.csv", outputName(exporter.FormatCSV, v, ""))
	assert.Equal(t, "choropleth-2020.xlsx", outputName(exporter.FormatXLSX, v, ""))
	assert.Equal(t, "custom.csv", outputName(exporter.FormatCSV, v, "custom.csv"))
}

func TestExportHistogram(t *testing.T) {
	cfg := testConfig(t)

	path, err := export(context.Background(), cfg, discardLogger(), options{
		view: "histogram", level: "state", year: 2020, bins: 4, format: "csv",
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cfg.Paths.ExportsDir, "histogram-state-2020.csv"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}))
	records, err := csv.NewReader(bytes.NewReader(data[3:])).ReadAll()
	require.NoError(t, err)
	assert.Greater(t, len(records), 1)
}

func TestExportWaveToExplicitPath(t *testing.T) {
	cfg := testConfig(t)
	out := filepath.Join(t.TempDir(), "wave.xlsx")

	path, err := export(context.Background(), cfg, discardLogger(), options{
		view: "wave", amplitude: "3", format: "xlsx", out: out,
	})
	require.NoError(t, err)
	assert.Equal(t, out, path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("PK")))
}

func TestExportRejectsBadInput(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()

	_, err := export(ctx, cfg, discardLogger(), options{format: "csv"})
	assert.Error(t, err, "view is required")

	_, err = export(ctx, cfg, discardLogger(), options{view: "wave", format: "pdf"})
	assert.ErrorIs(t, err, exporter.ErrUnknownFormat)

	_, err = export(ctx, cfg, discardLogger(), options{view: "pie", format: "csv"})
	assert.Error(t, err)

	_, err = export(ctx, cfg, discardLogger(), options{view: "choropleth", year: 1850, format: "csv"})
	assert.Error(t, err)
}
