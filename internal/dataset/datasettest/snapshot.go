// Package datasettest builds dataset snapshots from the shared fixtures
// without going through a fetcher.
package datasettest

import (
	"strings"
	"testing"

	"github.com/wdpkr/zillowdata/internal/dataprocessing"
	"github.com/wdpkr/zillowdata/internal/dataset"
	"github.com/wdpkr/zillowdata/internal/geo"
	"github.com/wdpkr/zillowdata/internal/shared/testutil"
)

// Snapshot parses every fixture into a snapshot
func Snapshot(t testing.TB) *dataset.Snapshot {
	t.Helper()

	tables := make(map[dataset.ID]*dataprocessing.Table)
	for _, id := range dataset.TableIDs {
		tables[id] = Table(t, id)
	}

	boundaries, err := geo.ParseBoundaries([]byte(testutil.CountyGeoJSON()))
	if err != nil {
		t.Fatalf("parse fixture boundaries: %v", err)
	}
	return dataset.NewSnapshot(tables, boundaries)
}

// Table parses one fixture table
func Table(t testing.TB, id dataset.ID) *dataprocessing.Table {
	t.Helper()

	fixture, ok := testutil.Fixtures()[string(id)]
	if !ok {
		t.Fatalf("no fixture for dataset %s", id)
	}
	table, err := dataprocessing.ReadRegionCSV(strings.NewReader(fixture.Body), dataprocessing.ParseOptions{Name: string(id)})
	if err != nil {
		t.Fatalf("parse fixture %s: %v", id, err)
	}
	return table
}
