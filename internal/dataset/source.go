// Package dataset loads the Zillow housing tables and the county boundary
// document once per process and hands them out as an immutable Snapshot.
package dataset

import (
	"fmt"
	"sort"

	"github.com/wdpkr/zillowdata/internal/config"
)

// ID names one of the eight loaded documents
type ID string

const (
	StateZHVI  ID = "state_zhvi"
	CountyZHVI ID = "county_zhvi"
	MetroZHVI  ID = "metro_zhvi"
	ZipZHVI    ID = "zip_zhvi"
	StateZORI  ID = "state_zori"
	MetroZORI  ID = "metro_zori"
	ZipZORI    ID = "zip_zori"
	Counties   ID = "counties"
)

// Kind says how a document is decoded
type Kind string

const (
	KindRegionCSV Kind = "region_csv"
	KindGeoJSON   Kind = "geojson"
)

// TableIDs lists the seven tabular datasets in display order
var TableIDs = []ID{StateZHVI, CountyZHVI, MetroZHVI, ZipZHVI, StateZORI, MetroZORI, ZipZORI}

// AllIDs lists every document the loader fetches
var AllIDs = append(append([]ID(nil), TableIDs...), Counties)

var descriptions = map[ID]string{
	StateZHVI:  "State home values (ZHVI), monthly",
	CountyZHVI: "County home values (ZHVI), monthly",
	MetroZHVI:  "Metro home values (ZHVI), monthly",
	ZipZHVI:    "Zip code home values (ZHVI), monthly",
	StateZORI:  "State observed rents (ZORI), monthly",
	MetroZORI:  "Metro observed rents (ZORI), monthly",
	ZipZORI:    "Zip code observed rents (ZORI), monthly",
	Counties:   "US county boundaries (GeoJSON)",
}

// Source is one document to fetch
type Source struct {
	ID          ID     `json:"id"`
	URL         string `json:"url"`
	Kind        Kind   `json:"kind"`
	Description string `json:"description"`
}

// KindOf returns the decoder kind for an ID
func KindOf(id ID) Kind {
	if id == Counties {
		return KindGeoJSON
	}
	return KindRegionCSV
}

// Known reports whether id is one of the loaded documents
func Known(id ID) bool {
	_, ok := descriptions[id]
	return ok
}

// SourcesFromConfig builds the source list from configured locations
func SourcesFromConfig(cfg config.SourcesConfig) ([]Source, error) {
	urls := cfg.SourceURLs()
	sources := make([]Source, 0, len(AllIDs))
	for _, id := range AllIDs {
		loc := urls[string(id)]
		if loc == "" {
			return nil, fmt.Errorf("no location configured for dataset %s", id)
		}
		sources = append(sources, Source{ID: id, URL: loc, Kind: KindOf(id), Description: descriptions[id]})
	}
	return sources, nil
}

// SourcesFromURLs builds sources from a map keyed by dataset ID
func SourcesFromURLs(urls map[string]string) ([]Source, error) {
	ids := make([]string, 0, len(urls))
	for id := range urls {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	sources := make([]Source, 0, len(urls))
	for _, raw := range ids {
		id := ID(raw)
		if !Known(id) {
			return nil, fmt.Errorf("unknown dataset %q", raw)
		}
		sources = append(sources, Source{ID: id, URL: urls[raw], Kind: KindOf(id), Description: descriptions[id]})
	}
	return sources, nil
}
