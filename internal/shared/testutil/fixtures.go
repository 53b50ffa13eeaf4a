package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

// FixtureMonths are the month columns carried by every fixture table.
var FixtureMonths = []string{"2020-01-31", "2020-02-29", "2020-03-31", "2021-01-31", "2021-02-28"}

// RegionRow is one fixture row: attribute values keyed by column name, the
// region label and one cell per FixtureMonths entry ("" for missing).
type RegionRow struct {
	Name   string
	Attrs  map[string]string
	Values []string
}

// BuildRegionCSV renders rows in the Zillow wide layout: RegionID, SizeRank,
// RegionName, the given attribute columns, then one column per month.
func BuildRegionCSV(attrCols []string, months []string, rows []RegionRow) string {
	var b strings.Builder
	header := append([]string{"RegionID", "SizeRank", "RegionName"}, attrCols...)
	header = append(header, months...)
	b.WriteString(strings.Join(header, ","))
	b.WriteString("\n")

	for i, row := range rows {
		cells := []string{fmt.Sprintf("%d", 1000+i), fmt.Sprintf("%d", i), quote(row.Name)}
		for _, col := range attrCols {
			cells = append(cells, quote(row.Attrs[col]))
		}
		cells = append(cells, row.Values...)
		b.WriteString(strings.Join(cells, ","))
		b.WriteString("\n")
	}
	return b.String()
}

func quote(s string) string {
	if strings.ContainsAny(s, ",\"") {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}

// StateZHVICSV: California averages 200 in 2020 and 500 in 2021.
func StateZHVICSV() string {
	attrs := func(name string) map[string]string {
		return map[string]string{"RegionType": "state", "StateName": name}
	}
	return BuildRegionCSV([]string{"RegionType", "StateName"}, FixtureMonths, []RegionRow{
		{Name: "California", Attrs: attrs("California"), Values: []string{"100", "200", "300", "400", "600"}},
		{Name: "Texas", Attrs: attrs("Texas"), Values: []string{"50", "60", "70", "80", ""}},
		{Name: "New York", Attrs: attrs("New York"), Values: []string{"300", "300", "300", "330", "330"}},
		{Name: "District of Columbia", Attrs: attrs("District of Columbia"), Values: []string{"500", "500", "500", "", ""}},
	})
}

// StateZORICSV pairs with StateZHVICSV for the rent multiple.
func StateZORICSV() string {
	attrs := func(name string) map[string]string {
		return map[string]string{"RegionType": "state", "StateName": name}
	}
	return BuildRegionCSV([]string{"RegionType", "StateName"}, FixtureMonths, []RegionRow{
		{Name: "California", Attrs: attrs("California"), Values: []string{"2", "2", "2", "3", "3"}},
		{Name: "Texas", Attrs: attrs("Texas"), Values: []string{"1", "1", "1", "1", "1"}},
		{Name: "New York", Attrs: attrs("New York"), Values: []string{"3", "3", "3", "3.3", "3.3"}},
	})
}

// CountyZHVICSV includes one county whose FIPS code has no boundary feature.
func CountyZHVICSV() string {
	cols := []string{"RegionType", "StateName", "State", "Metro", "StateCodeFIPS", "MunicipalCodeFIPS"}
	attrs := func(state, metro, sfips, cfips string) map[string]string {
		return map[string]string{
			"RegionType": "county", "StateName": state, "State": state,
			"Metro": metro, "StateCodeFIPS": sfips, "MunicipalCodeFIPS": cfips,
		}
	}
	return BuildRegionCSV(cols, FixtureMonths, []RegionRow{
		{Name: "Alameda County", Attrs: attrs("CA", "San Francisco-Oakland-Berkeley, CA", "6", "1"), Values: []string{"100", "200", "300", "400", "400"}},
		{Name: "Harris County", Attrs: attrs("TX", "Houston-The Woodlands-Sugar Land, TX", "48", "201"), Values: []string{"40", "50", "60", "70", "70"}},
		{Name: "Kings County", Attrs: attrs("NY", "New York-Newark-Jersey City, NY-NJ-PA", "36", "47"), Values: []string{"500", "500", "500", "600", "600"}},
		{Name: "Nowhere County", Attrs: attrs("ZZ", "", "99", "999"), Values: []string{"10", "10", "10", "10", "10"}},
	})
}

// MetroZHVICSV includes the national row Zillow ships at the top of metro files.
func MetroZHVICSV() string {
	cols := []string{"RegionType", "StateName"}
	return BuildRegionCSV(cols, FixtureMonths, []RegionRow{
		{Name: "United States", Attrs: map[string]string{"RegionType": "country"}, Values: []string{"250", "250", "250", "300", "300"}},
		{Name: "Los Angeles, CA", Attrs: map[string]string{"RegionType": "msa", "StateName": "CA"}, Values: []string{"700", "700", "700", "800", "800"}},
		{Name: "Houston, TX", Attrs: map[string]string{"RegionType": "msa", "StateName": "TX"}, Values: []string{"200", "200", "200", "250", "250"}},
	})
}

// MetroZORICSV shares Los Angeles and Houston with MetroZHVICSV; Dallas only
// appears here.
func MetroZORICSV() string {
	cols := []string{"RegionType", "StateName"}
	return BuildRegionCSV(cols, FixtureMonths, []RegionRow{
		{Name: "Los Angeles, CA", Attrs: map[string]string{"RegionType": "msa", "StateName": "CA"}, Values: []string{"2.8", "2.8", "2.8", "3.2", "3.2"}},
		{Name: "Houston, TX", Attrs: map[string]string{"RegionType": "msa", "StateName": "TX"}, Values: []string{"1.4", "1.4", "1.4", "1.5", "1.5"}},
		{Name: "Dallas, TX", Attrs: map[string]string{"RegionType": "msa", "StateName": "TX"}, Values: []string{"1.6", "1.6", "1.6", "1.7", "1.7"}},
	})
}

var zipCols = []string{"RegionType", "StateName", "State", "City", "Metro", "CountyName"}

func zipAttrs(state, city, county string) map[string]string {
	return map[string]string{
		"RegionType": "zip", "StateName": state, "State": state,
		"City": city, "Metro": "", "CountyName": county,
	}
}

// ZipZHVICSV has two California zips and one each in Texas and New York.
func ZipZHVICSV() string {
	return BuildRegionCSV(zipCols, FixtureMonths, []RegionRow{
		{Name: "94501", Attrs: zipAttrs("CA", "Alameda", "Alameda County"), Values: []string{"900", "900", "900", "1000", "1000"}},
		{Name: "94601", Attrs: zipAttrs("CA", "Oakland", "Alameda County"), Values: []string{"600", "600", "600", "650", "650"}},
		{Name: "77002", Attrs: zipAttrs("TX", "Houston", "Harris County"), Values: []string{"300", "300", "300", "320", "320"}},
		{Name: "10001", Attrs: zipAttrs("NY", "New York", "New York County"), Values: []string{"1200", "1200", "1200", "1300", "1300"}},
	})
}

// ZipZORICSV covers a subset of ZipZHVICSV.
func ZipZORICSV() string {
	return BuildRegionCSV(zipCols, FixtureMonths, []RegionRow{
		{Name: "94501", Attrs: zipAttrs("CA", "Alameda", "Alameda County"), Values: []string{"3", "3", "3", "4", "4"}},
		{Name: "77002", Attrs: zipAttrs("TX", "Houston", "Harris County"), Values: []string{"1.6", "1.6", "1.6", "1.6", "1.6"}},
	})
}

// CountyGeoJSON returns a FeatureCollection with features 06001 and 36047
// keyed by feature id, and 48201 keyed only by STATE/COUNTY properties.
func CountyGeoJSON() string {
	return `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "id": "06001",
     "properties": {"GEO_ID": "0500000US06001", "STATE": "06", "COUNTY": "001", "NAME": "Alameda"},
     "geometry": {"type": "Polygon", "coordinates": [[[-122.3, 37.5], [-121.5, 37.5], [-121.5, 37.9], [-122.3, 37.9], [-122.3, 37.5]]]}},
    {"type": "Feature",
     "properties": {"GEO_ID": "0500000US48201", "STATE": "48", "COUNTY": "201", "NAME": "Harris"},
     "geometry": {"type": "Polygon", "coordinates": [[[-95.9, 29.5], [-94.9, 29.5], [-94.9, 30.2], [-95.9, 30.2], [-95.9, 29.5]]]}},
    {"type": "Feature", "id": "36047",
     "properties": {"GEO_ID": "0500000US36047", "STATE": "36", "COUNTY": "047", "NAME": "Kings"},
     "geometry": {"type": "MultiPolygon", "coordinates": [
       [[[-74.05, 40.57], [-73.85, 40.57], [-73.85, 40.74], [-74.05, 40.74], [-74.05, 40.57]]],
       [[[-73.95, 40.55], [-73.90, 40.55], [-73.90, 40.56], [-73.95, 40.56], [-73.95, 40.55]]]
     ]}}
  ]
}`
}

// Fixtures maps dataset IDs to fixture file names and contents.
func Fixtures() map[string]struct{ File, Body string } {
	return map[string]struct{ File, Body string }{
		"state_zhvi":  {"State_zhvi.csv", StateZHVICSV()},
		"county_zhvi": {"County_zhvi.csv", CountyZHVICSV()},
		"metro_zhvi":  {"Metro_zhvi.csv", MetroZHVICSV()},
		"zip_zhvi":    {"Zip_zhvi.csv", ZipZHVICSV()},
		"state_zori":  {"State_zori.csv", StateZORICSV()},
		"metro_zori":  {"Metro_zori.csv", MetroZORICSV()},
		"zip_zori":    {"Zip_zori.csv", ZipZORICSV()},
		"counties":    {"counties.json", CountyGeoJSON()},
	}
}

// WriteFixtureFiles writes every fixture under dir and returns the file
// paths keyed by dataset ID.
func WriteFixtureFiles(t *testing.T, dir string) map[string]string {
	t.Helper()

	paths := make(map[string]string)
	for id, f := range Fixtures() {
		path := filepath.Join(dir, f.File)
		if err := os.WriteFile(path, []byte(f.Body), 0o644); err != nil {
			t.Fatalf("write fixture %s: %v", path, err)
		}
		paths[id] = path
	}
	return paths
}

// FixtureServer serves the fixtures over HTTP and counts requests per path.
type FixtureServer struct {
	*httptest.Server

	mu   sync.Mutex
	hits map[string]int
	fail map[string]int
}

// NewFixtureServer starts a server that is closed when the test ends.
func NewFixtureServer(t *testing.T) *FixtureServer {
	t.Helper()

	fs := &FixtureServer{hits: make(map[string]int), fail: make(map[string]int)}
	bodies := make(map[string]string)
	for _, f := range Fixtures() {
		bodies["/"+f.File] = f.Body
	}

	fs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fs.mu.Lock()
		fs.hits[r.URL.Path]++
		status := fs.fail[r.URL.Path]
		fs.mu.Unlock()

		if status != 0 {
			http.Error(w, http.StatusText(status), status)
			return
		}
		body, ok := bodies[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(fs.Server.Close)
	return fs
}

// URLs returns fixture URLs keyed by dataset ID.
func (fs *FixtureServer) URLs() map[string]string {
	urls := make(map[string]string)
	for id, f := range Fixtures() {
		urls[id] = fs.URL + "/" + f.File
	}
	return urls
}

// FailWith makes requests for the named fixture file return status.
// A zero status clears the failure.
func (fs *FixtureServer) FailWith(file string, status int) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.fail["/"+file] = status
}

// Hits returns how many times the fixture file was requested.
func (fs *FixtureServer) Hits(file string) int {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.hits["/"+file]
}

// TotalHits returns the number of requests across all paths.
func (fs *FixtureServer) TotalHits() int {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	total := 0
	for _, n := range fs.hits {
		total += n
	}
	return total
}
