package geo

import (
	"errors"
	"fmt"
	"math"
	"sort"

	geojson "github.com/paulmach/go.geojson"
)

// ErrNoFeatures is returned when a boundary document holds no usable county features
var ErrNoFeatures = errors.New("boundary document has no county features")

// Boundaries is the county boundary document indexed by 5-character FIPS code.
// It is read-only once parsed.
type Boundaries struct {
	raw      []byte
	features map[string]*geojson.Feature
	codes    []string
}

// ParseBoundaries decodes a GeoJSON FeatureCollection. A feature is keyed by
// its id, or by its STATE and COUNTY properties when the id is absent.
// Features that yield no code are skipped.
func ParseBoundaries(data []byte) (*Boundaries, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode boundaries: %w", err)
	}

	b := &Boundaries{
		raw:      append([]byte(nil), data...),
		features: make(map[string]*geojson.Feature, len(fc.Features)),
	}
	for _, f := range fc.Features {
		if f == nil || f.Geometry == nil {
			continue
		}
		if !f.Geometry.IsPolygon() && !f.Geometry.IsMultiPolygon() {
			continue
		}
		code, ok := featureFIPS(f)
		if !ok {
			continue
		}
		if _, dup := b.features[code]; dup {
			continue
		}
		b.features[code] = f
		b.codes = append(b.codes, code)
	}
	if len(b.features) == 0 {
		return nil, ErrNoFeatures
	}
	sort.Strings(b.codes)
	return b, nil
}

func featureFIPS(f *geojson.Feature) (string, bool) {
	switch id := f.ID.(type) {
	case string:
		if len(id) == 5 {
			return id, true
		}
	case float64:
		if id >= 0 && id < 100000 && id == math.Trunc(id) {
			return fmt.Sprintf("%05d", int(id)), true
		}
	}

	state, _ := f.Properties["STATE"].(string)
	county, _ := f.Properties["COUNTY"].(string)
	if state == "" || county == "" {
		return "", false
	}
	code, err := CountyFIPS(state, county)
	if err != nil {
		return "", false
	}
	return code, true
}

// Len returns the number of indexed features
func (b *Boundaries) Len() int { return len(b.features) }

// Has reports whether a feature exists for the FIPS code
func (b *Boundaries) Has(fips string) bool {
	_, ok := b.features[fips]
	return ok
}

// Feature returns the feature for a FIPS code
func (b *Boundaries) Feature(fips string) (*geojson.Feature, bool) {
	f, ok := b.features[fips]
	return f, ok
}

// FIPS returns every indexed code in ascending order
func (b *Boundaries) FIPS() []string {
	return append([]string(nil), b.codes...)
}

// Polygons returns the rings of a feature as polygons, flattening
// MultiPolygon geometries.
func (b *Boundaries) Polygons(fips string) [][][][]float64 {
	f, ok := b.features[fips]
	if !ok {
		return nil
	}
	if f.Geometry.IsPolygon() {
		return [][][][]float64{f.Geometry.Polygon}
	}
	return f.Geometry.MultiPolygon
}

// Raw returns a copy of the original document
func (b *Boundaries) Raw() []byte {
	return append([]byte(nil), b.raw...)
}
