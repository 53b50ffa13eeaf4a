package geo

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wdpkr/zillowdata/internal/shared/testutil"
)

func TestCountyFIPS(t *testing.T) {
	tests := []struct {
		state, county string
		want          string
		wantErr       bool
	}{
		{"6", "1", "06001", false},
		{"06", "001", "06001", false},
		{"48", "201", "48201", false},
		{"36", "47", "36047", false},
		{" 2 ", "13", "02013", false},
		{"6.0", "1.0", "06001", false},
		{"0", "0", "00000", false},
		{"100", "1", "", true},
		{"6", "1000", "", true},
		{"-1", "1", "", true},
		{"CA", "1", "", true},
		{"6", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.state+"/"+tt.county, func(t *testing.T) {
			got, err := CountyFIPS(tt.state, tt.county)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidFIPS)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Len(t, got, 5)
		})
	}
}

func TestCountyFIPSAlwaysFiveCharacters(t *testing.T) {
	for s := 0; s <= 99; s += 7 {
		for c := 0; c <= 999; c += 37 {
			got, err := CountyFIPS(strconv.Itoa(s), strconv.Itoa(c))
			require.NoError(t, err)
			assert.Len(t, got, 5)
		}
	}
}

func TestStateMappingIsBijection(t *testing.T) {
	states := States()
	require.Len(t, states, 51)

	seen := make(map[string]bool)
	for _, s := range states {
		assert.False(t, seen[s.Abbreviation], "duplicate abbreviation %s", s.Abbreviation)
		seen[s.Abbreviation] = true

		name, err := StateName(s.Abbreviation)
		require.NoError(t, err)
		abbr, err := Abbreviation(name)
		require.NoError(t, err)
		assert.Equal(t, s.Abbreviation, abbr)
		assert.True(t, IsAbbreviation(abbr))
	}

	abbr, err := Abbreviation("California")
	require.NoError(t, err)
	assert.Equal(t, "CA", abbr)

	name, err := StateName("CA")
	require.NoError(t, err)
	assert.Equal(t, "California", name)
}

func TestStateMappingUnknown(t *testing.T) {
	_, err := Abbreviation("Puerto Rico")
	assert.ErrorIs(t, err, ErrUnknownState)

	_, err = StateName("ZZ")
	assert.ErrorIs(t, err, ErrUnknownState)

	assert.False(t, IsAbbreviation("ca"))
}

func TestParseBoundaries(t *testing.T) {
	b, err := ParseBoundaries([]byte(testutil.CountyGeoJSON()))
	require.NoError(t, err)

	assert.Equal(t, 3, b.Len())
	assert.Equal(t, []string{"06001", "36047", "48201"}, b.FIPS())
	assert.True(t, b.Has("48201"), "keyed from STATE/COUNTY properties")
	assert.False(t, b.Has("99999"))

	f, ok := b.Feature("06001")
	require.True(t, ok)
	assert.Equal(t, "Alameda", f.Properties["NAME"])

	assert.Len(t, b.Polygons("06001"), 1)
	assert.Len(t, b.Polygons("36047"), 2)
	assert.Nil(t, b.Polygons("00000"))

	raw := b.Raw()
	raw[0] = 'x'
	assert.Equal(t, byte('{'), b.Raw()[0], "Raw returns a copy")
}

func TestParseBoundariesNumericIDs(t *testing.T) {
	doc := `{"type":"FeatureCollection","features":[
	  {"type":"Feature","id":6001,"properties":{},
	   "geometry":{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,0]]]}}]}`

	b, err := ParseBoundaries([]byte(doc))
	require.NoError(t, err)
	assert.True(t, b.Has("06001"))
}

func TestParseBoundariesErrors(t *testing.T) {
	_, err := ParseBoundaries([]byte("not json"))
	assert.Error(t, err)

	_, err = ParseBoundaries([]byte(`{"type":"FeatureCollection","features":[]}`))
	assert.ErrorIs(t, err, ErrNoFeatures)

	points := `{"type":"FeatureCollection","features":[
	  {"type":"Feature","id":"06001","properties":{},"geometry":{"type":"Point","coordinates":[0,0]}}]}`
	_, err = ParseBoundaries([]byte(points))
	assert.ErrorIs(t, err, ErrNoFeatures)
}
