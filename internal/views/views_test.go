package views

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wdpkr/zillowdata/internal/dataset"
	"github.com/wdpkr/zillowdata/internal/dataset/datasettest"
	"github.com/wdpkr/zillowdata/internal/geo"
)

func snapshotJSON(t *testing.T, snap *dataset.Snapshot) map[dataset.ID]string {
	t.Helper()
	out := make(map[dataset.ID]string)
	for _, id := range dataset.TableIDs {
		table, err := snap.Table(id)
		require.NoError(t, err)
		data, err := json.Marshal(table)
		require.NoError(t, err)
		out[id] = string(data)
	}
	return out
}

func column(t *testing.T, v *View, name string) []float64 {
	t.Helper()
	vals, err := v.Table.Column(name)
	require.NoError(t, err)
	return vals
}

func TestChoropleth(t *testing.T) {
	snap := datasettest.Snapshot(t)

	v, err := Choropleth(snap, Params{Year: 2020})
	require.NoError(t, err)

	assert.Equal(t, ChartChoropleth, v.Chart)
	assert.Equal(t, 4, v.Table.NumRows(), "rows without a boundary are kept")

	fips, err := v.Table.Attr("FIPS")
	require.NoError(t, err)
	assert.Equal(t, []string{"06001", "48201", "36047", "99999"}, fips)

	values := column(t, v, "zhvi")
	assert.InDelta(t, 200, values[0], 1e-9)
	assert.InDelta(t, 50, values[1], 1e-9)

	require.Len(t, v.Warnings, 1)
	assert.Contains(t, v.Warnings[0], "1 counties have no boundary feature")
	assert.Contains(t, v.Warnings[0], "99999 Nowhere County")
}

func TestChoroplethLogScale(t *testing.T) {
	snap := datasettest.Snapshot(t)

	v, err := Choropleth(snap, Params{Year: 2021, Scale: ScaleLog})
	require.NoError(t, err)
	assert.Equal(t, "ln(ZHVI (USD))", v.YLabel)

	values := column(t, v, "log_zhvi")
	assert.InDelta(t, math.Log(400), values[0], 1e-9)
}

func TestChoroplethMissingYear(t *testing.T) {
	snap := datasettest.Snapshot(t)

	_, err := Choropleth(snap, Params{Year: 2005})
	assert.ErrorIs(t, err, ErrInvalidParams)
	require.Len(t, FieldErrors(err), 1)
	assert.Equal(t, "year", FieldErrors(err)[0].Field)
}

func TestTimeSeries(t *testing.T) {
	snap := datasettest.Snapshot(t)

	v, err := TimeSeries(snap, Params{States: []string{"TX", "CA", "CA"}})
	require.NoError(t, err)

	assert.Equal(t, ChartLine, v.Chart)
	assert.Equal(t, []string{"2020", "2021"}, v.Table.Index)
	assert.Equal(t, []string{"Texas", "California"}, v.Table.Columns)

	ca := column(t, v, "California")
	assert.InDelta(t, 200, ca[0], 1e-9)
	assert.InDelta(t, 500, ca[1], 1e-9)
	assert.Empty(t, v.Warnings)
}

func TestTimeSeriesWarnsForStatesWithoutData(t *testing.T) {
	snap := datasettest.Snapshot(t)

	v, err := TimeSeries(snap, Params{States: []string{"CA", "FL"}, Scale: ScaleLog})
	require.NoError(t, err)
	assert.Equal(t, []string{"California"}, v.Table.Columns)
	require.Len(t, v.Warnings, 1)
	assert.Contains(t, v.Warnings[0], "Florida")

	ca := column(t, v, "California")
	assert.InDelta(t, math.Log(200), ca[0], 1e-9)
}

func TestTimeSeriesUnknownState(t *testing.T) {
	snap := datasettest.Snapshot(t)

	_, err := TimeSeries(snap, Params{States: []string{"ZZ"}})
	assert.ErrorIs(t, err, ErrInvalidParams)
	assert.ErrorIs(t, err, geo.ErrUnknownState)
}

func TestHistogram(t *testing.T) {
	snap := datasettest.Snapshot(t)

	v, err := Histogram(snap, Params{Level: LevelZip, State: "CA", Year: 2021, Bins: 2})
	require.NoError(t, err)

	assert.Equal(t, []string{"94501", "94601"}, v.Table.Index)
	require.Len(t, v.Bins, 2)
	assert.Equal(t, 650.0, v.Bins[0].Lower)
	assert.Equal(t, 1000.0, v.Bins[1].Upper)
	assert.Equal(t, 1, v.Bins[0].Count)
	assert.Equal(t, 1, v.Bins[1].Count)

	require.NotNil(t, v.Summary)
	assert.Equal(t, 2, v.Summary.Count)
	assert.InDelta(t, 825, v.Summary.Mean, 1e-9)
}

func TestHistogramLevels(t *testing.T) {
	snap := datasettest.Snapshot(t)

	metro, err := Histogram(snap, Params{Level: LevelMetro, Year: 2020})
	require.NoError(t, err)
	assert.Equal(t, []string{"Los Angeles, CA", "Houston, TX"}, metro.Table.Index, "national row dropped")
	assert.Len(t, metro.Bins, 30)

	state, err := Histogram(snap, Params{Level: LevelState, Year: 2021})
	require.NoError(t, err)
	assert.Equal(t, 3, state.Table.NumRows())
	require.Len(t, state.Warnings, 1)
	assert.Contains(t, state.Warnings[0], "1 regions have no value for 2021")

	one, err := Histogram(snap, Params{Level: LevelState, State: "TX", Year: 2020})
	require.NoError(t, err)
	assert.Equal(t, []string{"Texas"}, one.Table.Index)
}

func TestRentMultiple(t *testing.T) {
	snap := datasettest.Snapshot(t)

	v, err := RentMultiple(snap, Params{Level: LevelMetro, Year: 2021})
	require.NoError(t, err)

	assert.Equal(t, ChartScatter, v.Chart)
	assert.Equal(t, []string{"Los Angeles, CA", "Houston, TX"}, v.Table.Index)
	assert.Equal(t, []string{"price", "rent", "multiple"}, v.Table.Columns)
	assert.Equal(t, "price", v.XColumn)
	assert.Equal(t, "rent", v.YColumn)

	multiple := column(t, v, "multiple")
	assert.InDelta(t, 3.2/800, multiple[0], 1e-12)
	assert.InDelta(t, 1.5/250, multiple[1], 1e-12)

	require.NotNil(t, v.Summary)
	assert.Equal(t, 2, v.Summary.Count)
	assert.InDelta(t, (3.2/800+1.5/250)/2, v.Summary.Mean, 1e-12)
	assert.InDelta(t, v.Summary.Mean, v.Summary.Median, 1e-12)

	require.Len(t, v.Warnings, 1)
	assert.Contains(t, v.Warnings[0], "1 regions appear in only one")
}

func TestRentMultipleEqualsRentOverPrice(t *testing.T) {
	snap := datasettest.Snapshot(t)

	v, err := RentMultiple(snap, Params{Level: LevelState, Year: 2021, Scale: ScaleLog})
	require.NoError(t, err)
	assert.Equal(t, []string{"California", "Texas", "New York"}, v.Table.Index)
	assert.Equal(t, "log_price", v.XColumn)

	price := column(t, v, "log_price")
	rent := column(t, v, "log_rent")
	multiple := column(t, v, "multiple")
	for i := range multiple {
		assert.InDelta(t, math.Exp(rent[i])/math.Exp(price[i]), multiple[i], 1e-12)
	}
}

func TestViewsDoNotMutateSnapshot(t *testing.T) {
	snap := datasettest.Snapshot(t)
	before := snapshotJSON(t, snap)

	runs := []func() error{
		func() error { _, err := Choropleth(snap, Params{Year: 2020, Scale: ScaleLog}); return err },
		func() error { _, err := TimeSeries(snap, Params{States: []string{"CA", "NY"}, Scale: ScaleLog}); return err },
		func() error { _, err := Histogram(snap, Params{Level: LevelZip, Year: 2020, Scale: ScaleLog}); return err },
		func() error { _, err := RentMultiple(snap, Params{Level: LevelZip, Year: 2020, Scale: ScaleLog}); return err },
	}
	for _, run := range runs {
		require.NoError(t, run())
	}

	assert.Equal(t, before, snapshotJSON(t, snap))
}

func TestWave(t *testing.T) {
	a := 2.0
	v, err := Wave(nil, Params{Amplitude: &a})
	require.NoError(t, err)

	require.Equal(t, WavePoints, v.Table.NumRows())
	x := column(t, v, "x")
	y := column(t, v, "y")
	assert.Equal(t, -1.0, x[0])
	assert.Equal(t, 1.0, x[WavePoints-1])
	for _, i := range []int{0, 250, 500, 999} {
		assert.InDelta(t, a*math.Cos(a*x[i]), y[i], 1e-12)
	}

	flat, err := Wave(nil, Params{})
	require.NoError(t, err)
	for _, v := range column(t, flat, "y") {
		assert.Zero(t, v)
	}

	big := 101.0
	_, err = Wave(nil, Params{Amplitude: &big})
	assert.ErrorIs(t, err, ErrInvalidParams)
}

func TestGreeting(t *testing.T) {
	assert.Equal(t, "Hello, World", Greeting(""))
	assert.Equal(t, "Hello, World", Greeting("   "))
	assert.Equal(t, "Hello, Ada", Greeting("Ada"))
}

func TestViewJSON(t *testing.T) {
	snap := datasettest.Snapshot(t)

	v, err := Histogram(snap, Params{Level: LevelState, Year: 2021, Scale: ScaleLog})
	require.NoError(t, err)

	data, err := json.Marshal(v)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "histogram", decoded["name"])
	assert.Contains(t, decoded, "bins")
	assert.Contains(t, decoded, "summary")

	empty, err := json.Marshal(Summarize("x", []float64{math.NaN()}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"column":"x","count":0,"mean":null,"median":null,"min":null,"max":null}`, string(empty))
}
