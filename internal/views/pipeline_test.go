package views

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wdpkr/zillowdata/internal/dataprocessing"
	"github.com/wdpkr/zillowdata/internal/dataset"
	"github.com/wdpkr/zillowdata/internal/dataset/datasettest"
	apperrors "github.com/wdpkr/zillowdata/internal/errors"
)

// renamedAttrSource serves the fixture snapshot with one county attribute renamed
type renamedAttrSource struct {
	*dataset.Snapshot
	from, to string
}

func (s renamedAttrSource) Table(id dataset.ID) (*dataprocessing.Table, error) {
	table, err := s.Snapshot.Table(id)
	if err != nil || id != dataset.CountyZHVI {
		return table, err
	}
	table = table.Clone()
	for i, name := range table.AttrNames {
		if name == s.from {
			table.AttrNames[i] = s.to
		}
	}
	return table, nil
}

func TestPipelineRegistry(t *testing.T) {
	p := NewPipeline(Defaults{})

	assert.Equal(t, []string{"choropleth", "timeseries", "histogram", "rent-multiple", "wave"}, p.Names())

	defs := p.Describe()
	require.Len(t, defs, 5)
	assert.True(t, defs[0].NeedsData())
	assert.False(t, defs[4].NeedsData())

	rent, err := p.Lookup("rent-multiple")
	require.NoError(t, err)
	year, ok := rent.control("year")
	require.True(t, ok)
	assert.Equal(t, 2014, *year.Min)
	assert.Equal(t, 2022, *year.Max)

	_, err = p.Lookup("pie")
	assert.ErrorIs(t, err, ErrUnknownView)
}

func TestPipelineRun(t *testing.T) {
	snap := datasettest.Snapshot(t)
	p := NewPipeline(Defaults{States: []string{"NY"}, Bins: 4})

	v, err := p.Run("timeseries", snap, Params{})
	require.NoError(t, err)
	assert.Equal(t, []string{"NY"}, v.Params.States)
	assert.Equal(t, []string{"New York"}, v.Table.Columns)

	h, err := p.Run("histogram", snap, Params{Level: LevelZip, Year: 2020})
	require.NoError(t, err)
	assert.Len(t, h.Bins, 4)

	w, err := p.Run("wave", nil, Params{})
	require.NoError(t, err)
	assert.Equal(t, "wave", w.Name)

	_, err = p.Run("nope", snap, Params{})
	assert.ErrorIs(t, err, ErrUnknownView)

	_, err = p.Run("choropleth", nil, Params{Year: 2020})
	assert.Error(t, err)
}

func TestPipelineDefaultYearIsRangeMax(t *testing.T) {
	p := NewPipeline(Defaults{})
	snap := datasettest.Snapshot(t)

	_, err := p.Run("choropleth", snap, Params{})
	require.Error(t, err, "fixtures stop at 2021")
	fields := FieldErrors(err)
	require.Len(t, fields, 1)
	assert.Equal(t, "year", fields[0].Field)
	assert.Contains(t, fields[0].Message, "2022")
}

func TestPipelineValidation(t *testing.T) {
	snap := datasettest.Snapshot(t)
	p := NewPipeline(Defaults{})
	amp := 150.0

	tests := []struct {
		name   string
		view   string
		params Params
		field  string
	}{
		{"price year too early", "choropleth", Params{Year: 1999}, "year"},
		{"rent year too early", "rent-multiple", Params{Year: 2013}, "year"},
		{"bad scale", "histogram", Params{Scale: "cubic"}, "scale"},
		{"bad level", "histogram", Params{Level: "county"}, "level"},
		{"too many bins", "histogram", Params{Bins: 500}, "bins"},
		{"lower-case state", "timeseries", Params{States: []string{"ca"}}, "states[0]"},
		{"unknown state", "timeseries", Params{States: []string{"ZZ"}}, "states"},
		{"unknown filter state", "histogram", Params{State: "QQ"}, "state"},
		{"amplitude too large", "wave", Params{Amplitude: &amp}, "amplitude"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Run(tt.view, snap, tt.params)
			require.ErrorIs(t, err, ErrInvalidParams)

			fields := FieldErrors(err)
			require.NotEmpty(t, fields)
			assert.Equal(t, tt.field, fields[0].Field)
		})
	}
}

func TestPipelineRunMalformedTableIsParsingError(t *testing.T) {
	src := renamedAttrSource{Snapshot: datasettest.Snapshot(t), from: "StateCodeFIPS", to: "StateFIPS"}
	p := NewPipeline(Defaults{States: []string{"NY"}, Bins: 4})

	_, err := p.Run("choropleth", src, Params{Year: 2020})
	require.Error(t, err)
	assert.ErrorIs(t, err, dataprocessing.ErrColumnNotFound)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeParsing))

	problem := apperrors.NewErrorHandler(slog.Default(), false).ErrorToProblem(err, "/api/views/choropleth")
	assert.Equal(t, 503, problem.Status)
	assert.Equal(t, apperrors.TypeDatasetMalformed, problem.Type)

	// Untouched tables still render
	_, err = p.Run("choropleth", datasettest.Snapshot(t), Params{Year: 2020})
	assert.NoError(t, err)
}
