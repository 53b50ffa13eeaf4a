package views

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/wdpkr/zillowdata/internal/dataprocessing"
	"github.com/wdpkr/zillowdata/internal/dataset"
	apperrors "github.com/wdpkr/zillowdata/internal/errors"
	"github.com/wdpkr/zillowdata/internal/geo"
)

// ChartKind tells the renderer how to draw a view
type ChartKind string

const (
	ChartChoropleth ChartKind = "choropleth"
	ChartLine       ChartKind = "line"
	ChartHistogram  ChartKind = "histogram"
	ChartScatter    ChartKind = "scatter"
)

// Source is the read-only data a view is computed from. *dataset.Snapshot
// satisfies it.
type Source interface {
	Table(id dataset.ID) (*dataprocessing.Table, error)
	Boundaries() *geo.Boundaries
}

// View is a derived table ready for one chart. It is built fresh per request.
type View struct {
	Name     string                `json:"name"`
	Chart    ChartKind             `json:"chart"`
	Title    string                `json:"title"`
	XLabel   string                `json:"x_label"`
	YLabel   string                `json:"y_label"`
	XColumn  string                `json:"x_column,omitempty"`
	YColumn  string                `json:"y_column,omitempty"`
	Params   Params                `json:"params"`
	Table    *dataprocessing.Table `json:"table"`
	Bins     []dataprocessing.Bin  `json:"bins,omitempty"`
	Summary  *Summary              `json:"summary,omitempty"`
	Warnings []string              `json:"warnings,omitempty"`
}

// Summary describes the distribution of one column
type Summary struct {
	Column string
	Count  int
	Mean   float64
	Median float64
	Min    float64
	Max    float64
}

// Summarize computes a summary over the finite values
func Summarize(column string, values []float64) *Summary {
	finite := dataprocessing.Finite(values)
	s := &Summary{Column: column, Count: len(finite)}
	if s.Count == 0 {
		return s
	}
	s.Mean = dataprocessing.Mean(finite)
	s.Median = dataprocessing.Median(finite)
	s.Min, s.Max, _ = dataprocessing.MinMax(finite)
	return s
}

// MarshalJSON writes statistics as null when there is nothing to summarize
func (s *Summary) MarshalJSON() ([]byte, error) {
	type stats struct {
		Column string   `json:"column"`
		Count  int      `json:"count"`
		Mean   *float64 `json:"mean"`
		Median *float64 `json:"median"`
		Min    *float64 `json:"min"`
		Max    *float64 `json:"max"`
	}
	out := stats{Column: s.Column, Count: s.Count}
	if s.Count > 0 {
		out.Mean, out.Median, out.Min, out.Max = finitePtr(s.Mean), finitePtr(s.Median), finitePtr(s.Min), finitePtr(s.Max)
	}
	return json.Marshal(out)
}

func finitePtr(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// ValueColumns returns the table columns a chart should plot
func (v *View) ValueColumns() []string {
	if v.Table == nil {
		return nil
	}
	return v.Table.Columns
}

func (v *View) warnf(format string, args ...interface{}) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}

// warnNonPositive records the log transform's undefined results
func (v *View) warnNonPositive(count int) {
	if count > 0 {
		v.warnf("log scale: %d non-positive values have no logarithm and are shown as missing", count)
	}
}

func valueColumn(base string, p Params) string {
	if p.IsLog() {
		return "log_" + base
	}
	return base
}

func axisLabel(base string, p Params) string {
	if p.IsLog() {
		return "ln(" + base + ")"
	}
	return base
}

// regionFrame builds a one-column table keyed by the base table's rows,
// carrying the listed attributes when present.
func regionFrame(base *dataprocessing.Table, name string, attrs []string, column string, values []float64) (*dataprocessing.Table, error) {
	frame := dataprocessing.NewTable(name, base.IndexName, base.Index, nil)
	for _, a := range attrs {
		if !base.HasAttr(a) {
			continue
		}
		vals, err := base.Attr(a)
		if err != nil {
			return nil, err
		}
		frame.AttrNames = append(frame.AttrNames, a)
		frame.Attrs = append(frame.Attrs, vals)
	}
	return frame.WithColumn(column, values)
}

// yearValues returns the per-row mean of a year, mapping a missing year to a
// parameter error.
func yearValues(t *dataprocessing.Table, year int) ([]float64, error) {
	vals, err := t.YearMean(year)
	if errors.Is(err, dataprocessing.ErrYearNotFound) {
		return nil, apperrors.NewAppValidationError(fmt.Sprintf("year %d is not available in %s", year, t.Name), ErrInvalidParams).
			WithContext("fields", []FieldError{{Field: "year", Message: fmt.Sprintf("no data for %d", year)}})
	}
	return vals, err
}

func levelTables(level Level) (price, rent dataset.ID) {
	switch level {
	case LevelMetro:
		return dataset.MetroZHVI, dataset.MetroZORI
	case LevelZip:
		return dataset.ZipZHVI, dataset.ZipZORI
	default:
		return dataset.StateZHVI, dataset.StateZORI
	}
}

// regionsOnly drops Zillow's national aggregate row
func regionsOnly(t *dataprocessing.Table) *dataprocessing.Table {
	if !t.HasAttr("RegionType") {
		return t
	}
	filtered, _ := t.FilterAttr("RegionType", func(v string) bool { return v != "country" })
	return filtered
}

// filterState keeps rows in one state. State tables match on the region
// name; metro files carry the code in StateName, county and zip files in State.
func filterState(t *dataprocessing.Table, level Level, abbr string) (*dataprocessing.Table, error) {
	if abbr == "" {
		return t, nil
	}
	name, err := geo.StateName(abbr)
	if err != nil {
		return nil, unknownState("state", err)
	}

	switch {
	case level == LevelState:
		return t.FilterRows(func(i int) bool { return t.Index[i] == name }), nil
	case t.HasAttr("State"):
		return t.FilterAttr("State", func(v string) bool { return strings.EqualFold(v, abbr) })
	case t.HasAttr("StateName"):
		return t.FilterAttr("StateName", func(v string) bool { return strings.EqualFold(v, abbr) || v == name })
	default:
		return nil, fmt.Errorf("%s has no state column", t.Name)
	}
}

func unknownState(field string, err error) error {
	return apperrors.NewAppValidationError(err.Error(), errors.Join(ErrInvalidParams, err)).
		WithContext("fields", []FieldError{{Field: field, Message: err.Error()}})
}

func sample(items []string, n int) string {
	if len(items) <= n {
		return strings.Join(items, ", ")
	}
	return strings.Join(items[:n], ", ") + ", ..."
}
