package views

import (
	"github.com/wdpkr/zillowdata/internal/config"
	"github.com/wdpkr/zillowdata/internal/dataset"
	"github.com/wdpkr/zillowdata/internal/geo"
)

// TimeSeries charts yearly average home values for the selected states.
// Each state becomes a column; rows are years.
func TimeSeries(src Source, p Params) (*View, error) {
	if len(p.States) == 0 {
		p.States = append([]string(nil), config.DefaultStates...)
	}
	if p.Scale == "" {
		p.Scale = ScaleLinear
	}

	names := make([]string, 0, len(p.States))
	seen := make(map[string]bool)
	for _, abbr := range p.States {
		name, err := geo.StateName(abbr)
		if err != nil {
			return nil, unknownState("states", err)
		}
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}

	states, err := src.Table(dataset.StateZHVI)
	if err != nil {
		return nil, err
	}
	selected := states.FilterRows(func(i int) bool { return seen[states.Index[i]] })

	v := &View{
		Name:   "timeseries",
		Chart:  ChartLine,
		Title:  "Typical home value by state",
		XLabel: "Year",
		YLabel: axisLabel("ZHVI (USD)", p),
		Params: p,
	}

	present := make([]string, 0, len(names))
	var missing []string
	for _, name := range names {
		if selected.RowIndex(name) >= 0 {
			present = append(present, name)
		} else {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		v.warnf("no data for %d selected states (%s)", len(missing), sample(missing, 5))
	}

	yearly, err := selected.Transpose().GroupRowsByYear()
	if err != nil {
		return nil, err
	}
	if yearly, err = yearly.SelectColumns(present); err != nil {
		return nil, err
	}

	if p.IsLog() {
		logged, nonPositive, err := yearly.Log()
		if err != nil {
			return nil, err
		}
		yearly = logged
		v.warnNonPositive(nonPositive)
	}
	v.Table = yearly
	return v, nil
}
