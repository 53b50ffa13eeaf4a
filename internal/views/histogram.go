package views

import (
	"fmt"
	"math"

	"github.com/wdpkr/zillowdata/internal/config"
	"github.com/wdpkr/zillowdata/internal/dataprocessing"
)

// Histogram bins the year's home values across regions at one level,
// optionally restricted to a state.
func Histogram(src Source, p Params) (*View, error) {
	if p.Year == 0 {
		p.Year = config.MaxPriceYear
	}
	if p.Scale == "" {
		p.Scale = ScaleLinear
	}
	if p.Level == "" {
		p.Level = LevelState
	}
	if p.Bins == 0 {
		p.Bins = config.DefaultHistogramBins
	}

	priceID, _ := levelTables(p.Level)
	base, err := src.Table(priceID)
	if err != nil {
		return nil, err
	}
	regions, err := filterState(regionsOnly(base), p.Level, p.State)
	if err != nil {
		return nil, err
	}

	values, err := yearValues(regions, p.Year)
	if err != nil {
		return nil, err
	}
	frame, err := regionFrame(regions, regions.Name, []string{"State", "StateName", "City", "Metro", "CountyName"}, "zhvi", values)
	if err != nil {
		return nil, err
	}

	title := fmt.Sprintf("Distribution of %s home values, %d", p.Level, p.Year)
	if p.State != "" {
		title = fmt.Sprintf("Distribution of %s home values in %s, %d", p.Level, p.State, p.Year)
	}
	v := &View{
		Name:   "histogram",
		Chart:  ChartHistogram,
		Title:  title,
		XLabel: axisLabel("ZHVI (USD)", p),
		YLabel: "Regions",
		Params: p,
	}

	if p.IsLog() {
		logged, nonPositive, err := frame.Log("zhvi")
		if err != nil {
			return nil, err
		}
		if frame, err = logged.RenameColumn("zhvi", valueColumn("zhvi", p)); err != nil {
			return nil, err
		}
		v.warnNonPositive(nonPositive)
	}

	col := valueColumn("zhvi", p)
	j := frame.ColumnIndex(col)
	kept := frame.FilterRows(func(i int) bool {
		x := frame.Values[i][j]
		return !math.IsNaN(x) && !math.IsInf(x, 0)
	})
	if dropped := frame.NumRows() - kept.NumRows(); dropped > 0 {
		v.warnf("%d regions have no value for %d", dropped, p.Year)
	}

	vals, _ := kept.Column(col)
	v.Table = kept
	v.Bins = dataprocessing.Histogram(vals, p.Bins)
	v.Summary = Summarize(col, vals)
	return v, nil
}
