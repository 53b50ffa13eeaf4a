package views

import (
	"fmt"

	"github.com/wdpkr/zillowdata/internal/config"
	"github.com/wdpkr/zillowdata/internal/dataset"
	apperrors "github.com/wdpkr/zillowdata/internal/errors"
	"github.com/wdpkr/zillowdata/internal/geo"
)

// Choropleth maps county home values for one year onto county boundaries.
// Rows whose FIPS code cannot be built or has no boundary are kept and
// reported in the warnings.
func Choropleth(src Source, p Params) (*View, error) {
	if p.Year == 0 {
		p.Year = config.MaxPriceYear
	}
	if p.Scale == "" {
		p.Scale = ScaleLinear
	}

	counties, err := src.Table(dataset.CountyZHVI)
	if err != nil {
		return nil, err
	}
	boundaries := src.Boundaries()
	if boundaries == nil {
		return nil, apperrors.NewNotFoundError("dataset counties", nil).WithContext("dataset", string(dataset.Counties))
	}

	states, err := counties.Attr("StateCodeFIPS")
	if err != nil {
		return nil, err
	}
	munis, err := counties.Attr("MunicipalCodeFIPS")
	if err != nil {
		return nil, err
	}

	values, err := yearValues(counties, p.Year)
	if err != nil {
		return nil, err
	}

	fips := make([]string, counties.NumRows())
	var invalid, unmatched []string
	for i := range fips {
		code, err := geo.CountyFIPS(states[i], munis[i])
		if err != nil {
			invalid = append(invalid, counties.Index[i])
			continue
		}
		fips[i] = code
		if !boundaries.Has(code) {
			unmatched = append(unmatched, code+" "+counties.Index[i])
		}
	}

	frame, err := regionFrame(counties, counties.Name, []string{"State", "StateName", "Metro"}, "zhvi", values)
	if err != nil {
		return nil, err
	}
	frame.AttrNames = append([]string{"FIPS"}, frame.AttrNames...)
	frame.Attrs = append([][]string{fips}, frame.Attrs...)

	v := &View{
		Name:   "choropleth",
		Chart:  ChartChoropleth,
		Title:  fmt.Sprintf("Typical home value by county, %d", p.Year),
		XLabel: "County",
		YLabel: axisLabel("ZHVI (USD)", p),
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
	v.Table = frame

	if len(invalid) > 0 {
		v.warnf("%d counties have no valid FIPS code (%s)", len(invalid), sample(invalid, 5))
	}
	if len(unmatched) > 0 {
		v.warnf("%d counties have no boundary feature (%s)", len(unmatched), sample(unmatched, 5))
	}
	return v, nil
}
