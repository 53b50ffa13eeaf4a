package views

import (
	"fmt"

	"github.com/wdpkr/zillowdata/internal/config"
)

// RentMultiple joins a year's average rent and price by region name and adds
// the rent/price ratio. Only regions present in both tables are kept. The
// scale applies to the price and rent axes; the multiple is always linear.
func RentMultiple(src Source, p Params) (*View, error) {
	if p.Year == 0 {
		p.Year = config.MaxRentYear
	}
	if p.Scale == "" {
		p.Scale = ScaleLinear
	}
	if p.Level == "" {
		p.Level = LevelState
	}

	priceID, rentID := levelTables(p.Level)
	priceBase, err := src.Table(priceID)
	if err != nil {
		return nil, err
	}
	rentBase, err := src.Table(rentID)
	if err != nil {
		return nil, err
	}

	priceRegions, err := filterState(regionsOnly(priceBase), p.Level, p.State)
	if err != nil {
		return nil, err
	}
	rentRegions, err := filterState(regionsOnly(rentBase), p.Level, p.State)
	if err != nil {
		return nil, err
	}

	prices, err := yearValues(priceRegions, p.Year)
	if err != nil {
		return nil, err
	}
	rents, err := yearValues(rentRegions, p.Year)
	if err != nil {
		return nil, err
	}

	priceFrame, err := regionFrame(priceRegions, "rent_multiple", []string{"State", "StateName", "City", "Metro"}, "price", prices)
	if err != nil {
		return nil, err
	}
	rentFrame, err := regionFrame(rentRegions, "rent", nil, "rent", rents)
	if err != nil {
		return nil, err
	}

	joined, err := priceFrame.Join(rentFrame)
	if err != nil {
		return nil, err
	}
	withRatio, err := joined.Ratio("multiple", "rent", "price")
	if err != nil {
		return nil, err
	}
	complete, err := withRatio.DropNaN("price", "rent")
	if err != nil {
		return nil, err
	}

	v := &View{
		Name:   "rent-multiple",
		Chart:  ChartScatter,
		Title:  fmt.Sprintf("Monthly rent vs home value by %s, %d", p.Level, p.Year),
		XLabel: axisLabel("ZHVI (USD)", p),
		YLabel: axisLabel("ZORI (USD/month)", p),
		Params: p,
	}
	if unmatched := priceFrame.NumRows() + rentFrame.NumRows() - 2*joined.NumRows(); unmatched > 0 {
		v.warnf("%d regions appear in only one of the price and rent tables", unmatched)
	}
	if dropped := joined.NumRows() - complete.NumRows(); dropped > 0 {
		v.warnf("%d regions have no price or rent for %d", dropped, p.Year)
	}

	multiples, _ := complete.Column("multiple")
	v.Summary = Summarize("multiple", multiples)

	if p.IsLog() {
		logged, nonPositive, err := complete.Log("price", "rent")
		if err != nil {
			return nil, err
		}
		if logged, err = logged.RenameColumn("price", "log_price"); err != nil {
			return nil, err
		}
		if logged, err = logged.RenameColumn("rent", "log_rent"); err != nil {
			return nil, err
		}
		complete = logged
		v.warnNonPositive(nonPositive)
	}
	v.XColumn = valueColumn("price", p)
	v.YColumn = valueColumn("rent", p)
	v.Table = complete
	return v, nil
}
