package charts

import (
	"fmt"
	"io"
	"math"
	"strconv"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
	"golang.org/x/text/message"

	"github.com/wdpkr/zillowdata/internal/views"
)

var palette = []drawing.Color{
	chart.ColorBlue,
	chart.ColorGreen,
	chart.ColorRed,
	chart.ColorOrange,
	chart.ColorCyan,
	chart.ColorAlternateGray,
	chart.ColorYellow,
	chart.ColorBlack,
}

func seriesColor(i int) drawing.Color { return palette[i%len(palette)] }

func background(padBottom int) chart.Style {
	return chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 12, Bottom: padBottom}}
}

// axisTicks spreads n labelled ticks over [lo, hi]
func axisTicks(lo, hi float64, n int, p *message.Printer) []chart.Tick {
	if n < 2 {
		n = 2
	}
	ticks := make([]chart.Tick, n)
	step := (hi - lo) / float64(n-1)
	for i := range ticks {
		v := lo + float64(i)*step
		ticks[i] = chart.Tick{Value: v, Label: formatNumber(p, v)}
	}
	return ticks
}

// xValues reads the x axis from XColumn, or parses the row index as numbers
// (years for grouped tables).
func xValues(v *views.View) ([]float64, error) {
	if v.XColumn != "" {
		return v.Table.Column(v.XColumn)
	}
	xs := make([]float64, len(v.Table.Index))
	for i, label := range v.Table.Index {
		x, err := strconv.ParseFloat(label, 64)
		if err != nil {
			return nil, fmt.Errorf("row %q is not numeric: %w", label, err)
		}
		xs[i] = x
	}
	return xs, nil
}

// finitePairs drops points where either coordinate is missing. A single
// point is doubled so the series has a drawable range.
func finitePairs(xs, ys []float64) ([]float64, []float64) {
	var outX, outY []float64
	for i := range xs {
		if i >= len(ys) || !finite(xs[i]) || !finite(ys[i]) {
			continue
		}
		outX = append(outX, xs[i])
		outY = append(outY, ys[i])
	}
	if len(outX) == 1 {
		outX = append(outX, outX[0]+1)
		outY = append(outY, outY[0])
	}
	return outX, outY
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

func renderLine(w io.Writer, v *views.View, opts Options, p *message.Printer) error {
	xs, err := xValues(v)
	if err != nil {
		return err
	}

	columns := v.Table.Columns
	if v.XColumn != "" {
		columns = []string{v.YColumn}
	}

	var (
		series []chart.Series
		allX   [][]float64
		allY   [][]float64
	)
	for i, name := range columns {
		ys, err := v.Table.Column(name)
		if err != nil {
			return err
		}
		sx, sy := finitePairs(xs, ys)
		if len(sx) == 0 {
			continue
		}
		allX = append(allX, sx)
		allY = append(allY, sy)
		series = append(series, chart.ContinuousSeries{
			Name:    name,
			XValues: sx,
			YValues: sy,
			Style:   chart.Style{StrokeColor: seriesColor(i), StrokeWidth: 2},
		})
	}
	if len(series) == 0 {
		return ErrNothingToDraw
	}

	xlo, xhi, _ := paddedRange(allX...)
	ylo, yhi, _ := paddedRange(allY...)

	// the index is years, so label them without grouping
	xFormat := func(val interface{}) string {
		if f, ok := val.(float64); ok {
			if v.XColumn == "" {
				return strconv.Itoa(int(math.Round(f)))
			}
			return formatNumber(p, f)
		}
		return ""
	}

	ch := chart.Chart{
		Title:      v.Title,
		Width:      opts.Width,
		Height:     opts.Height,
		Background: background(28),
		XAxis: chart.XAxis{
			Name:           v.XLabel,
			Range:          &chart.ContinuousRange{Min: xlo, Max: xhi},
			ValueFormatter: xFormat,
		},
		YAxis: chart.YAxis{
			Name:  v.YLabel,
			Range: &chart.ContinuousRange{Min: ylo, Max: yhi},
			Ticks: axisTicks(ylo, yhi, 6, p),
		},
		Series: series,
	}
	if len(series) > 1 {
		ch.Elements = []chart.Renderable{chart.Legend(&ch)}
	}
	return ch.Render(chart.PNG, w)
}
