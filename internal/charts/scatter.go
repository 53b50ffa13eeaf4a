package charts

import (
	"io"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
	"golang.org/x/text/message"

	"github.com/wdpkr/zillowdata/internal/views"
)

// pointStyle renders points only, no connecting line
func pointStyle(col drawing.Color) chart.Style {
	return chart.Style{
		StrokeWidth: chart.Disabled,
		DotWidth:    4,
		DotColor:    col,
	}
}

func renderScatter(w io.Writer, v *views.View, opts Options, p *message.Printer) error {
	xs, err := v.Table.Column(v.XColumn)
	if err != nil {
		return err
	}
	ys, err := v.Table.Column(v.YColumn)
	if err != nil {
		return err
	}

	sx, sy := finitePairs(xs, ys)
	if len(sx) == 0 {
		return ErrNothingToDraw
	}
	xlo, xhi, _ := paddedRange(sx)
	ylo, yhi, _ := paddedRange(sy)

	st := pointStyle(chart.ColorBlue)
	if len(xs) == 1 {
		st.DotWidth = 6
	}

	ch := chart.Chart{
		Title:      v.Title,
		Width:      opts.Width,
		Height:     opts.Height,
		Background: background(28),
		XAxis: chart.XAxis{
			Name:  v.XLabel,
			Range: &chart.ContinuousRange{Min: xlo, Max: xhi},
			Ticks: axisTicks(xlo, xhi, 6, p),
		},
		YAxis: chart.YAxis{
			Name:  v.YLabel,
			Range: &chart.ContinuousRange{Min: ylo, Max: yhi},
			Ticks: axisTicks(ylo, yhi, 6, p),
		},
		Series: []chart.Series{
			chart.ContinuousSeries{Name: v.Table.Name, XValues: sx, YValues: sy, Style: st},
		},
	}
	return ch.Render(chart.PNG, w)
}
