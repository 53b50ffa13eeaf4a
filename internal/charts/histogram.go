package charts

import (
	"io"

	chart "github.com/wcharczuk/go-chart/v2"
	"golang.org/x/text/message"

	"github.com/wdpkr/zillowdata/internal/views"
)

// maxBarLabels keeps bin labels from overlapping on wide histograms
const maxBarLabels = 10

func renderHistogram(w io.Writer, v *views.View, opts Options, p *message.Printer) error {
	if len(v.Bins) == 0 {
		return ErrNothingToDraw
	}

	every := (len(v.Bins) + maxBarLabels - 1) / maxBarLabels
	maxCount := 0
	bars := make([]chart.Value, len(v.Bins))
	for i, b := range v.Bins {
		label := ""
		if i%every == 0 {
			label = formatNumber(p, b.Lower)
		}
		bars[i] = chart.Value{
			Value: float64(b.Count),
			Label: label,
			Style: chart.Style{FillColor: chart.ColorBlue, StrokeColor: chart.ColorBlue, StrokeWidth: 1},
		}
		if b.Count > maxCount {
			maxCount = b.Count
		}
	}

	top := float64(maxCount) * 1.1
	if top < 1 {
		top = 1
	}

	barWidth := opts.Width / (len(bars) + len(bars)/4 + 2)
	if barWidth < 1 {
		barWidth = 1
	}

	bc := chart.BarChart{
		Title:      v.Title,
		Width:      opts.Width,
		Height:     opts.Height,
		Background: background(36),
		BarWidth:   barWidth,
		BarSpacing: barWidth / 4,
		XAxis:      chart.Style{FontSize: 8},
		YAxis: chart.YAxis{
			Name:  "Regions",
			Range: &chart.ContinuousRange{Min: 0, Max: top},
			Ticks: axisTicks(0, top, 6, p),
		},
		Bars: bars,
	}
	return bc.Render(chart.PNG, w)
}
