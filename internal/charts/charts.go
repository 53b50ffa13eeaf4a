// Package charts renders derived views as PNG images. Line, histogram and
// scatter charts are drawn with go-chart; the county map with gonum/plot.
package charts

import (
	"errors"
	"fmt"
	"io"
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/wdpkr/zillowdata/internal/config"
	"github.com/wdpkr/zillowdata/internal/geo"
	"github.com/wdpkr/zillowdata/internal/views"
)

var (
	// ErrUnsupportedChart is returned for chart kinds without a renderer
	ErrUnsupportedChart = errors.New("unsupported chart kind")
	// ErrNothingToDraw is returned when a view has no finite values
	ErrNothingToDraw = errors.New("view has no values to draw")
)

// ContentType is the media type Render writes
const ContentType = "image/png"

// Options controls image size and number formatting
type Options struct {
	Width  int
	Height int
	// Language picks digit grouping for axis labels. Defaults to American English.
	Language language.Tag
	// Boundaries is required for choropleth views
	Boundaries *geo.Boundaries
}

func (o Options) withDefaults() Options {
	if o.Width <= 0 {
		o.Width = config.DefaultChartWidth
	}
	if o.Height <= 0 {
		o.Height = config.DefaultChartHeight
	}
	if o.Width > config.MaxChartDimension {
		o.Width = config.MaxChartDimension
	}
	if o.Height > config.MaxChartDimension {
		o.Height = config.MaxChartDimension
	}
	if o.Language == language.Und {
		o.Language = language.AmericanEnglish
	}
	return o
}

// Render writes v as a PNG
func Render(w io.Writer, v *views.View, opts Options) error {
	if v == nil || v.Table == nil {
		return ErrNothingToDraw
	}
	opts = opts.withDefaults()
	printer := message.NewPrinter(opts.Language)

	switch v.Chart {
	case views.ChartLine:
		return renderLine(w, v, opts, printer)
	case views.ChartHistogram:
		return renderHistogram(w, v, opts, printer)
	case views.ChartScatter:
		return renderScatter(w, v, opts, printer)
	case views.ChartChoropleth:
		return renderChoropleth(w, v, opts, printer)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedChart, v.Chart)
	}
}

// formatNumber groups digits for the printer's locale and trims precision
// to the magnitude of the value.
func formatNumber(p *message.Printer, v float64) string {
	abs := math.Abs(v)
	switch {
	case abs >= 1000:
		return p.Sprintf("%.0f", v)
	case abs >= 10:
		return p.Sprintf("%.1f", v)
	case abs >= 0.01 || abs == 0:
		return p.Sprintf("%.2f", v)
	default:
		return p.Sprintf("%.4f", v)
	}
}

// paddedRange returns bounds with a margin, widening a zero span so the
// axis is never degenerate.
func paddedRange(values ...[]float64) (lo, hi float64, ok bool) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, vals := range values {
		for _, v := range vals {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
			ok = true
		}
	}
	if !ok {
		return 0, 0, false
	}
	span := hi - lo
	if span == 0 {
		span = math.Max(math.Abs(hi), 1)
	}
	return lo - span*0.05, hi + span*0.05, true
}
