package charts

import (
	"errors"
	"fmt"
	"image/color"
	"io"

	"golang.org/x/text/message"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/wdpkr/zillowdata/internal/dataprocessing"
	"github.com/wdpkr/zillowdata/internal/views"
)

// ErrNoBoundaries is returned when a county map is rendered without shapes
var ErrNoBoundaries = errors.New("choropleth needs county boundaries")

var (
	missingFill = color.RGBA{R: 0xdd, G: 0xdd, B: 0xdd, A: 0xff}
	countyEdge  = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
)

// pixels converts an image size to plot length at the PNG canvas's 96 dpi
func pixels(px int) vg.Length { return vg.Length(float64(px) * 0.75) }

func renderChoropleth(w io.Writer, v *views.View, opts Options, p *message.Printer) error {
	if opts.Boundaries == nil || opts.Boundaries.Len() == 0 {
		return ErrNoBoundaries
	}
	if len(v.Table.Columns) == 0 {
		return ErrNothingToDraw
	}
	fips, err := v.Table.Attr("FIPS")
	if err != nil {
		return err
	}
	values, err := v.Table.Column(v.Table.Columns[0])
	if err != nil {
		return err
	}

	byFIPS := make(map[string]float64, len(fips))
	for i, code := range fips {
		if code != "" && finite(values[i]) {
			byFIPS[code] = values[i]
		}
	}
	counties := opts.Boundaries.FIPS()
	lo, hi, ok := scaleRange(byFIPS, counties)
	if !ok {
		return ErrNothingToDraw
	}
	cmap := moreland.SmoothBlueRed()
	cmap.SetMin(lo)
	cmap.SetMax(hi)

	plt := plot.New()
	plt.Title.Text = fmt.Sprintf("%s (%s to %s)", v.Title, formatNumber(p, lo), formatNumber(p, hi))
	plt.Title.TextStyle.Font.Size = vg.Points(16)
	plt.HideAxes()

	for _, code := range counties {
		fill := color.Color(missingFill)
		if val, ok := byFIPS[code]; ok {
			if c, err := cmap.At(val); err == nil {
				fill = c
			}
		}
		for _, shape := range opts.Boundaries.Polygons(code) {
			poly, err := countyPolygon(shape)
			if err != nil {
				return fmt.Errorf("county %s: %w", code, err)
			}
			if poly == nil {
				continue
			}
			poly.Color = fill
			poly.LineStyle.Color = countyEdge
			poly.LineStyle.Width = vg.Points(0.2)
			plt.Add(poly)
		}
	}

	wt, err := plt.WriterTo(pixels(opts.Width), pixels(opts.Height), "png")
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}

// scaleRange spans the values of the counties that are drawn. A flat range
// is widened by one so the colour map stays valid.
func scaleRange(byFIPS map[string]float64, counties []string) (lo, hi float64, ok bool) {
	drawn := make([]float64, 0, len(counties))
	for _, code := range counties {
		if v, found := byFIPS[code]; found {
			drawn = append(drawn, v)
		}
	}
	lo, hi, ok = dataprocessing.MinMax(drawn)
	if ok && lo == hi {
		hi = lo + 1
	}
	return lo, hi, ok
}

// countyPolygon builds one polygon with its holes. Longitudes east of the
// antimeridian are shifted west so the Aleutians stay next to Alaska.
func countyPolygon(rings [][][]float64) (*plotter.Polygon, error) {
	var xys []plotter.XYer
	for _, ring := range rings {
		pts := make(plotter.XYs, 0, len(ring))
		for _, pt := range ring {
			if len(pt) < 2 {
				continue
			}
			lon := pt[0]
			if lon > 0 {
				lon -= 360
			}
			pts = append(pts, plotter.XY{X: lon, Y: pt[1]})
		}
		if len(pts) >= 3 {
			xys = append(xys, pts)
		}
	}
	if len(xys) == 0 {
		return nil, nil
	}
	return plotter.NewPolygon(xys...)
}
