package views

import (
	"errors"
	"fmt"

	"github.com/wdpkr/zillowdata/internal/config"
	"github.com/wdpkr/zillowdata/internal/dataset"
	apperrors "github.com/wdpkr/zillowdata/internal/errors"
	"github.com/wdpkr/zillowdata/internal/geo"
)

// ErrUnknownView is returned by Run for names outside the registry
var ErrUnknownView = errors.New("unknown view")

// Func computes a view from loaded data and parameters. It must not modify
// the source tables.
type Func func(src Source, p Params) (*View, error)

// Control describes one UI input of a view
type Control struct {
	Name    string      `json:"name"`
	Kind    string      `json:"kind"`
	Label   string      `json:"label"`
	Min     *int        `json:"min,omitempty"`
	Max     *int        `json:"max,omitempty"`
	Options []string    `json:"options,omitempty"`
	Default interface{} `json:"default,omitempty"`
}

// Definition is a registered view
type Definition struct {
	Name        string       `json:"name"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Chart       ChartKind    `json:"chart"`
	Datasets    []dataset.ID `json:"datasets"`
	Controls    []Control    `json:"controls"`

	run Func
}

// NeedsData reports whether the view reads any dataset
func (d Definition) NeedsData() bool { return len(d.Datasets) > 0 }

func (d Definition) control(name string) (Control, bool) {
	for _, c := range d.Controls {
		if c.Name == name {
			return c, true
		}
	}
	return Control{}, false
}

// Defaults seeds parameters the caller leaves empty
type Defaults struct {
	States []string
	Bins   int
}

// Pipeline is the registry of views
type Pipeline struct {
	defs     map[string]Definition
	order    []string
	defaults Defaults
}

func intp(v int) *int { return &v }

func yearControl(min, max int) Control {
	return Control{Name: "year", Kind: "slider", Label: "Year", Min: intp(min), Max: intp(max), Default: max}
}

var scaleControl = Control{
	Name: "scale", Kind: "radio", Label: "Scale",
	Options: []string{string(ScaleLinear), string(ScaleLog)}, Default: string(ScaleLinear),
}

func levelControl() Control {
	return Control{
		Name: "level", Kind: "select", Label: "Geography",
		Options: []string{string(LevelState), string(LevelMetro), string(LevelZip)}, Default: string(LevelState),
	}
}

func stateOptions() []string {
	states := geo.States()
	out := make([]string, len(states))
	for i, s := range states {
		out[i] = s.Abbreviation
	}
	return out
}

// NewPipeline registers the dashboard views
func NewPipeline(defaults Defaults) *Pipeline {
	if len(defaults.States) == 0 {
		defaults.States = append([]string(nil), config.DefaultStates...)
	}
	if defaults.Bins <= 0 {
		defaults.Bins = config.DefaultHistogramBins
	}

	p := &Pipeline{defs: make(map[string]Definition), defaults: defaults}
	states := stateOptions()

	p.register(Definition{
		Name:        "choropleth",
		Title:       "Home values by county",
		Description: "Average ZHVI for the selected year, mapped onto county boundaries",
		Chart:       ChartChoropleth,
		Datasets:    []dataset.ID{dataset.CountyZHVI, dataset.Counties},
		Controls:    []Control{yearControl(config.MinPriceYear, config.MaxPriceYear), scaleControl},
		run:         Choropleth,
	})
	p.register(Definition{
		Name:        "timeseries",
		Title:       "Home values over time",
		Description: "Yearly average ZHVI for the selected states",
		Chart:       ChartLine,
		Datasets:    []dataset.ID{dataset.StateZHVI},
		Controls: []Control{
			{Name: "states", Kind: "multiselect", Label: "States", Options: states, Default: defaults.States},
			scaleControl,
		},
		run: TimeSeries,
	})
	p.register(Definition{
		Name:        "histogram",
		Title:       "Home value distribution",
		Description: "Histogram of average ZHVI across regions for the selected year",
		Chart:       ChartHistogram,
		Datasets:    []dataset.ID{dataset.StateZHVI, dataset.MetroZHVI, dataset.ZipZHVI},
		Controls: []Control{
			levelControl(),
			{Name: "state", Kind: "select", Label: "State", Options: states},
			yearControl(config.MinPriceYear, config.MaxPriceYear),
			scaleControl,
			{Name: "bins", Kind: "number", Label: "Bins", Min: intp(1), Max: intp(config.MaxHistogramBins), Default: defaults.Bins},
		},
		run: Histogram,
	})
	p.register(Definition{
		Name:        "rent-multiple",
		Title:       "Rent vs home value",
		Description: "Average ZORI against ZHVI per region with the rent/price multiple",
		Chart:       ChartScatter,
		Datasets: []dataset.ID{
			dataset.StateZHVI, dataset.MetroZHVI, dataset.ZipZHVI,
			dataset.StateZORI, dataset.MetroZORI, dataset.ZipZORI,
		},
		Controls: []Control{
			levelControl(),
			{Name: "state", Kind: "select", Label: "State", Options: states},
			yearControl(config.MinRentYear, config.MaxRentYear),
			scaleControl,
		},
		run: RentMultiple,
	})
	p.register(Definition{
		Name:        "wave",
		Title:       "Cosine wave",
		Description: "y = a·cos(a·x) over [-1, 1]",
		Chart:       ChartLine,
		Controls: []Control{
			{Name: "amplitude", Kind: "slider", Label: "a", Min: intp(0), Max: intp(100), Default: 0},
		},
		run: Wave,
	})
	return p
}

func (p *Pipeline) register(def Definition) {
	p.defs[def.Name] = def
	p.order = append(p.order, def.Name)
}

// Names returns the registered view names in display order
func (p *Pipeline) Names() []string {
	return append([]string(nil), p.order...)
}

// Describe returns every definition in display order
func (p *Pipeline) Describe() []Definition {
	out := make([]Definition, 0, len(p.order))
	for _, name := range p.order {
		out = append(out, p.defs[name])
	}
	return out
}

// Lookup returns one definition
func (p *Pipeline) Lookup(name string) (Definition, error) {
	def, ok := p.defs[name]
	if !ok {
		return Definition{}, fmt.Errorf("%w: %q", ErrUnknownView, name)
	}
	return def, nil
}

// Run validates params against the view's controls, fills defaults and
// computes the view. src may be nil for views that need no data.
func (p *Pipeline) Run(name string, src Source, params Params) (*View, error) {
	def, err := p.Lookup(name)
	if err != nil {
		return nil, err
	}
	params = p.withDefaults(def, params)
	if err := p.check(def, params); err != nil {
		return nil, err
	}
	if def.NeedsData() && src == nil {
		return nil, fmt.Errorf("view %s needs loaded datasets", name)
	}

	v, err := def.run(src, params)
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return nil, err
		}
		// Anything else means a loaded table lacks the shape the view reads
		return nil, apperrors.NewParsingError(fmt.Sprintf("view %s cannot be computed from the loaded tables", name), err).
			WithContext("view", name)
	}
	return v, nil
}

func (p *Pipeline) withDefaults(def Definition, params Params) Params {
	if _, ok := def.control("states"); ok && len(params.States) == 0 {
		params.States = append([]string(nil), p.defaults.States...)
	}
	if _, ok := def.control("bins"); ok && params.Bins == 0 {
		params.Bins = p.defaults.Bins
	}
	if c, ok := def.control("year"); ok && params.Year == 0 && c.Max != nil {
		params.Year = *c.Max
	}
	return params
}

// check applies the shared struct rules, then the view's own ranges
func (p *Pipeline) check(def Definition, params Params) error {
	if err := params.Validate(); err != nil {
		return err
	}

	var fields []FieldError
	if c, ok := def.control("year"); ok && c.Min != nil && c.Max != nil {
		if params.Year < *c.Min || params.Year > *c.Max {
			fields = append(fields, FieldError{Field: "year", Message: fmt.Sprintf("must be between %d and %d", *c.Min, *c.Max)})
		}
	}
	if c, ok := def.control("bins"); ok && c.Max != nil && params.Bins > *c.Max {
		fields = append(fields, FieldError{Field: "bins", Message: fmt.Sprintf("must be at most %d", *c.Max)})
	}
	for _, abbr := range params.States {
		if !geo.IsAbbreviation(abbr) {
			fields = append(fields, FieldError{Field: "states", Message: fmt.Sprintf("unknown state %q", abbr)})
		}
	}
	if params.State != "" && !geo.IsAbbreviation(params.State) {
		fields = append(fields, FieldError{Field: "state", Message: fmt.Sprintf("unknown state %q", params.State)})
	}
	if len(fields) > 0 {
		return invalidParams(fields)
	}
	return nil
}
