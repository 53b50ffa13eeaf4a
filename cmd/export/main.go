// Command export computes one dashboard view and writes its table to a CSV
// or XLSX file without starting the web server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/wdpkr/zillowdata/internal/app"
	"github.com/wdpkr/zillowdata/internal/config"
	"github.com/wdpkr/zillowdata/internal/exporter"
	"github.com/wdpkr/zillowdata/internal/infrastructure"
	"github.com/wdpkr/zillowdata/internal/services"
	"github.com/wdpkr/zillowdata/internal/views"
	"github.com/wdpkr/zillowdata/pkg/contracts"
)

type options struct {
	configPath string
	view       string
	year       int
	scale      string
	states     string
	state      string
	level      string
	bins       int
	amplitude  string
	format     string
	out        string
}

func main() {
	var o options
	flag.StringVar(&o.configPath, "config", "", "path to a YAML config file")
	flag.StringVar(&o.view, "view", "", "view to export (choropleth, timeseries, histogram, rent-multiple, wave)")
	flag.IntVar(&o.year, "year", 0, "year for single-year views")
	flag.StringVar(&o.scale, "scale", "", "value scale: linear or log")
	flag.StringVar(&o.states, "states", "", "comma separated state codes for the time series")
	flag.StringVar(&o.state, "state", "", "state filter for the histogram")
	flag.StringVar(&o.level, "level", "", "geography: state, metro or zip")
	flag.IntVar(&o.bins, "bins", 0, "histogram bin count")
	flag.StringVar(&o.amplitude, "amplitude", "", "wave amplitude")
	flag.StringVar(&o.format, "format", "csv", "output format: csv or xlsx")
	flag.StringVar(&o.out, "out", "", "output file; bare names land in the exports directory")
	version := flag.Bool("version", false, "print version information and exit")
	flag.Parse()

	if *version {
		fmt.Println(contracts.GetFullVersionString())
		return
	}

	path, err := run(context.Background(), o)
	if err != nil {
		slog.Error("Export failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	fmt.Println(path)
}

func run(ctx context.Context, o options) (string, error) {
	cfg, err := config.LoadFrom(o.configPath)
	if err != nil {
		return "", err
	}
	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return "", err
	}
	defer infrastructure.CloseLogFile()

	return export(ctx, cfg, logger, o)
}

// export loads the datasets, computes the view and writes the file
func export(ctx context.Context, cfg *config.Config, logger *slog.Logger, o options) (string, error) {
	if o.view == "" {
		return "", fmt.Errorf("-view is required")
	}
	format, err := exporter.ParseFormat(o.format)
	if err != nil {
		return "", err
	}
	params, err := o.params()
	if err != nil {
		return "", err
	}

	paths := config.PathsFor(cfg)
	if err := paths.EnsureDirectories(logger); err != nil {
		return "", err
	}

	store, err := app.NewStore(cfg, logger, nil)
	if err != nil {
		return "", err
	}
	svc := app.NewViewService(cfg, store, paths, nil, logger)

	v, err := svc.View(ctx, o.view, params)
	if err != nil {
		return "", err
	}
	for _, w := range v.Warnings {
		logger.Warn("View warning", slog.String("view", v.Name), slog.String("warning", w))
	}

	name := outputName(format, v, o.out)
	return exporter.NewCSVWriter(paths).WithLogger(logger).WriteFile(format, name, v.Table)
}

// params converts the command line flags into view parameters. Range
// checks are left to the pipeline.
func (o options) params() (views.Params, error) {
	p := views.Params{
		Year:  o.year,
		Bins:  o.bins,
		Scale: views.Scale(strings.ToLower(o.scale)),
		Level: views.Level(strings.ToLower(o.level)),
		State: strings.ToUpper(strings.TrimSpace(o.state)),
	}
	for _, s := range strings.Split(o.states, ",") {
		if s = strings.TrimSpace(s); s != "" {
			p.States = append(p.States, strings.ToUpper(s))
		}
	}
	if o.amplitude != "" {
		a, err := strconv.ParseFloat(o.amplitude, 64)
		if err != nil {
			return views.Params{}, fmt.Errorf("invalid -amplitude %q: %w", o.amplitude, err)
		}
		p.Amplitude = &a
	}
	return p, nil
}

// outputName picks the export file name, defaulting to the same name the
// download endpoint uses
func outputName(format exporter.Format, v *views.View, out string) string {
	if out != "" {
		return out
	}
	return format.FileName(services.ExportBaseName(v))
}
