package app

import (
	"log/slog"

	"github.com/wdpkr/zillowdata/internal/config"
	"github.com/wdpkr/zillowdata/internal/dataset"
	"github.com/wdpkr/zillowdata/internal/exporter"
	"github.com/wdpkr/zillowdata/internal/infrastructure"
	"github.com/wdpkr/zillowdata/internal/services"
	"github.com/wdpkr/zillowdata/internal/views"
)

// NewStore builds the dataset store for the configured sources. metrics
// may be nil.
func NewStore(cfg *config.Config, logger *slog.Logger, metrics *infrastructure.DashboardMetrics) (*dataset.Store, error) {
	sources, err := dataset.SourcesFromConfig(cfg.Sources)
	if err != nil {
		return nil, err
	}
	fetcher := dataset.NewHTTPFetcher(cfg.Sources.FetchTimeout, cfg.Sources.MaxBytes, cfg.Sources.UserAgent)
	return dataset.NewStore(sources, fetcher, logger, metrics, dataset.Options{
		LoadTimeout: cfg.Sources.LoadTimeout,
		Concurrency: cfg.Sources.Concurrency,
	}), nil
}

// NewViewService builds the view pipeline and the service around it
func NewViewService(cfg *config.Config, store services.DatasetStore, paths *config.Paths, metrics *infrastructure.DashboardMetrics, logger *slog.Logger) *services.ViewService {
	pipeline := views.NewPipeline(views.Defaults{
		States: cfg.Dashboard.DefaultStates,
		Bins:   cfg.Dashboard.HistogramBins,
	})
	csv := exporter.NewCSVWriter(paths).WithLogger(logger)
	chart := services.ChartSize{Width: cfg.Dashboard.ChartWidth, Height: cfg.Dashboard.ChartHeight}
	return services.NewViewService(store, pipeline, csv, chart, metrics, logger)
}
