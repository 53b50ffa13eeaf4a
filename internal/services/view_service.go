package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/wdpkr/zillowdata/internal/charts"
	"github.com/wdpkr/zillowdata/internal/dataset"
	apperrors "github.com/wdpkr/zillowdata/internal/errors"
	"github.com/wdpkr/zillowdata/internal/exporter"
	"github.com/wdpkr/zillowdata/internal/geo"
	"github.com/wdpkr/zillowdata/internal/infrastructure"
	"github.com/wdpkr/zillowdata/internal/views"
)

// DatasetStore is the part of dataset.Store the services read
type DatasetStore interface {
	Load(ctx context.Context) (*dataset.Snapshot, error)
	Loaded() *dataset.Snapshot
	Stats() dataset.Stats
}

// ChartSize is the requested image size; zero means the configured default
type ChartSize struct {
	Width  int `json:"width" validate:"omitempty,min=64,max=4096"`
	Height int `json:"height" validate:"omitempty,min=64,max=4096"`
}

// Export is an encoded view ready for download
type Export struct {
	FileName    string
	ContentType string
	Data        []byte
}

// ViewService computes derived views from the loaded datasets
type ViewService struct {
	store    DatasetStore
	pipeline *views.Pipeline
	csv      *exporter.CSVWriter
	xlsx     *exporter.XLSXWriter
	chart    ChartSize
	metrics  *infrastructure.DashboardMetrics
	logger   *slog.Logger
}

// NewViewService creates a view service. chart holds the default image size
// and metrics may be nil.
func NewViewService(store DatasetStore, pipeline *views.Pipeline, csv *exporter.CSVWriter, chart ChartSize, metrics *infrastructure.DashboardMetrics, logger *slog.Logger) *ViewService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ViewService{
		store:    store,
		pipeline: pipeline,
		csv:      csv,
		xlsx:     exporter.NewXLSXWriter(),
		chart:    chart,
		metrics:  metrics,
		logger:   infrastructure.WithComponent(logger, "view_service"),
	}
}

// Describe lists every view with its controls
func (s *ViewService) Describe() []views.Definition {
	return s.pipeline.Describe()
}

// Datasets loads the datasets if needed and returns the loader statistics
func (s *ViewService) Datasets(ctx context.Context) (dataset.Stats, error) {
	if _, err := s.snapshot(ctx); err != nil {
		return s.store.Stats(), err
	}
	return s.store.Stats(), nil
}

// DatasetsLoaded reports whether a load has succeeded
func (s *ViewService) DatasetsLoaded() bool {
	return s.store.Loaded() != nil
}

// Boundaries returns the county boundary GeoJSON as fetched
func (s *ViewService) Boundaries(ctx context.Context) ([]byte, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	b := snap.Boundaries()
	if b == nil {
		return nil, apperrors.NotFoundError("county boundaries")
	}
	return b.Raw(), nil
}

// States returns the 50 states and DC sorted by name
func (s *ViewService) States() []geo.State {
	return geo.States()
}

// Greeting returns the dashboard greeting for name
func (s *ViewService) Greeting(name string) string {
	return views.Greeting(name)
}

// View computes one derived view
func (s *ViewService) View(ctx context.Context, name string, params views.Params) (*views.View, error) {
	start := time.Now()
	v, err := s.view(ctx, name, params)
	s.metrics.RecordViewRender(ctx, name, "json", time.Since(start), err)
	return v, err
}

func (s *ViewService) view(ctx context.Context, name string, params views.Params) (*views.View, error) {
	def, err := s.pipeline.Lookup(name)
	if err != nil {
		return nil, apperrors.ViewNotFoundError(name)
	}

	var src views.Source
	if def.NeedsData() {
		snap, err := s.snapshot(ctx)
		if err != nil {
			return nil, err
		}
		src = snap
	}

	v, err := s.pipeline.Run(name, src, params)
	if err != nil {
		if errors.Is(err, views.ErrUnknownView) {
			return nil, apperrors.ViewNotFoundError(name)
		}
		return nil, err
	}
	for _, w := range v.Warnings {
		s.logger.WarnContext(ctx, "view warning",
			slog.String("view", name),
			slog.String("warning", w))
	}
	return v, nil
}

// RenderChart computes a view and encodes it as PNG
func (s *ViewService) RenderChart(ctx context.Context, name string, params views.Params, size ChartSize) ([]byte, error) {
	start := time.Now()
	data, err := s.renderChart(ctx, name, params, size)
	s.metrics.RecordViewRender(ctx, name, "png", time.Since(start), err)
	return data, err
}

func (s *ViewService) renderChart(ctx context.Context, name string, params views.Params, size ChartSize) ([]byte, error) {
	v, err := s.view(ctx, name, params)
	if err != nil {
		return nil, err
	}

	opts := charts.Options{Width: size.Width, Height: size.Height}
	if opts.Width == 0 {
		opts.Width = s.chart.Width
	}
	if opts.Height == 0 {
		opts.Height = s.chart.Height
	}
	if v.Chart == views.ChartChoropleth {
		if snap := s.store.Loaded(); snap != nil {
			opts.Boundaries = snap.Boundaries()
		}
	}

	var buf bytes.Buffer
	if err := charts.Render(&buf, v, opts); err != nil {
		if errors.Is(err, charts.ErrNothingToDraw) {
			return nil, apperrors.NewNotFoundError("chart data for view "+name, err)
		}
		return nil, apperrors.NewRenderError("render "+name+" chart", err)
	}
	return buf.Bytes(), nil
}

// Export computes a view and encodes its table as CSV or XLSX
func (s *ViewService) Export(ctx context.Context, name string, params views.Params, format string) (*Export, error) {
	start := time.Now()
	out, err := s.export(ctx, name, params, format)
	label := format
	if f, perr := exporter.ParseFormat(format); perr == nil {
		label = string(f)
	}
	s.metrics.RecordViewRender(ctx, name, label, time.Since(start), err)
	return out, err
}

func (s *ViewService) export(ctx context.Context, name string, params views.Params, format string) (*Export, error) {
	f, err := exporter.ParseFormat(format)
	if err != nil {
		return nil, apperrors.ErrUnsupportedFormat
	}
	v, err := s.view(ctx, name, params)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	switch f {
	case exporter.FormatXLSX:
		err = s.xlsx.WriteTable(&buf, v.Table)
	default:
		err = s.csv.WriteTable(&buf, v.Table, exporter.WriteOptions{BOMPrefix: true})
	}
	if err != nil {
		return nil, apperrors.NewRenderError("export "+name, err)
	}

	return &Export{
		FileName:    f.FileName(ExportBaseName(v)),
		ContentType: f.ContentType(),
		Data:        buf.Bytes(),
	}, nil
}

// ExportBaseName names a download after the view and its main controls,
// e.g. "histogram-zip-2020"
func ExportBaseName(v *views.View) string {
	parts := []string{v.Name}
	if v.Params.Level != "" {
		parts = append(parts, string(v.Params.Level))
	}
	if v.Params.State != "" {
		parts = append(parts, strings.ToLower(v.Params.State))
	}
	if v.Params.Year > 0 {
		parts = append(parts, strconv.Itoa(v.Params.Year))
	}
	if v.Params.IsLog() {
		parts = append(parts, "log")
	}
	return strings.Join(parts, "-")
}

// HandleViewRequest answers a WebSocket view:request. params is the raw
// JSON object from the frame and may be empty.
func (s *ViewService) HandleViewRequest(ctx context.Context, view string, params json.RawMessage) (interface{}, error) {
	var p views.Params
	if len(bytes.TrimSpace(params)) > 0 && !bytes.Equal(bytes.TrimSpace(params), []byte("null")) {
		dec := json.NewDecoder(bytes.NewReader(params))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&p); err != nil {
			return nil, apperrors.ErrValidation("params", fmt.Sprintf("invalid params: %v", err))
		}
	}
	return s.View(ctx, view, p)
}

// snapshot loads the datasets, mapping failures to a 503. A cancelled or
// expired ctx is returned as is.
func (s *ViewService) snapshot(ctx context.Context) (*dataset.Snapshot, error) {
	snap, err := s.store.Load(ctx)
	if err == nil {
		return snap, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	s.logger.ErrorContext(ctx, "dataset load failed", slog.String("error", err.Error()))
	return nil, apperrors.DatasetsUnavailableError(err)
}
