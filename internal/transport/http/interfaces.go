package http

import (
	"context"

	"github.com/wdpkr/zillowdata/internal/dataset"
	"github.com/wdpkr/zillowdata/internal/geo"
	"github.com/wdpkr/zillowdata/internal/services"
	"github.com/wdpkr/zillowdata/internal/views"
)

// ViewServiceInterface is what the view and dataset handlers need from
// services.ViewService
type ViewServiceInterface interface {
	Describe() []views.Definition
	View(ctx context.Context, name string, params views.Params) (*views.View, error)
	RenderChart(ctx context.Context, name string, params views.Params, size services.ChartSize) ([]byte, error)
	Export(ctx context.Context, name string, params views.Params, format string) (*services.Export, error)
	Datasets(ctx context.Context) (dataset.Stats, error)
	Boundaries(ctx context.Context) ([]byte, error)
	States() []geo.State
	Greeting(name string) string
}

// HealthServiceInterface is what the health handler needs
type HealthServiceInterface interface {
	HealthCheck(ctx context.Context) services.HealthStatus
	ReadinessCheck(ctx context.Context) services.HealthStatus
	LivenessCheck(ctx context.Context) services.HealthStatus
	Version() services.VersionInfo
}
