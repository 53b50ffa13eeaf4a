package services

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/wdpkr/zillowdata/internal/dataset"
	"github.com/wdpkr/zillowdata/internal/infrastructure"
	"github.com/wdpkr/zillowdata/pkg/contracts"
)

// HubStats is the part of the WebSocket hub health reads
type HubStats interface {
	ClientCount() int
}

// HealthService provides health check functionality
type HealthService struct {
	store     DatasetStore
	hub       HubStats
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime,omitempty"`
	Services  map[string]interface{} `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Uptime  string `json:"uptime,omitempty"`
}

// VersionInfo is the /api/version payload
type VersionInfo struct {
	contracts.VersionInfo
	UptimeSeconds float64 `json:"uptime_seconds"`
	StartTime     string  `json:"start_time"`
}

// NewHealthService creates a health service. hub may be nil when the
// WebSocket session is disabled.
func NewHealthService(store DatasetStore, hub HubStats, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{
		store:     store,
		hub:       hub,
		startTime: time.Now(),
		logger:    infrastructure.WithComponent(logger, "health_service"),
	}
}

// HealthCheck returns overall health status. The process is healthy while
// it serves requests, whether or not the datasets are loaded.
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   contracts.Version,
		Services: map[string]interface{}{
			"datasets":  hs.checkDatasets(),
			"websocket": hs.checkWebSocket(),
		},
	}
	hs.logger.DebugContext(ctx, "HealthCheck: completed", slog.String("status", status.Status))
	return status
}

// ReadinessCheck reports ready once the datasets have loaded
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ready",
		Timestamp: time.Now(),
		Version:   contracts.Version,
		Services: map[string]interface{}{
			"datasets":  hs.checkDatasets(),
			"websocket": hs.checkWebSocket(),
		},
	}

	for _, service := range status.Services {
		if sh, ok := service.(ServiceHealth); ok && sh.Status != "ready" {
			status.Status = "not_ready"
			break
		}
	}
	return status
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   contracts.Version,
		Runtime: map[string]interface{}{
			"uptime":     time.Since(hs.startTime).Seconds(),
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
	}
}

// Version returns build and runtime version information
func (hs *HealthService) Version() VersionInfo {
	return VersionInfo{
		VersionInfo:   contracts.GetVersionInfo(),
		UptimeSeconds: time.Since(hs.startTime).Seconds(),
		StartTime:     hs.startTime.Format(time.RFC3339),
	}
}

// DatasetStats returns the loader statistics without triggering a load
func (hs *HealthService) DatasetStats() dataset.Stats {
	return hs.store.Stats()
}

func (hs *HealthService) checkDatasets() ServiceHealth {
	stats := hs.store.Stats()
	switch {
	case stats.Loaded:
		return ServiceHealth{
			Status:  "ready",
			Message: fmt.Sprintf("%d datasets loaded in %s", len(stats.Datasets), stats.LoadDuration.Round(time.Millisecond)),
			Uptime:  time.Since(stats.LoadedAt).Round(time.Second).String(),
		}
	case stats.LastError != "":
		return ServiceHealth{
			Status:  "not_ready",
			Message: fmt.Sprintf("last load failed after %d attempts: %s", stats.Attempts, stats.LastError),
		}
	case stats.Attempts > 0:
		return ServiceHealth{Status: "not_ready", Message: "datasets loading"}
	default:
		return ServiceHealth{Status: "not_ready", Message: "datasets not loaded yet"}
	}
}

func (hs *HealthService) checkWebSocket() ServiceHealth {
	if hs.hub == nil {
		return ServiceHealth{Status: "ready", Message: "WebSocket session disabled"}
	}
	return ServiceHealth{
		Status:  "ready",
		Message: fmt.Sprintf("%d clients connected", hs.hub.ClientCount()),
		Uptime:  time.Since(hs.startTime).Round(time.Second).String(),
	}
}
