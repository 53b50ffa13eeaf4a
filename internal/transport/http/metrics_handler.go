package http

import (
	"net/http"

	"github.com/go-chi/render"
)

// HubMetrics reports WebSocket hub counters
type HubMetrics interface {
	GetHubMetrics() map[string]interface{}
}

// MetricsHandler serves the Prometheus scrape endpoint and hub counters
type MetricsHandler struct {
	prometheus http.Handler
	hub        HubMetrics
}

// NewMetricsHandler creates a new metrics handler. A nil prometheus
// handler means the exporter is disabled.
func NewMetricsHandler(prometheus http.Handler, hub HubMetrics) *MetricsHandler {
	return &MetricsHandler{prometheus: prometheus, hub: hub}
}

// Prometheus handles GET /metrics
func (h *MetricsHandler) Prometheus(w http.ResponseWriter, r *http.Request) {
	if h.prometheus == nil {
		http.Error(w, "metrics exporter disabled", http.StatusNotFound)
		return
	}
	h.prometheus.ServeHTTP(w, r)
}

// WebSocketStats handles GET /api/ws/stats
func (h *MetricsHandler) WebSocketStats(w http.ResponseWriter, r *http.Request) {
	var stats map[string]interface{}
	if h.hub != nil {
		stats = h.hub.GetHubMetrics()
	}
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   stats,
	})
}
