package http

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/wdpkr/zillowdata/internal/geo"
	"github.com/wdpkr/zillowdata/pkg/contracts"
)

// DashboardHandler serves the single-page dashboard and its static assets
type DashboardHandler struct {
	page   *template.Template
	static http.Handler
	logger *slog.Logger
}

// dashboardPage is the data available to index.html
type dashboardPage struct {
	Title         string
	Version       string
	APIVersion    string
	WebSocketPath string
	States        []geo.State
}

// NewDashboardHandler parses index.html from assets. Files under static/
// are served as-is.
func NewDashboardHandler(assets fs.FS, logger *slog.Logger) (*DashboardHandler, error) {
	page, err := template.ParseFS(assets, "index.html")
	if err != nil {
		return nil, fmt.Errorf("parse dashboard page: %w", err)
	}

	static, err := fs.Sub(assets, "static")
	if err != nil {
		return nil, fmt.Errorf("open static assets: %w", err)
	}

	return &DashboardHandler{
		page:   page,
		static: http.StripPrefix("/static/", http.FileServer(http.FS(static))),
		logger: logger.With(slog.String("handler", "dashboard")),
	}, nil
}

// ServeDashboard handles GET /
func (h *DashboardHandler) ServeDashboard(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	err := h.page.Execute(&buf, dashboardPage{
		Title:         "Zillow Data Dashboard",
		Version:       contracts.Version,
		APIVersion:    contracts.APIVersion,
		WebSocketPath: "/ws",
		States:        geo.States(),
	})
	if err != nil {
		h.logger.ErrorContext(r.Context(), "dashboard render failed", slog.String("error", err.Error()))
		http.Error(w, "Error rendering page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// ServeStatic handles GET /static/*
func (h *DashboardHandler) ServeStatic(w http.ResponseWriter, r *http.Request) {
	h.static.ServeHTTP(w, r)
}
