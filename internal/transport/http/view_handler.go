package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"github.com/wdpkr/zillowdata/internal/charts"
	apperrors "github.com/wdpkr/zillowdata/internal/errors"
)

// ViewHandler serves the derived views as JSON, PNG and downloads
type ViewHandler struct {
	service      ViewServiceInterface
	logger       *slog.Logger
	errorHandler *apperrors.ErrorHandler
}

// NewViewHandler creates a new view handler
func NewViewHandler(service ViewServiceInterface, logger *slog.Logger, errorHandler *apperrors.ErrorHandler) *ViewHandler {
	return &ViewHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "view_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the view routes, mounted under /api/views
func (h *ViewHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ListViews)
	r.Route("/{view}", func(r chi.Router) {
		r.Get("/", h.GetView)
		r.Get("/chart.png", h.GetChart)
		r.Get("/export.{format}", h.Export)
	})
	return r
}

// ListViews handles GET /api/views
func (h *ViewHandler) ListViews(w http.ResponseWriter, r *http.Request) {
	defs := h.service.Describe()
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   defs,
		"count":  len(defs),
	})
}

// GetView handles GET /api/views/{view}
func (h *ViewHandler) GetView(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "view")
	params, err := parseViewParams(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	v, err := h.service.View(r.Context(), name, params)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.DebugContext(r.Context(), "view served",
		slog.String("view", name),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.Int("warnings", len(v.Warnings)))

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   v,
	})
}

// GetChart handles GET /api/views/{view}/chart.png
func (h *ViewHandler) GetChart(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "view")
	params, err := parseViewParams(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	size, err := parseChartSize(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	png, err := h.service.RenderChart(r.Context(), name, params, size)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", charts.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(png); err != nil {
		h.logger.WarnContext(r.Context(), "chart write failed",
			slog.String("view", name),
			slog.String("error", err.Error()))
	}
}

// Export handles GET /api/views/{view}/export.{format}
func (h *ViewHandler) Export(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "view")
	format := chi.URLParam(r, "format")
	params, err := parseViewParams(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	out, err := h.service.Export(r.Context(), name, params, format)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "view exported",
		slog.String("view", name),
		slog.String("file_name", out.FileName),
		slog.Int("bytes", len(out.Data)))

	w.Header().Set("Content-Type", out.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", out.FileName))
	w.Header().Set("Content-Length", strconv.Itoa(len(out.Data)))
	w.WriteHeader(http.StatusOK)
	w.Write(out.Data)
}

// ListStates handles GET /api/states
func (h *ViewHandler) ListStates(w http.ResponseWriter, r *http.Request) {
	states := h.service.States()
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   states,
		"count":  len(states),
	})
}

// Greeting handles GET /api/greeting?name=
func (h *ViewHandler) Greeting(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   map[string]string{"greeting": h.service.Greeting(r.URL.Query().Get("name"))},
	})
}
