package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apperrors "github.com/wdpkr/zillowdata/internal/errors"
)

// GeoJSONContentType is served for the boundary document
const GeoJSONContentType = "application/geo+json"

// DatasetHandler exposes the loaded datasets
type DatasetHandler struct {
	service      ViewServiceInterface
	logger       *slog.Logger
	errorHandler *apperrors.ErrorHandler
}

// NewDatasetHandler creates a new dataset handler
func NewDatasetHandler(service ViewServiceInterface, logger *slog.Logger, errorHandler *apperrors.ErrorHandler) *DatasetHandler {
	return &DatasetHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "dataset_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the dataset routes, mounted under /api/datasets
func (h *DatasetHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ListDatasets)
	r.Get("/boundaries", h.GetBoundaries)
	return r
}

// ListDatasets handles GET /api/datasets. The first call triggers the load.
func (h *DatasetHandler) ListDatasets(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Datasets(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   stats,
		"count":  len(stats.Datasets),
	})
}

// GetBoundaries handles GET /api/datasets/boundaries
func (h *DatasetHandler) GetBoundaries(w http.ResponseWriter, r *http.Request) {
	raw, err := h.service.Boundaries(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", GeoJSONContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(raw)))
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(raw); err != nil {
		h.logger.WarnContext(r.Context(), "boundary write failed", slog.String("error", err.Error()))
	}
}
