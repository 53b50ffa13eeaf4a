package http

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apperrors "github.com/wdpkr/zillowdata/internal/errors"
	"github.com/wdpkr/zillowdata/internal/files"
)

// FilesHandler lists and serves exports and snapshots written by the
// command line tools
type FilesHandler struct {
	discovery    *files.Discovery
	logger       *slog.Logger
	errorHandler *apperrors.ErrorHandler
}

// NewFilesHandler creates a new files handler
func NewFilesHandler(discovery *files.Discovery, logger *slog.Logger, errorHandler *apperrors.ErrorHandler) *FilesHandler {
	return &FilesHandler{
		discovery:    discovery,
		logger:       logger.With(slog.String("component", "files_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the file routes, mounted under /api/files
func (h *FilesHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ListFiles)
	r.Get("/{kind}/{name}", h.Download)
	return r
}

// ListFiles handles GET /api/files
func (h *FilesHandler) ListFiles(w http.ResponseWriter, r *http.Request) {
	exports, err := h.discovery.ListExports()
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	snapshots, err := h.discovery.ListSnapshots()
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data": map[string][]files.FileInfo{
			string(files.KindExport):   exports,
			string(files.KindSnapshot): snapshots,
		},
		"count": len(exports) + len(snapshots),
	})
}

// Download handles GET /api/files/{kind}/{name}
func (h *FilesHandler) Download(w http.ResponseWriter, r *http.Request) {
	kind := files.Kind(chi.URLParam(r, "kind"))
	name := chi.URLParam(r, "name")
	if kind != files.KindExport && kind != files.KindSnapshot {
		h.errorHandler.HandleError(w, r, apperrors.NotFoundError(string(kind)))
		return
	}

	f, err := h.discovery.Find(kind, name)
	switch {
	case errors.Is(err, files.ErrInvalidName):
		h.errorHandler.HandleError(w, r, apperrors.ErrValidation("name", err.Error()))
		return
	case errors.Is(err, fs.ErrNotExist):
		h.errorHandler.HandleError(w, r, apperrors.NotFoundError(name))
		return
	case err != nil:
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.DebugContext(r.Context(), "serving artifact",
		slog.String("kind", string(kind)),
		slog.String("name", f.Name),
		slog.Int64("size", f.Size))

	if kind == files.KindExport {
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", f.Name))
	}
	http.ServeFile(w, r, f.Path)
}
