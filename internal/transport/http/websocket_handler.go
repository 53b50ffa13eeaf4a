package http

import (
	"log/slog"
	"net/http"

	gws "github.com/gorilla/websocket"

	apperrors "github.com/wdpkr/zillowdata/internal/errors"
	"github.com/wdpkr/zillowdata/internal/infrastructure"
	"github.com/wdpkr/zillowdata/internal/websocket"
)

// WebSocketHandler upgrades /ws requests into hub sessions
type WebSocketHandler struct {
	hub          *websocket.Hub
	upgrader     *gws.Upgrader
	logger       *slog.Logger
	errorHandler *apperrors.ErrorHandler
}

// NewWebSocketHandler creates a new WebSocket handler. Upgrade failures are
// answered with a problem document.
func NewWebSocketHandler(hub *websocket.Hub, upgrader *gws.Upgrader, logger *slog.Logger, errorHandler *apperrors.ErrorHandler) *WebSocketHandler {
	h := &WebSocketHandler{
		hub:          hub,
		upgrader:     upgrader,
		logger:       logger.With(slog.String("handler", "websocket")),
		errorHandler: errorHandler,
	}
	upgrader.Error = func(w http.ResponseWriter, r *http.Request, status int, reason error) {
		h.errorHandler.HandleError(w, r, apperrors.WebSocketUpgradeError(status, reason))
	}
	return h
}

// ServeHTTP handles GET /ws
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WarnContext(r.Context(), "websocket upgrade failed",
			slog.String("remote_addr", r.RemoteAddr),
			slog.String("error", err.Error()))
		return
	}

	client := websocket.ServeWS(h.hub, websocket.Wrap(conn), infrastructure.GetTraceID(r.Context()))
	h.logger.InfoContext(r.Context(), "websocket session opened",
		slog.String("client_id", client.ID()),
		slog.String("remote_addr", r.RemoteAddr))
}
