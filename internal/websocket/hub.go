package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/wdpkr/zillowdata/internal/config"
	apperrors "github.com/wdpkr/zillowdata/internal/errors"
	"github.com/wdpkr/zillowdata/internal/infrastructure"
	"github.com/wdpkr/zillowdata/pkg/contracts/events"
)

// Options tunes session timing and buffering
type Options struct {
	PingPeriod     time.Duration
	PongWait       time.Duration
	WriteWait      time.Duration
	SendBuffer     int
	MaxMessageSize int64
}

// OptionsFrom derives session options from configuration
func OptionsFrom(cfg config.WebSocketConfig) Options {
	return Options{PingPeriod: cfg.PingPeriod, PongWait: cfg.PongWait}.withDefaults()
}

func (o Options) withDefaults() Options {
	if o.PongWait <= 0 {
		o.PongWait = 60 * time.Second
	}
	if o.PingPeriod <= 0 || o.PingPeriod >= o.PongWait {
		o.PingPeriod = (o.PongWait * 9) / 10
	}
	if o.WriteWait <= 0 {
		o.WriteWait = 10 * time.Second
	}
	if o.SendBuffer <= 0 {
		o.SendBuffer = 64
	}
	if o.MaxMessageSize <= 0 {
		o.MaxMessageSize = 16 << 10
	}
	return o
}

// Hub maintains the set of active clients and broadcasts messages to the clients
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex

	logger       *slog.Logger
	clientLogger *slog.Logger
	metrics      *infrastructure.DashboardMetrics
	problems     *apperrors.ErrorHandler
	handler      RequestHandler
	opts         Options

	totalConnections atomic.Int64
	messagesSent     atomic.Int64
	messagesReceived atomic.Int64

	quit     chan struct{}
	stopOnce sync.Once
	running  bool
}

// NewHub creates a new Hub. metrics may be nil.
func NewHub(logger *slog.Logger, metrics *infrastructure.DashboardMetrics, opts Options) *Hub {
	clientLogger := infrastructure.WithComponent(logger, "websocket.client")
	logger = infrastructure.WithComponent(logger, "websocket.hub")
	return &Hub{
		clientLogger: clientLogger,
		broadcast:    make(chan []byte),
		register:     make(chan *Client),
		unregister:   make(chan *Client),
		clients:      make(map[*Client]bool),
		logger:       logger,
		metrics:      metrics,
		problems:     apperrors.NewErrorHandler(logger, false),
		opts:         opts.withDefaults(),
		quit:         make(chan struct{}),
	}
}

// SetRequestHandler wires the view service that answers view:request
func (h *Hub) SetRequestHandler(handler RequestHandler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handler = handler
}

func (h *Hub) requestHandler() RequestHandler {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.handler
}

// Start runs the hub loop in the background
func (h *Hub) Start() {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return
	}
	h.running = true
	h.mu.Unlock()

	go h.Run()
}

// Run is the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case <-h.quit:
			h.logger.Info("Hub shutting down")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mu.Unlock()
			h.totalConnections.Add(1)

			ctx := client.context()
			h.metrics.RecordWebSocketConnection(ctx, 1)
			h.logger.InfoContext(ctx, "Client registered",
				slog.Int("total_clients", count),
				slog.String("client_id", client.id),
				slog.String("remote_addr", client.remoteAddr))

			loaded := false
			if handler := h.requestHandler(); handler != nil {
				loaded = handler.DatasetsLoaded()
			}
			client.sendMessage(events.MessageTypeConnection, events.ConnectionData{
				Status:   "connected",
				Message:  "Connected to Zillow data dashboard",
				ClientID: client.id,
				Loaded:   loaded,
			})

		case client := <-h.unregister:
			h.mu.Lock()
			_, ok := h.clients[client]
			if ok {
				delete(h.clients, client)
			}
			count := len(h.clients)
			h.mu.Unlock()
			if !ok {
				continue
			}
			client.closeSend()

			ctx := client.context()
			h.metrics.RecordWebSocketConnection(ctx, -1)
			h.logger.InfoContext(ctx, "Client unregistered",
				slog.Int("total_clients", count),
				slog.String("client_id", client.id),
				slog.Duration("connection_duration", time.Since(client.connectedAt)))

		case message := <-h.broadcast:
			h.mu.RLock()
			clients := make([]*Client, 0, len(h.clients))
			for client := range h.clients {
				clients = append(clients, client)
			}
			h.mu.RUnlock()

			failCount := 0
			for _, client := range clients {
				if client.enqueue(message) {
					h.messagesSent.Add(1)
					continue
				}
				failCount++
				h.mu.Lock()
				delete(h.clients, client)
				h.mu.Unlock()
				client.closeSend()
				h.metrics.RecordWebSocketConnection(client.context(), -1)
				h.logger.Warn("Client send buffer full, disconnecting",
					slog.String("client_id", client.id))
			}

			h.logger.Debug("Broadcast message to clients",
				slog.Int("client_count", len(clients)),
				slog.Int("fail_count", failCount),
				slog.Int("message_size", len(message)))
		}
	}
}

// Broadcast sends a typed message to every connected client. It returns
// without sending once the hub has stopped.
func (h *Hub) Broadcast(messageType events.MessageType, data interface{}) {
	payload, err := json.Marshal(events.NewMessage(messageType, data))
	if err != nil {
		h.logger.Error("Error marshaling broadcast message",
			slog.String("error", err.Error()),
			slog.String("message_type", string(messageType)))
		return
	}

	select {
	case h.broadcast <- payload:
		h.metrics.RecordWebSocketMessage(context.Background(), string(messageType))
	case <-h.quit:
	}
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.quit:
		client.closeSend()
	}
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.quit:
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Stop ends the loop, closes every client and waits for their in-flight
// view requests to return.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.quit)

		h.mu.Lock()
		h.running = false
		clients := make([]*Client, 0, len(h.clients))
		for client := range h.clients {
			clients = append(clients, client)
			delete(h.clients, client)
		}
		h.mu.Unlock()

		for _, client := range clients {
			client.closeSend()
		}
		for _, client := range clients {
			client.requests.Wait()
		}
		h.logger.Info("Hub stopped", slog.Int("closed_clients", len(clients)))
	})
}

// GetHubMetrics returns current hub counters
func (h *Hub) GetHubMetrics() map[string]interface{} {
	return map[string]interface{}{
		"active_clients":    h.ClientCount(),
		"total_connections": h.totalConnections.Load(),
		"messages_sent":     h.messagesSent.Load(),
		"messages_received": h.messagesReceived.Load(),
	}
}
