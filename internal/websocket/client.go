package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	apperrors "github.com/wdpkr/zillowdata/internal/errors"
	"github.com/wdpkr/zillowdata/internal/infrastructure"
	"github.com/wdpkr/zillowdata/pkg/contracts/events"
)

// Client is a middleman between the websocket connection and the hub
type Client struct {
	hub  *Hub
	conn Connection

	// Buffered channel of outbound messages, closed once by closeSend
	send   chan []byte
	sendMu sync.Mutex
	closed bool

	id          string
	traceID     string
	remoteAddr  string
	connectedAt time.Time

	ctx    context.Context
	cancel context.CancelFunc

	// in-flight view requests; Add only while !closed, under sendMu
	requests sync.WaitGroup

	logger *slog.Logger

	messagesSent     int64
	messagesReceived int64
	bytesSent        int64
	bytesReceived    int64
}

// NewClient creates a client for conn. traceID links the session to the
// upgrade request and may be empty.
func NewClient(hub *Hub, conn Connection, traceID string) *Client {
	if traceID == "" {
		traceID = infrastructure.GenerateTraceID()
	}
	id := uuid.New().String()
	ctx, cancel := context.WithCancel(infrastructure.WithTraceID(context.Background(), traceID))

	return &Client{
		hub:         hub,
		conn:        conn,
		send:        make(chan []byte, hub.opts.SendBuffer),
		id:          id,
		traceID:     traceID,
		remoteAddr:  conn.RemoteAddr(),
		connectedAt: time.Now(),
		ctx:         ctx,
		cancel:      cancel,
		logger: hub.clientLogger.With(
			slog.String("client_id", id),
			slog.String("trace_id", traceID),
		),
	}
}

// ID returns the session identifier
func (c *Client) ID() string { return c.id }

func (c *Client) context() context.Context { return c.ctx }

// enqueue queues msg without blocking. It reports false when the client is
// closed or its buffer is full.
func (c *Client) enqueue(msg []byte) bool {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// startRequest reserves a slot for one view request. It reports false once
// the client is closed.
func (c *Client) startRequest() bool {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.closed {
		return false
	}
	c.requests.Add(1)
	return true
}

// closeSend closes the outbound channel and cancels in-flight requests
func (c *Client) closeSend() {
	c.sendMu.Lock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
	c.sendMu.Unlock()
	c.cancel()
}

func (c *Client) sendMessage(t events.MessageType, data interface{}) {
	msg := events.NewMessage(t, data)
	msg.TraceID = c.traceID
	payload, err := json.Marshal(msg)
	if err != nil {
		c.logger.Error("Error marshaling message",
			slog.String("message_type", string(t)),
			slog.String("error", err.Error()))
		return
	}
	if !c.enqueue(payload) {
		c.logger.Warn("Dropped message for closed or full client",
			slog.String("message_type", string(t)))
		return
	}
	c.hub.metrics.RecordWebSocketMessage(c.ctx, string(t))
}

// ReadPump pumps messages from the websocket connection to the hub
func (c *Client) ReadPump() {
	defer func() {
		c.logger.InfoContext(c.ctx, "WebSocket client disconnected (readPump)",
			slog.Duration("connection_duration", time.Since(c.connectedAt)),
			slog.Int64("messages_received", c.messagesReceived),
			slog.Int64("bytes_received", c.bytesReceived))
		c.hub.Unregister(c)
		c.cancel()
		c.conn.Close()
	}()

	opts := c.hub.opts
	c.conn.SetReadLimit(opts.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(opts.PongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(opts.PongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.ErrorContext(c.ctx, "Unexpected WebSocket close error",
					slog.String("error", err.Error()))
			}
			return
		}
		c.messagesReceived++
		c.bytesReceived += int64(len(message))
		c.hub.messagesReceived.Add(1)
		c.handleMessage(message)
	}
}

// handleMessage dispatches one client frame
func (c *Client) handleMessage(raw []byte) {
	var msg events.ClientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.sendMessage(events.MessageTypeError, events.ErrorData{
			Code:    events.ErrCodeInvalidFrame,
			Message: "message is not valid JSON",
		})
		return
	}
	c.hub.metrics.RecordWebSocketMessage(c.ctx, string(msg.Type))

	switch msg.Type {
	case events.MessageTypePing:
		c.sendMessage(events.MessageTypePong, map[string]string{"request_id": msg.RequestID})

	case events.MessageTypeViewRequest:
		if !c.startRequest() {
			c.logger.DebugContext(c.ctx, "Dropped view request for closed client",
				slog.String("view", msg.View),
				slog.String("request_id", msg.RequestID))
			return
		}
		go func() {
			defer c.requests.Done()
			c.handleViewRequest(msg)
		}()

	default:
		c.sendMessage(events.MessageTypeError, events.ErrorData{
			Code:    events.ErrCodeUnsupportedType,
			Message: "unsupported message type " + string(msg.Type),
		})
	}
}

// handleViewRequest computes a view and replies to this client only
func (c *Client) handleViewRequest(msg events.ClientMessage) {
	start := time.Now()
	handler := c.hub.requestHandler()

	var (
		result interface{}
		err    error
	)
	if handler == nil {
		err = apperrors.ErrServiceUnavailable
	} else {
		result, err = handler.HandleViewRequest(c.ctx, msg.View, msg.Params)
	}

	if err != nil {
		problem := c.hub.problems.ErrorToProblem(err, "/ws/views/"+msg.View)
		problem.WithExtension("trace_id", c.traceID)
		c.logger.WarnContext(c.ctx, "View request failed",
			slog.String("view", msg.View),
			slog.String("request_id", msg.RequestID),
			slog.Int("status", problem.Status),
			slog.String("error", err.Error()))
		c.sendMessage(events.MessageTypeViewError, events.ViewError{
			RequestID: msg.RequestID,
			View:      msg.View,
			Problem:   problem,
		})
		return
	}

	c.logger.DebugContext(c.ctx, "View request served",
		slog.String("view", msg.View),
		slog.String("request_id", msg.RequestID),
		slog.Duration("duration", time.Since(start)))
	c.sendMessage(events.MessageTypeViewResult, events.ViewResult{
		RequestID: msg.RequestID,
		View:      msg.View,
		Result:    result,
	})
}

// WritePump pumps messages from the hub to the websocket connection
func (c *Client) WritePump() {
	opts := c.hub.opts
	ticker := time.NewTicker(opts.PingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		c.logger.InfoContext(c.ctx, "WebSocket write pump stopped",
			slog.Int64("messages_sent", c.messagesSent),
			slog.Int64("bytes_sent", c.bytesSent))
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(opts.WriteWait))
			if !ok {
				// The hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger.ErrorContext(c.ctx, "Error writing message to WebSocket",
					slog.String("error", err.Error()))
				return
			}
			c.messagesSent++
			c.bytesSent += int64(len(message))

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(opts.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.DebugContext(c.ctx, "Failed to send ping message",
					slog.String("error", err.Error()))
				return
			}
		}
	}
}

// ServeWS registers a session for an upgraded connection and starts its pumps
func ServeWS(hub *Hub, conn Connection, traceID string) *Client {
	client := NewClient(hub, conn, traceID)
	hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
	return client
}
