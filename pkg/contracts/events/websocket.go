// Package events contains the WebSocket message contracts shared by the
// dashboard server and its browser client.
package events

import (
	"encoding/json"
	"time"
)

// MessageType defines the type of WebSocket message
type MessageType string

const (
	// Client to server
	MessageTypeViewRequest MessageType = "view:request"
	MessageTypePing        MessageType = "ping"

	// Server to client
	MessageTypeConnection     MessageType = "connection"
	MessageTypeViewResult     MessageType = "view:result"
	MessageTypeViewError      MessageType = "view:error"
	MessageTypePong           MessageType = "pong"
	MessageTypeDatasetsLoaded MessageType = "datasets:loaded"
	MessageTypeError          MessageType = "error"
)

// BaseMessage represents the base structure for all WebSocket messages
type BaseMessage struct {
	ID        string      `json:"id,omitempty"`
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	TraceID   string      `json:"trace_id,omitempty"`
}

// WebSocketMessage represents a complete server message
type WebSocketMessage struct {
	BaseMessage
	Data interface{} `json:"data,omitempty"`
}

// NewMessage stamps a server message
func NewMessage(t MessageType, data interface{}) WebSocketMessage {
	return WebSocketMessage{
		BaseMessage: BaseMessage{Type: t, Timestamp: time.Now().UTC()},
		Data:        data,
	}
}

// ClientMessage is anything a browser sends. Params stays raw until the
// view is known.
type ClientMessage struct {
	Type      MessageType     `json:"type"`
	RequestID string          `json:"request_id,omitempty"`
	View      string          `json:"view,omitempty"`
	Params    json.RawMessage `json:"params,omitempty"`
}

// ConnectionData greets a newly registered client
type ConnectionData struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	ClientID string `json:"client_id"`
	Loaded   bool   `json:"datasets_loaded"`
}

// ViewResult answers a view:request
type ViewResult struct {
	RequestID string      `json:"request_id,omitempty"`
	View      string      `json:"view"`
	Result    interface{} `json:"result"`
}

// ViewError reports a failed view:request with a problem document
type ViewError struct {
	RequestID string      `json:"request_id,omitempty"`
	View      string      `json:"view"`
	Problem   interface{} `json:"problem"`
}

// DatasetsLoaded is broadcast once the dataset store has loaded
type DatasetsLoaded struct {
	LoadID   string    `json:"load_id"`
	LoadedAt time.Time `json:"loaded_at"`
	Duration string    `json:"duration"`
	Datasets []string  `json:"datasets"`
}

// ErrorData describes a protocol error such as an unreadable message
type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Protocol error codes
const (
	ErrCodeInvalidFrame    = "INVALID_FRAME"
	ErrCodeUnsupportedType = "UNSUPPORTED_TYPE"
	ErrCodeMessageTooLarge = "MESSAGE_TOO_LARGE"
)
