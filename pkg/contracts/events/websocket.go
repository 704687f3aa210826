// Package events defines the WebSocket messages pushed to dashboard clients.
package events

import (
	"time"
)

// MessageType defines the type of WebSocket message
type MessageType string

const (
	// MessageTypeConnection is sent once to each client after it registers
	MessageTypeConnection MessageType = "connection"

	// MessageTypeDatasetReloaded announces a new dataset snapshot
	MessageTypeDatasetReloaded MessageType = "dataset:reloaded"

	// MessageTypeDatasetLoadFailed announces a failed reload; the previous
	// snapshot stays in service
	MessageTypeDatasetLoadFailed MessageType = "dataset:load_failed"

	// MessageTypeHeartbeat is sent by clients to keep the connection alive
	MessageTypeHeartbeat MessageType = "heartbeat"
)

// WebSocketMessage is the envelope of every message sent to clients
type WebSocketMessage struct {
	Type      MessageType `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	TraceID   string      `json:"trace_id,omitempty"`
}

// NewMessage creates a message stamped with the current time
func NewMessage(msgType MessageType, data interface{}) WebSocketMessage {
	return WebSocketMessage{
		Type:      msgType,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}
}

// ConnectionData is the payload of a connection message
type ConnectionData struct {
	Status   string `json:"status"`
	ClientID string `json:"client_id"`
	Message  string `json:"message"`
}

// DatasetReloadedData is the payload of a dataset:reloaded message
type DatasetReloadedData struct {
	Version  int64     `json:"version"`
	Rows     int       `json:"rows"`
	LoadedAt time.Time `json:"loaded_at"`
	Origin   string    `json:"origin"`
}

// DatasetLoadFailedData is the payload of a dataset:load_failed message
type DatasetLoadFailedData struct {
	Error         string `json:"error"`
	ActiveVersion int64  `json:"active_version"`
}
