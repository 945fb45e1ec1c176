package websocket

import (
	"encoding/json"
	"time"
)

// MessageType identifies the type of WebSocket message.
type MessageType string

const (
	// Server -> Client event types
	TypeSyncCompleted    MessageType = "sync.completed"
	TypeSyncError        MessageType = "sync.error"
	TypeConflictDetected MessageType = "conflict.detected"
	TypeConnectionPaused MessageType = "connection.paused"
	TypeNotification     MessageType = "notification"
)

// Message is the WebSocket message envelope.
type Message struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   any         `json:"payload"`
}

// NewMessage creates a message stamped with the current time.
func NewMessage(msgType MessageType, payload any) Message {
	return Message{
		Type:      msgType,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// JSON serializes the message to JSON bytes.
func (m Message) JSON() ([]byte, error) {
	return json.Marshal(m)
}

// SyncCompletedPayload is the payload for sync.completed events.
type SyncCompletedPayload struct {
	ConnectionID    string `json:"connection_id"`
	SyncRunID       string `json:"sync_run_id"`
	EventsProcessed int    `json:"events_processed"`
	ItemsCreated    int    `json:"items_created"`
	ItemsUpdated    int    `json:"items_updated"`
	ItemsFailed     int    `json:"items_failed"`
	Conflicts       int    `json:"conflicts"`
}

// SyncErrorPayload is the payload for sync.error events.
type SyncErrorPayload struct {
	ConnectionID string `json:"connection_id"`
	Message      string `json:"message"`
}

// ConflictDetectedPayload is the payload for conflict.detected events.
type ConflictDetectedPayload struct {
	ConflictID      string `json:"conflict_id"`
	UnitID          string `json:"unit_id"`
	ConnectionID    string `json:"connection_id"`
	ConflictType    string `json:"conflict_type"`
	RemoteBookingID string `json:"remote_booking_id"`
}

// ConnectionPausedPayload is the payload for connection.paused events.
type ConnectionPausedPayload struct {
	ConnectionID string `json:"connection_id"`
	Platform     string `json:"platform"`
	ErrorCount   int    `json:"error_count"`
	LastError    string `json:"last_error,omitempty"`
}

// NotificationPayload is the payload for notification events.
type NotificationPayload struct {
	Level   string `json:"level"` // info, warning, error, success
	Title   string `json:"title"`
	Message string `json:"message"`
}
