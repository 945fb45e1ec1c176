package websocket

import (
	"log"

	"github.com/channel-sync-manager/backend/internal/storage/models"
)

// EventBroadcaster translates sync engine outcomes into WebSocket events.
type EventBroadcaster struct {
	hub *Hub
}

// NewEventBroadcaster creates a new event broadcaster.
func NewEventBroadcaster(hub *Hub) *EventBroadcaster {
	return &EventBroadcaster{hub: hub}
}

// BroadcastSyncCompleted sends a sync.completed event.
func (b *EventBroadcaster) BroadcastSyncCompleted(result *models.SyncResult) {
	payload := SyncCompletedPayload{
		ConnectionID:    result.ConnectionID,
		SyncRunID:       result.SyncRunID,
		EventsProcessed: result.EventsProcessed,
		ItemsCreated:    result.ItemsCreated,
		ItemsUpdated:    result.ItemsUpdated,
		ItemsFailed:     result.ItemsFailed,
		Conflicts:       len(result.Conflicts),
	}

	b.broadcast(NewMessage(TypeSyncCompleted, payload))
}

// BroadcastSyncError sends a sync.error event.
func (b *EventBroadcaster) BroadcastSyncError(connectionID string, err error) {
	payload := SyncErrorPayload{
		ConnectionID: connectionID,
		Message:      err.Error(),
	}

	b.broadcast(NewMessage(TypeSyncError, payload))
}

// BroadcastConflictDetected sends a conflict.detected event.
func (b *EventBroadcaster) BroadcastConflictDetected(c *models.Conflict) {
	payload := ConflictDetectedPayload{
		ConflictID:      c.ID,
		UnitID:          c.UnitID,
		ConnectionID:    c.ConnectionID,
		ConflictType:    c.ConflictType,
		RemoteBookingID: c.RemoteBookingID,
	}

	b.broadcast(NewMessage(TypeConflictDetected, payload))
}

// BroadcastConnectionPaused sends a connection.paused event after an
// auto-pause.
func (b *EventBroadcaster) BroadcastConnectionPaused(conn *models.Connection) {
	payload := ConnectionPausedPayload{
		ConnectionID: conn.ID,
		Platform:     conn.Platform,
		ErrorCount:   conn.ErrorCount,
	}
	if conn.LastError != nil {
		payload.LastError = *conn.LastError
	}

	b.broadcast(NewMessage(TypeConnectionPaused, payload))
}

// BroadcastNotification sends a notification event.
func (b *EventBroadcaster) BroadcastNotification(level, title, message string) {
	b.broadcast(NewMessage(TypeNotification, NotificationPayload{
		Level:   level,
		Title:   title,
		Message: message,
	}))
}

func (b *EventBroadcaster) broadcast(msg Message) {
	data, err := msg.JSON()
	if err != nil {
		log.Printf("Error encoding WebSocket message: %v", err)
		return
	}

	b.hub.Broadcast(data)
}
