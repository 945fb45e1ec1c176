// Package handlers provides HTTP request handlers for the API endpoints.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/channel-sync-manager/backend/internal/storage"
	"github.com/channel-sync-manager/backend/internal/websocket"
)

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status      string `json:"status"`
	DBConnected bool   `json:"db_connected"`
}

// HealthCheck returns a handler that performs a health check.
func HealthCheck(db *storage.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dbConnected := db.Ping() == nil

		status := "healthy"
		if !dbConnected {
			status = "degraded"
		}

		response := HealthResponse{
			Status:      status,
			DBConnected: dbConnected,
		}

		w.Header().Set("Content-Type", "application/json")
		if status != "healthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(response)
	}
}

// StatusResponse represents the system status response.
type StatusResponse struct {
	ConnectionsCount    int    `json:"connections_count"`
	ActiveConnections   int    `json:"active_connections"`
	PausedConnections   int    `json:"paused_connections"`
	SyncedReservations  int    `json:"synced_reservations"`
	UnresolvedConflicts int    `json:"unresolved_conflicts"`
	LastRunAt           string `json:"last_run_at,omitempty"`
	WebSocketClients    int    `json:"websocket_clients"`
}

// Status returns a handler that provides sync engine status information.
func Status(db *storage.DB, hub *websocket.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var connectionsCount int
		db.QueryRowContext(ctx, "SELECT COUNT(*) FROM connections").Scan(&connectionsCount)

		var activeConnections int
		db.QueryRowContext(ctx, "SELECT COUNT(*) FROM connections WHERE status = 'active'").Scan(&activeConnections)

		var syncedReservations int
		db.QueryRowContext(ctx, "SELECT COUNT(*) FROM reservations WHERE sync_status = 'synced'").Scan(&syncedReservations)

		var unresolvedConflicts int
		db.QueryRowContext(ctx, "SELECT COUNT(*) FROM conflicts WHERE status = 'unresolved'").Scan(&unresolvedConflicts)

		var lastRunAt string
		db.QueryRowContext(ctx, "SELECT COALESCE(MAX(started_at), '') FROM sync_runs").Scan(&lastRunAt)

		response := StatusResponse{
			ConnectionsCount:    connectionsCount,
			ActiveConnections:   activeConnections,
			PausedConnections:   connectionsCount - activeConnections,
			SyncedReservations:  syncedReservations,
			UnresolvedConflicts: unresolvedConflicts,
			LastRunAt:           lastRunAt,
			WebSocketClients:    hub.ClientCount(),
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	}
}
