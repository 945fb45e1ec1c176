// Package api provides HTTP routing and handlers for the REST API.
package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/channel-sync-manager/backend/internal/api/handlers"
	"github.com/channel-sync-manager/backend/internal/api/middleware"
	"github.com/channel-sync-manager/backend/internal/storage"
	"github.com/channel-sync-manager/backend/internal/sync"
	"github.com/channel-sync-manager/backend/internal/websocket"
)

// RouterConfig carries the dependencies the API routes need.
type RouterConfig struct {
	DB        *storage.DB
	Hub       *websocket.Hub
	Scheduler *sync.Scheduler
	StaticDir string

	// BaseURL is the externally reachable address used for links in
	// exported calendar feeds. May be empty.
	BaseURL string
}

// NewRouter creates and configures the HTTP router with all API routes.
func NewRouter(cfg RouterConfig) *mux.Router {
	connections := storage.NewConnectionRepository(cfg.DB)
	reservations := storage.NewReservationRepository(cfg.DB)
	conflicts := storage.NewConflictRepository(cfg.DB)
	runs := storage.NewSyncRunRepository(cfg.DB)
	units := storage.NewUnitRepository(cfg.DB)

	r := mux.NewRouter()

	// Apply global middleware
	r.Use(middleware.Logging)
	r.Use(middleware.ErrorRecovery)

	// API subrouter
	api := r.PathPrefix("/api").Subrouter()

	// Health and status endpoints
	api.HandleFunc("/health", handlers.HealthCheck(cfg.DB)).Methods("GET")
	api.HandleFunc("/status", handlers.Status(cfg.DB, cfg.Hub)).Methods("GET")

	// WebSocket endpoint
	api.HandleFunc("/ws", handlers.WebSocketUpgrade(cfg.Hub)).Methods("GET")

	// Connection endpoints
	api.HandleFunc("/connections", handlers.ListConnections(connections)).Methods("GET")
	api.HandleFunc("/connections", handlers.CreateConnection(connections, cfg.Scheduler)).Methods("POST")
	api.HandleFunc("/connections/{id}", handlers.GetConnection(connections)).Methods("GET")
	api.HandleFunc("/connections/{id}", handlers.UpdateConnection(connections, cfg.Scheduler)).Methods("PUT")
	api.HandleFunc("/connections/{id}", handlers.DeleteConnection(connections, cfg.Scheduler)).Methods("DELETE")
	api.HandleFunc("/connections/{id}/sync", handlers.TriggerConnectionSync(connections, cfg.Scheduler)).Methods("POST")
	api.HandleFunc("/connections/{id}/reactivate", handlers.ReactivateConnection(connections, cfg.Scheduler)).Methods("POST")
	api.HandleFunc("/connections/{id}/runs", handlers.ListConnectionRuns(connections, runs)).Methods("GET")

	// Conflict endpoints
	api.HandleFunc("/conflicts", handlers.ListConflicts(conflicts)).Methods("GET")
	api.HandleFunc("/conflicts/{id}", handlers.GetConflict(conflicts)).Methods("GET")
	api.HandleFunc("/conflicts/{id}/resolve", handlers.ResolveConflict(conflicts)).Methods("POST")

	// Calendar feed export
	api.HandleFunc("/units/{id}/calendar.ics", handlers.ExportUnitCalendar(units, reservations, cfg.BaseURL)).Methods("GET")

	// Serve static frontend files
	if cfg.StaticDir != "" {
		r.PathPrefix("/").Handler(http.FileServer(http.Dir(cfg.StaticDir)))
	}

	return r
}
