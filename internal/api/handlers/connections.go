package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/channel-sync-manager/backend/internal/api/middleware"
	"github.com/channel-sync-manager/backend/internal/storage"
	"github.com/channel-sync-manager/backend/internal/storage/models"
	"github.com/channel-sync-manager/backend/internal/sync"
)

// ConnectionRequest is the create/update payload for a connection.
type ConnectionRequest struct {
	UnitID               string `json:"unit_id"`
	Platform             string `json:"platform"`
	FeedURL              string `json:"feed_url"`
	SyncFrequencyMinutes int    `json:"sync_frequency_minutes"`
}

// ListConnections returns all configured connections.
func ListConnections(repo *storage.ConnectionRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		connections, err := repo.List(r.Context())
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query connections")
			return
		}

		if connections == nil {
			connections = []models.Connection{}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(connections)
	}
}

// CreateConnection adds a new connection and schedules it.
func CreateConnection(repo *storage.ConnectionRepository, scheduler *sync.Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ConnectionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}

		if req.UnitID == "" || req.Platform == "" || req.FeedURL == "" {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "unit_id, platform and feed_url are required")
			return
		}
		if err := sync.ValidateFeedURL(req.FeedURL); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, err.Error())
			return
		}
		if req.SyncFrequencyMinutes < 5 {
			req.SyncFrequencyMinutes = 60
		}

		conn := &models.Connection{
			UnitID:               req.UnitID,
			Platform:             req.Platform,
			FeedURL:              req.FeedURL,
			SyncFrequencyMinutes: req.SyncFrequencyMinutes,
		}

		if err := repo.Create(r.Context(), conn); err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to create connection")
			return
		}

		if scheduler != nil {
			scheduler.ScheduleConnection(*conn)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(conn)
	}
}

// GetConnection returns a single connection by ID.
func GetConnection(repo *storage.ConnectionRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := repo.GetByID(r.Context(), mux.Vars(r)["id"])
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query connection")
			return
		}
		if conn == nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Connection not found")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(conn)
	}
}

// UpdateConnection updates a connection's configuration and reschedules it.
func UpdateConnection(repo *storage.ConnectionRepository, scheduler *sync.Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]

		var req ConnectionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}
		if req.FeedURL != "" {
			if err := sync.ValidateFeedURL(req.FeedURL); err != nil {
				middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, err.Error())
				return
			}
		}

		conn, err := repo.GetByID(r.Context(), id)
		if err != nil || conn == nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Connection not found")
			return
		}

		if req.Platform != "" {
			conn.Platform = req.Platform
		}
		if req.FeedURL != "" {
			conn.FeedURL = req.FeedURL
		}
		if req.SyncFrequencyMinutes >= 5 {
			conn.SyncFrequencyMinutes = req.SyncFrequencyMinutes
		}

		if err := repo.Update(r.Context(), conn); err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to update connection")
			return
		}

		if scheduler != nil {
			scheduler.ScheduleConnection(*conn)
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// DeleteConnection removes a connection and unschedules it.
func DeleteConnection(repo *storage.ConnectionRepository, scheduler *sync.Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]

		if err := repo.Delete(r.Context(), id); err != nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Connection not found")
			return
		}

		if scheduler != nil {
			scheduler.UnscheduleConnection(id)
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// TriggerConnectionSync starts a manual sync in the background and returns
// immediately.
func TriggerConnectionSync(repo *storage.ConnectionRepository, scheduler *sync.Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]

		conn, err := repo.GetByID(r.Context(), id)
		if err != nil || conn == nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Connection not found")
			return
		}
		if !conn.IsActive() {
			middleware.WriteError(w, http.StatusConflict, middleware.ErrConflict, "Connection is paused; reactivate it first")
			return
		}

		scheduler.TriggerSync(id)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(map[string]string{"status": "syncing"})
	}
}

// ReactivateConnection resets a paused connection to active and
// reschedules it.
func ReactivateConnection(repo *storage.ConnectionRepository, scheduler *sync.Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]

		if err := repo.Reactivate(r.Context(), id); err != nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Connection not found")
			return
		}

		conn, err := repo.GetByID(r.Context(), id)
		if err == nil && conn != nil && scheduler != nil {
			scheduler.ScheduleConnection(*conn)
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// ListConnectionRuns returns the sync run history for a connection, newest
// first.
func ListConnectionRuns(connections *storage.ConnectionRepository, runs *storage.SyncRunRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]

		conn, err := connections.GetByID(r.Context(), id)
		if err != nil || conn == nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Connection not found")
			return
		}

		history, err := runs.ListByConnection(r.Context(), id, 50)
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query sync runs")
			return
		}
		if history == nil {
			history = []models.SyncRun{}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(history)
	}
}
