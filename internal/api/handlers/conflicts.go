package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/channel-sync-manager/backend/internal/api/middleware"
	"github.com/channel-sync-manager/backend/internal/storage"
	"github.com/channel-sync-manager/backend/internal/storage/models"
)

// ListConflicts returns booking conflicts, optionally filtered by the
// "status" query parameter (unresolved or resolved).
func ListConflicts(repo *storage.ConflictRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := r.URL.Query().Get("status")
		if status != "" && status != models.ConflictStatusUnresolved && status != models.ConflictStatusResolved {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "status must be unresolved or resolved")
			return
		}

		conflicts, err := repo.List(r.Context(), status)
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query conflicts")
			return
		}

		if conflicts == nil {
			conflicts = []models.Conflict{}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(conflicts)
	}
}

// GetConflict returns a single conflict by ID.
func GetConflict(repo *storage.ConflictRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := repo.GetByID(r.Context(), mux.Vars(r)["id"])
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query conflict")
			return
		}
		if c == nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Conflict not found")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(c)
	}
}

// ResolveConflict marks an unresolved conflict as resolved.
func ResolveConflict(repo *storage.ConflictRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]

		existing, err := repo.GetByID(r.Context(), id)
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query conflict")
			return
		}
		if existing == nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Conflict not found")
			return
		}
		if existing.Status == models.ConflictStatusResolved {
			middleware.WriteError(w, http.StatusConflict, middleware.ErrConflict, "Conflict is already resolved")
			return
		}

		if err := repo.Resolve(r.Context(), id); err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to resolve conflict")
			return
		}

		resolved, err := repo.GetByID(r.Context(), id)
		if err != nil || resolved == nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resolved)
	}
}
