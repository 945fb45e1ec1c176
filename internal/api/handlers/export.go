package handlers

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gosimple/slug"

	"github.com/channel-sync-manager/backend/internal/api/middleware"
	"github.com/channel-sync-manager/backend/internal/ical"
	"github.com/channel-sync-manager/backend/internal/storage"
)

// ExportUnitCalendar serves a unit's availability as an iCalendar feed so
// OTA platforms can subscribe to it. Cancelled reservations are excluded;
// blocked dates appear as "Not available" events.
func ExportUnitCalendar(units *storage.UnitRepository, reservations *storage.ReservationRepository, baseURL string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		unitID := mux.Vars(r)["id"]

		unit, err := units.GetByID(r.Context(), unitID)
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query unit")
			return
		}
		if unit == nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Unit not found")
			return
		}

		active, err := reservations.ListActiveByUnit(r.Context(), unitID)
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query reservations")
			return
		}

		blocks, err := units.ListBlockedDates(r.Context(), unitID)
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query blocked dates")
			return
		}

		feed := ical.Generate(unit.ID, unit.Name, active, blocks, baseURL)

		filename := slug.Make(unit.Name)
		if filename == "" {
			filename = unit.ID
		}

		w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", filename+".ics"))
		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Write([]byte(feed))
	}
}
