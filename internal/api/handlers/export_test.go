package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"github.com/channel-sync-manager/backend/internal/storage"
	"github.com/channel-sync-manager/backend/internal/storage/models"
)

func setupExportTest(t *testing.T) (*storage.UnitRepository, *storage.ReservationRepository, *models.Unit) {
	t.Helper()

	db, err := storage.NewDB(filepath.Join(t.TempDir(), "export-test.db"))
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := storage.RunMigrations(db); err != nil {
		t.Fatalf("running migrations: %v", err)
	}

	units := storage.NewUnitRepository(db)
	reservations := storage.NewReservationRepository(db)

	unit := &models.Unit{Name: "Seaside Cottage #2"}
	if err := units.Create(context.Background(), unit); err != nil {
		t.Fatalf("creating unit: %v", err)
	}

	return units, reservations, unit
}

func exportRequest(t *testing.T, units *storage.UnitRepository, reservations *storage.ReservationRepository, unitID string) *httptest.ResponseRecorder {
	t.Helper()

	router := mux.NewRouter()
	router.HandleFunc("/api/units/{id}/calendar.ics", ExportUnitCalendar(units, reservations, ""))

	req := httptest.NewRequest(http.MethodGet, "/api/units/"+unitID+"/calendar.ics", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestExportUnitCalendarHeaders(t *testing.T) {
	units, reservations, unit := setupExportTest(t)

	rec := exportRequest(t, units, reservations, unit.ID)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "text/calendar; charset=utf-8" {
		t.Errorf("Content-Type = %q", got)
	}
	if got := rec.Header().Get("Content-Disposition"); got != `inline; filename="seaside-cottage-2.ics"` {
		t.Errorf("Content-Disposition = %q", got)
	}
	if got := rec.Header().Get("Cache-Control"); got != "public, max-age=3600" {
		t.Errorf("Cache-Control = %q", got)
	}
	if !strings.Contains(rec.Body.String(), "BEGIN:VCALENDAR") {
		t.Error("body is not a calendar document")
	}
}

func TestExportUnitCalendarIncludesActiveOmitsCancelled(t *testing.T) {
	units, reservations, unit := setupExportTest(t)
	ctx := context.Background()

	checkIn := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)
	active := &models.Reservation{
		UnitID:    unit.ID,
		CheckIn:   checkIn,
		CheckOut:  checkIn.AddDate(0, 0, 4),
		Status:    models.ReservationStatusConfirmed,
		GuestName: "Alice",
		Channel:   "direct",
	}
	cancelled := &models.Reservation{
		UnitID:    unit.ID,
		CheckIn:   checkIn.AddDate(0, 0, 10),
		CheckOut:  checkIn.AddDate(0, 0, 14),
		Status:    models.ReservationStatusCancelled,
		GuestName: "Bob",
		Channel:   "direct",
	}
	for _, res := range []*models.Reservation{active, cancelled} {
		if err := reservations.Create(ctx, res); err != nil {
			t.Fatalf("creating reservation: %v", err)
		}
	}

	body := exportRequest(t, units, reservations, unit.ID).Body.String()

	if !strings.Contains(body, "Alice") {
		t.Error("active reservation missing from export")
	}
	if strings.Contains(body, "Bob") {
		t.Error("cancelled reservation leaked into export")
	}
}

func TestExportUnitCalendarUnknownUnit(t *testing.T) {
	units, reservations, _ := setupExportTest(t)

	rec := exportRequest(t, units, reservations, "no-such-unit")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
