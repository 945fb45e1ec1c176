package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/channel-sync-manager/backend/internal/storage/models"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := NewDB(filepath.Join(t.TempDir(), "storage-test.db"))
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := RunMigrations(db); err != nil {
		t.Fatalf("running migrations: %v", err)
	}
	return db
}

func createTestUnit(t *testing.T, db *DB) *models.Unit {
	t.Helper()

	unit := &models.Unit{Name: "Test Unit"}
	if err := NewUnitRepository(db).Create(context.Background(), unit); err != nil {
		t.Fatalf("creating unit: %v", err)
	}
	return unit
}

func TestConnectionCreateDefaults(t *testing.T) {
	db := newTestDB(t)
	unit := createTestUnit(t, db)
	repo := NewConnectionRepository(db)
	ctx := context.Background()

	conn := &models.Connection{
		UnitID:               unit.ID,
		Platform:             "vrbo",
		FeedURL:              "https://vrbo.com/feed.ics",
		SyncFrequencyMinutes: 30,
		Status:               "bogus", // Create must override
		ErrorCount:           99,
	}
	if err := repo.Create(ctx, conn); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if conn.ID == "" {
		t.Fatal("Create did not assign an ID")
	}

	loaded, err := repo.GetByID(ctx, conn.ID)
	if err != nil || loaded == nil {
		t.Fatalf("GetByID: %v", err)
	}
	if loaded.Status != models.ConnectionStatusActive || loaded.ErrorCount != 0 {
		t.Errorf("new connection status=%s errors=%d, want active/0", loaded.Status, loaded.ErrorCount)
	}
}

func TestConnectionHealthRoundTrip(t *testing.T) {
	db := newTestDB(t)
	unit := createTestUnit(t, db)
	repo := NewConnectionRepository(db)
	ctx := context.Background()

	conn := &models.Connection{
		UnitID:               unit.ID,
		Platform:             "airbnb",
		FeedURL:              "https://airbnb.com/feed.ics",
		SyncFrequencyMinutes: 60,
	}
	if err := repo.Create(ctx, conn); err != nil {
		t.Fatalf("Create: %v", err)
	}

	lastErr := "fetch timeout"
	now := time.Now().UTC().Truncate(time.Second)
	next := now.Add(time.Hour)
	conn.Status = models.ConnectionStatusError
	conn.ErrorCount = 5
	conn.LastError = &lastErr
	conn.LastSyncAt = &now
	conn.NextSyncAt = &next

	if err := repo.UpdateHealth(ctx, conn); err != nil {
		t.Fatalf("UpdateHealth: %v", err)
	}

	loaded, _ := repo.GetByID(ctx, conn.ID)
	if loaded.Status != models.ConnectionStatusError || loaded.ErrorCount != 5 {
		t.Errorf("status=%s errors=%d, want error/5", loaded.Status, loaded.ErrorCount)
	}
	if loaded.LastError == nil || *loaded.LastError != lastErr {
		t.Errorf("last error = %v", loaded.LastError)
	}
	if loaded.LastSyncAt == nil || !loaded.LastSyncAt.Equal(now) {
		t.Errorf("last sync at = %v, want %v", loaded.LastSyncAt, now)
	}

	// Paused connections drop out of the schedulable set.
	active, err := repo.ListActive(ctx)
	if err != nil {
		t.Fatalf("ListActive: %v", err)
	}
	if len(active) != 0 {
		t.Errorf("paused connection still listed as active")
	}

	if err := repo.Reactivate(ctx, conn.ID); err != nil {
		t.Fatalf("Reactivate: %v", err)
	}

	loaded, _ = repo.GetByID(ctx, conn.ID)
	if loaded.Status != models.ConnectionStatusActive || loaded.ErrorCount != 0 || loaded.LastError != nil {
		t.Errorf("after reactivate: status=%s errors=%d lastErr=%v", loaded.Status, loaded.ErrorCount, loaded.LastError)
	}
}

func TestConflictResolveIsOneShot(t *testing.T) {
	db := newTestDB(t)
	unit := createTestUnit(t, db)
	repo := NewConflictRepository(db)
	ctx := context.Background()

	c := &models.Conflict{
		UnitID:          unit.ID,
		ConnectionID:    "conn-1",
		ConflictType:    models.ConflictTypeDoubleBooking,
		Severity:        models.ConflictSeverityHigh,
		RemoteBookingID: "booking-1@airbnb.com",
		ConflictData:    "{}",
	}
	if err := repo.Create(ctx, c); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := repo.Resolve(ctx, c.ID); err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	loaded, _ := repo.GetByID(ctx, c.ID)
	if loaded.Status != models.ConflictStatusResolved || loaded.ResolvedAt == nil {
		t.Errorf("conflict not resolved: %+v", loaded)
	}

	if err := repo.Resolve(ctx, c.ID); err == nil {
		t.Error("resolving twice should fail")
	}

	unresolved, _ := repo.CountUnresolved(ctx)
	if unresolved != 0 {
		t.Errorf("unresolved count = %d, want 0", unresolved)
	}
}

func TestFindOverlappingHalfOpenSemantics(t *testing.T) {
	db := newTestDB(t)
	unit := createTestUnit(t, db)
	repo := NewReservationRepository(db)
	ctx := context.Background()

	day := func(d int) time.Time {
		return time.Date(2026, 9, d, 0, 0, 0, 0, time.UTC)
	}

	res := &models.Reservation{
		UnitID:   unit.ID,
		CheckIn:  day(10),
		CheckOut: day(15),
		Status:   models.ReservationStatusConfirmed,
		Channel:  "direct",
	}
	if err := repo.Create(ctx, res); err != nil {
		t.Fatalf("Create: %v", err)
	}

	overlapping, err := repo.FindOverlapping(ctx, unit.ID, day(12), day(18), "")
	if err != nil {
		t.Fatalf("FindOverlapping: %v", err)
	}
	if len(overlapping) != 1 {
		t.Errorf("partial overlap: got %d, want 1", len(overlapping))
	}

	touching, err := repo.FindOverlapping(ctx, unit.ID, day(15), day(20), "")
	if err != nil {
		t.Fatalf("FindOverlapping: %v", err)
	}
	if len(touching) != 0 {
		t.Errorf("touching ranges: got %d, want 0", len(touching))
	}

	excluded, err := repo.FindOverlapping(ctx, unit.ID, day(12), day(18), res.ID)
	if err != nil {
		t.Fatalf("FindOverlapping: %v", err)
	}
	if len(excluded) != 0 {
		t.Errorf("excluded reservation still returned")
	}
}
