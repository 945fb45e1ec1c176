package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/channel-sync-manager/backend/internal/conflict"
	"github.com/channel-sync-manager/backend/internal/ical"
	"github.com/channel-sync-manager/backend/internal/storage"
	"github.com/channel-sync-manager/backend/internal/storage/models"
)

// Orchestrator runs one feed synchronization end to end: fetch, parse,
// reconcile against local reservations, record conflicts, and update the
// connection's health and schedule. It performs no locking; the scheduler
// guarantees at most one concurrent run per connection, and every mutation
// is keyed by external booking ID so a retried run converges to the same
// state.
type Orchestrator struct {
	config       Config
	fetcher      *Fetcher
	detector     *conflict.Detector
	connections  *storage.ConnectionRepository
	reservations *storage.ReservationRepository
	conflicts    *storage.ConflictRepository
	runs         *storage.SyncRunRepository
}

// NewOrchestrator creates an orchestrator over the given repositories.
func NewOrchestrator(
	cfg Config,
	connections *storage.ConnectionRepository,
	reservations *storage.ReservationRepository,
	conflicts *storage.ConflictRepository,
	runs *storage.SyncRunRepository,
	units *storage.UnitRepository,
) *Orchestrator {
	return &Orchestrator{
		config:       cfg,
		fetcher:      NewFetcher(cfg),
		detector:     conflict.NewDetector(reservations.FindOverlapping, units.FindBlockedOverlapping),
		connections:  connections,
		reservations: reservations,
		conflicts:    conflicts,
		runs:         runs,
	}
}

// Run synchronizes one connection. triggeredBy is recorded in the sync run
// log ("scheduler" or "manual").
//
// Runs on missing or non-active connections are refused before any network
// call and leave no sync run record. Fetch and format failures abort the
// run and count against the connection's failure threshold; individual
// event failures are isolated and reported in the result.
func (o *Orchestrator) Run(ctx context.Context, connectionID, triggeredBy string) (*models.SyncResult, error) {
	conn, err := o.connections.GetByID(ctx, connectionID)
	if err != nil {
		return nil, fmt.Errorf("loading connection: %w", err)
	}
	if conn == nil {
		return nil, fmt.Errorf("connection not found: %s", connectionID)
	}
	if !conn.IsActive() {
		return nil, fmt.Errorf("connection %s is %s, not syncing", connectionID, conn.Status)
	}

	run := &models.SyncRun{
		ConnectionID: conn.ID,
		TriggeredBy:  triggeredBy,
	}
	if err := o.runs.Create(ctx, run); err != nil {
		return nil, fmt.Errorf("recording sync run: %w", err)
	}

	result := &models.SyncResult{
		ConnectionID: conn.ID,
		SyncRunID:    run.ID,
		SyncedAt:     time.Now().UTC(),
	}

	raw, err := o.fetcher.Fetch(ctx, conn.FeedURL)
	if err != nil {
		return o.abortRun(ctx, conn, run, result, err)
	}

	events, err := ical.Parse(raw)
	if err != nil {
		return o.abortRun(ctx, conn, run, result, err)
	}

	if len(events) > o.config.MaxEventsPerRun {
		log.Printf("sync: connection %s feed has %d events, capping at %d (rest deferred)",
			conn.ID, len(events), o.config.MaxEventsPerRun)
		events = events[:o.config.MaxEventsPerRun]
	}

	existing, err := o.reservationsByUID(ctx, conn.ID)
	if err != nil {
		return o.abortRun(ctx, conn, run, result, err)
	}

	now := time.Now().UTC()
	seen := make(map[string]bool, len(events))

	for _, event := range events {
		if seen[event.UID] {
			continue
		}
		seen[event.UID] = true
		result.EventsProcessed++

		if err := o.reconcileEvent(ctx, conn, event, existing[event.UID], now, result); err != nil {
			log.Printf("sync: connection %s event %s: %v", conn.ID, event.UID, err)
			result.ItemsFailed++
			result.Errors = append(result.Errors, fmt.Sprintf("event %s: %v", event.UID, err))
		}
	}

	applySuccess(conn, now)
	if err := o.connections.UpdateHealth(ctx, conn); err != nil {
		log.Printf("sync: connection %s: updating health: %v", conn.ID, err)
	}

	run.Status = models.SyncRunStatusSuccess
	if len(result.Errors) > 0 {
		run.Status = models.SyncRunStatusPartialSuccess
	}
	run.EventsProcessed = result.EventsProcessed
	run.ItemsCreated = result.ItemsCreated
	run.ItemsUpdated = result.ItemsUpdated
	run.ItemsFailed = result.ItemsFailed
	if err := o.runs.Finalize(ctx, run); err != nil {
		log.Printf("sync: connection %s: finalizing run: %v", conn.ID, err)
	}

	result.Success = true
	return result, nil
}

// abortRun handles a run-level failure: the sync run is finalized as an
// error and the connection's failure counter advances, pausing it at the
// threshold.
func (o *Orchestrator) abortRun(ctx context.Context, conn *models.Connection, run *models.SyncRun, result *models.SyncResult, cause error) (*models.SyncResult, error) {
	errMsg := cause.Error()

	if paused := applyFailure(conn, errMsg, o.config.MaxErrorCount); paused {
		log.Printf("sync: connection %s auto-paused after %d consecutive failures", conn.ID, conn.ErrorCount)
	}
	if err := o.connections.UpdateHealth(ctx, conn); err != nil {
		log.Printf("sync: connection %s: updating health: %v", conn.ID, err)
	}

	run.Status = models.SyncRunStatusError
	run.ErrorMessage = &errMsg
	if err := o.runs.Finalize(ctx, run); err != nil {
		log.Printf("sync: connection %s: finalizing run: %v", conn.ID, err)
	}

	result.Errors = append(result.Errors, errMsg)
	return result, cause
}

// reservationsByUID builds the per-run index of previously imported
// reservations keyed by external booking ID.
func (o *Orchestrator) reservationsByUID(ctx context.Context, connectionID string) (map[string]*models.Reservation, error) {
	reservations, err := o.reservations.ListByConnection(ctx, connectionID)
	if err != nil {
		return nil, fmt.Errorf("loading existing reservations: %w", err)
	}

	byUID := make(map[string]*models.Reservation, len(reservations))
	for i := range reservations {
		res := &reservations[i]
		if res.ExternalBookingID != nil {
			byUID[*res.ExternalBookingID] = res
		}
	}
	return byUID, nil
}

// reconcileEvent applies one remote event to local state.
func (o *Orchestrator) reconcileEvent(ctx context.Context, conn *models.Connection, event models.CalendarEvent, existing *models.Reservation, now time.Time, result *models.SyncResult) error {
	if !event.HasValidRange() {
		log.Printf("sync: connection %s event %s: invalid range %s..%s, skipped",
			conn.ID, event.UID, event.Start.Format("2006-01-02"), event.End.Format("2006-01-02"))
		return nil
	}

	// Historical bookings carry no value; the dates are already behind us.
	if event.End.Before(now) {
		return nil
	}

	if event.IsCancelled() {
		if existing == nil {
			return nil
		}
		if existing.Status == models.ReservationStatusCancelled {
			return o.reservations.TouchSynced(ctx, existing.ID)
		}
		if err := o.reservations.UpdateStatus(ctx, existing.ID, models.ReservationStatusCancelled); err != nil {
			return err
		}
		result.ItemsUpdated++
		return nil
	}

	if existing != nil {
		return o.reconcileExisting(ctx, conn, event, existing, result)
	}
	return o.reconcileNew(ctx, conn, event, result)
}

// reconcileExisting handles an event whose UID already maps to a local
// reservation: refresh, move, or conflict.
func (o *Orchestrator) reconcileExisting(ctx context.Context, conn *models.Connection, event models.CalendarEvent, existing *models.Reservation, result *models.SyncResult) error {
	if existing.CheckIn.Equal(event.Start) && existing.CheckOut.Equal(event.End) {
		return o.reservations.TouchSynced(ctx, existing.ID)
	}

	conflicting, err := o.detector.ConflictingReservations(ctx, conn.UnitID, event.Start, event.End, existing.ID)
	if err != nil {
		return err
	}

	if len(conflicting) > 0 {
		// The remote feed will present the same dates next run, so the
		// event retries automatically once the operator resolves.
		return o.recordConflict(ctx, conn, event, &conflicting[0], result)
	}

	if err := o.reservations.UpdateDates(ctx, existing.ID, event.Start, event.End); err != nil {
		return err
	}
	result.ItemsUpdated++
	return nil
}

// reconcileNew handles an event with no local counterpart: create the
// reservation unless it collides with a booking or an operator hold.
func (o *Orchestrator) reconcileNew(ctx context.Context, conn *models.Connection, event models.CalendarEvent, result *models.SyncResult) error {
	conflicting, err := o.detector.ConflictingReservations(ctx, conn.UnitID, event.Start, event.End, "")
	if err != nil {
		return err
	}
	if len(conflicting) > 0 {
		return o.recordConflict(ctx, conn, event, &conflicting[0], result)
	}

	blocked, err := o.detector.BlockedRanges(ctx, conn.UnitID, event.Start, event.End)
	if err != nil {
		return err
	}
	if len(blocked) > 0 {
		return o.recordConflict(ctx, conn, event, nil, result)
	}

	uid := event.UID
	syncedAt := time.Now().UTC()
	res := &models.Reservation{
		UnitID:            conn.UnitID,
		CheckIn:           event.Start,
		CheckOut:          event.End,
		Status:            models.ReservationStatusConfirmed,
		GuestName:         event.Summary,
		Channel:           conn.Platform,
		ConnectionID:      &conn.ID,
		ExternalBookingID: &uid,
		SyncStatus:        models.SyncStatusSynced,
		SyncedAt:          &syncedAt,
	}

	if err := o.reservations.Create(ctx, res); err != nil {
		return err
	}
	result.ItemsCreated++
	return nil
}

// recordConflict persists a conflict record and surfaces it in the run
// result. local is nil when the collision is with an operator hold rather
// than a reservation.
func (o *Orchestrator) recordConflict(ctx context.Context, conn *models.Connection, event models.CalendarEvent, local *models.Reservation, result *models.SyncResult) error {
	c := &models.Conflict{
		UnitID:          conn.UnitID,
		ConnectionID:    conn.ID,
		ConflictType:    models.ConflictTypeDateOverlap,
		Severity:        models.ConflictSeverityHigh,
		RemoteBookingID: event.UID,
		ConflictData:    conflictSnapshot(event, local),
	}

	if local != nil {
		c.LocalReservationID = &local.ID
		c.ConflictType = conflict.DetermineConflictType(local.CheckIn, local.CheckOut, event.Start, event.End)
		if c.ConflictType == models.ConflictTypeDateOverlap {
			c.Severity = models.ConflictSeverityMedium
		}
	}

	if err := o.conflicts.Create(ctx, c); err != nil {
		return fmt.Errorf("recording conflict: %w", err)
	}

	log.Printf("sync: connection %s event %s: %s conflict recorded", conn.ID, event.UID, c.ConflictType)
	result.Conflicts = append(result.Conflicts, *c)
	return nil
}

// conflictSnapshot serializes both date ranges for the conflict record.
func conflictSnapshot(event models.CalendarEvent, local *models.Reservation) string {
	data := models.ConflictData{
		RemoteCheckIn:  event.Start.Format("2006-01-02"),
		RemoteCheckOut: event.End.Format("2006-01-02"),
		RemoteSummary:  event.Summary,
	}
	if local != nil {
		in := local.CheckIn.Format("2006-01-02")
		out := local.CheckOut.Format("2006-01-02")
		data.LocalCheckIn = &in
		data.LocalCheckOut = &out
	}

	encoded, err := json.Marshal(data)
	if err != nil {
		return "{}"
	}
	return string(encoded)
}
