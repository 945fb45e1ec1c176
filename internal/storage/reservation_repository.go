package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/channel-sync-manager/backend/internal/storage/models"
)

// ReservationRepository provides data access for reservations.
type ReservationRepository struct {
	BaseRepository
}

// NewReservationRepository creates a new reservation repository.
func NewReservationRepository(db *DB) *ReservationRepository {
	return &ReservationRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

const reservationColumns = `
	id, unit_id, check_in, check_out, status, guest_name, guest_email,
	guest_phone, total_amount, channel, connection_id, external_booking_id,
	sync_status, synced_at, created_at, updated_at
`

// Create inserts a new reservation.
func (r *ReservationRepository) Create(ctx context.Context, res *models.Reservation) error {
	if res.ID == "" {
		res.ID = GenerateID()
	}
	res.CreatedAt = r.Now()
	res.UpdatedAt = res.CreatedAt

	_, err := r.DB().ExecContext(ctx, `
		INSERT INTO reservations (
			id, unit_id, check_in, check_out, status, guest_name, guest_email,
			guest_phone, total_amount, channel, connection_id, external_booking_id,
			sync_status, synced_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		res.ID, res.UnitID, res.CheckIn, res.CheckOut, res.Status,
		res.GuestName, res.GuestEmail, res.GuestPhone, res.TotalAmount,
		res.Channel, res.ConnectionID, res.ExternalBookingID,
		res.SyncStatus, res.SyncedAt, res.CreatedAt, res.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("inserting reservation: %w", err)
	}

	return nil
}

// GetByID retrieves a reservation by ID. Returns nil when not found.
func (r *ReservationRepository) GetByID(ctx context.Context, id string) (*models.Reservation, error) {
	row := r.DB().QueryRowContext(ctx,
		`SELECT `+reservationColumns+` FROM reservations WHERE id = ?`, id)

	res, err := scanReservation(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying reservation: %w", err)
	}

	return res, nil
}

// ListByConnection retrieves all reservations imported through a connection,
// keyed upstream by external booking ID.
func (r *ReservationRepository) ListByConnection(ctx context.Context, connectionID string) ([]models.Reservation, error) {
	rows, err := r.DB().QueryContext(ctx, `
		SELECT `+reservationColumns+`
		FROM reservations
		WHERE connection_id = ? AND external_booking_id IS NOT NULL
		ORDER BY check_in
	`, connectionID)
	if err != nil {
		return nil, fmt.Errorf("querying connection reservations: %w", err)
	}
	defer rows.Close()

	return collectReservations(rows)
}

// ListActiveByUnit retrieves the reservations occupying dates for a unit,
// for feed export.
func (r *ReservationRepository) ListActiveByUnit(ctx context.Context, unitID string) ([]models.Reservation, error) {
	rows, err := r.DB().QueryContext(ctx, `
		SELECT `+reservationColumns+`
		FROM reservations
		WHERE unit_id = ? AND status IN ('pending', 'confirmed', 'checked_in')
		ORDER BY check_in
	`, unitID)
	if err != nil {
		return nil, fmt.Errorf("querying unit reservations: %w", err)
	}
	defer rows.Close()

	return collectReservations(rows)
}

// FindOverlapping returns active reservations for the unit whose half-open
// [check_in, check_out) range intersects [checkIn, checkOut). A checkout
// equal to another booking's check-in does not overlap. excludeID skips one
// reservation when non-empty.
func (r *ReservationRepository) FindOverlapping(ctx context.Context, unitID string, checkIn, checkOut time.Time, excludeID string) ([]models.Reservation, error) {
	rows, err := r.DB().QueryContext(ctx, `
		SELECT `+reservationColumns+`
		FROM reservations
		WHERE unit_id = ?
		  AND status IN ('pending', 'confirmed', 'checked_in')
		  AND check_in < ? AND ? < check_out
		  AND (? = '' OR id != ?)
		ORDER BY check_in
	`, unitID, checkOut, checkIn, excludeID, excludeID)
	if err != nil {
		return nil, fmt.Errorf("querying overlapping reservations: %w", err)
	}
	defer rows.Close()

	return collectReservations(rows)
}

// UpdateDates moves a reservation to a new date range and stamps it synced.
func (r *ReservationRepository) UpdateDates(ctx context.Context, id string, checkIn, checkOut time.Time) error {
	now := r.Now()

	result, err := r.DB().ExecContext(ctx, `
		UPDATE reservations SET
			check_in = ?, check_out = ?, sync_status = ?, synced_at = ?, updated_at = ?
		WHERE id = ?
	`, checkIn, checkOut, models.SyncStatusSynced, now, now, id)

	if err != nil {
		return fmt.Errorf("updating reservation dates: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("reservation not found: %s", id)
	}

	return nil
}

// UpdateStatus changes a reservation's status and stamps it synced.
func (r *ReservationRepository) UpdateStatus(ctx context.Context, id string, status string) error {
	now := r.Now()

	result, err := r.DB().ExecContext(ctx, `
		UPDATE reservations SET
			status = ?, sync_status = ?, synced_at = ?, updated_at = ?
		WHERE id = ?
	`, status, models.SyncStatusSynced, now, now, id)

	if err != nil {
		return fmt.Errorf("updating reservation status: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("reservation not found: %s", id)
	}

	return nil
}

// TouchSynced refreshes only the sync timestamp, used when a remote event is
// unchanged.
func (r *ReservationRepository) TouchSynced(ctx context.Context, id string) error {
	now := r.Now()

	_, err := r.DB().ExecContext(ctx, `
		UPDATE reservations SET sync_status = ?, synced_at = ? WHERE id = ?
	`, models.SyncStatusSynced, now, id)

	if err != nil {
		return fmt.Errorf("touching reservation: %w", err)
	}

	return nil
}

func collectReservations(rows *sql.Rows) ([]models.Reservation, error) {
	var reservations []models.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning reservation: %w", err)
		}
		reservations = append(reservations, *res)
	}
	return reservations, rows.Err()
}

func scanReservation(row rowScanner) (*models.Reservation, error) {
	res := &models.Reservation{}
	err := row.Scan(
		&res.ID, &res.UnitID, &res.CheckIn, &res.CheckOut, &res.Status,
		&res.GuestName, &res.GuestEmail, &res.GuestPhone, &res.TotalAmount,
		&res.Channel, &res.ConnectionID, &res.ExternalBookingID,
		&res.SyncStatus, &res.SyncedAt, &res.CreatedAt, &res.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return res, nil
}
