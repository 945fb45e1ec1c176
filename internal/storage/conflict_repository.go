package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/channel-sync-manager/backend/internal/storage/models"
)

// ConflictRepository provides data access for booking conflicts. Conflicts
// are created by the sync engine and resolved by operators; they are never
// deleted.
type ConflictRepository struct {
	BaseRepository
}

// NewConflictRepository creates a new conflict repository.
func NewConflictRepository(db *DB) *ConflictRepository {
	return &ConflictRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

const conflictColumns = `
	id, unit_id, connection_id, conflict_type, severity, local_reservation_id,
	remote_booking_id, conflict_data, status, detected_at, resolved_at
`

// Create inserts a new unresolved conflict record.
func (r *ConflictRepository) Create(ctx context.Context, c *models.Conflict) error {
	c.ID = GenerateID()
	c.Status = models.ConflictStatusUnresolved
	c.DetectedAt = r.Now()

	_, err := r.DB().ExecContext(ctx, `
		INSERT INTO conflicts (
			id, unit_id, connection_id, conflict_type, severity,
			local_reservation_id, remote_booking_id, conflict_data, status, detected_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		c.ID, c.UnitID, c.ConnectionID, c.ConflictType, c.Severity,
		c.LocalReservationID, c.RemoteBookingID, c.ConflictData, c.Status, c.DetectedAt,
	)

	if err != nil {
		return fmt.Errorf("inserting conflict: %w", err)
	}

	return nil
}

// GetByID retrieves a conflict by ID. Returns nil when not found.
func (r *ConflictRepository) GetByID(ctx context.Context, id string) (*models.Conflict, error) {
	row := r.DB().QueryRowContext(ctx,
		`SELECT `+conflictColumns+` FROM conflicts WHERE id = ?`, id)

	c, err := scanConflict(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying conflict: %w", err)
	}

	return c, nil
}

// List retrieves conflicts, optionally filtered by status.
func (r *ConflictRepository) List(ctx context.Context, status string) ([]models.Conflict, error) {
	query := `SELECT ` + conflictColumns + ` FROM conflicts`
	var args []any
	if status != "" {
		query += " WHERE status = ?"
		args = append(args, status)
	}
	query += " ORDER BY detected_at DESC"

	rows, err := r.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying conflicts: %w", err)
	}
	defer rows.Close()

	var conflicts []models.Conflict
	for rows.Next() {
		c, err := scanConflict(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning conflict: %w", err)
		}
		conflicts = append(conflicts, *c)
	}

	return conflicts, rows.Err()
}

// Resolve marks a conflict resolved.
func (r *ConflictRepository) Resolve(ctx context.Context, id string) error {
	now := r.Now()

	result, err := r.DB().ExecContext(ctx, `
		UPDATE conflicts SET status = ?, resolved_at = ? WHERE id = ? AND status = ?
	`, models.ConflictStatusResolved, now, id, models.ConflictStatusUnresolved)

	if err != nil {
		return fmt.Errorf("resolving conflict: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("unresolved conflict not found: %s", id)
	}

	return nil
}

// CountUnresolved returns the number of open conflicts.
func (r *ConflictRepository) CountUnresolved(ctx context.Context) (int, error) {
	var count int
	err := r.DB().QueryRowContext(ctx,
		"SELECT COUNT(*) FROM conflicts WHERE status = 'unresolved'").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting conflicts: %w", err)
	}
	return count, nil
}

func scanConflict(row rowScanner) (*models.Conflict, error) {
	c := &models.Conflict{}
	err := row.Scan(
		&c.ID, &c.UnitID, &c.ConnectionID, &c.ConflictType, &c.Severity,
		&c.LocalReservationID, &c.RemoteBookingID, &c.ConflictData,
		&c.Status, &c.DetectedAt, &c.ResolvedAt,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}
