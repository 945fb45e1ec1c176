package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/channel-sync-manager/backend/internal/storage/models"
)

// UnitRepository provides read access to units and their blocked date
// ranges. Unit management belongs to the surrounding application; the sync
// engine only needs lookups for feed export and hold checks, plus inserts
// for bootstrap and tests.
type UnitRepository struct {
	BaseRepository
}

// NewUnitRepository creates a new unit repository.
func NewUnitRepository(db *DB) *UnitRepository {
	return &UnitRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

// Create inserts a unit.
func (r *UnitRepository) Create(ctx context.Context, unit *models.Unit) error {
	if unit.ID == "" {
		unit.ID = GenerateID()
	}
	unit.CreatedAt = r.Now()

	_, err := r.DB().ExecContext(ctx,
		"INSERT INTO units (id, name, created_at) VALUES (?, ?, ?)",
		unit.ID, unit.Name, unit.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting unit: %w", err)
	}

	return nil
}

// GetByID retrieves a unit by ID. Returns nil when not found.
func (r *UnitRepository) GetByID(ctx context.Context, id string) (*models.Unit, error) {
	unit := &models.Unit{}

	err := r.DB().QueryRowContext(ctx,
		"SELECT id, name, created_at FROM units WHERE id = ?", id,
	).Scan(&unit.ID, &unit.Name, &unit.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying unit: %w", err)
	}

	return unit, nil
}

// CreateBlockedDate inserts an operator hold for a unit.
func (r *UnitRepository) CreateBlockedDate(ctx context.Context, block *models.BlockedDate) error {
	if block.ID == "" {
		block.ID = GenerateID()
	}
	block.CreatedAt = r.Now()

	_, err := r.DB().ExecContext(ctx, `
		INSERT INTO blocked_dates (id, unit_id, start_date, end_date, reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, block.ID, block.UnitID, block.StartDate, block.EndDate, block.Reason, block.CreatedAt)

	if err != nil {
		return fmt.Errorf("inserting blocked date: %w", err)
	}

	return nil
}

// ListBlockedDates retrieves all holds for a unit ordered by start date.
func (r *UnitRepository) ListBlockedDates(ctx context.Context, unitID string) ([]models.BlockedDate, error) {
	rows, err := r.DB().QueryContext(ctx, `
		SELECT id, unit_id, start_date, end_date, reason, created_at
		FROM blocked_dates WHERE unit_id = ? ORDER BY start_date
	`, unitID)
	if err != nil {
		return nil, fmt.Errorf("querying blocked dates: %w", err)
	}
	defer rows.Close()

	return collectBlockedDates(rows)
}

// FindBlockedOverlapping retrieves holds intersecting the half-open range
// [start, end).
func (r *UnitRepository) FindBlockedOverlapping(ctx context.Context, unitID string, start, end time.Time) ([]models.BlockedDate, error) {
	rows, err := r.DB().QueryContext(ctx, `
		SELECT id, unit_id, start_date, end_date, reason, created_at
		FROM blocked_dates
		WHERE unit_id = ? AND start_date < ? AND ? < end_date
		ORDER BY start_date
	`, unitID, end, start)
	if err != nil {
		return nil, fmt.Errorf("querying overlapping blocked dates: %w", err)
	}
	defer rows.Close()

	return collectBlockedDates(rows)
}

func collectBlockedDates(rows *sql.Rows) ([]models.BlockedDate, error) {
	var blocks []models.BlockedDate
	for rows.Next() {
		var b models.BlockedDate
		if err := rows.Scan(&b.ID, &b.UnitID, &b.StartDate, &b.EndDate, &b.Reason, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning blocked date: %w", err)
		}
		blocks = append(blocks, b)
	}
	return blocks, rows.Err()
}
