package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/channel-sync-manager/backend/internal/storage/models"
)

// ConnectionRepository provides data access for OTA calendar connections.
type ConnectionRepository struct {
	BaseRepository
}

// NewConnectionRepository creates a new connection repository.
func NewConnectionRepository(db *DB) *ConnectionRepository {
	return &ConnectionRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

const connectionColumns = `
	id, unit_id, platform, feed_url, sync_frequency_minutes, status,
	error_count, last_error, last_sync_at, next_sync_at, created_at, updated_at
`

// Create inserts a new connection. New connections start active with a clean
// failure counter.
func (r *ConnectionRepository) Create(ctx context.Context, conn *models.Connection) error {
	conn.ID = GenerateID()
	conn.Status = models.ConnectionStatusActive
	conn.ErrorCount = 0
	conn.CreatedAt = r.Now()
	conn.UpdatedAt = conn.CreatedAt

	_, err := r.DB().ExecContext(ctx, `
		INSERT INTO connections (
			id, unit_id, platform, feed_url, sync_frequency_minutes, status,
			error_count, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		conn.ID, conn.UnitID, conn.Platform, conn.FeedURL, conn.SyncFrequencyMinutes,
		conn.Status, conn.ErrorCount, conn.CreatedAt, conn.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("inserting connection: %w", err)
	}

	return nil
}

// GetByID retrieves a connection by its ID. Returns nil when not found.
func (r *ConnectionRepository) GetByID(ctx context.Context, id string) (*models.Connection, error) {
	row := r.DB().QueryRowContext(ctx,
		`SELECT `+connectionColumns+` FROM connections WHERE id = ?`, id)

	conn, err := scanConnection(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying connection: %w", err)
	}

	return conn, nil
}

// List retrieves all connections.
func (r *ConnectionRepository) List(ctx context.Context) ([]models.Connection, error) {
	return r.listWhere(ctx, "1=1")
}

// ListActive retrieves connections eligible for scheduled syncing.
func (r *ConnectionRepository) ListActive(ctx context.Context) ([]models.Connection, error) {
	return r.listWhere(ctx, "status = 'active'")
}

func (r *ConnectionRepository) listWhere(ctx context.Context, where string) ([]models.Connection, error) {
	rows, err := r.DB().QueryContext(ctx,
		`SELECT `+connectionColumns+` FROM connections WHERE `+where+` ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("querying connections: %w", err)
	}
	defer rows.Close()

	var connections []models.Connection
	for rows.Next() {
		conn, err := scanConnection(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning connection: %w", err)
		}
		connections = append(connections, *conn)
	}

	return connections, rows.Err()
}

// Update updates a connection's configuration fields.
func (r *ConnectionRepository) Update(ctx context.Context, conn *models.Connection) error {
	conn.UpdatedAt = r.Now()

	result, err := r.DB().ExecContext(ctx, `
		UPDATE connections SET
			platform = ?, feed_url = ?, sync_frequency_minutes = ?, updated_at = ?
		WHERE id = ?
	`,
		conn.Platform, conn.FeedURL, conn.SyncFrequencyMinutes, conn.UpdatedAt, conn.ID,
	)

	if err != nil {
		return fmt.Errorf("updating connection: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("connection not found: %s", conn.ID)
	}

	return nil
}

// UpdateHealth persists the health fields mutated by the sync engine:
// status, failure counter, last error, and the sync schedule timestamps.
func (r *ConnectionRepository) UpdateHealth(ctx context.Context, conn *models.Connection) error {
	_, err := r.DB().ExecContext(ctx, `
		UPDATE connections SET
			status = ?, error_count = ?, last_error = ?,
			last_sync_at = ?, next_sync_at = ?, updated_at = ?
		WHERE id = ?
	`,
		conn.Status, conn.ErrorCount, conn.LastError,
		conn.LastSyncAt, conn.NextSyncAt, r.Now(), conn.ID,
	)

	if err != nil {
		return fmt.Errorf("updating connection health: %w", err)
	}

	return nil
}

// Reactivate resets a paused connection to active with a clean failure
// counter. This is the operator escape hatch after an auto-pause.
func (r *ConnectionRepository) Reactivate(ctx context.Context, id string) error {
	result, err := r.DB().ExecContext(ctx, `
		UPDATE connections SET
			status = ?, error_count = 0, last_error = NULL, updated_at = ?
		WHERE id = ?
	`, models.ConnectionStatusActive, r.Now(), id)

	if err != nil {
		return fmt.Errorf("reactivating connection: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("connection not found: %s", id)
	}

	return nil
}

// Delete removes a connection by ID.
func (r *ConnectionRepository) Delete(ctx context.Context, id string) error {
	result, err := r.DB().ExecContext(ctx, "DELETE FROM connections WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting connection: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("connection not found: %s", id)
	}

	return nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanConnection(row rowScanner) (*models.Connection, error) {
	conn := &models.Connection{}
	err := row.Scan(
		&conn.ID, &conn.UnitID, &conn.Platform, &conn.FeedURL,
		&conn.SyncFrequencyMinutes, &conn.Status, &conn.ErrorCount,
		&conn.LastError, &conn.LastSyncAt, &conn.NextSyncAt,
		&conn.CreatedAt, &conn.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return conn, nil
}
