package storage

import (
	"context"
	"fmt"

	"github.com/channel-sync-manager/backend/internal/storage/models"
)

// SyncRunRepository provides data access for the append-only sync run log.
type SyncRunRepository struct {
	BaseRepository
}

// NewSyncRunRepository creates a new sync run repository.
func NewSyncRunRepository(db *DB) *SyncRunRepository {
	return &SyncRunRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

const syncRunColumns = `
	id, connection_id, triggered_by, started_at, completed_at, status,
	events_processed, items_created, items_updated, items_failed, error_message
`

// Create inserts a new sync run record at the start of a run. Status
// defaults to success and is finalized when the run completes.
func (r *SyncRunRepository) Create(ctx context.Context, run *models.SyncRun) error {
	run.ID = GenerateID()
	run.StartedAt = r.Now()
	if run.Status == "" {
		run.Status = models.SyncRunStatusSuccess
	}

	_, err := r.DB().ExecContext(ctx, `
		INSERT INTO sync_runs (id, connection_id, triggered_by, started_at, status)
		VALUES (?, ?, ?, ?, ?)
	`, run.ID, run.ConnectionID, run.TriggeredBy, run.StartedAt, run.Status)

	if err != nil {
		return fmt.Errorf("inserting sync run: %w", err)
	}

	return nil
}

// Finalize completes a sync run with its counts and final status.
func (r *SyncRunRepository) Finalize(ctx context.Context, run *models.SyncRun) error {
	now := r.Now()
	run.CompletedAt = &now

	_, err := r.DB().ExecContext(ctx, `
		UPDATE sync_runs SET
			completed_at = ?, status = ?, events_processed = ?,
			items_created = ?, items_updated = ?, items_failed = ?, error_message = ?
		WHERE id = ?
	`,
		run.CompletedAt, run.Status, run.EventsProcessed,
		run.ItemsCreated, run.ItemsUpdated, run.ItemsFailed, run.ErrorMessage,
		run.ID,
	)

	if err != nil {
		return fmt.Errorf("finalizing sync run: %w", err)
	}

	return nil
}

// ListByConnection retrieves recent sync runs for a connection, newest
// first.
func (r *SyncRunRepository) ListByConnection(ctx context.Context, connectionID string, limit int) ([]models.SyncRun, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.DB().QueryContext(ctx, `
		SELECT `+syncRunColumns+`
		FROM sync_runs
		WHERE connection_id = ?
		ORDER BY started_at DESC
		LIMIT ?
	`, connectionID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying sync runs: %w", err)
	}
	defer rows.Close()

	var runs []models.SyncRun
	for rows.Next() {
		run, err := scanSyncRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning sync run: %w", err)
		}
		runs = append(runs, *run)
	}

	return runs, rows.Err()
}

func scanSyncRun(row rowScanner) (*models.SyncRun, error) {
	run := &models.SyncRun{}
	err := row.Scan(
		&run.ID, &run.ConnectionID, &run.TriggeredBy, &run.StartedAt,
		&run.CompletedAt, &run.Status, &run.EventsProcessed,
		&run.ItemsCreated, &run.ItemsUpdated, &run.ItemsFailed, &run.ErrorMessage,
	)
	if err != nil {
		return nil, err
	}
	return run, nil
}
