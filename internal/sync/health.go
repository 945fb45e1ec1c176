package sync

import (
	"time"

	"github.com/channel-sync-manager/backend/internal/storage/models"
)

// Connection health state machine. A connection is either active or error;
// it leaves active only when consecutive fetch/parse failures reach the
// configured threshold, and returns to active only through an operator
// reactivation.

// applySuccess resets the health fields after a completed run and advances
// the sync schedule.
func applySuccess(conn *models.Connection, now time.Time) {
	next := now.Add(time.Duration(conn.SyncFrequencyMinutes) * time.Minute)

	conn.LastSyncAt = &now
	conn.NextSyncAt = &next
	conn.ErrorCount = 0
	conn.LastError = nil
	conn.Status = models.ConnectionStatusActive
}

// applyFailure records a run-level failure and auto-pauses the connection
// when the counter reaches threshold. Returns true when this failure caused
// the pause.
func applyFailure(conn *models.Connection, errMsg string, threshold int) bool {
	conn.ErrorCount++
	conn.LastError = &errMsg

	if conn.Status == models.ConnectionStatusActive && conn.ErrorCount >= threshold {
		conn.Status = models.ConnectionStatusError
		return true
	}
	return false
}
