// Package sync implements the OTA calendar sync engine: feed fetching,
// event reconciliation, conflict recording, connection health tracking, and
// the cron scheduler that drives repeated runs.
package sync

import (
	"time"
)

// Config carries the engine tunables. Defaults match production behavior;
// tests override individual fields for determinism.
type Config struct {
	// MaxEventsPerRun caps the events reconciled in one run. Excess events
	// are deferred to the next scheduled run.
	MaxEventsPerRun int

	// MaxErrorCount is the consecutive-failure threshold at which a
	// connection auto-pauses into error status.
	MaxErrorCount int

	// FetchTimeout bounds the feed download.
	FetchTimeout time.Duration

	// UserAgent identifies the engine to feed hosts.
	UserAgent string
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		MaxEventsPerRun: 100,
		MaxErrorCount:   5,
		FetchTimeout:    30 * time.Second,
		UserAgent:       "ChannelSyncManager/1.0 (calendar-sync)",
	}
}
