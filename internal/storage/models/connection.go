// Package models contains the domain models for the application.
package models

import (
	"time"
)

// Connection represents an OTA calendar connection (iCal feed) for one unit.
type Connection struct {
	ID                   string     `json:"id"`
	UnitID               string     `json:"unit_id"`
	Platform             string     `json:"platform"`
	FeedURL              string     `json:"feed_url"`
	SyncFrequencyMinutes int        `json:"sync_frequency_minutes"`
	Status               string     `json:"status"`
	ErrorCount           int        `json:"error_count"`
	LastError            *string    `json:"last_error,omitempty"`
	LastSyncAt           *time.Time `json:"last_sync_at,omitempty"`
	NextSyncAt           *time.Time `json:"next_sync_at,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// Connection status constants
const (
	ConnectionStatusActive = "active"
	ConnectionStatusError  = "error"
)

// IsActive reports whether the connection is eligible for sync runs.
func (c *Connection) IsActive() bool {
	return c.Status == ConnectionStatusActive
}

// SyncRun is an append-only log record of one orchestrator invocation.
type SyncRun struct {
	ID              string     `json:"id"`
	ConnectionID    string     `json:"connection_id"`
	TriggeredBy     string     `json:"triggered_by"`
	StartedAt       time.Time  `json:"started_at"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	Status          string     `json:"status"`
	EventsProcessed int        `json:"events_processed"`
	ItemsCreated    int        `json:"items_created"`
	ItemsUpdated    int        `json:"items_updated"`
	ItemsFailed     int        `json:"items_failed"`
	ErrorMessage    *string    `json:"error_message,omitempty"`
}

// SyncRun status constants
const (
	SyncRunStatusSuccess        = "success"
	SyncRunStatusPartialSuccess = "partial_success"
	SyncRunStatusError          = "error"
)

// SyncRun trigger constants
const (
	TriggerScheduler = "scheduler"
	TriggerManual    = "manual"
)
