package models

import (
	"time"
)

// CalendarEvent represents a parsed VEVENT from an iCal feed. Events are
// ephemeral: they exist only for the duration of a sync run.
type CalendarEvent struct {
	UID          string            `json:"uid"`
	Summary      string            `json:"summary"`
	Description  string            `json:"description"`
	Location     string            `json:"location,omitempty"`
	Start        time.Time         `json:"start"`
	End          time.Time         `json:"end"`
	AllDay       bool              `json:"all_day"`
	Status       string            `json:"status,omitempty"`
	Organizer    string            `json:"organizer,omitempty"`
	Attendees    []string          `json:"attendees,omitempty"`
	Created      time.Time         `json:"created,omitempty"`
	LastModified time.Time         `json:"last_modified,omitempty"`
	Extra        map[string]string `json:"extra,omitempty"`
}

// Event status constants (iCal STATUS property values)
const (
	EventStatusConfirmed = "CONFIRMED"
	EventStatusTentative = "TENTATIVE"
	EventStatusCancelled = "CANCELLED"
)

// IsCancelled reports whether the event carries STATUS:CANCELLED.
func (e *CalendarEvent) IsCancelled() bool {
	return e.Status == EventStatusCancelled
}

// HasValidRange reports whether the event's end is strictly after its start.
// Events that fail this check are not actionable.
func (e *CalendarEvent) HasValidRange() bool {
	return e.End.After(e.Start)
}

// SyncResult contains the outcome of one sync run.
type SyncResult struct {
	ConnectionID    string     `json:"connection_id"`
	SyncRunID       string     `json:"sync_run_id"`
	Success         bool       `json:"success"`
	EventsProcessed int        `json:"events_processed"`
	ItemsCreated    int        `json:"items_created"`
	ItemsUpdated    int        `json:"items_updated"`
	ItemsFailed     int        `json:"items_failed"`
	Conflicts       []Conflict `json:"conflicts,omitempty"`
	Errors          []string   `json:"errors,omitempty"`
	SyncedAt        time.Time  `json:"synced_at"`
}
