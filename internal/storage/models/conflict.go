package models

import (
	"time"
)

// Conflict records a booking overlap the sync engine could not safely
// auto-resolve. Conflicts are created by the orchestrator and resolved by an
// operator; the engine never deletes them.
type Conflict struct {
	ID                 string     `json:"id"`
	UnitID             string     `json:"unit_id"`
	ConnectionID       string     `json:"connection_id"`
	ConflictType       string     `json:"conflict_type"`
	Severity           string     `json:"severity"`
	LocalReservationID *string    `json:"local_reservation_id,omitempty"`
	RemoteBookingID    string     `json:"remote_booking_id"`
	ConflictData       string     `json:"conflict_data"`
	Status             string     `json:"status"`
	DetectedAt         time.Time  `json:"detected_at"`
	ResolvedAt         *time.Time `json:"resolved_at,omitempty"`
}

// Conflict type constants
const (
	ConflictTypeDoubleBooking = "double_booking"
	ConflictTypeDateOverlap   = "date_overlap"
)

// Conflict severity constants
const (
	ConflictSeverityHigh   = "high"
	ConflictSeverityMedium = "medium"
)

// Conflict status constants
const (
	ConflictStatusUnresolved = "unresolved"
	ConflictStatusResolved   = "resolved"
)

// ConflictData is the structured snapshot of both date ranges stored in a
// conflict record, serialized as JSON in Conflict.ConflictData.
type ConflictData struct {
	LocalCheckIn   *string `json:"local_check_in,omitempty"`
	LocalCheckOut  *string `json:"local_check_out,omitempty"`
	RemoteCheckIn  string  `json:"remote_check_in"`
	RemoteCheckOut string  `json:"remote_check_out"`
	RemoteSummary  string  `json:"remote_summary,omitempty"`
}
