package models

import (
	"time"
)

// Reservation represents a booking for a unit over a half-open date range
// [CheckIn, CheckOut). Reservations imported from an OTA feed carry the feed
// UID in ExternalBookingID; locally created bookings leave it nil.
type Reservation struct {
	ID                string     `json:"id"`
	UnitID            string     `json:"unit_id"`
	CheckIn           time.Time  `json:"check_in"`
	CheckOut          time.Time  `json:"check_out"`
	Status            string     `json:"status"`
	GuestName         string     `json:"guest_name"`
	GuestEmail        *string    `json:"guest_email,omitempty"`
	GuestPhone        *string    `json:"guest_phone,omitempty"`
	TotalAmount       float64    `json:"total_amount"`
	Channel           string     `json:"channel"`
	ConnectionID      *string    `json:"connection_id,omitempty"`
	ExternalBookingID *string    `json:"external_booking_id,omitempty"`
	SyncStatus        string     `json:"sync_status"`
	SyncedAt          *time.Time `json:"synced_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// Reservation status constants
const (
	ReservationStatusPending    = "pending"
	ReservationStatusConfirmed  = "confirmed"
	ReservationStatusCheckedIn  = "checked_in"
	ReservationStatusCheckedOut = "checked_out"
	ReservationStatusCancelled  = "cancelled"
)

// Reservation sync status constants
const (
	SyncStatusNotSynced = "not_synced"
	SyncStatusSynced    = "synced"
)

// ActiveReservationStatuses are the statuses that occupy dates on the unit
// calendar. Only these participate in conflict detection and feed export.
var ActiveReservationStatuses = []string{
	ReservationStatusPending,
	ReservationStatusConfirmed,
	ReservationStatusCheckedIn,
}

// IsActive reports whether the reservation occupies its date range.
func (r *Reservation) IsActive() bool {
	switch r.Status {
	case ReservationStatusPending, ReservationStatusConfirmed, ReservationStatusCheckedIn:
		return true
	}
	return false
}

// Nights returns the length of the stay in nights.
func (r *Reservation) Nights() int {
	return int(r.CheckOut.Sub(r.CheckIn).Hours() / 24)
}

// BlockedDate is an operator-created hold on a unit's calendar. Blocked
// ranges are exported as "Not available" events and checked during import so
// remote bookings never land on top of a hold.
type BlockedDate struct {
	ID        string    `json:"id"`
	UnitID    string    `json:"unit_id"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	Reason    string    `json:"reason,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Unit is the bookable resource a connection syncs against. Unit management
// lives in the surrounding application; the engine only reads name/ID for
// feed export.
type Unit struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
