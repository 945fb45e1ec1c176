// Package conflict detects booking date-range conflicts for a unit.
package conflict

import (
	"context"
	"fmt"
	"time"

	"github.com/channel-sync-manager/backend/internal/storage/models"
)

// FindOverlappingFunc queries active reservations for a unit whose date
// range overlaps [checkIn, checkOut), excluding the reservation with
// excludeID when non-empty.
type FindOverlappingFunc func(ctx context.Context, unitID string, checkIn, checkOut time.Time, excludeID string) ([]models.Reservation, error)

// FindBlockedFunc queries operator holds for a unit overlapping the range.
type FindBlockedFunc func(ctx context.Context, unitID string, checkIn, checkOut time.Time) ([]models.BlockedDate, error)

// Detector answers overlap questions against the reservation store.
type Detector struct {
	findOverlapping FindOverlappingFunc
	findBlocked     FindBlockedFunc
}

// NewDetector creates a detector over the given store queries. findBlocked
// may be nil when blocked-date checks are not needed.
func NewDetector(findOverlapping FindOverlappingFunc, findBlocked FindBlockedFunc) *Detector {
	return &Detector{
		findOverlapping: findOverlapping,
		findBlocked:     findBlocked,
	}
}

// Overlaps reports whether two half-open ranges [aStart, aEnd) and
// [bStart, bEnd) intersect. A checkout equal to another booking's check-in
// is not an overlap, matching standard hospitality semantics.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// HasConflict reports whether any active reservation for the unit overlaps
// the candidate range. excludeID skips one reservation, typically the one
// being rescheduled.
func (d *Detector) HasConflict(ctx context.Context, unitID string, checkIn, checkOut time.Time, excludeID string) (bool, error) {
	conflicting, err := d.ConflictingReservations(ctx, unitID, checkIn, checkOut, excludeID)
	if err != nil {
		return false, err
	}
	return len(conflicting) > 0, nil
}

// ConflictingReservations returns the active reservations overlapping the
// candidate range.
func (d *Detector) ConflictingReservations(ctx context.Context, unitID string, checkIn, checkOut time.Time, excludeID string) ([]models.Reservation, error) {
	reservations, err := d.findOverlapping(ctx, unitID, checkIn, checkOut, excludeID)
	if err != nil {
		return nil, fmt.Errorf("querying overlapping reservations: %w", err)
	}
	return reservations, nil
}

// BlockedRanges returns operator holds overlapping the candidate range.
func (d *Detector) BlockedRanges(ctx context.Context, unitID string, checkIn, checkOut time.Time) ([]models.BlockedDate, error) {
	if d.findBlocked == nil {
		return nil, nil
	}
	blocks, err := d.findBlocked(ctx, unitID, checkIn, checkOut)
	if err != nil {
		return nil, fmt.Errorf("querying blocked dates: %w", err)
	}
	return blocks, nil
}

// DetermineConflictType classifies a conflict between a local and a remote
// range: identical ranges are a double booking, anything else a date
// overlap.
func DetermineConflictType(localStart, localEnd, remoteStart, remoteEnd time.Time) string {
	if localStart.Equal(remoteStart) && localEnd.Equal(remoteEnd) {
		return models.ConflictTypeDoubleBooking
	}
	return models.ConflictTypeDateOverlap
}
