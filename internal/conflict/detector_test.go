package conflict

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/channel-sync-manager/backend/internal/storage/models"
)

func day(d int) time.Time {
	return time.Date(2025, 1, d, 0, 0, 0, 0, time.UTC)
}

func TestOverlaps(t *testing.T) {
	cases := []struct {
		name         string
		aStart, aEnd time.Time
		bStart, bEnd time.Time
		want         bool
	}{
		{"touching ranges do not overlap", day(10), day(15), day(15), day(20), false},
		{"touching ranges reversed", day(15), day(20), day(10), day(15), false},
		{"partial overlap", day(10), day(15), day(12), day(18), true},
		{"identical ranges", day(10), day(15), day(10), day(15), true},
		{"contained range", day(10), day(20), day(12), day(14), true},
		{"disjoint ranges", day(1), day(5), day(10), day(15), false},
		{"single night inside", day(1), day(30), day(14), day(15), true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Overlaps(tc.aStart, tc.aEnd, tc.bStart, tc.bEnd); got != tc.want {
				t.Errorf("Overlaps = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestDetermineConflictType(t *testing.T) {
	if got := DetermineConflictType(day(10), day(15), day(10), day(15)); got != models.ConflictTypeDoubleBooking {
		t.Errorf("identical ranges: got %s, want double_booking", got)
	}
	if got := DetermineConflictType(day(10), day(15), day(12), day(18)); got != models.ConflictTypeDateOverlap {
		t.Errorf("partial overlap: got %s, want date_overlap", got)
	}
	if got := DetermineConflictType(day(10), day(15), day(10), day(16)); got != models.ConflictTypeDateOverlap {
		t.Errorf("same start different end: got %s, want date_overlap", got)
	}
}

func TestHasConflictDelegatesToQuery(t *testing.T) {
	stored := []models.Reservation{
		{ID: "res-1", CheckIn: day(10), CheckOut: day(15)},
	}

	find := func(ctx context.Context, unitID string, checkIn, checkOut time.Time, excludeID string) ([]models.Reservation, error) {
		var out []models.Reservation
		for _, r := range stored {
			if r.ID == excludeID {
				continue
			}
			if Overlaps(r.CheckIn, r.CheckOut, checkIn, checkOut) {
				out = append(out, r)
			}
		}
		return out, nil
	}

	d := NewDetector(find, nil)
	ctx := context.Background()

	got, err := d.HasConflict(ctx, "unit-1", day(12), day(18), "")
	if err != nil || !got {
		t.Errorf("overlapping range: got (%v, %v), want conflict", got, err)
	}

	got, err = d.HasConflict(ctx, "unit-1", day(15), day(20), "")
	if err != nil || got {
		t.Errorf("touching range: got (%v, %v), want no conflict", got, err)
	}

	got, err = d.HasConflict(ctx, "unit-1", day(12), day(18), "res-1")
	if err != nil || got {
		t.Errorf("excluded reservation: got (%v, %v), want no conflict", got, err)
	}
}

func TestConflictingReservationsWrapsQueryError(t *testing.T) {
	queryErr := errors.New("db closed")
	find := func(ctx context.Context, unitID string, checkIn, checkOut time.Time, excludeID string) ([]models.Reservation, error) {
		return nil, queryErr
	}

	d := NewDetector(find, nil)
	_, err := d.ConflictingReservations(context.Background(), "unit-1", day(1), day(2), "")
	if !errors.Is(err, queryErr) {
		t.Errorf("expected wrapped query error, got %v", err)
	}
}

func TestBlockedRangesNilQueryReturnsEmpty(t *testing.T) {
	d := NewDetector(nil, nil)
	blocks, err := d.BlockedRanges(context.Background(), "unit-1", day(1), day(5))
	if err != nil || blocks != nil {
		t.Errorf("got (%v, %v), want (nil, nil)", blocks, err)
	}
}

func TestBlockedRangesDelegatesToQuery(t *testing.T) {
	block := models.BlockedDate{ID: "b1", StartDate: day(3), EndDate: day(6)}
	findBlocked := func(ctx context.Context, unitID string, checkIn, checkOut time.Time) ([]models.BlockedDate, error) {
		if Overlaps(block.StartDate, block.EndDate, checkIn, checkOut) {
			return []models.BlockedDate{block}, nil
		}
		return nil, nil
	}

	d := NewDetector(nil, findBlocked)
	blocks, err := d.BlockedRanges(context.Background(), "unit-1", day(5), day(10))
	if err != nil {
		t.Fatalf("BlockedRanges: %v", err)
	}
	if len(blocks) != 1 {
		t.Errorf("got %d blocks, want 1", len(blocks))
	}
}
