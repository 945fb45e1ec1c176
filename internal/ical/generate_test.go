package ical

import (
	"strings"
	"testing"
	"time"

	"github.com/channel-sync-manager/backend/internal/storage/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func sampleReservation(id string, status string) models.Reservation {
	email := "alice@example.com"
	return models.Reservation{
		ID:          id,
		UnitID:      "unit-1",
		CheckIn:     date(2025, 6, 1),
		CheckOut:    date(2025, 6, 5),
		Status:      status,
		GuestName:   "Alice Smith",
		GuestEmail:  &email,
		TotalAmount: 540.00,
		Channel:     "airbnb",
		CreatedAt:   date(2025, 5, 1),
		UpdatedAt:   date(2025, 5, 2),
	}
}

func TestGenerateHeaderAndStructure(t *testing.T) {
	out := Generate("unit-1", "Beach House", nil, nil, "")

	if !strings.HasPrefix(out, "BEGIN:VCALENDAR\r\n") {
		t.Error("missing VCALENDAR begin")
	}
	if !strings.HasSuffix(out, "END:VCALENDAR\r\n") {
		t.Error("missing VCALENDAR end with trailing CRLF")
	}
	for _, want := range []string{
		"VERSION:2.0",
		"PRODID:-//Channel Sync Manager//Calendar Export//EN",
		"X-WR-CALNAME:Beach House",
		"METHOD:PUBLISH",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q", want)
		}
	}
}

func TestGenerateActiveReservation(t *testing.T) {
	res := sampleReservation("res-1", models.ReservationStatusConfirmed)
	out := Generate("unit-1", "Beach House", []models.Reservation{res}, nil, "")

	for _, want := range []string{
		"BEGIN:VEVENT",
		"UID:res-1" + UIDSuffix,
		"DTSTART;VALUE=DATE:20250601",
		"DTEND;VALUE=DATE:20250605",
		"SUMMARY:Beach House - Alice Smith",
		"STATUS:CONFIRMED",
		"END:VEVENT",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in output:\n%s", want, out)
		}
	}
}

func TestGenerateOmitsCancelledReservations(t *testing.T) {
	res := sampleReservation("res-1", models.ReservationStatusCancelled)
	out := Generate("unit-1", "Beach House", []models.Reservation{res}, nil, "")

	if strings.Contains(out, "BEGIN:VEVENT") {
		t.Error("cancelled reservation should not be exported")
	}
}

func TestGeneratePrefersExternalBookingUID(t *testing.T) {
	res := sampleReservation("res-1", models.ReservationStatusConfirmed)
	external := "booking-999@airbnb.com"
	res.ExternalBookingID = &external

	out := Generate("unit-1", "Beach House", []models.Reservation{res}, nil, "")
	if !strings.Contains(out, "UID:booking-999@airbnb.com") {
		t.Error("expected external booking ID as UID")
	}
}

func TestGenerateBlockedDates(t *testing.T) {
	block := models.BlockedDate{
		ID:        "block-1",
		UnitID:    "unit-1",
		StartDate: date(2025, 7, 1),
		EndDate:   date(2025, 7, 8),
		Reason:    "Maintenance",
	}

	out := Generate("unit-1", "Beach House", nil, []models.BlockedDate{block}, "")
	for _, want := range []string{
		"SUMMARY:Not available - Maintenance",
		"DTSTART;VALUE=DATE:20250701",
		"DTEND;VALUE=DATE:20250708",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q", want)
		}
	}
}

func TestGenerateStatusMapping(t *testing.T) {
	cases := []struct {
		status string
		want   string
	}{
		{models.ReservationStatusConfirmed, "STATUS:CONFIRMED"},
		{models.ReservationStatusCheckedIn, "STATUS:CONFIRMED"},
		{models.ReservationStatusPending, "STATUS:TENTATIVE"},
	}
	for _, tc := range cases {
		res := sampleReservation("res-1", tc.status)
		out := Generate("unit-1", "Beach House", []models.Reservation{res}, nil, "")
		if !strings.Contains(out, tc.want) {
			t.Errorf("status %s: missing %q", tc.status, tc.want)
		}
	}
}

func TestGenerateLinesStayWithinFoldWidth(t *testing.T) {
	res := sampleReservation("res-1", models.ReservationStatusConfirmed)
	res.GuestName = strings.Repeat("Verylongname ", 20)

	out := Generate("unit-1", strings.Repeat("Grand Estate ", 10), []models.Reservation{res}, nil, "https://example.com")
	for _, line := range strings.Split(out, "\r\n") {
		if len(line) > 75 {
			t.Errorf("physical line exceeds 75 octets (%d): %q", len(line), line)
		}
	}
}

func TestGenerateParseRoundTrip(t *testing.T) {
	res := sampleReservation("res-1", models.ReservationStatusConfirmed)
	res.GuestName = "Smith; Alice, and\nfamily"

	out := Generate("unit-1", "Beach House", []models.Reservation{res}, nil, "")

	events, err := Parse(out)
	if err != nil {
		t.Fatalf("Parse of generated feed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}

	ev := events[0]
	if ev.UID != "res-1"+UIDSuffix {
		t.Errorf("UID = %q", ev.UID)
	}
	if !ev.Start.Equal(res.CheckIn) {
		t.Errorf("Start = %v, want %v", ev.Start, res.CheckIn)
	}
	if !ev.End.Equal(res.CheckOut) {
		t.Errorf("End = %v, want %v", ev.End, res.CheckOut)
	}
	if !ev.AllDay {
		t.Error("expected all-day event")
	}
	want := "Beach House - Smith; Alice, and\nfamily"
	if ev.Summary != want {
		t.Errorf("Summary = %q, want %q", ev.Summary, want)
	}
}
