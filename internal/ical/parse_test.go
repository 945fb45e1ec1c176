package ical

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func feed(body ...string) string {
	lines := append([]string{"BEGIN:VCALENDAR", "VERSION:2.0"}, body...)
	lines = append(lines, "END:VCALENDAR")
	return strings.Join(lines, "\r\n") + "\r\n"
}

func TestParseMissingWrapperIsFormatError(t *testing.T) {
	_, err := Parse("BEGIN:VEVENT\r\nUID:x\r\nEND:VEVENT\r\n")
	if err == nil {
		t.Fatal("expected error for missing VCALENDAR wrapper")
	}

	var fe *FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FormatError, got %T", err)
	}
}

func TestParseSingleEvent(t *testing.T) {
	raw := feed(
		"BEGIN:VEVENT",
		"UID:booking-123@airbnb.com",
		"DTSTART;VALUE=DATE:20250601",
		"DTEND;VALUE=DATE:20250605",
		"SUMMARY:Reserved - Alice",
		"STATUS:CONFIRMED",
		"END:VEVENT",
	)

	events, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}

	ev := events[0]
	if ev.UID != "booking-123@airbnb.com" {
		t.Errorf("UID = %q", ev.UID)
	}
	if !ev.AllDay {
		t.Error("expected all-day event for VALUE=DATE")
	}
	wantStart := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	wantEnd := time.Date(2025, 6, 5, 0, 0, 0, 0, time.UTC)
	if !ev.Start.Equal(wantStart) {
		t.Errorf("Start = %v, want %v", ev.Start, wantStart)
	}
	if !ev.End.Equal(wantEnd) {
		t.Errorf("End = %v, want %v", ev.End, wantEnd)
	}
	if ev.Summary != "Reserved - Alice" {
		t.Errorf("Summary = %q", ev.Summary)
	}
	if ev.Status != "CONFIRMED" {
		t.Errorf("Status = %q", ev.Status)
	}
}

func TestParseDateTimeFormats(t *testing.T) {
	cases := []struct {
		name    string
		dtstart string
		want    time.Time
		allDay  bool
	}{
		{"bare date", "DTSTART:20250601", time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), true},
		{"utc datetime", "DTSTART:20250601T140000Z", time.Date(2025, 6, 1, 14, 0, 0, 0, time.UTC), false},
		{"floating datetime", "DTSTART:20250601T140000", time.Date(2025, 6, 1, 14, 0, 0, 0, time.UTC), false},
		{"value=date param", "DTSTART;VALUE=DATE:20250601", time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			raw := feed(
				"BEGIN:VEVENT",
				"UID:u1",
				tc.dtstart,
				"DTEND:20250610",
				"END:VEVENT",
			)
			events, err := Parse(raw)
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if len(events) != 1 {
				t.Fatalf("got %d events, want 1", len(events))
			}
			if !events[0].Start.Equal(tc.want) {
				t.Errorf("Start = %v, want %v", events[0].Start, tc.want)
			}
			if events[0].AllDay != tc.allDay {
				t.Errorf("AllDay = %v, want %v", events[0].AllDay, tc.allDay)
			}
		})
	}
}

func TestParseSkipsEventsMissingRequiredProperties(t *testing.T) {
	raw := feed(
		// No UID
		"BEGIN:VEVENT",
		"DTSTART:20250601",
		"DTEND:20250605",
		"END:VEVENT",
		// No DTSTART
		"BEGIN:VEVENT",
		"UID:u2",
		"DTEND:20250605",
		"END:VEVENT",
		// No DTEND
		"BEGIN:VEVENT",
		"UID:u3",
		"DTSTART:20250601",
		"END:VEVENT",
		// Complete
		"BEGIN:VEVENT",
		"UID:u4",
		"DTSTART:20250601",
		"DTEND:20250605",
		"END:VEVENT",
	)

	events, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(events) != 1 || events[0].UID != "u4" {
		t.Fatalf("expected only u4 to survive, got %+v", events)
	}
}

func TestParseDropsUnterminatedEvent(t *testing.T) {
	raw := "BEGIN:VCALENDAR\r\n" +
		"BEGIN:VEVENT\r\n" +
		"UID:u1\r\n" +
		"DTSTART:20250601\r\n" +
		"DTEND:20250605\r\n" +
		"END:VCALENDAR\r\n"

	events, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("unterminated VEVENT should be dropped, got %d events", len(events))
	}
}

func TestParseUnfoldsContinuationLines(t *testing.T) {
	raw := "BEGIN:VCALENDAR\r\n" +
		"BEGIN:VEVENT\r\n" +
		"UID:u1\r\n" +
		"DTSTART:20250601\r\n" +
		"DTEND:20250605\r\n" +
		"SUMMARY:A very long summary that has been folde\r\n" +
		" d across two physical lines\r\n" +
		"END:VEVENT\r\n" +
		"END:VCALENDAR\r\n"

	events, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	want := "A very long summary that has been folded across two physical lines"
	if events[0].Summary != want {
		t.Errorf("Summary = %q, want %q", events[0].Summary, want)
	}
}

func TestParseUnescapesTextValues(t *testing.T) {
	raw := feed(
		"BEGIN:VEVENT",
		"UID:u1",
		"DTSTART:20250601",
		"DTEND:20250605",
		"DESCRIPTION:Line one\\nLine two\\, with comma\\; and semi",
		"END:VEVENT",
	)

	events, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := "Line one\nLine two, with comma; and semi"
	if events[0].Description != want {
		t.Errorf("Description = %q, want %q", events[0].Description, want)
	}
}

func TestParseUnknownPropertiesLandInExtra(t *testing.T) {
	raw := feed(
		"BEGIN:VEVENT",
		"UID:u1",
		"DTSTART:20250601",
		"DTEND:20250605",
		"X-AIRBNB-LISTING:12345",
		"END:VEVENT",
	)

	events, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if events[0].Extra["X-AIRBNB-LISTING"] != "12345" {
		t.Errorf("Extra = %v", events[0].Extra)
	}
}

func TestParseMultipleAttendeesAccumulate(t *testing.T) {
	raw := feed(
		"BEGIN:VEVENT",
		"UID:u1",
		"DTSTART:20250601",
		"DTEND:20250605",
		"ATTENDEE:mailto:a@example.com",
		"ATTENDEE:mailto:b@example.com",
		"END:VEVENT",
	)

	events, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(events[0].Attendees) != 2 {
		t.Errorf("Attendees = %v", events[0].Attendees)
	}
}

func TestParseEmptyCalendar(t *testing.T) {
	events, err := Parse("BEGIN:VCALENDAR\r\nVERSION:2.0\r\nEND:VCALENDAR\r\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("got %d events, want 0", len(events))
	}
}
