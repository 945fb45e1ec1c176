// Package ical implements the subset of RFC 5545 used for booking import and
// export: VCALENDAR/VEVENT scanning, line folding, text escaping, and the
// date formats OTA feeds actually send. Recurrence rules, alarms, and
// non-UTC timezones are not supported.
package ical

import (
	"log"
	"strings"
	"time"

	"github.com/channel-sync-manager/backend/internal/storage/models"
)

// FormatError indicates the feed body is not a parseable iCalendar document.
type FormatError struct {
	Reason string
}

func (e *FormatError) Error() string {
	return "invalid calendar format: " + e.Reason
}

// Parse parses raw iCal text into calendar events in feed order.
//
// The document must contain a BEGIN:VCALENDAR / END:VCALENDAR wrapper.
// Individual VEVENTs missing UID, DTSTART, or DTEND are skipped rather than
// failing the whole parse, and unterminated VEVENT blocks are dropped with a
// warning. Duplicate UIDs are not collapsed here; reconciliation owns dedup.
func Parse(raw string) ([]models.CalendarEvent, error) {
	if !strings.Contains(raw, "BEGIN:VCALENDAR") {
		return nil, &FormatError{Reason: "missing BEGIN:VCALENDAR"}
	}

	lines := strings.Split(Unfold(raw), "\n")

	var events []models.CalendarEvent
	var buffer []string
	inEvent := false

	for _, line := range lines {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}

		switch {
		case line == "BEGIN:VEVENT":
			if inEvent {
				log.Printf("ical: unterminated VEVENT dropped (%d properties)", len(buffer))
			}
			inEvent = true
			buffer = buffer[:0]

		case line == "END:VEVENT":
			if !inEvent {
				continue
			}
			inEvent = false
			if ev, ok := buildEvent(buffer); ok {
				events = append(events, ev)
			}

		default:
			if inEvent {
				buffer = append(buffer, line)
			}
		}
	}

	if inEvent {
		log.Printf("ical: unterminated VEVENT at end of feed dropped (%d properties)", len(buffer))
	}

	return events, nil
}

// setterFunc applies one recognized property to an event under construction.
// params are the raw ;PARAM=value segments from the property spec.
type setterFunc func(ev *models.CalendarEvent, value string, params []string)

// propertySetters is the decode table from normalized property name to
// setter. Names not present here land in the event's Extra map.
var propertySetters = map[string]setterFunc{
	"UID": func(ev *models.CalendarEvent, value string, _ []string) {
		ev.UID = value
	},
	"SUMMARY": func(ev *models.CalendarEvent, value string, _ []string) {
		ev.Summary = value
	},
	"DESCRIPTION": func(ev *models.CalendarEvent, value string, _ []string) {
		ev.Description = value
	},
	"LOCATION": func(ev *models.CalendarEvent, value string, _ []string) {
		ev.Location = value
	},
	"STATUS": func(ev *models.CalendarEvent, value string, _ []string) {
		ev.Status = strings.ToUpper(value)
	},
	"ORGANIZER": func(ev *models.CalendarEvent, value string, _ []string) {
		ev.Organizer = value
	},
	"ATTENDEE": func(ev *models.CalendarEvent, value string, _ []string) {
		ev.Attendees = append(ev.Attendees, value)
	},
	"DTSTART": func(ev *models.CalendarEvent, value string, params []string) {
		if t, allDay, err := parseDateTime(value, params); err == nil {
			ev.Start = t
			ev.AllDay = allDay
		}
	},
	"DTEND": func(ev *models.CalendarEvent, value string, params []string) {
		if t, _, err := parseDateTime(value, params); err == nil {
			ev.End = t
		}
	},
	"CREATED": func(ev *models.CalendarEvent, value string, params []string) {
		if t, _, err := parseDateTime(value, params); err == nil {
			ev.Created = t
		}
	},
	"LAST-MODIFIED": func(ev *models.CalendarEvent, value string, params []string) {
		if t, _, err := parseDateTime(value, params); err == nil {
			ev.LastModified = t
		}
	},
}

// buildEvent decodes one buffered VEVENT block. Returns false if the event
// lacks a UID or a usable date range and must be discarded.
func buildEvent(lines []string) (models.CalendarEvent, bool) {
	var ev models.CalendarEvent

	for _, line := range lines {
		colon := strings.Index(line, ":")
		if colon == -1 {
			continue
		}

		spec := line[:colon]
		value := Unescape(line[colon+1:])

		name := spec
		var params []string
		if semi := strings.Index(spec, ";"); semi != -1 {
			name = spec[:semi]
			params = strings.Split(spec[semi+1:], ";")
		}
		name = strings.ToUpper(strings.TrimSpace(name))

		if setter, ok := propertySetters[name]; ok {
			setter(&ev, value, params)
		} else if name != "" {
			if ev.Extra == nil {
				ev.Extra = make(map[string]string)
			}
			ev.Extra[name] = value
		}
	}

	if ev.UID == "" || ev.Start.IsZero() || ev.End.IsZero() {
		return models.CalendarEvent{}, false
	}

	return ev, true
}

// parseDateTime parses an iCal date or datetime value. Bare YYYYMMDD values
// (or any value carrying VALUE=DATE) are all-day dates at UTC midnight.
func parseDateTime(value string, params []string) (time.Time, bool, error) {
	dateOnly := len(value) == 8
	for _, p := range params {
		if strings.EqualFold(p, "VALUE=DATE") {
			dateOnly = true
		}
	}

	if dateOnly {
		t, err := time.ParseInLocation("20060102", value, time.UTC)
		return t, true, err
	}

	for _, format := range []string{"20060102T150405Z", "20060102T150405"} {
		if t, err := time.ParseInLocation(format, value, time.UTC); err == nil {
			return t, false, nil
		}
	}

	// Last resort for feeds that emit ISO 8601 with separators.
	for _, format := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.ParseInLocation(format, value, time.UTC); err == nil {
			return t.UTC(), len(format) == len("2006-01-02"), nil
		}
	}

	return time.Time{}, false, &FormatError{Reason: "unrecognized date value: " + value}
}
