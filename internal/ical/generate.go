package ical

import (
	"fmt"
	"strings"
	"time"

	"github.com/channel-sync-manager/backend/internal/storage/models"
)

// UIDSuffix is appended to local reservation IDs when building export UIDs
// for bookings that did not originate from a feed.
const UIDSuffix = "@channel-sync-manager.app"

const (
	dateFormat      = "20060102"
	timestampFormat = "20060102T150405Z"
)

// Generate renders the export feed for one unit. Only reservations that
// occupy dates (pending, confirmed, checked_in) are emitted; cancelled
// bookings are omitted entirely rather than exported as CANCELLED, which
// keeps downstream calendar consumers simple. Blocked date ranges are
// emitted as "Not available" events.
//
// Every content line is folded at 75 octets and the document uses CRLF line
// endings with a trailing CRLF.
func Generate(unitID, unitTitle string, reservations []models.Reservation, blocks []models.BlockedDate, baseURL string) string {
	lines := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//Channel Sync Manager//Calendar Export//EN",
		"CALSCALE:GREGORIAN",
		"METHOD:PUBLISH",
		"X-WR-CALNAME:" + Escape(unitTitle),
		"X-WR-TIMEZONE:UTC",
		"X-PUBLISHED-TTL:PT1H",
	}

	now := time.Now().UTC()

	for _, res := range reservations {
		if !res.IsActive() {
			continue
		}
		lines = append(lines, reservationLines(unitTitle, res, baseURL, now)...)
	}

	for _, block := range blocks {
		lines = append(lines, blockLines(unitID, block, now)...)
	}

	lines = append(lines, "END:VCALENDAR")

	var b strings.Builder
	for _, line := range lines {
		b.WriteString(FoldLine(line))
		b.WriteString("\r\n")
	}
	return b.String()
}

// reservationLines renders one reservation as a VEVENT block.
func reservationLines(unitTitle string, res models.Reservation, baseURL string, now time.Time) []string {
	uid := res.ID + UIDSuffix
	if res.ExternalBookingID != nil && *res.ExternalBookingID != "" {
		uid = *res.ExternalBookingID
	}

	summary := unitTitle
	if res.GuestName != "" {
		summary += " - " + res.GuestName
	}

	lines := []string{
		"BEGIN:VEVENT",
		"UID:" + Escape(uid),
		"DTSTAMP:" + now.Format(timestampFormat),
		"CREATED:" + res.CreatedAt.UTC().Format(timestampFormat),
		"LAST-MODIFIED:" + res.UpdatedAt.UTC().Format(timestampFormat),
		"DTSTART;VALUE=DATE:" + res.CheckIn.UTC().Format(dateFormat),
		"DTEND;VALUE=DATE:" + res.CheckOut.UTC().Format(dateFormat),
		"SUMMARY:" + Escape(summary),
		"DESCRIPTION:" + Escape(reservationDescription(res)),
		"STATUS:" + exportStatus(res.Status),
	}

	if baseURL != "" {
		lines = append(lines, "URL:"+Escape(strings.TrimRight(baseURL, "/")+"/reservations/"+res.ID))
	}

	lines = append(lines, "END:VEVENT")
	return lines
}

// blockLines renders one blocked date range as a VEVENT block.
func blockLines(unitID string, block models.BlockedDate, now time.Time) []string {
	summary := "Not available"
	if block.Reason != "" {
		summary += " - " + block.Reason
	}

	return []string{
		"BEGIN:VEVENT",
		"UID:" + Escape(block.ID+UIDSuffix),
		"DTSTAMP:" + now.Format(timestampFormat),
		"DTSTART;VALUE=DATE:" + block.StartDate.UTC().Format(dateFormat),
		"DTEND;VALUE=DATE:" + block.EndDate.UTC().Format(dateFormat),
		"SUMMARY:" + Escape(summary),
		"STATUS:CONFIRMED",
		"END:VEVENT",
	}
}

// reservationDescription builds the multi-field description body. Newlines
// between fields are escaped to \n by the caller via Escape.
func reservationDescription(res models.Reservation) string {
	fields := []string{
		"Booking: " + res.ID,
		"Guest: " + res.GuestName,
	}
	if res.GuestEmail != nil && *res.GuestEmail != "" {
		fields = append(fields, "Email: "+*res.GuestEmail)
	}
	if res.GuestPhone != nil && *res.GuestPhone != "" {
		fields = append(fields, "Phone: "+*res.GuestPhone)
	}
	fields = append(fields,
		fmt.Sprintf("Nights: %d", res.Nights()),
		fmt.Sprintf("Total: %.2f", res.TotalAmount),
		"Status: "+res.Status,
	)
	return strings.Join(fields, "\n")
}

// exportStatus maps a reservation status to the iCal STATUS value.
func exportStatus(status string) string {
	switch status {
	case models.ReservationStatusConfirmed, models.ReservationStatusCheckedIn:
		return models.EventStatusConfirmed
	case models.ReservationStatusCancelled:
		return models.EventStatusCancelled
	default:
		return models.EventStatusTentative
	}
}
