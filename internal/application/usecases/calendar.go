package usecases

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/onereserve/internal/domain/booking"
)

const icsStamp = "20060102T150405Z"

// CalendarExport renders a reservation as a single-event iCalendar file.
type CalendarExport struct {
	Reservations booking.ReservationAdmin
	Directory    booking.Directory
	Location     *time.Location
	Now          func() time.Time
}

func (c CalendarExport) ICS(ctx context.Context, reservationID string) ([]byte, error) {
	reservationID = strings.TrimSpace(reservationID)
	if reservationID == "" {
		return nil, fmt.Errorf("%w: id required", booking.ErrInvalidPayload)
	}
	r, err := c.Reservations.GetReservation(ctx, reservationID)
	if err != nil {
		if errors.Is(err, booking.ErrReservationNotFound) {
			return nil, booking.ErrReservationNotFound
		}
		return nil, booking.WrapStore(booking.StepReservationLookup, err)
	}

	summary := "Service Booking"
	duration := booking.DefaultDurationMinutes
	svc, err := c.Directory.GetService(ctx, r.ServiceID)
	switch {
	case err == nil:
		summary = svc.Name
		duration = svc.Duration()
	case errors.Is(err, booking.ErrServiceNotFound):
	default:
		return nil, booking.WrapStore(booking.StepServiceLookup, err)
	}

	start, err := time.ParseInLocation(booking.DateLayout+" "+booking.HMSLayout, r.Date+" "+r.StartTime, c.Location)
	if err != nil {
		return nil, fmt.Errorf("reservation %s has malformed slot: %w", r.ID, err)
	}
	end := start.Add(time.Duration(duration) * time.Minute)

	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	lines := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//OneReserve//EN",
		"CALSCALE:GREGORIAN",
		"METHOD:PUBLISH",
		"BEGIN:VEVENT",
		"UID:" + r.ID + "@onereserve.app",
		"DTSTAMP:" + now().UTC().Format(icsStamp),
		"DTSTART:" + start.UTC().Format(icsStamp),
		"DTEND:" + end.UTC().Format(icsStamp),
		"SUMMARY:" + icsEscape(summary),
		"DESCRIPTION:" + icsEscape("Reserved by "+r.CustomerName),
		"END:VEVENT",
		"END:VCALENDAR",
	}
	return []byte(strings.Join(lines, "\r\n") + "\r\n"), nil
}

var icsEscaper = strings.NewReplacer(`\`, `\\`, ";", `\;`, ",", `\,`, "\r\n", `\n`, "\n", `\n`)

func icsEscape(s string) string { return icsEscaper.Replace(s) }
