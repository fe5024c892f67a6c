package usecases

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/example/onereserve/internal/domain/booking"
)

// AvailabilityCalculator answers "which times are still free on this date".
// The answer is a hint for the UI; ReservationGuard enforces it on write.
type AvailabilityCalculator struct {
	Slots    SlotResolver
	Ledger   booking.Ledger
	Location *time.Location
}

func (c AvailabilityCalculator) AvailableTimes(ctx context.Context, serviceID, date string) ([]string, error) {
	serviceID = strings.TrimSpace(serviceID)
	if serviceID == "" {
		return nil, booking.ErrInvalidPayload
	}
	weekday, err := booking.WeekdayOf(date, c.Location)
	if err != nil {
		return nil, err
	}

	all, err := c.Slots.ResolveWeekdayTimes(ctx, serviceID, weekday)
	if err != nil {
		return nil, booking.WrapStore(booking.StepSlots, err)
	}
	if len(all) == 0 {
		return []string{}, nil
	}

	rows, err := c.Ledger.ListReservations(ctx, booking.ReservationQuery{
		ServiceID:     serviceID,
		Date:          date,
		ExcludeStatus: booking.StatusCancelled,
	})
	if err != nil {
		return nil, booking.WrapStore(booking.StepBookings, fmt.Errorf("list reservations: %w", err))
	}
	booked := make(TimeSet, len(rows))
	for _, r := range rows {
		if !r.Status.HoldsSlot() {
			continue
		}
		if hm := booking.ToMinute(r.StartTime); hm != "" {
			booked[hm] = struct{}{}
		}
	}

	free := make(TimeSet, len(all))
	for t := range all {
		if !booked.Has(t) {
			free[t] = struct{}{}
		}
	}
	return free.Sorted(), nil
}
