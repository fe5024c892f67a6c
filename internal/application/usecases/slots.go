package usecases

import (
	"context"
	"fmt"
	"iter"
	"sort"
	"time"

	"github.com/example/onereserve/internal/domain/booking"
)

const (
	MinHorizonDays = 1
	MaxHorizonDays = 90
)

// ClampHorizon bounds a requested horizon to [MinHorizonDays, MaxHorizonDays].
func ClampHorizon(days int) int {
	if days < MinHorizonDays {
		return MinHorizonDays
	}
	if days > MaxHorizonDays {
		return MaxHorizonDays
	}
	return days
}

// TimeSet is a set of HH:MM start times.
type TimeSet map[string]struct{}

func (s TimeSet) Has(hm string) bool {
	_, ok := s[hm]
	return ok
}

// Sorted returns the members in ascending order; zero-padded HH:MM strings
// sort chronologically.
func (s TimeSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// SlotResolver expands weekly templates into published times and bookable dates.
type SlotResolver struct {
	Templates booking.TemplateStore
	Location  *time.Location
}

func (r SlotResolver) ResolveWeekdayTimes(ctx context.Context, serviceID string, weekday time.Weekday) (TimeSet, error) {
	wd := weekday
	rows, err := r.Templates.ListTemplates(ctx, serviceID, &wd)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	out := make(TimeSet, len(rows))
	for _, row := range rows {
		if hm := booking.ToMinute(row.StartTime); hm != "" {
			out[hm] = struct{}{}
		}
	}
	return out, nil
}

// OpenWeekdays returns the weekdays that have at least one template, using
// a single store query.
func (r SlotResolver) OpenWeekdays(ctx context.Context, serviceID string) (map[time.Weekday]bool, error) {
	rows, err := r.Templates.ListTemplates(ctx, serviceID, nil)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	open := make(map[time.Weekday]bool, 7)
	for _, row := range rows {
		if row.Weekday >= time.Sunday && row.Weekday <= time.Saturday {
			open[row.Weekday] = true
		}
	}
	return open, nil
}

// ResolveBookableDates returns the dates within the clamped horizon,
// starting at local midnight of today, whose weekday has a template. The
// store is queried once up front; the returned sequence walks the calendar
// lazily and can be ranged over any number of times.
func (r SlotResolver) ResolveBookableDates(ctx context.Context, serviceID string, horizonDays int, today time.Time) (iter.Seq[string], error) {
	open, err := r.OpenWeekdays(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	if len(open) == 0 {
		return func(func(string) bool) {}, nil
	}
	days := ClampHorizon(horizonDays)
	start := booking.Midnight(today, r.Location)
	return func(yield func(string) bool) {
		for i := 0; i < days; i++ {
			d := start.AddDate(0, 0, i)
			if !open[d.Weekday()] {
				continue
			}
			if !yield(d.Format(booking.DateLayout)) {
				return
			}
		}
	}, nil
}
