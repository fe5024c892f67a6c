package usecases

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/example/onereserve/internal/domain/booking"
	"github.com/example/onereserve/internal/infrastructure/memory"
)

func TestAvailableTimesSubtractsLiveReservations(t *testing.T) {
	ctx := context.Background()
	s := newFixture()
	s.AddTemplate(booking.SlotTemplate{ServiceID: svcID, Weekday: time.Tuesday, StartTime: "10:30"})
	s.AddTemplate(booking.SlotTemplate{ServiceID: svcID, Weekday: time.Tuesday, StartTime: "08:15"})
	for _, r := range []booking.Reservation{
		{ID: "a", ServiceID: svcID, Date: tuesday, StartTime: "10:30:00", Status: booking.StatusPending},
		{ID: "b", ServiceID: svcID, Date: tuesday, StartTime: "08:15:00", Status: booking.StatusCancelled},
		{ID: "c", ServiceID: svcID, Date: "2025-03-11", StartTime: "09:00:00", Status: booking.StatusConfirmed},
	} {
		if _, err := s.InsertReservation(ctx, r); err != nil {
			t.Fatal(err)
		}
	}
	calc, _ := newEngine(s, nil, nil)

	got, err := calc.AvailableTimes(ctx, svcID, tuesday)
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"08:15", "09:00"}; !slices.Equal(got, want) {
		t.Fatalf("times = %v, want %v", got, want)
	}

	again, err := calc.AvailableTimes(ctx, svcID, tuesday)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(got, again) {
		t.Fatalf("repeated read differs: %v vs %v", got, again)
	}
}

func TestAvailableTimesSkipsLedgerWithoutTemplates(t *testing.T) {
	s := newFixture()
	ledger := &countingLedger{Ledger: s}
	calc, _ := newEngine(s, ledger, nil)

	got, err := calc.AvailableTimes(context.Background(), svcID, wednesday)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("want empty non-nil slice, got %#v", got)
	}
	if n := ledger.lists.Load(); n != 0 {
		t.Fatalf("ledger queried %d times", n)
	}

	calc.Slots.Templates = memory.New()
	if _, err := calc.AvailableTimes(context.Background(), svcID, tuesday); err != nil {
		t.Fatal(err)
	}
	if n := ledger.lists.Load(); n != 0 {
		t.Fatalf("ledger queried %d times for a service without templates", n)
	}
}

func TestAvailableTimesValidation(t *testing.T) {
	calc, _ := newEngine(newFixture(), nil, nil)
	for _, d := range []string{"", "2025-13-01", "03/04/2025", "2025-02-30"} {
		if _, err := calc.AvailableTimes(context.Background(), svcID, d); !errors.Is(err, booking.ErrInvalidDate) {
			t.Errorf("date %q: err = %v, want ErrInvalidDate", d, err)
		}
	}
	if _, err := calc.AvailableTimes(context.Background(), " ", tuesday); !errors.Is(err, booking.ErrInvalidPayload) {
		t.Errorf("blank service: err = %v", err)
	}
}

func TestAvailableTimesStoreFailures(t *testing.T) {
	s := newFixture()
	calc, _ := newEngine(s, failingLedger{Ledger: s, listErr: errors.New("timeout")}, nil)

	_, err := calc.AvailableTimes(context.Background(), svcID, tuesday)
	var se *booking.StoreError
	if !errors.As(err, &se) || se.Step != booking.StepBookings {
		t.Fatalf("err = %v, want bookings store error", err)
	}

	calc.Slots.Templates = failingTemplates{}
	_, err = calc.AvailableTimes(context.Background(), svcID, tuesday)
	if !errors.As(err, &se) || se.Step != booking.StepSlots {
		t.Fatalf("err = %v, want slots store error", err)
	}
}

func TestBookableDatesRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newFixture()
	calc, guard := newEngine(s, nil, nil)
	seq, err := calc.Slots.ResolveBookableDates(ctx, svcID, 14, time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}
	dates := slices.Collect(seq)
	if len(dates) != 2 {
		t.Fatalf("dates = %v", dates)
	}
	if _, err := guard.CreateReservation(ctx, ReservationRequest{ServiceID: svcID, Date: dates[0], Time: "09:00", Customer: customer()}); err != nil {
		t.Fatal(err)
	}
	full, _ := calc.AvailableTimes(ctx, svcID, dates[0])
	open, _ := calc.AvailableTimes(ctx, svcID, dates[1])
	if len(full) != 0 || len(open) != 1 {
		t.Fatalf("full=%v open=%v", full, open)
	}
}
