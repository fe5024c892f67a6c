package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/example/onereserve/internal/domain/booking"
)

func res(id string, st booking.Status) booking.Reservation {
	return booking.Reservation{
		ID: id, ServiceID: "svc", MerchantID: "m",
		Date: "2025-03-04", StartTime: "09:00:00", Status: st,
	}
}

func TestInsertRejectsSecondLiveReservation(t *testing.T) {
	ctx := context.Background()
	s := New()
	if _, err := s.InsertReservation(ctx, res("a", booking.StatusConfirmed)); err != nil {
		t.Fatal(err)
	}
	_, err := s.InsertReservation(ctx, res("b", booking.StatusPending))
	if !errors.Is(err, booking.ErrConstraintViolation) {
		t.Fatalf("err = %v, want constraint violation", err)
	}
	// cancelled rows never conflict
	if _, err := s.InsertReservation(ctx, res("c", booking.StatusCancelled)); err != nil {
		t.Fatal(err)
	}
}

func TestCancelReleasesSlot(t *testing.T) {
	ctx := context.Background()
	s := New()
	if _, err := s.InsertReservation(ctx, res("a", booking.StatusConfirmed)); err != nil {
		t.Fatal(err)
	}
	if err := s.UpdateStatus(ctx, "a", booking.StatusConfirmed, booking.StatusCancelled); err != nil {
		t.Fatal(err)
	}
	if _, err := s.InsertReservation(ctx, res("b", booking.StatusConfirmed)); err != nil {
		t.Fatalf("slot should be free after cancel: %v", err)
	}
	if err := s.UpdateStatus(ctx, "a", booking.StatusConfirmed, booking.StatusCancelled); !errors.Is(err, booking.ErrInvalidTransition) {
		t.Fatalf("stale from-status should fail, got %v", err)
	}
}

func TestListByMerchantKeepsInsertionOrderWithinSlot(t *testing.T) {
	ctx := context.Background()
	s := New()
	later := res("later", booking.StatusConfirmed)
	later.Date = "2025-03-11"
	for _, r := range []booking.Reservation{later, res("first", booking.StatusCancelled), res("second", booking.StatusCancelled), res("live", booking.StatusConfirmed)} {
		if _, err := s.InsertReservation(ctx, r); err != nil {
			t.Fatal(err)
		}
	}
	for range 20 {
		got, err := s.ListByMerchant(ctx, "m", "", "")
		if err != nil {
			t.Fatal(err)
		}
		var ids []string
		for _, r := range got {
			ids = append(ids, r.ID)
		}
		if fmt.Sprint(ids) != "[first second live later]" {
			t.Fatalf("ids = %v", ids)
		}
	}
}

func TestConcurrentInsertsOneWinner(t *testing.T) {
	ctx := context.Background()
	s := New()
	const n = 32
	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := s.InsertReservation(ctx, res(fmt.Sprintf("r%d", i), booking.StatusConfirmed)); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()
	if wins != 1 {
		t.Fatalf("wins = %d, want 1", wins)
	}
}

func TestSeedDemo(t *testing.T) {
	s := New()
	SeedDemo(s)
	svc, err := s.GetService(context.Background(), DemoServiceID)
	if err != nil {
		t.Fatal(err)
	}
	if svc.MerchantID != DemoMerchantID {
		t.Fatalf("merchant = %q", svc.MerchantID)
	}
	rows, _ := s.ListTemplates(context.Background(), DemoServiceID, nil)
	if len(rows) != 25 {
		t.Fatalf("templates = %d, want 25", len(rows))
	}
}
