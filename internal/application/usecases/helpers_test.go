package usecases

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/example/onereserve/internal/domain/booking"
	"github.com/example/onereserve/internal/infrastructure/memory"
)

const (
	svcID      = "svc-1"
	merchantID = "m-1"
	tuesday    = "2025-03-04"
	wednesday  = "2025-03-05"
)

func newFixture() *memory.Store {
	s := memory.New()
	s.AddMerchant(booking.Merchant{ID: merchantID, Name: "Cut & Co", ContactEmail: "owner@cut.test"})
	s.AddService(booking.Service{ID: svcID, MerchantID: merchantID, Name: "Haircut", DurationMinutes: 30})
	s.AddTemplate(booking.SlotTemplate{ServiceID: svcID, Weekday: time.Tuesday, StartTime: "09:00"})
	return s
}

func newEngine(store *memory.Store, ledger booking.Ledger, n booking.Notifier) (AvailabilityCalculator, ReservationGuard) {
	if ledger == nil {
		ledger = store
	}
	slots := SlotResolver{Templates: store, Location: time.UTC}
	calc := AvailabilityCalculator{Slots: slots, Ledger: ledger, Location: time.UTC}
	guard := ReservationGuard{
		Directory: store,
		Slots:     slots,
		Ledger:    ledger,
		Notifier:  n,
		Location:  time.UTC,
	}
	return calc, guard
}

func customer() booking.Customer {
	return booking.Customer{Name: "Ada", Email: "ada@example.test"}
}

// countingLedger counts calls to the wrapped ledger.
type countingLedger struct {
	booking.Ledger
	lists   atomic.Int32
	inserts atomic.Int32
}

func (l *countingLedger) ListReservations(ctx context.Context, q booking.ReservationQuery) ([]booking.Reservation, error) {
	l.lists.Add(1)
	return l.Ledger.ListReservations(ctx, q)
}

func (l *countingLedger) InsertReservation(ctx context.Context, r booking.Reservation) (string, error) {
	l.inserts.Add(1)
	return l.Ledger.InsertReservation(ctx, r)
}

// barrierLedger holds every conflict check until `parties` callers have
// passed it, so all of them reach the insert believing the slot is free.
type barrierLedger struct {
	booking.Ledger
	mu      sync.Mutex
	parties int
	release chan struct{}
}

func newBarrierLedger(inner booking.Ledger, parties int) *barrierLedger {
	return &barrierLedger{Ledger: inner, parties: parties, release: make(chan struct{})}
}

func (l *barrierLedger) ListReservations(ctx context.Context, q booking.ReservationQuery) ([]booking.Reservation, error) {
	rows, err := l.Ledger.ListReservations(ctx, q)
	l.mu.Lock()
	l.parties--
	if l.parties == 0 {
		close(l.release)
	}
	l.mu.Unlock()
	select {
	case <-l.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return rows, err
}

type failingLedger struct {
	booking.Ledger
	listErr, insertErr error
}

func (l failingLedger) ListReservations(ctx context.Context, q booking.ReservationQuery) ([]booking.Reservation, error) {
	if l.listErr != nil {
		return nil, l.listErr
	}
	return l.Ledger.ListReservations(ctx, q)
}

func (l failingLedger) InsertReservation(ctx context.Context, r booking.Reservation) (string, error) {
	if l.insertErr != nil {
		return "", l.insertErr
	}
	return l.Ledger.InsertReservation(ctx, r)
}

type failingTemplates struct{}

func (failingTemplates) ListTemplates(context.Context, string, *time.Weekday) ([]booking.SlotTemplate, error) {
	return nil, errors.New("connection reset")
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []booking.ReservationCreated
	err    error
}

func (n *recordingNotifier) NotifyReservationCreated(_ context.Context, ev booking.ReservationCreated) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
	return n.err
}

type panickingNotifier struct{}

func (panickingNotifier) NotifyReservationCreated(context.Context, booking.ReservationCreated) error {
	panic("mailer exploded")
}
