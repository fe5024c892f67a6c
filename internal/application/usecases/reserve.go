package usecases

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/example/onereserve/internal/domain/booking"
)

// ReservationGuard is the only write path for reservations. The conflict
// pre-check only produces a clean error early; the ledger's uniqueness
// constraint on live (service, date, time) rows is what settles races.
type ReservationGuard struct {
	Directory booking.Directory
	Slots     SlotResolver
	Ledger    booking.Ledger
	Notifier  booking.Notifier
	Location  *time.Location

	NewID func() string
	Now   func() time.Time
}

type ReservationRequest struct {
	ServiceID string
	Date      string // YYYY-MM-DD
	Time      string // HH:MM
	Customer  booking.Customer
}

// Normalize returns a copy with every field trimmed.
func (r ReservationRequest) Normalize() ReservationRequest {
	return ReservationRequest{
		ServiceID: strings.TrimSpace(r.ServiceID),
		Date:      strings.TrimSpace(r.Date),
		Time:      strings.TrimSpace(r.Time),
		Customer:  r.Customer.Trimmed(),
	}
}

func (r ReservationRequest) Validate() error {
	switch {
	case r.Customer.Name == "":
		return fmt.Errorf("%w: customer_name required", booking.ErrInvalidPayload)
	case r.Customer.Email == "":
		return fmt.Errorf("%w: customer_email required", booking.ErrInvalidPayload)
	case r.ServiceID == "":
		return fmt.Errorf("%w: service_id required", booking.ErrInvalidPayload)
	case !booking.IsDate(r.Date):
		return fmt.Errorf("%w: date must be YYYY-MM-DD", booking.ErrInvalidPayload)
	case !booking.IsHM(r.Time):
		return fmt.Errorf("%w: time must be HH:MM", booking.ErrInvalidPayload)
	}
	return nil
}

// CreateReservation books a confirmed reservation on the customer self-service path.
func (g ReservationGuard) CreateReservation(ctx context.Context, req ReservationRequest) (string, error) {
	return g.create(ctx, req, booking.StatusConfirmed, nil)
}

// create runs the validation chain and commits. authorize, when set, is
// consulted after the service lookup.
func (g ReservationGuard) create(ctx context.Context, req ReservationRequest, status booking.Status, authorize func(booking.Service) error) (string, error) {
	req = req.Normalize()
	if err := req.Validate(); err != nil {
		return "", err
	}

	svc, err := g.Directory.GetService(ctx, req.ServiceID)
	if err != nil {
		if errors.Is(err, booking.ErrServiceNotFound) {
			return "", booking.ErrServiceNotFound
		}
		return "", booking.WrapStore(booking.StepServiceLookup, err)
	}
	if authorize != nil {
		if err := authorize(svc); err != nil {
			return "", err
		}
	}

	weekday, err := booking.WeekdayOf(req.Date, g.Location)
	if err != nil {
		return "", fmt.Errorf("%w: %v", booking.ErrInvalidPayload, err)
	}
	published, err := g.Slots.ResolveWeekdayTimes(ctx, svc.ID, weekday)
	if err != nil {
		return "", booking.WrapStore(booking.StepSlotLookup, err)
	}
	if !published.Has(req.Time) {
		return "", booking.ErrSlotNotAvailable
	}

	startTime := booking.ToSeconds(req.Time)
	held, err := g.Ledger.ListReservations(ctx, booking.ReservationQuery{
		ServiceID:     svc.ID,
		Date:          req.Date,
		StartTime:     startTime,
		ExcludeStatus: booking.StatusCancelled,
	})
	if err != nil {
		return "", booking.WrapStore(booking.StepConflictCheck, err)
	}
	for _, r := range held {
		if r.Status.HoldsSlot() {
			return "", booking.ErrSlotAlreadyBooked
		}
	}

	now := time.Now
	if g.Now != nil {
		now = g.Now
	}
	newID := uuid.NewString
	if g.NewID != nil {
		newID = g.NewID
	}
	ts := now().UTC()
	row := booking.Reservation{
		ID:            newID(),
		ServiceID:     svc.ID,
		MerchantID:    svc.MerchantID,
		CustomerName:  req.Customer.Name,
		CustomerEmail: req.Customer.Email,
		Date:          req.Date,
		StartTime:     startTime,
		Status:        status,
		CreatedAt:     ts,
		UpdatedAt:     ts,
	}
	id, err := g.Ledger.InsertReservation(ctx, row)
	if err != nil {
		if errors.Is(err, booking.ErrConstraintViolation) {
			return "", booking.ErrSlotAlreadyBooked
		}
		return "", booking.WrapStore(booking.StepInsert, err)
	}

	g.notify(ctx, booking.ReservationCreated{
		ReservationID:   id,
		MerchantID:      svc.MerchantID,
		Customer:        req.Customer,
		ServiceName:     svc.Name,
		DurationMinutes: svc.Duration(),
		Date:            req.Date,
		Time:            req.Time,
	})
	return id, nil
}

// notify hands the event to the side channel. Nothing it does can change
// the outcome of the reservation.
func (g ReservationGuard) notify(ctx context.Context, ev booking.ReservationCreated) {
	if g.Notifier == nil {
		return
	}
	defer func() { _ = recover() }()
	_ = g.Notifier.NotifyReservationCreated(context.WithoutCancel(ctx), ev)
}
