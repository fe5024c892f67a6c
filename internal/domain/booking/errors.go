package booking

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidPayload      = errors.New("invalid payload")
	ErrInvalidDate         = errors.New("invalid date")
	ErrServiceNotFound     = errors.New("service not found")
	ErrMerchantNotFound    = errors.New("merchant not found")
	ErrSlotNotAvailable    = errors.New("slot not available")
	ErrSlotAlreadyBooked   = errors.New("time already booked")
	ErrReservationNotFound = errors.New("reservation not found")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrForbidden           = errors.New("forbidden")
	ErrNotFound            = errors.New("not found")

	// ErrConstraintViolation is returned by a ledger when the store rejects
	// an insert because the slot is already held by a live reservation.
	ErrConstraintViolation = errors.New("constraint violation")
)

// Store steps named in StoreError messages.
const (
	StepServiceLookup     = "service lookup"
	StepSlotLookup        = "slot lookup"
	StepConflictCheck     = "conflict check"
	StepInsert            = "insert"
	StepSlots             = "slots"
	StepBookings          = "bookings"
	StepStatusUpdate      = "status update"
	StepList              = "list"
	StepReservationLookup = "reservation lookup"
)

// StoreError marks a collaborator I/O failure and the step it happened in.
type StoreError struct {
	Step string
	Err  error
}

func (e *StoreError) Error() string { return fmt.Sprintf("store (%s): %v", e.Step, e.Err) }

func (e *StoreError) Unwrap() error { return e.Err }

func storeErr(step string, err error) error {
	return &StoreError{Step: step, Err: err}
}

// WrapStore tags err with the step it failed in. nil stays nil.
func WrapStore(step string, err error) error {
	if err == nil {
		return nil
	}
	var se *StoreError
	if errors.As(err, &se) {
		return err
	}
	return storeErr(step, err)
}
