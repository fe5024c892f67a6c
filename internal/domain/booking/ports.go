package booking

import (
	"context"
	"time"
)

// Directory is the merchant/service lookup. Missing rows are reported as
// ErrServiceNotFound / ErrMerchantNotFound.
type Directory interface {
	GetService(ctx context.Context, id string) (Service, error)
	GetMerchant(ctx context.Context, id string) (Merchant, error)
}

// TemplateStore lists weekly slot templates. A nil weekday lists every day.
type TemplateStore interface {
	ListTemplates(ctx context.Context, serviceID string, weekday *time.Weekday) ([]SlotTemplate, error)
}

type ReservationQuery struct {
	ServiceID string
	Date      string // optional, YYYY-MM-DD
	StartTime string // optional, HH:MM:SS
	// ExcludeStatus drops rows in this status when set.
	ExcludeStatus Status
}

// Ledger is the reservation store used by the engine. InsertReservation
// must return ErrConstraintViolation when a live reservation already holds
// (service, date, start time); that check is enforced by the store itself.
type Ledger interface {
	ListReservations(ctx context.Context, q ReservationQuery) ([]Reservation, error)
	InsertReservation(ctx context.Context, r Reservation) (string, error)
}

// ReservationAdmin backs merchant-side reads and status changes.
type ReservationAdmin interface {
	GetReservation(ctx context.Context, id string) (Reservation, error)
	// UpdateStatus moves id from `from` to `to` only if it is still in
	// `from`, returning ErrInvalidTransition otherwise.
	UpdateStatus(ctx context.Context, id string, from, to Status) error
	ListByMerchant(ctx context.Context, merchantID, fromDate, toDate string) ([]Reservation, error)
}

type MerchantAccounts interface {
	CreateMerchantUser(ctx context.Context, u MerchantUser) error
	GetMerchantUserByEmail(ctx context.Context, email string) (MerchantUser, error)
}

type MerchantContact struct {
	Name  string
	Email string
}

// ReservationCreated is the payload handed to the notification side channel.
type ReservationCreated struct {
	ReservationID   string
	MerchantID      string
	Customer        Customer
	ServiceName     string
	DurationMinutes int
	Date            string
	Time            string
	Merchant        *MerchantContact
}

// Notifier delivers best-effort notifications. Callers ignore its errors.
type Notifier interface {
	NotifyReservationCreated(ctx context.Context, ev ReservationCreated) error
}
