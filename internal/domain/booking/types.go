package booking

import (
	"strings"
	"time"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

func ParseStatus(s string) (Status, bool) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	switch st {
	case StatusPending, StatusConfirmed, StatusCancelled:
		return st, true
	}
	return "", false
}

// HoldsSlot reports whether a reservation in this status occupies its slot.
func (s Status) HoldsSlot() bool { return s != StatusCancelled }

// CanTransition reports whether a merchant may move a reservation from s to
// to. Cancelled is terminal; no transition ever re-occupies a released slot.
func (s Status) CanTransition(to Status) bool {
	switch s {
	case StatusPending:
		return to == StatusConfirmed || to == StatusCancelled
	case StatusConfirmed:
		return to == StatusCancelled
	}
	return false
}

type Merchant struct {
	ID           string
	Name         string
	ContactEmail string
	CreatedAt    time.Time
}

// DefaultDurationMinutes is shown when a service has no duration recorded.
const DefaultDurationMinutes = 60

type Service struct {
	ID              string
	MerchantID      string
	Name            string
	DurationMinutes int
}

func (s Service) Duration() int {
	if s.DurationMinutes <= 0 {
		return DefaultDurationMinutes
	}
	return s.DurationMinutes
}

// SlotTemplate is one recurring weekly start time. StartTime is HH:MM.
type SlotTemplate struct {
	ServiceID string
	Weekday   time.Weekday
	StartTime string
}

// Reservation is a single booked occurrence. Date is YYYY-MM-DD and
// StartTime is HH:MM:SS. MerchantID is copied from the service at insert
// time and never changes afterwards.
type Reservation struct {
	ID            string
	ServiceID     string
	MerchantID    string
	CustomerName  string
	CustomerEmail string
	Date          string
	StartTime     string
	Status        Status
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type Customer struct {
	Name  string
	Email string
}

func (c Customer) Trimmed() Customer {
	return Customer{Name: strings.TrimSpace(c.Name), Email: strings.TrimSpace(c.Email)}
}

// MerchantUser is a dashboard login bound to one merchant.
type MerchantUser struct {
	ID           string
	MerchantID   string
	Email        string
	PasswordHash []byte
	CreatedAt    time.Time
}
