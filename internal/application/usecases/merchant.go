package usecases

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/example/onereserve/internal/domain/booking"
)

// MerchantService is the dashboard-side entry point: login, merchant-entered
// reservations and status changes.
type MerchantService struct {
	Accounts     booking.MerchantAccounts
	Reservations booking.ReservationAdmin
	Guard        ReservationGuard
}

func (s MerchantService) Authenticate(ctx context.Context, email, password string) (booking.MerchantUser, error) {
	u, err := s.Accounts.GetMerchantUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, booking.ErrNotFound) {
			return booking.MerchantUser{}, booking.ErrUnauthorized
		}
		return booking.MerchantUser{}, err
	}
	if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)); err != nil {
		return booking.MerchantUser{}, booking.ErrUnauthorized
	}
	return u, nil
}

func HashPassword(password string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
}

func NewMerchantUser(merchantID, email, password string) (booking.MerchantUser, error) {
	email = normalizeEmail(email)
	if merchantID == "" || email == "" {
		return booking.MerchantUser{}, fmt.Errorf("%w: merchant id and email required", booking.ErrInvalidPayload)
	}
	if len(password) < 8 {
		return booking.MerchantUser{}, fmt.Errorf("%w: password must be at least 8 characters", booking.ErrInvalidPayload)
	}
	h, err := HashPassword(password)
	if err != nil {
		return booking.MerchantUser{}, err
	}
	return booking.MerchantUser{
		ID:           uuid.NewString(),
		MerchantID:   merchantID,
		Email:        email,
		PasswordHash: h,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

// CreateReservation records a merchant-entered booking. It goes through the
// same guard as customer bookings but starts out pending, and the service
// must belong to the merchant.
func (s MerchantService) CreateReservation(ctx context.Context, merchantID string, req ReservationRequest) (string, error) {
	return s.Guard.create(ctx, req, booking.StatusPending, func(svc booking.Service) error {
		if svc.MerchantID != merchantID {
			return booking.ErrForbidden
		}
		return nil
	})
}

// UpdateStatus applies a merchant transition. Moving to the current status
// is a no-op.
func (s MerchantService) UpdateStatus(ctx context.Context, merchantID, reservationID string, to booking.Status) (booking.Reservation, error) {
	r, err := s.Reservations.GetReservation(ctx, reservationID)
	if err != nil {
		if errors.Is(err, booking.ErrReservationNotFound) {
			return booking.Reservation{}, err
		}
		return booking.Reservation{}, booking.WrapStore(booking.StepStatusUpdate, err)
	}
	if r.MerchantID != merchantID {
		// Do not reveal other merchants' reservations.
		return booking.Reservation{}, booking.ErrReservationNotFound
	}
	if r.Status == to {
		return r, nil
	}
	if !r.Status.CanTransition(to) {
		return booking.Reservation{}, fmt.Errorf("%w: %s -> %s", booking.ErrInvalidTransition, r.Status, to)
	}
	if err := s.Reservations.UpdateStatus(ctx, r.ID, r.Status, to); err != nil {
		if errors.Is(err, booking.ErrInvalidTransition) {
			return booking.Reservation{}, err
		}
		return booking.Reservation{}, booking.WrapStore(booking.StepStatusUpdate, err)
	}
	r.Status = to
	r.UpdatedAt = time.Now().UTC()
	return r, nil
}

func (s MerchantService) ListReservations(ctx context.Context, merchantID, fromDate, toDate string) ([]booking.Reservation, error) {
	for _, d := range []string{fromDate, toDate} {
		if d != "" && !booking.IsDate(d) {
			return nil, fmt.Errorf("%w: dates must be YYYY-MM-DD", booking.ErrInvalidPayload)
		}
	}
	rs, err := s.Reservations.ListByMerchant(ctx, merchantID, fromDate, toDate)
	if err != nil {
		return nil, booking.WrapStore(booking.StepList, err)
	}
	return rs, nil
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
