package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/example/onereserve/internal/db"
	"github.com/example/onereserve/internal/domain/booking"
)

// DirectoryRepo reads and seeds merchants and services.
type DirectoryRepo struct{ db *db.DB }

func NewDirectoryRepo(d *db.DB) *DirectoryRepo { return &DirectoryRepo{db: d} }

func (r *DirectoryRepo) GetService(ctx context.Context, id string) (booking.Service, error) {
	var s booking.Service
	var duration sql.NullInt32
	err := r.db.QueryRow(ctx, `SELECT id, merchant_id, name, duration_min FROM services WHERE id=$1`, id).
		Scan(&s.ID, &s.MerchantID, &s.Name, &duration)
	if err != nil {
		if db.IsNotFound(err) {
			return booking.Service{}, booking.ErrServiceNotFound
		}
		return booking.Service{}, err
	}
	if duration.Valid {
		s.DurationMinutes = int(duration.Int32)
	}
	return s, nil
}

func (r *DirectoryRepo) GetMerchant(ctx context.Context, id string) (booking.Merchant, error) {
	var m booking.Merchant
	err := r.db.QueryRow(ctx, `SELECT id, name, contact_email, created_at FROM merchants WHERE id=$1`, id).
		Scan(&m.ID, &m.Name, &m.ContactEmail, &m.CreatedAt)
	if err != nil {
		if db.IsNotFound(err) {
			return booking.Merchant{}, booking.ErrMerchantNotFound
		}
		return booking.Merchant{}, err
	}
	return m, nil
}

func (r *DirectoryRepo) CreateMerchant(ctx context.Context, m booking.Merchant) error {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	return r.db.Exec(ctx,
		`INSERT INTO merchants (id, name, contact_email, created_at) VALUES ($1,$2,$3,$4)`,
		m.ID, m.Name, m.ContactEmail, m.CreatedAt,
	)
}

func (r *DirectoryRepo) CreateService(ctx context.Context, s booking.Service) error {
	var duration sql.NullInt32
	if s.DurationMinutes > 0 {
		duration = sql.NullInt32{Int32: int32(s.DurationMinutes), Valid: true}
	}
	return r.db.Exec(ctx,
		`INSERT INTO services (id, merchant_id, name, duration_min) VALUES ($1,$2,$3,$4)`,
		s.ID, s.MerchantID, s.Name, duration,
	)
}
