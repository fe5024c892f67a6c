package postgres

import (
	"context"
	"errors"

	"github.com/example/onereserve/internal/db"
	"github.com/example/onereserve/internal/domain/booking"
)

type MerchantUserRepo struct{ db *db.DB }

func NewMerchantUserRepo(d *db.DB) *MerchantUserRepo { return &MerchantUserRepo{db: d} }

func (r *MerchantUserRepo) CreateMerchantUser(ctx context.Context, u booking.MerchantUser) error {
	err := r.db.Exec(ctx,
		`INSERT INTO merchant_users (id, merchant_id, email, password_hash, created_at) VALUES ($1,$2,$3,$4,$5)`,
		u.ID, u.MerchantID, u.Email, u.PasswordHash, u.CreatedAt,
	)
	if db.IsUniqueViolation(err, "") {
		return errors.Join(booking.ErrConstraintViolation, err)
	}
	return err
}

func (r *MerchantUserRepo) GetMerchantUserByEmail(ctx context.Context, email string) (booking.MerchantUser, error) {
	row := r.db.QueryRow(ctx, `SELECT id, merchant_id, email, password_hash, created_at FROM merchant_users WHERE email=$1`, email)
	var u booking.MerchantUser
	if err := row.Scan(&u.ID, &u.MerchantID, &u.Email, &u.PasswordHash, &u.CreatedAt); err != nil {
		if db.IsNotFound(err) {
			return booking.MerchantUser{}, booking.ErrNotFound
		}
		return booking.MerchantUser{}, err
	}
	return u, nil
}
