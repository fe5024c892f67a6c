package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/example/onereserve/internal/db"
	"github.com/example/onereserve/internal/domain/booking"
)

// LiveSlotConstraint is the partial unique index from 0001_init.sql that
// allows one non-cancelled reservation per (service, date, start time).
const LiveSlotConstraint = "reservations_live_slot_key"

const reservationColumns = `id, service_id, merchant_id, customer_name, customer_email,
	to_char(booking_date, 'YYYY-MM-DD'), to_char(start_time, 'HH24:MI:SS'), status, created_at, updated_at`

type ReservationRepo struct{ db *db.DB }

func NewReservationRepo(d *db.DB) *ReservationRepo { return &ReservationRepo{db: d} }

func (r *ReservationRepo) ListReservations(ctx context.Context, q booking.ReservationQuery) ([]booking.Reservation, error) {
	where := []string{"service_id=$1"}
	args := []any{q.ServiceID}
	if q.Date != "" {
		args = append(args, q.Date)
		where = append(where, fmt.Sprintf("booking_date=$%d::text::date", len(args)))
	}
	if q.StartTime != "" {
		args = append(args, q.StartTime)
		where = append(where, fmt.Sprintf("start_time=$%d::text::time", len(args)))
	}
	if q.ExcludeStatus != "" {
		args = append(args, string(q.ExcludeStatus))
		where = append(where, fmt.Sprintf("status<>$%d", len(args)))
	}
	sql := `SELECT ` + reservationColumns + ` FROM reservations WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY booking_date, start_time`
	return r.query(ctx, sql, args...)
}

// InsertReservation relies on LiveSlotConstraint to reject a second live
// reservation for the same slot, including one racing in concurrently.
func (r *ReservationRepo) InsertReservation(ctx context.Context, res booking.Reservation) (string, error) {
	var id string
	err := r.db.QueryRow(ctx, `
INSERT INTO reservations (id, service_id, merchant_id, customer_name, customer_email, booking_date, start_time, status, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6::text::date,$7::text::time,$8,$9,$10)
RETURNING id`,
		res.ID, res.ServiceID, res.MerchantID, res.CustomerName, res.CustomerEmail,
		res.Date, res.StartTime, string(res.Status), res.CreatedAt, res.UpdatedAt,
	).Scan(&id)
	if err != nil {
		return "", liveSlotError(err)
	}
	return id, nil
}

func (r *ReservationRepo) GetReservation(ctx context.Context, id string) (booking.Reservation, error) {
	rs, err := r.query(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id=$1`, id)
	if err != nil {
		return booking.Reservation{}, err
	}
	if len(rs) == 0 {
		return booking.Reservation{}, booking.ErrReservationNotFound
	}
	return rs[0], nil
}

func (r *ReservationRepo) UpdateStatus(ctx context.Context, id string, from, to booking.Status) error {
	n, err := r.db.ExecAffected(ctx,
		`UPDATE reservations SET status=$3, updated_at=now() WHERE id=$1 AND status=$2`,
		id, string(from), string(to),
	)
	if err != nil {
		return liveSlotError(err)
	}
	if n == 0 {
		return booking.ErrInvalidTransition
	}
	return nil
}

func (r *ReservationRepo) ListByMerchant(ctx context.Context, merchantID, fromDate, toDate string) ([]booking.Reservation, error) {
	where := []string{"merchant_id=$1"}
	args := []any{merchantID}
	if fromDate != "" {
		args = append(args, fromDate)
		where = append(where, fmt.Sprintf("booking_date>=$%d::text::date", len(args)))
	}
	if toDate != "" {
		args = append(args, toDate)
		where = append(where, fmt.Sprintf("booking_date<=$%d::text::date", len(args)))
	}
	return r.query(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE `+strings.Join(where, " AND ")+
		` ORDER BY booking_date, start_time`, args...)
}

func (r *ReservationRepo) query(ctx context.Context, sql string, args ...any) ([]booking.Reservation, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []booking.Reservation
	for rows.Next() {
		var res booking.Reservation
		var status string
		if err := rows.Scan(
			&res.ID, &res.ServiceID, &res.MerchantID, &res.CustomerName, &res.CustomerEmail,
			&res.Date, &res.StartTime, &status, &res.CreatedAt, &res.UpdatedAt,
		); err != nil {
			return nil, err
		}
		res.Status = booking.Status(status)
		out = append(out, res)
	}
	return out, rows.Err()
}

// liveSlotError marks a violation of LiveSlotConstraint as
// booking.ErrConstraintViolation and passes every other error through.
func liveSlotError(err error) error {
	if db.IsUniqueViolation(err, LiveSlotConstraint) {
		return errors.Join(booking.ErrConstraintViolation, err)
	}
	return err
}
