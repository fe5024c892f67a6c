package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/example/onereserve/internal/db"
	"github.com/example/onereserve/internal/domain/booking"
)

type TemplateRepo struct{ db *db.DB }

func NewTemplateRepo(d *db.DB) *TemplateRepo { return &TemplateRepo{db: d} }

func (r *TemplateRepo) ListTemplates(ctx context.Context, serviceID string, weekday *time.Weekday) ([]booking.SlotTemplate, error) {
	q := `SELECT service_id, day_of_week, to_char(start_time, 'HH24:MI') FROM slots WHERE service_id=$1`
	args := []any{serviceID}
	if weekday != nil {
		q += ` AND day_of_week=$2`
		args = append(args, int16(*weekday))
	}
	q += ` ORDER BY day_of_week, start_time`

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []booking.SlotTemplate
	for rows.Next() {
		var t booking.SlotTemplate
		var dow int16
		if err := rows.Scan(&t.ServiceID, &dow, &t.StartTime); err != nil {
			return nil, err
		}
		t.Weekday = time.Weekday(dow)
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *TemplateRepo) AddTemplate(ctx context.Context, t booking.SlotTemplate) error {
	if t.Weekday < time.Sunday || t.Weekday > time.Saturday {
		return fmt.Errorf("%w: weekday must be 0..6", booking.ErrInvalidPayload)
	}
	if !booking.IsHM(t.StartTime) {
		return fmt.Errorf("%w: start time must be HH:MM", booking.ErrInvalidPayload)
	}
	return r.db.Exec(ctx,
		`INSERT INTO slots (service_id, day_of_week, start_time) VALUES ($1, $2, $3::text::time)`,
		t.ServiceID, int16(t.Weekday), t.StartTime,
	)
}
