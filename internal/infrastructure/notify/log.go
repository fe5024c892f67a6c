package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/example/onereserve/internal/domain/booking"
)

// Log records events instead of delivering them. Used when no broker is configured.
type Log struct{ L *zap.Logger }

func (n Log) NotifyReservationCreated(ctx context.Context, ev booking.ReservationCreated) error {
	if n.L == nil {
		return nil
	}
	n.L.Info("reservation created",
		zap.String("reservation_id", ev.ReservationID),
		zap.String("merchant_id", ev.MerchantID),
		zap.String("service", ev.ServiceName),
		zap.String("date", ev.Date),
		zap.String("time", ev.Time),
	)
	return nil
}
