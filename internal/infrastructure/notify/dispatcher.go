package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/example/onereserve/internal/domain/booking"
)

// Dispatcher delivers events on their own goroutine so the booking path
// never waits on a broker. It fills in the merchant contact before handing
// the event to Next; delivery failures are logged and dropped.
type Dispatcher struct {
	Next      booking.Notifier
	Directory booking.Directory
	Log       *zap.Logger
	Timeout   time.Duration

	wg sync.WaitGroup
}

func NewDispatcher(next booking.Notifier, dir booking.Directory, log *zap.Logger, timeout time.Duration) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Dispatcher{Next: next, Directory: dir, Log: log, Timeout: timeout}
}

// NotifyReservationCreated always returns nil; the work happens in the background.
func (d *Dispatcher) NotifyReservationCreated(ctx context.Context, ev booking.ReservationCreated) error {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.Timeout)
		defer cancel()
		if err := d.deliver(ctx, ev); err != nil {
			d.Log.Warn("reservation notification failed",
				zap.String("reservation_id", ev.ReservationID),
				zap.Error(err),
			)
		}
	}()
	return nil
}

func (d *Dispatcher) deliver(ctx context.Context, ev booking.ReservationCreated) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("notifier panic: %v", r)
		}
	}()
	if ev.Merchant == nil && d.Directory != nil {
		m, lerr := d.Directory.GetMerchant(ctx, ev.MerchantID)
		switch {
		case lerr == nil:
			ev.Merchant = &booking.MerchantContact{Name: m.Name, Email: m.ContactEmail}
		case errors.Is(lerr, booking.ErrMerchantNotFound):
		default:
			d.Log.Warn("merchant contact lookup failed", zap.String("merchant_id", ev.MerchantID), zap.Error(lerr))
		}
	}
	if d.Next == nil {
		return nil
	}
	return d.Next.NotifyReservationCreated(ctx, ev)
}

// Wait blocks until in-flight deliveries finish or ctx is done.
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
