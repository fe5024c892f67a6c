package notify

import "github.com/example/onereserve/internal/domain/booking"

// RoutingKeyReservationCreated is the topic every new reservation is published under.
const RoutingKeyReservationCreated = "reservation.created"

type contact struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// reservationCreated is the JSON body published for a new reservation.
type reservationCreated struct {
	Event           string   `json:"event"`
	ReservationID   string   `json:"reservation_id"`
	MerchantID      string   `json:"merchant_id"`
	Customer        contact  `json:"customer"`
	ServiceName     string   `json:"service_name"`
	DurationMinutes int      `json:"duration_minutes"`
	Date            string   `json:"date"`
	Time            string   `json:"time"`
	Merchant        *contact `json:"merchant,omitempty"`
}

func payloadOf(ev booking.ReservationCreated) reservationCreated {
	p := reservationCreated{
		Event:           RoutingKeyReservationCreated,
		ReservationID:   ev.ReservationID,
		MerchantID:      ev.MerchantID,
		Customer:        contact{Name: ev.Customer.Name, Email: ev.Customer.Email},
		ServiceName:     ev.ServiceName,
		DurationMinutes: ev.DurationMinutes,
		Date:            ev.Date,
		Time:            ev.Time,
	}
	if ev.Merchant != nil {
		p.Merchant = &contact{Name: ev.Merchant.Name, Email: ev.Merchant.Email}
	}
	return p
}
