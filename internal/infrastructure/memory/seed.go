package memory

import (
	"time"

	"github.com/example/onereserve/internal/domain/booking"
)

const (
	DemoMerchantID = "demo-stylist"
	DemoServiceID  = "demo-haircut"
)

// SeedDemo loads a demo merchant with one service open Tuesday to Saturday.
func SeedDemo(s *Store) {
	s.AddMerchant(booking.Merchant{
		ID:           DemoMerchantID,
		Name:         "Demo Stylist",
		ContactEmail: "owner@demo-stylist.test",
		CreatedAt:    time.Now().UTC(),
	})
	s.AddService(booking.Service{
		ID:              DemoServiceID,
		MerchantID:      DemoMerchantID,
		Name:            "Haircut",
		DurationMinutes: 45,
	})
	for wd := time.Tuesday; wd <= time.Saturday; wd++ {
		for _, hm := range []string{"10:00", "11:00", "13:30", "15:00", "16:30"} {
			s.AddTemplate(booking.SlotTemplate{ServiceID: DemoServiceID, Weekday: wd, StartTime: hm})
		}
	}
}
