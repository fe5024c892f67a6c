package web

import (
	"errors"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/example/onereserve/internal/application/usecases"
	"github.com/example/onereserve/internal/domain/booking"
)

func (s *Server) handleDates(c *gin.Context) {
	serviceID := strings.TrimSpace(c.Query("service_id"))
	if serviceID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing service_id"})
		return
	}
	days := parseDays(c.Query("days"), s.DefaultHorizonDays)

	ctx, cancel := s.storeContext(c)
	defer cancel()
	seq, err := s.Slots.ResolveBookableDates(ctx, serviceID, days, s.now())
	if err != nil {
		s.respondError(c, booking.WrapStore(booking.StepSlots, err))
		return
	}
	dates := slices.Collect(seq)
	if dates == nil {
		dates = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"dates": dates})
}

// parseDays reads the days parameter clamped to the horizon bounds.
// Out-of-range integers clamp like any other; non-numeric input falls back
// to def.
func parseDays(raw string, def int) int {
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return def
	}
	switch {
	case n < usecases.MinHorizonDays:
		return usecases.MinHorizonDays
	case n > usecases.MaxHorizonDays:
		return usecases.MaxHorizonDays
	}
	return int(n)
}

func (s *Server) handleTimes(c *gin.Context) {
	serviceID := strings.TrimSpace(c.Query("service_id"))
	date := strings.TrimSpace(c.Query("date"))
	if serviceID == "" || date == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing service_id or date (YYYY-MM-DD)"})
		return
	}

	ctx, cancel := s.storeContext(c)
	defer cancel()
	times, err := s.Availability.AvailableTimes(ctx, serviceID, date)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"times": times})
}

type bookRequest struct {
	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email"`
	ServiceID     string `json:"service_id"`
	Date          string `json:"date"`
	Time          string `json:"time"`
}

func (b bookRequest) toUsecase() usecases.ReservationRequest {
	return usecases.ReservationRequest{
		ServiceID: b.ServiceID,
		Date:      b.Date,
		Time:      b.Time,
		Customer:  booking.Customer{Name: b.CustomerName, Email: b.CustomerEmail},
	}
}

func (s *Server) handleBook(c *gin.Context) {
	var body bookRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payload"})
		return
	}

	ctx, cancel := s.storeContext(c)
	defer cancel()
	id, err := s.Guard.CreateReservation(ctx, body.toUsecase())
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reservation_id": id})
}

func (s *Server) handleICS(c *gin.Context) {
	id := strings.TrimSpace(c.Query("id"))
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing id"})
		return
	}

	ctx, cancel := s.storeContext(c)
	defer cancel()
	ics, err := s.Calendar.ICS(ctx, id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="booking-`+id+`.ics"`)
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", ics)
}
