package web

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/onereserve/internal/domain/booking"
)

// respondError maps engine errors to a status and a single human-readable
// message. Store failures name the step and never echo driver text.
func (s *Server) respondError(c *gin.Context, err error) {
	status, msg := classify(err)
	if status == http.StatusInternalServerError {
		fields := []zap.Field{zap.String("path", c.FullPath()), zap.Error(err)}
		var se *booking.StoreError
		if errors.As(err, &se) {
			fields = append(fields, zap.String("step", se.Step))
		}
		s.log().Error("request failed", fields...)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

func classify(err error) (int, string) {
	var se *booking.StoreError
	switch {
	case errors.Is(err, booking.ErrInvalidDate):
		return http.StatusBadRequest, "Invalid date"
	case errors.Is(err, booking.ErrInvalidPayload):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, booking.ErrServiceNotFound):
		return http.StatusNotFound, "Service not found"
	case errors.Is(err, booking.ErrReservationNotFound):
		return http.StatusNotFound, "Reservation not found"
	case errors.Is(err, booking.ErrSlotNotAvailable):
		return http.StatusConflict, "Slot not available"
	case errors.Is(err, booking.ErrSlotAlreadyBooked):
		return http.StatusConflict, "Time already booked"
	case errors.Is(err, booking.ErrInvalidTransition):
		return http.StatusConflict, err.Error()
	case errors.Is(err, booking.ErrUnauthorized):
		return http.StatusUnauthorized, "Invalid email or password"
	case errors.Is(err, booking.ErrForbidden):
		return http.StatusForbidden, "Service belongs to another merchant"
	case errors.As(err, &se):
		return http.StatusInternalServerError, "DB error (" + se.Step + ")"
	default:
		return http.StatusInternalServerError, "Internal error"
	}
}
