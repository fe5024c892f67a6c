package web

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/onereserve/internal/domain/booking"
)

const ctxSession = "merchant_session"

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(c *gin.Context) {
	var body loginRequest
	if err := c.ShouldBindJSON(&body); err != nil || strings.TrimSpace(body.Email) == "" || body.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payload"})
		return
	}

	ctx, cancel := s.storeContext(c)
	defer cancel()
	u, err := s.Merchant.Authenticate(ctx, body.Email, body.Password)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if err := s.Sessions.Set(c.Writer, Session{UserID: u.ID, MerchantID: u.MerchantID}); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"merchant_id": u.MerchantID})
}

func (s *Server) handleLogout(c *gin.Context) {
	s.Sessions.Clear(c.Writer)
	c.Status(http.StatusNoContent)
}

func (s *Server) requireMerchant() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := s.Sessions.Get(c.Request)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Login required"})
			return
		}
		c.Set(ctxSession, sess)
		c.Next()
	}
}

func sessionOf(c *gin.Context) Session {
	v, _ := c.Get(ctxSession)
	sess, _ := v.(Session)
	return sess
}

type reservationView struct {
	ID            string `json:"id"`
	ServiceID     string `json:"service_id"`
	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email"`
	Date          string `json:"date"`
	Time          string `json:"time"`
	Status        string `json:"status"`
}

func viewOf(r booking.Reservation) reservationView {
	return reservationView{
		ID:            r.ID,
		ServiceID:     r.ServiceID,
		CustomerName:  r.CustomerName,
		CustomerEmail: r.CustomerEmail,
		Date:          r.Date,
		Time:          booking.ToMinute(r.StartTime),
		Status:        string(r.Status),
	}
}

func (s *Server) handleMerchantList(c *gin.Context) {
	sess := sessionOf(c)
	ctx, cancel := s.storeContext(c)
	defer cancel()
	rs, err := s.Merchant.ListReservations(ctx, sess.MerchantID, strings.TrimSpace(c.Query("from")), strings.TrimSpace(c.Query("to")))
	if err != nil {
		s.respondError(c, err)
		return
	}
	out := make([]reservationView, 0, len(rs))
	for _, r := range rs {
		out = append(out, viewOf(r))
	}
	c.JSON(http.StatusOK, gin.H{"reservations": out})
}

func (s *Server) handleMerchantCreate(c *gin.Context) {
	var body bookRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payload"})
		return
	}
	sess := sessionOf(c)
	ctx, cancel := s.storeContext(c)
	defer cancel()
	id, err := s.Merchant.CreateReservation(ctx, sess.MerchantID, body.toUsecase())
	if err != nil {
		s.respondError(c, err)
		return
	}
	s.log().Info("merchant reservation created", zap.String("merchant_id", sess.MerchantID), zap.String("reservation_id", id))
	c.JSON(http.StatusOK, gin.H{"reservation_id": id})
}

type statusRequest struct {
	Status string `json:"status"`
}

func (s *Server) handleMerchantUpdate(c *gin.Context) {
	var body statusRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payload"})
		return
	}
	to, ok := booking.ParseStatus(body.Status)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status must be pending, confirmed or cancelled"})
		return
	}
	sess := sessionOf(c)
	ctx, cancel := s.storeContext(c)
	defer cancel()
	r, err := s.Merchant.UpdateStatus(ctx, sess.MerchantID, c.Param("id"), to)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reservation": viewOf(r)})
}
