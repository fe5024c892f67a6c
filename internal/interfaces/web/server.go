package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/onereserve/internal/application/usecases"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	Slots        usecases.SlotResolver
	Availability usecases.AvailabilityCalculator
	Guard        usecases.ReservationGuard
	Calendar     usecases.CalendarExport
	Merchant     usecases.MerchantService

	// Sessions enables the merchant API when set.
	Sessions *SessionManager
	Health   Pinger
	Log      *zap.Logger

	Location           *time.Location
	DefaultHorizonDays int
	StoreTimeout       time.Duration
	RatePerMinute      int
	RateBurst          int
	CORSOrigins        []string
	// TrustedProxies lists proxies whose X-Forwarded-For sets the client IP
	// used for rate limiting. Nil trusts none.
	TrustedProxies []string

	Now func() time.Time
}

func (s *Server) Routes() http.Handler {
	r := gin.New()
	if err := r.SetTrustedProxies(s.TrustedProxies); err != nil {
		s.log().Error("invalid trusted proxies; trusting none", zap.Strings("proxies", s.TrustedProxies), zap.Error(err))
		_ = r.SetTrustedProxies(nil)
	}
	r.Use(requestLogger(s.log()), recovery(s.log()), s.cors())

	r.GET("/healthz", s.handleHealth)

	limiter := newRateLimiter(s.RatePerMinute, s.RateBurst)
	api := r.Group("/api", limiter.middleware(s.log()))
	{
		api.GET("/slots/dates", s.handleDates)
		api.GET("/slots/times", s.handleTimes)
		api.POST("/book", s.handleBook)
		api.GET("/booking/ics", s.handleICS)
	}

	if s.Sessions != nil {
		m := api.Group("/merchant")
		m.POST("/login", s.handleLogin)
		m.POST("/logout", s.handleLogout)

		authed := m.Group("", s.requireMerchant())
		authed.GET("/reservations", s.handleMerchantList)
		authed.POST("/reservations", s.handleMerchantCreate)
		authed.PATCH("/reservations/:id", s.handleMerchantUpdate)
	}
	return r
}

func (s *Server) cors() gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type"},
		ExposeHeaders: []string{"Content-Length", "Content-Disposition"},
		MaxAge:        12 * time.Hour,
	}
	if len(s.CORSOrigins) == 0 || (len(s.CORSOrigins) == 1 && s.CORSOrigins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = s.CORSOrigins
		cfg.AllowCredentials = true
	}
	return cors.New(cfg)
}

func (s *Server) handleHealth(c *gin.Context) {
	if s.Health != nil {
		ctx, cancel := s.storeContext(c)
		defer cancel()
		if err := s.Health.Ping(ctx); err != nil {
			s.log().Warn("health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) storeContext(c *gin.Context) (context.Context, context.CancelFunc) {
	if s.StoreTimeout <= 0 {
		return context.WithCancel(c.Request.Context())
	}
	return context.WithTimeout(c.Request.Context(), s.StoreTimeout)
}

func (s *Server) log() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}

func (s *Server) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Start serves h on addr until ctx is cancelled, then drains connections.
func Start(ctx context.Context, addr string, h http.Handler, log *zap.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	log.Info("listening", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
