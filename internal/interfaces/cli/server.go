package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/example/onereserve/internal/application/usecases"
	"github.com/example/onereserve/internal/config"
	"github.com/example/onereserve/internal/domain/booking"
	"github.com/example/onereserve/internal/infrastructure/cache"
	"github.com/example/onereserve/internal/infrastructure/notify"
	"github.com/example/onereserve/internal/interfaces/web"
	"github.com/example/onereserve/internal/logging"
)

func newServerCmd() *cobra.Command {
	var (
		store     string
		migrateUp bool
		seedDemo  bool
	)

	cmd := &cobra.Command{
		Use:   "server",
		Short: "Run the booking HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(store)
			if err != nil {
				return err
			}
			log, err := logging.New(cfg.IsProduction(), cfg.LogLevel)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			return runServer(ctx, cfg, log, migrateUp, seedDemo)
		},
	}

	cmd.Flags().StringVar(&store, "store", "", "store backend: postgres or memory (overrides STORE)")
	cmd.Flags().BoolVar(&migrateUp, "migrate", true, "run database migrations on startup")
	cmd.Flags().BoolVar(&seedDemo, "seed-demo", false, "seed a demo merchant and service (memory store only)")

	cmd.Flags().Lookup("migrate").NoOptDefVal = "true"
	return cmd
}

func runServer(ctx context.Context, cfg config.Config, log *zap.Logger, migrateUp, seedDemo bool) error {
	var b backend
	switch cfg.Store {
	case config.StoreMemory:
		b = memoryBackend(seedDemo)
		log.Warn("using in-memory store; data is lost on exit", zap.Bool("demo", seedDemo))
	default:
		d, err := openDB(ctx, cfg, migrateUp)
		if err != nil {
			return err
		}
		b = postgresBackend(d)
	}
	defer b.Close()

	templates := b.Templates
	if cfg.RedisAddr != "" {
		client, err := cache.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return err
		}
		defer client.Close()
		templates = cache.NewTemplateCache(templates, client, cfg.SlotCacheTTL, log)
		log.Info("slot template cache enabled", zap.String("addr", cfg.RedisAddr), zap.Duration("ttl", cfg.SlotCacheTTL))
	}

	var sink booking.Notifier = notify.Log{L: log}
	if cfg.AMQPURL != "" {
		pub, err := notify.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			log.Warn("notification broker unavailable; events will only be logged", zap.Error(err))
		} else {
			defer pub.Close()
			sink = pub
		}
	}
	dispatcher := notify.NewDispatcher(sink, b.Directory, log, cfg.NotifyTimeout)

	srv := newAPIServer(cfg, b, templates, dispatcher, log)
	if cfg.MerchantEnabled() {
		hashKey, blockKey, err := cfg.SessionKeys()
		if err != nil {
			return err
		}
		srv.Sessions = web.NewSessionManager(hashKey, blockKey, cfg.IsProduction())
	} else {
		log.Info("merchant API disabled; set SESSION_HASH_KEY and SESSION_BLOCK_KEY to enable")
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return serveThenDrain(gctx, func(ctx context.Context) error {
			return web.Start(ctx, cfg.HTTPAddr, srv.Routes(), log)
		}, dispatcher, cfg.NotifyTimeout+time.Second, log)
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}

// serveThenDrain runs serve until it returns, then waits up to drain for
// notifications queued by requests that finished during the HTTP shutdown.
func serveThenDrain(ctx context.Context, serve func(context.Context) error, d *notify.Dispatcher, drain time.Duration, log *zap.Logger) error {
	err := serve(ctx)
	drainCtx, cancel := context.WithTimeout(context.Background(), drain)
	defer cancel()
	if werr := d.Wait(drainCtx); werr != nil {
		log.Warn("pending notifications dropped at shutdown", zap.Error(werr))
	}
	return err
}

// newAPIServer wires the use cases against b. The read path resolves slots
// through templates, which may be cached; the guard always reads b.Templates
// so a slot removed from the store cannot be booked from a stale cache.
func newAPIServer(cfg config.Config, b backend, templates booking.TemplateStore, n booking.Notifier, log *zap.Logger) *web.Server {
	slots := usecases.SlotResolver{Templates: templates, Location: cfg.Location}
	guard := usecases.ReservationGuard{
		Directory: b.Directory,
		Slots:     usecases.SlotResolver{Templates: b.Templates, Location: cfg.Location},
		Ledger:    b.Ledger,
		Notifier:  n,
		Location:  cfg.Location,
	}
	return &web.Server{
		Slots:        slots,
		Availability: usecases.AvailabilityCalculator{Slots: slots, Ledger: b.Ledger, Location: cfg.Location},
		Guard:        guard,
		Calendar:     usecases.CalendarExport{Reservations: b.Admin, Directory: b.Directory, Location: cfg.Location},
		Merchant:     usecases.MerchantService{Accounts: b.Accounts, Reservations: b.Admin, Guard: guard},

		Health:             b.Health,
		Log:                log,
		Location:           cfg.Location,
		DefaultHorizonDays: cfg.DefaultHorizonDays,
		StoreTimeout:       cfg.StoreTimeout,
		RatePerMinute:      cfg.RateLimitPerMin,
		RateBurst:          cfg.RateLimitBurst,
		CORSOrigins:        cfg.Origins(),
		TrustedProxies:     cfg.Proxies(),
	}
}
