package cli

import (
	"context"
	"fmt"

	"github.com/example/onereserve/internal/config"
	"github.com/example/onereserve/internal/db"
	"github.com/example/onereserve/internal/domain/booking"
	"github.com/example/onereserve/internal/infrastructure/memory"
	"github.com/example/onereserve/internal/infrastructure/postgres"
	"github.com/example/onereserve/internal/migrate"
)

// backend is the set of store ports the server is wired against.
type backend struct {
	Directory booking.Directory
	Templates booking.TemplateStore
	Ledger    booking.Ledger
	Admin     booking.ReservationAdmin
	Accounts  booking.MerchantAccounts
	Health    interface {
		Ping(ctx context.Context) error
	}
	Close func()
}

func memoryBackend(seedDemo bool) backend {
	s := memory.New()
	if seedDemo {
		memory.SeedDemo(s)
	}
	return backend{
		Directory: s, Templates: s, Ledger: s, Admin: s, Accounts: s, Health: s,
		Close: func() {},
	}
}

func postgresBackend(d *db.DB) backend {
	reservations := postgres.NewReservationRepo(d)
	return backend{
		Directory: postgres.NewDirectoryRepo(d),
		Templates: postgres.NewTemplateRepo(d),
		Ledger:    reservations,
		Admin:     reservations,
		Accounts:  postgres.NewMerchantUserRepo(d),
		Health:    d,
		Close:     d.Close,
	}
}

// openDB connects, pings and optionally applies migrations.
func openDB(ctx context.Context, cfg config.Config, migrateUp bool) (*db.DB, error) {
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	d, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := d.Ping(ctx); err != nil {
		d.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	if migrateUp {
		if err := migrate.Up(ctx, d); err != nil {
			d.Close()
			return nil, err
		}
	}
	return d, nil
}

// withDB runs fn against a migrated database for the admin commands.
func withDB(ctx context.Context, fn func(ctx context.Context, cfg config.Config, d *db.DB) error) error {
	cfg, err := loadConfig(config.StorePostgres)
	if err != nil {
		return err
	}
	d, err := openDB(ctx, cfg, true)
	if err != nil {
		return err
	}
	defer d.Close()
	return fn(ctx, cfg, d)
}

func loadConfig(store string) (config.Config, error) {
	return config.Load(map[string]string{"STORE": store})
}
