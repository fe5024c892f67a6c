package migrate

import (
	"context"
	"embed"
	"fmt"
	"sort"
	"strings"

	"github.com/example/onereserve/internal/db"
)

//go:embed *.sql
var fs embed.FS

// Files lists the embedded migrations in apply order.
func Files() ([]string, error) {
	entries, err := fs.ReadDir(".")
	if err != nil {
		return nil, err
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

// Pending returns the migrations not yet recorded in schema_migrations.
func Pending(ctx context.Context, d *db.DB) ([]string, error) {
	files, err := Files()
	if err != nil {
		return nil, err
	}
	if err := ensureTable(ctx, d); err != nil {
		return nil, err
	}
	var out []string
	for _, f := range files {
		applied, err := isApplied(ctx, d, f)
		if err != nil {
			return nil, err
		}
		if !applied {
			out = append(out, f)
		}
	}
	return out, nil
}

func Up(ctx context.Context, d *db.DB) error {
	pending, err := Pending(ctx, d)
	if err != nil {
		return err
	}

	for _, f := range pending {
		b, err := fs.ReadFile(f)
		if err != nil {
			return err
		}
		if err := d.Exec(ctx, string(b)); err != nil {
			return fmt.Errorf("apply %s: %w", f, err)
		}
		if err := d.Exec(ctx, `INSERT INTO schema_migrations(version) VALUES ($1)`, f); err != nil {
			return err
		}
	}

	return nil
}

func ensureTable(ctx context.Context, d *db.DB) error {
	return d.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (version TEXT PRIMARY KEY, applied_at TIMESTAMPTZ NOT NULL DEFAULT now());`)
}

func isApplied(ctx context.Context, d *db.DB, version string) (bool, error) {
	var applied bool
	err := d.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version=$1)`, version).Scan(&applied)
	return applied, err
}
