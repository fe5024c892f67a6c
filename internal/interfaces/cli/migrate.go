package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/onereserve/internal/config"
	"github.com/example/onereserve/internal/migrate"
)

func newMigrateCmd() *cobra.Command {
	var status bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(config.StorePostgres)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			d, err := openDB(ctx, cfg, false)
			if err != nil {
				return err
			}
			defer d.Close()

			pending, err := migrate.Pending(ctx, d)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if status {
				if len(pending) == 0 {
					fmt.Fprintln(out, "up to date")
				}
				for _, f := range pending {
					fmt.Fprintf(out, "pending %s\n", f)
				}
				return nil
			}
			if err := migrate.Up(context.WithoutCancel(ctx), d); err != nil {
				return err
			}
			fmt.Fprintf(out, "applied %d migration(s)\n", len(pending))
			return nil
		},
	}

	cmd.Flags().BoolVar(&status, "status", false, "list pending migrations without applying them")
	return cmd
}
