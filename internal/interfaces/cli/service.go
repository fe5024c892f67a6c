package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/example/onereserve/internal/config"
	"github.com/example/onereserve/internal/db"
	"github.com/example/onereserve/internal/domain/booking"
	"github.com/example/onereserve/internal/infrastructure/postgres"
)

func newServiceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "service",
		Short: "Manage bookable services",
	}
	cmd.AddCommand(newServiceAddCmd())
	return cmd
}

func newServiceAddCmd() *cobra.Command {
	var id, merchantID, name string
	var duration int

	c := &cobra.Command{
		Use:   "add",
		Short: "Add a service to a merchant",
		RunE: func(cmd *cobra.Command, args []string) error {
			if duration < 0 {
				return fmt.Errorf("--duration must be positive")
			}
			if id == "" {
				id = uuid.NewString()
			}
			s := booking.Service{ID: id, MerchantID: merchantID, Name: strings.TrimSpace(name), DurationMinutes: duration}
			return withDB(cmd.Context(), func(ctx context.Context, _ config.Config, d *db.DB) error {
				dir := postgres.NewDirectoryRepo(d)
				if _, err := dir.GetMerchant(ctx, merchantID); err != nil {
					return err
				}
				if err := dir.CreateService(ctx, s); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created service %s (%s, %d min)\n", s.ID, s.Name, s.Duration())
				return nil
			})
		},
	}

	c.Flags().StringVar(&id, "id", "", "service id (generated when empty)")
	c.Flags().StringVar(&merchantID, "merchant", "", "owning merchant id")
	c.Flags().StringVar(&name, "name", "", "display name")
	c.Flags().IntVar(&duration, "duration", 0, "duration in minutes (defaults to 60 when unset)")
	_ = c.MarkFlagRequired("merchant")
	_ = c.MarkFlagRequired("name")
	return c
}
