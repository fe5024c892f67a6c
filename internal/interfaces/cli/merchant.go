package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/example/onereserve/internal/application/usecases"
	"github.com/example/onereserve/internal/config"
	"github.com/example/onereserve/internal/db"
	"github.com/example/onereserve/internal/domain/booking"
	"github.com/example/onereserve/internal/infrastructure/postgres"
)

func newMerchantCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "merchant",
		Short: "Manage merchants and their dashboard logins",
	}
	cmd.AddCommand(newMerchantAddCmd())
	cmd.AddCommand(newMerchantUserCmd())
	return cmd
}

func newMerchantAddCmd() *cobra.Command {
	var id, name, email string

	c := &cobra.Command{
		Use:   "add",
		Short: "Add a merchant",
		RunE: func(cmd *cobra.Command, args []string) error {
			if id == "" {
				id = uuid.NewString()
			}
			m := booking.Merchant{ID: id, Name: strings.TrimSpace(name), ContactEmail: strings.TrimSpace(email)}
			return withDB(cmd.Context(), func(ctx context.Context, _ config.Config, d *db.DB) error {
				if err := postgres.NewDirectoryRepo(d).CreateMerchant(ctx, m); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created merchant %s (%s)\n", m.ID, m.Name)
				return nil
			})
		},
	}

	c.Flags().StringVar(&id, "id", "", "merchant id (generated when empty)")
	c.Flags().StringVar(&name, "name", "", "display name")
	c.Flags().StringVar(&email, "contact-email", "", "address that receives booking notifications")
	_ = c.MarkFlagRequired("name")
	return c
}

func newMerchantUserCmd() *cobra.Command {
	var merchantID, email, password string

	c := &cobra.Command{
		Use:   "user",
		Short: "Add a dashboard login for a merchant",
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := usecases.NewMerchantUser(merchantID, email, password)
			if err != nil {
				return err
			}
			return withDB(cmd.Context(), func(ctx context.Context, _ config.Config, d *db.DB) error {
				if _, err := postgres.NewDirectoryRepo(d).GetMerchant(ctx, merchantID); err != nil {
					return err
				}
				if err := postgres.NewMerchantUserRepo(d).CreateMerchantUser(ctx, u); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created login %q for merchant %s\n", u.Email, u.MerchantID)
				return nil
			})
		},
	}

	c.Flags().StringVar(&merchantID, "merchant", "", "merchant id")
	c.Flags().StringVar(&email, "email", "", "login email")
	c.Flags().StringVar(&password, "password", "", "password (min 8 characters)")
	_ = c.MarkFlagRequired("merchant")
	_ = c.MarkFlagRequired("email")
	_ = c.MarkFlagRequired("password")
	return c
}
