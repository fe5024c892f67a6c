package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/example/onereserve/internal/config"
	"github.com/example/onereserve/internal/db"
	"github.com/example/onereserve/internal/domain/booking"
	"github.com/example/onereserve/internal/infrastructure/cache"
	"github.com/example/onereserve/internal/infrastructure/postgres"
)

func newSlotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "slot",
		Short: "Manage weekly slot templates",
	}
	cmd.AddCommand(newSlotAddCmd())
	cmd.AddCommand(newSlotListCmd())
	return cmd
}

func newSlotAddCmd() *cobra.Command {
	var serviceID string
	var weekdays, times []string

	c := &cobra.Command{
		Use:     "add",
		Short:   "Publish start times on one or more weekdays",
		Example: "  onereserve slot add --service haircut --weekday tue,wed --time 09:00,10:30",
		RunE: func(cmd *cobra.Command, args []string) error {
			var days []time.Weekday
			for _, w := range weekdays {
				d, err := parseWeekday(w)
				if err != nil {
					return err
				}
				days = append(days, d)
			}
			for _, t := range times {
				if !booking.IsHM(t) {
					return fmt.Errorf("invalid time %q, want HH:MM", t)
				}
			}

			return withDB(cmd.Context(), func(ctx context.Context, cfg config.Config, d *db.DB) error {
				if _, err := postgres.NewDirectoryRepo(d).GetService(ctx, serviceID); err != nil {
					return err
				}
				repo := postgres.NewTemplateRepo(d)
				for _, day := range days {
					for _, t := range times {
						if err := repo.AddTemplate(ctx, booking.SlotTemplate{ServiceID: serviceID, Weekday: day, StartTime: t}); err != nil {
							return err
						}
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "added %d slot(s) to %s\n", len(days)*len(times), serviceID)
				return invalidateCache(ctx, cmd.ErrOrStderr(), cfg, repo, serviceID)
			})
		},
	}

	c.Flags().StringVar(&serviceID, "service", "", "service id")
	c.Flags().StringSliceVar(&weekdays, "weekday", nil, "weekdays (0-6 or sun..sat)")
	c.Flags().StringSliceVar(&times, "time", nil, "start times (HH:MM)")
	_ = c.MarkFlagRequired("service")
	_ = c.MarkFlagRequired("weekday")
	_ = c.MarkFlagRequired("time")
	return c
}

func newSlotListCmd() *cobra.Command {
	var serviceID string

	c := &cobra.Command{
		Use:   "list",
		Short: "List a service's weekly slot templates",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd.Context(), func(ctx context.Context, _ config.Config, d *db.DB) error {
				ts, err := postgres.NewTemplateRepo(d).ListTemplates(ctx, serviceID, nil)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for _, t := range ts {
					fmt.Fprintf(out, "%s\t%s\n", t.Weekday, t.StartTime)
				}
				return nil
			})
		},
	}

	c.Flags().StringVar(&serviceID, "service", "", "service id")
	_ = c.MarkFlagRequired("service")
	return c
}

// invalidateCache drops cached templates so a running server sees new slots
// before the TTL expires. A missing or unreachable cache is not an error.
func invalidateCache(ctx context.Context, stderr io.Writer, cfg config.Config, store booking.TemplateStore, serviceID string) error {
	if cfg.RedisAddr == "" {
		return nil
	}
	client, err := cache.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		fmt.Fprintf(stderr, "warning: slot cache not invalidated: %v\n", err)
		return nil
	}
	defer client.Close()
	return cache.NewTemplateCache(store, client, cfg.SlotCacheTTL, zap.NewNop()).Invalidate(ctx, serviceID)
}

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday, "mon": time.Monday, "tue": time.Tuesday, "wed": time.Wednesday,
	"thu": time.Thursday, "fri": time.Friday, "sat": time.Saturday,
}

func parseWeekday(s string) (time.Weekday, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 || n > 6 {
			return 0, fmt.Errorf("weekday %d out of range 0-6", n)
		}
		return time.Weekday(n), nil
	}
	if len(s) >= 3 {
		if d, ok := weekdayNames[s[:3]]; ok {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown weekday %q", s)
}
