package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/onereserve/internal/config"
	"github.com/example/onereserve/internal/infrastructure/cache"
	"github.com/example/onereserve/internal/infrastructure/notify"
)

func newPingCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "ping [db|redis|amqp]",
		Short:     "Check connectivity to a configured dependency",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"db", "redis", "amqp"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(config.StoreMemory)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()

			switch args[0] {
			case "db":
				d, err := openDB(ctx, cfg, false)
				if err != nil {
					return err
				}
				d.Close()
			case "redis":
				if cfg.RedisAddr == "" {
					return fmt.Errorf("REDIS_ADDR is not set")
				}
				client, err := cache.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
				if err != nil {
					return err
				}
				_ = client.Close()
			case "amqp":
				if cfg.AMQPURL == "" {
					return fmt.Errorf("AMQP_URL is not set")
				}
				pub, err := notify.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
				if err != nil {
					return err
				}
				_ = pub.Close()
			default:
				return fmt.Errorf("unknown target: %s", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", args[0])
			return nil
		},
	}
}
