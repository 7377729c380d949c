package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"eve-arbscan/internal/blob"
	"eve-arbscan/internal/feed"
)

// NewPingCommand checks connectivity to ESI and the configured sinks.
func NewPingCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check connectivity to ESI, Redis and S3",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()

			failed := 0
			check := func(name string, err error) {
				if err != nil {
					failed++
					fmt.Printf("  %-6s FAIL  %v\n", name, err)
					return
				}
				fmt.Printf("  %-6s OK\n", name)
			}

			if newESIClient(cfg).HealthCheck(ctx) {
				check("esi", nil)
			} else {
				check("esi", fmt.Errorf("status endpoint unreachable"))
			}
			if cfg.Redis.Addr != "" {
				p := feed.NewPublisher(cfg.Redis)
				check("redis", p.Ping(ctx))
				p.Close()
			}
			if cfg.S3.Bucket != "" {
				a, err := blob.New(ctx, cfg.S3)
				if err == nil {
					err = a.Health(ctx)
				}
				check("s3", err)
			}
			if failed > 0 {
				return fmt.Errorf("%d check(s) failed", failed)
			}
			return nil
		},
	}
}
