// Package cli implements the arbscan command line.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"eve-arbscan/internal/config"
	"eve-arbscan/internal/logger"
)

var (
	// Global flags
	configPath string
	logLevel   string

	cfg        *config.Config
	appVersion string
)

// NewRootCommand creates the root command.
func NewRootCommand(version string) *cobra.Command {
	appVersion = version
	rootCmd := &cobra.Command{
		Use:   "arbscan",
		Short: "EVE Online market arbitrage scanner",
		Long: `arbscan scans EVE Online trade hubs for price arbitrage opportunities
and can repeat the scan on a timer until stopped.

Examples:
  arbscan scan velocity --hub jita --depth 10
  arbscan scan import --hub G-0Q --min-roi 40 --repeat --interval 30
  arbscan hubs
  arbscan history --limit 20
  arbscan ping`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if logLevel != "" {
				loaded.LogLevel = logLevel
			}
			if err := loaded.Validate(); err != nil {
				return err
			}
			if err := logger.Init(loaded.LogLevel, loaded.LogJSON); err != nil {
				return err
			}
			cfg = loaded
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logger.Sync()
		},
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", os.Getenv(config.EnvPrefix+"CONFIG"),
		"Path to a TOML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Log level override (debug, info, warn, error)")

	rootCmd.AddCommand(NewScanCommand())
	rootCmd.AddCommand(NewHubsCommand())
	rootCmd.AddCommand(NewHistoryCommand())
	rootCmd.AddCommand(NewPingCommand())

	return rootCmd
}

// Execute runs the root command.
func Execute(version string) {
	if err := NewRootCommand(version).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
