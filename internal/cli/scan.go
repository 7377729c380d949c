package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"eve-arbscan/internal/engine"
	"eve-arbscan/internal/logger"
	"eve-arbscan/internal/metrics"
)

// loopFlags are shared by both scan subcommands.
type loopFlags struct {
	repeat   bool
	interval int
	top      int
}

func (lf *loopFlags) register(fs *pflag.FlagSet) {
	fs.BoolVar(&lf.repeat, "repeat", false, "Repeat the scan until stopped")
	fs.IntVar(&lf.interval, "interval", 0, "Minutes between scans in repeat mode")
	fs.IntVar(&lf.top, "top", 20, "Rows to print per cycle (0 = all)")
}

func (lf *loopFlags) options(fs *pflag.FlagSet) (engine.LoopOptions, error) {
	repeat := cfg.Loop.Repeat
	if fs.Changed("repeat") {
		repeat = lf.repeat
	}
	minutes := cfg.Loop.IntervalMinutes
	if fs.Changed("interval") {
		minutes = lf.interval
	}
	if minutes < 1 {
		return engine.LoopOptions{}, fmt.Errorf("--interval must be at least 1 minute, got %d", minutes)
	}
	return engine.LoopOptions{Repeat: repeat, Interval: time.Duration(minutes) * time.Minute}, nil
}

// NewScanCommand creates the scan command with one subcommand per strategy.
func NewScanCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Run an arbitrage scan",
		Long: `Run an arbitrage scan once, or repeatedly with --repeat.

Press Ctrl+C to stop; opportunities found so far are kept.`,
	}
	cmd.AddCommand(newVelocityCommand())
	cmd.AddCommand(newImportCommand())
	return cmd
}

func newVelocityCommand() *cobra.Command {
	var (
		hub            string
		minPrice       float64
		maxPrice       float64
		minVolume      float64
		minDailyProfit float64
		depth          int
		lf             loopFlags
	)

	cmd := &cobra.Command{
		Use:   "velocity",
		Short: "Scan one hub for wide buy/sell spreads on liquid items",
		Long: `Scan one hub for wide buy/sell spreads on liquid items.

Examples:
  arbscan scan velocity --hub jita
  arbscan scan velocity --hub amarr --min-price 1000000 --max-price 50000000 --depth 0`,
		RunE: func(cmd *cobra.Command, args []string) error {
			fs := cmd.Flags()
			vc := cfg.Scan.Velocity
			if fs.Changed("hub") {
				vc.Hub = hub
			}
			if fs.Changed("min-price") {
				vc.MinPrice = minPrice
			}
			if fs.Changed("max-price") {
				vc.MaxPrice = maxPrice
			}
			if fs.Changed("min-volume") {
				vc.MinVolume = minVolume
			}
			if fs.Changed("min-daily-profit") {
				vc.MinDailyProfit = minDailyProfit
			}
			if fs.Changed("depth") {
				vc.Depth = depth
			}
			if vc.MaxPrice < vc.MinPrice {
				return fmt.Errorf("--max-price must not be below --min-price")
			}
			h, err := engine.FindHub(vc.Hub)
			if err != nil {
				return err
			}

			params := engine.VelocityParams{
				Hub:            h,
				MinPrice:       vc.MinPrice,
				MaxPrice:       vc.MaxPrice,
				MinVolume:      vc.MinVolume,
				MinDailyProfit: vc.MinDailyProfit,
				Depth:          vc.Depth,
			}
			opts, err := lf.options(fs)
			if err != nil {
				return err
			}
			return runScan(cmd.Context(), lf.top, opts, func(a *app) engine.Job {
				return a.scanner.VelocityJob(params)
			})
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&hub, "hub", "", "Hub name or prefix")
	fs.Float64Var(&minPrice, "min-price", 0, "Minimum buy price (ISK)")
	fs.Float64Var(&maxPrice, "max-price", 0, "Maximum buy price (ISK)")
	fs.Float64Var(&minVolume, "min-volume", 0, "Minimum average daily volume")
	fs.Float64Var(&minDailyProfit, "min-daily-profit", 0, "Minimum estimated daily profit (ISK)")
	fs.IntVar(&depth, "depth", 0, "Order book pages to fetch (0 = all)")
	lf.register(fs)
	return cmd
}

func newImportCommand() *cobra.Command {
	var (
		hub          string
		minROI       float64
		minVolume    float64
		includeEmpty bool
		depth        int
		lf           loopFlags
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Find items worth hauling from the reference hub to a target hub",
		Long: `Compare reference hub sell prices against a target hub, including
items the target does not stock at all.

Examples:
  arbscan scan import --hub G-0Q
  arbscan scan import --hub amarr --min-roi 50 --include-empty=false`,
		RunE: func(cmd *cobra.Command, args []string) error {
			fs := cmd.Flags()
			ic := cfg.Scan.Import
			if fs.Changed("hub") {
				ic.Hub = hub
			}
			if fs.Changed("min-roi") {
				ic.MinROI = minROI
			}
			if fs.Changed("min-volume") {
				ic.MinVolume = minVolume
			}
			if fs.Changed("include-empty") {
				ic.IncludeEmpty = includeEmpty
			}
			if fs.Changed("depth") {
				ic.Depth = depth
			}
			h, err := engine.FindHub(ic.Hub)
			if err != nil {
				return err
			}

			params := engine.ImportParams{
				Hub:          h,
				MinROI:       ic.MinROI,
				MinVolume:    ic.MinVolume,
				IncludeEmpty: ic.IncludeEmpty,
				Depth:        ic.Depth,
			}
			opts, err := lf.options(fs)
			if err != nil {
				return err
			}
			return runScan(cmd.Context(), lf.top, opts, func(a *app) engine.Job {
				return a.scanner.ImportJob(params)
			})
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&hub, "hub", "", "Target hub name or prefix")
	fs.Float64Var(&minROI, "min-roi", 0, "Minimum ROI percent")
	fs.Float64Var(&minVolume, "min-volume", 0, "Minimum average daily volume at the target")
	fs.BoolVar(&includeEmpty, "include-empty", true, "Include items the target hub does not stock")
	fs.IntVar(&depth, "depth", 0, "Reference hub pages to fetch (0 = reference default)")
	lf.register(fs)
	return cmd
}

// runScan wires the app and runs the loop next to the metrics listener,
// the Redis feed and the signal watcher until the loop returns.
func runScan(ctx context.Context, top int, opts engine.LoopOptions, jobFor func(*app) engine.Job) error {
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := newApp(ctx, cfg, newConsoleObserver(os.Stdout, top))
	if err != nil {
		return err
	}
	defer a.close()

	job := jobFor(a)
	logger.Banner(appVersion)
	logger.Section(fmt.Sprintf("%s scan", job.Strategy))
	logger.Stats("hub", job.Hub.Name)
	logger.Stats("repeat", opts.Repeat)
	if opts.Repeat {
		logger.Stats("interval", opts.Interval.String())
	}

	g, gctx := errgroup.WithContext(ctx)
	svcCtx, stopServices := context.WithCancel(gctx)
	defer stopServices()

	var final engine.State
	g.Go(func() error {
		defer stopServices()
		final = a.loop.Run(gctx, job, opts)
		return nil
	})
	g.Go(func() error {
		return metrics.Serve(svcCtx, cfg.Metrics.Addr)
	})
	if a.feed != nil {
		g.Go(func() error {
			return a.feed.Run(svcCtx)
		})
	}
	g.Go(func() error {
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(sigs)
		select {
		case <-sigs:
			logger.Warn("CLI", "Stop requested, finishing current step...")
			a.loop.Stop()
		case <-svcCtx.Done():
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("CLI", fmt.Sprintf("Loop finished: %s", final))
	return nil
}
