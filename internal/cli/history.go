package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"eve-arbscan/internal/db"
	"eve-arbscan/internal/report"
)

// NewHistoryCommand shows recorded scan cycles.
func NewHistoryCommand() *cobra.Command {
	var (
		limit int
		show  int64
		del   int64
		purge int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded scan cycles",
		Long: `Show recorded scan cycles from the SQLite store.

Examples:
  arbscan history --limit 20
  arbscan history --show 42
  arbscan history --delete 42
  arbscan history --purge 30`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.Storage.Path == "" {
				return fmt.Errorf("storage is disabled (storage.path is empty)")
			}
			store, err := db.Open(cfg.Storage.Path, cfg.Storage.HistoryTTL)
			if err != nil {
				return err
			}
			defer store.Close()

			if del > 0 {
				if store.GetHistoryByID(del) == nil {
					return fmt.Errorf("no cycle with id %d", del)
				}
				if err := store.DeleteHistory(del); err != nil {
					return fmt.Errorf("delete cycle %d: %w", del, err)
				}
				fmt.Printf("Deleted cycle %d.\n", del)
				return nil
			}

			if purge > 0 {
				n, err := store.ClearHistory(purge)
				if err != nil {
					return fmt.Errorf("purge history: %w", err)
				}
				fmt.Printf("Removed %d cycles older than %d days.\n", n, purge)
				return nil
			}

			if show > 0 {
				rec := store.GetHistoryByID(show)
				if rec == nil {
					return fmt.Errorf("no cycle with id %d", show)
				}
				fmt.Printf("Cycle #%d  %s  %s  %s  (%d opportunities)\n\n", rec.Cycle, rec.Timestamp, rec.Strategy, rec.Hub, rec.Count)
				return report.Table(os.Stdout, store.GetOpportunities(rec.ID), 0)
			}

			tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTIME\tSTRATEGY\tHUB\tCYCLE\tFOUND\tTOP DAILY\tSNAPSHOT")
			for _, r := range store.GetHistory(limit) {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%d\t%s\t%s\n",
					r.ID, r.Timestamp, r.Strategy, r.Hub, r.Cycle, r.Count, report.ISK(r.TopProfit), r.Snapshot)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Number of cycles to list")
	cmd.Flags().Int64Var(&show, "show", 0, "Show the opportunities of one cycle")
	cmd.Flags().Int64Var(&del, "delete", 0, "Delete one cycle and its opportunities")
	cmd.Flags().IntVar(&purge, "purge", 0, "Delete cycles older than N days")
	return cmd
}
