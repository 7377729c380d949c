package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"eve-arbscan/internal/engine"
)

// NewHubsCommand lists the known trade hubs.
func NewHubsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "hubs",
		Short: "List known trade hubs",
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tREGION\tSTATION")
			for _, h := range engine.Hubs {
				fmt.Fprintf(tw, "%s\t%d\t%d\n", h.Name, h.RegionID, h.StationID)
			}
			return tw.Flush()
		},
	}
}
