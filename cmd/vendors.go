package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pricescope/pricescope/pkg/vendors"
)

// vendorsCmd represents the vendors command
var vendorsCmd = &cobra.Command{
	Use:   "vendors",
	Short: "List the configured vendors and their fetch strategies",
	RunE: func(cmd *cobra.Command, args []string) error {
		w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
		fmt.Fprintln(w, "VENDOR\tSTRATEGY\tSEARCH ENDPOINT")
		for _, cfg := range vendors.All() {
			d := cfg.Descriptor
			fmt.Fprintf(w, "%s\t%s\t%s\n", d.Name, d.Strategy, d.SearchEndpoint)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(vendorsCmd)
}
