package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pricescope/pricescope/pkg/orchestrator"
	"github.com/pricescope/pricescope/pkg/vendors"
)

// scrapeCmd represents the scrape command
var scrapeCmd = &cobra.Command{
	Use:   "scrape <query>",
	Short: "Scrape all configured vendors for a product query",
	Long: `Scrape all configured vendors for a product query and persist the results.

Example:
  pricescope scrape GR-730BINS`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		names := make([]string, 0, len(vendors.All()))
		for _, cfg := range vendors.All() {
			names = append(names, cfg.Descriptor.Name)
		}
		if err := db.EnsureVendors(cmd.Context(), names); err != nil {
			return err
		}

		orch, _, err := buildOrchestrator(cmd, db)
		if err != nil {
			return err
		}

		results, status, err := orch.Run(cmd.Context(), args[0], orchestrator.InitiatorUser)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
		fmt.Fprintln(w, "VENDOR\tSKU\tNAME\tPRICE\tCURRENCY")
		for _, res := range results {
			p := res.Product
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", res.Vendor, p.SKU, p.Name, p.Price, p.Currency)
		}
		w.Flush()

		fmt.Printf("\nSession status: %s (%d results)\n", status, len(results))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(scrapeCmd)
}
