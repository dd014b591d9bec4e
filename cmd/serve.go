package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pricescope/pricescope/internal/server"
	"github.com/pricescope/pricescope/pkg/vendors"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the pricescope HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		var names []string
		for _, cfg := range vendors.All() {
			names = append(names, cfg.Descriptor.Name)
		}
		if err := db.EnsureVendors(context.Background(), names); err != nil {
			return err
		}

		orch, metrics, err := buildOrchestrator(cmd, db)
		if err != nil {
			return err
		}

		listenAddr, _ := cmd.Flags().GetString("listen")
		srv := server.New(db, orch, metrics.Registry,
			viper.GetString("server.username"), viper.GetString("server.password"))
		return srv.Start(listenAddr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("listen", ":8080", "HTTP listen address")
}
