package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"

	"github.com/pricescope/pricescope/internal/utils"
	"github.com/pricescope/pricescope/pkg/orchestrator"
	"github.com/pricescope/pricescope/pkg/scraper"
	"github.com/pricescope/pricescope/pkg/storage"
	"github.com/pricescope/pricescope/pkg/vendors"
	"github.com/pricescope/pricescope/pkg/whttp"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pricescope",
	Short: "Multi-vendor product price scraper and comparator.",
	Long: `pricescope searches the configured vendor catalogs for a product query,
normalizes every vendor's answer into one schema and records price history
keyed by the anchor vendor's catalog number.`,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.pricescope.yaml)")

	// Global flags
	rootCmd.PersistentFlags().StringP("loglevel", "l", "info", "Set log level. Available: debug, info, warn, error, fatal")
	rootCmd.PersistentFlags().String("dbpath", "pricescope.sqlite", "Path to the sqlite database file")
	rootCmd.PersistentFlags().String("anchor", vendors.AnchorVendor, "Vendor whose SKU anchors the cross-vendor product identity")
	rootCmd.PersistentFlags().Int("concurrency", whttp.DefaultMaxInFlight, "Max concurrent requests per vendor")
	rootCmd.PersistentFlags().Int("timeout", 25, "Per-request timeout in seconds")
	rootCmd.PersistentFlags().Float64("rps", 0, "Per-vendor requests per second limit (0 = unlimited)")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(".pricescope")
		viper.SetConfigType("yaml")
	}

	viper.AutomaticEnv()

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; create it with defaults.
			home, _ := homedir.Dir()
			configPath := home + "/.pricescope.yaml"
			if err := viper.SafeWriteConfigAs(configPath); err != nil {
				fmt.Printf("Error creating config file: %s", err)
			}
		}
	}

	// Set default empty values for all keys
	viper.SetDefault("server.username", "")
	viper.SetDefault("server.password", "")

	// Init log library
	levelString, _ := rootCmd.PersistentFlags().GetString("loglevel")
	utils.SetLogLevel(levelString)
}

// buildOrchestrator wires the registry, fetchers and persistence gateway
// into one orchestrator. The returned metrics registry backs /metrics when
// serving.
func buildOrchestrator(cmd *cobra.Command, db *storage.DB) (*orchestrator.Orchestrator, *scraper.Metrics, error) {
	concurrency, _ := cmd.Flags().GetInt("concurrency")
	timeout, _ := cmd.Flags().GetInt("timeout")
	rps, _ := cmd.Flags().GetFloat64("rps")
	anchor, _ := cmd.Flags().GetString("anchor")

	metrics := scraper.NewMetrics()

	var scrapers []*scraper.Scraper
	for _, cfg := range vendors.All() {
		fetcher := whttp.NewFetcher(
			whttp.WithMaxInFlight(concurrency),
			whttp.WithTimeout(time.Duration(timeout)*time.Second),
			whttp.WithRateLimit(rps),
		)
		s, err := scraper.New(cfg, scraper.Options{
			Fetcher: fetcher,
			Metrics: metrics,
			Log:     utils.Log,
		})
		if err != nil {
			return nil, nil, err
		}
		scrapers = append(scrapers, s)
	}

	return orchestrator.New(scrapers, anchor, db, utils.Log), metrics, nil
}

func openDB(cmd *cobra.Command) (*storage.DB, error) {
	dbPath, _ := cmd.Flags().GetString("dbpath")
	return storage.Open(dbPath)
}
