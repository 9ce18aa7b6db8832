package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jjenkins/billtracker/internal/bill"
	"github.com/jjenkins/billtracker/internal/cache"
	"github.com/jjenkins/billtracker/internal/config"
	"github.com/jjenkins/billtracker/internal/service"
)

var (
	cfgFile string
	cfg     config.Config
)

var rootCmd = &cobra.Command{
	Use:   "billtracker",
	Short: "Track New Mexico legislation",
	Long: `billtracker follows bills through the New Mexico Legislature.

It fetches bill pages from nmlegis.gov, decodes their action codes into a
readable history, works out where each bill is headed next, and serves
the results over HTTP.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		cfg = c
		return nil
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $XDG_CONFIG_HOME/billtracker/config.toml)")
}

// yearCode resolves the legislative year to work on. An empty override
// falls back to the configured year, then the current session.
func yearCode(override string) (string, error) {
	year := override
	if year == "" {
		year = cfg.NMLegis.Year
	}
	code, err := bill.NormalizeYearCode(year, time.Now())
	if err != nil {
		return "", fmt.Errorf("failed to resolve year: %w", err)
	}
	return code, nil
}

// newRefresher wires the page cache, refresh lock and nmlegis client.
// The returned func closes the cache backend.
func newRefresher(bills service.BillSaver, metrics *service.Metrics) (*service.Refresher, func() error, error) {
	pageCache, locker, closeCache, err := cache.Open(cfg.Cache)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open cache: %w", err)
	}

	client := service.NewNMLegisClient(cfg.NMLegis, pageCache)
	parser := service.NewParser(cfg.NMLegis.BaseURL)
	refresher := service.NewRefresher(client, parser, bills, locker, cfg.Cache.LockStale(), cfg.Refresh.Workers, metrics)
	return refresher, closeCache, nil
}
