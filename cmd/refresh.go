package cmd

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jjenkins/billtracker/internal/cache"
	"github.com/jjenkins/billtracker/internal/store"
)

var refreshYear string
var refreshBill string
var refreshSession bool

var refreshCmd = &cobra.Command{
	Use:   "refresh [billno...]",
	Short: "Refresh bills from nmlegis.gov",
	Long: `Refresh fetches bill pages from nmlegis.gov, decodes their action
codes and stores the results in PostgreSQL with a daily snapshot whenever
a bill changes.

With no arguments every bill already tracked for the year is refreshed.
With --session every bill filed in the regular session is refreshed,
which starts tracking the ones not seen before.

Examples:
  # Start tracking some bills
  ./billtracker refresh HB17 SB3 HJM4

  # Refresh everything tracked this session
  ./billtracker refresh

  # Track the whole 2025 session
  ./billtracker refresh --year 2025 --session

  # Refresh a single bill from the 2024 special session
  ./billtracker refresh --year 24s2 --bill HB1`,
	Run: runRefresh,
}

func init() {
	rootCmd.AddCommand(refreshCmd)

	refreshCmd.Flags().StringVarP(&refreshYear, "year", "y", "", "Legislative year, e.g. 2025 or 24s2 (default from config)")
	refreshCmd.Flags().StringVarP(&refreshBill, "bill", "b", "", "Refresh only this bill")
	refreshCmd.Flags().BoolVar(&refreshSession, "session", false, "Refresh every bill in the session listing")
}

func runRefresh(cmd *cobra.Command, args []string) {
	year, err := yearCode(refreshYear)
	if err != nil {
		log.Fatal(err)
	}

	// Set up context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Println("\nReceived interrupt signal, shutting down...")
		cancel()
	}()

	// Connect to database
	log.Println("Connecting to database...")
	db, err := store.NewDB(cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := store.Migrate(ctx, db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	billStore := store.NewBillStore(db)
	refresher, closeCache, err := newRefresher(billStore, nil)
	if err != nil {
		log.Fatal(err)
	}
	defer closeCache()

	// Handle single bill refresh
	if refreshBill != "" {
		stats, err := refresher.RefreshOne(ctx, year, refreshBill)
		if err != nil {
			if ctx.Err() != nil {
				log.Println("Refresh cancelled")
				os.Exit(1)
			}
			log.Fatalf("Refresh failed: %v", err)
		}
		refresher.PrintSummary(stats)
		return
	}

	billnos := args
	if len(billnos) == 0 && refreshSession {
		listed, err := refresher.ListSession(ctx, year)
		if err != nil {
			log.Fatalf("Failed to list session bills: %v", err)
		}
		for _, b := range listed {
			billnos = append(billnos, b.Billno)
		}
	}
	if len(billnos) == 0 {
		billnos, err = billStore.ListBillnos(ctx, year)
		if err != nil {
			log.Fatalf("Failed to list tracked bills: %v", err)
		}
		if len(billnos) == 0 {
			log.Printf("No bills tracked for year %s; pass bill numbers to start tracking", year)
			return
		}
	}

	stats, err := refresher.Refresh(ctx, year, billnos)
	if err != nil {
		if errors.Is(err, cache.ErrLocked) {
			log.Fatalf("Another refresh of year %s is already running", year)
		}
		if ctx.Err() != nil {
			log.Println("Refresh cancelled")
			if stats != nil {
				refresher.PrintSummary(stats)
			}
			os.Exit(1)
		}
		log.Fatalf("Refresh failed: %v", err)
	}
	refresher.PrintSummary(stats)

	if stats.Failed > 0 {
		os.Exit(1)
	}
}
