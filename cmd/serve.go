package cmd

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/jjenkins/billtracker/internal/cache"
	"github.com/jjenkins/billtracker/internal/handlers"
	"github.com/jjenkins/billtracker/internal/service"
	"github.com/jjenkins/billtracker/internal/store"
)

var port string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the bill tracker web server",
	Long: `Start the web server that shows tracked bills, their decoded
histories and projected paths.

When refresh.schedule is set in the config file, all tracked bills are
also refreshed from nmlegis.gov on that cron schedule.`,
	Run: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVarP(&port, "port", "p", "", "Port to run the server on (default from config)")
}

func runServe(cmd *cobra.Command, args []string) {
	if port == "" {
		port = cfg.Server.Port
	}

	year, err := yearCode("")
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := store.NewDB(cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := store.Migrate(ctx, db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	billStore := store.NewBillStore(db)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := service.NewMetrics(reg)

	if cfg.Refresh.Schedule != "" {
		refresher, closeCache, err := newRefresher(billStore, metrics)
		if err != nil {
			log.Fatal(err)
		}
		defer closeCache()

		scheduler := cron.New()
		_, err = scheduler.AddFunc(cfg.Refresh.Schedule, func() {
			scheduledRefresh(ctx, refresher, billStore, year)
		})
		if err != nil {
			log.Fatalf("Invalid refresh schedule %q: %v", cfg.Refresh.Schedule, err)
		}
		scheduler.Start()
		defer scheduler.Stop()
		log.Printf("Refreshing year %s on schedule %q", year, cfg.Refresh.Schedule)
	}

	app := fiber.New(fiber.Config{
		AppName: "NM Bill Tracker",
	})

	app.Use(logger.New())

	// Routes
	app.Get("/", handlers.HomeHandler(service.NewMetricsService(billStore, metrics), year))

	// Bill routes
	app.Get("/bills", handlers.BillsHandler(billStore, year))
	app.Get("/bills/:billno", handlers.BillDetailHandler(billStore, year))

	// History route
	app.Get("/history", handlers.HistoryHandler(billStore, year))

	// API
	app.Get("/api/decode", handlers.DecodeHandler())
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	go func() {
		<-ctx.Done()
		log.Println("Shutting down server...")
		if err := app.Shutdown(); err != nil {
			log.Printf("Failed to shut down server: %v", err)
		}
	}()

	log.Printf("Starting server on :%s", port)
	if err := app.Listen(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func scheduledRefresh(ctx context.Context, refresher *service.Refresher, billStore *store.BillStore, year string) {
	billnos, err := billStore.ListBillnos(ctx, year)
	if err != nil {
		log.Printf("Scheduled refresh failed to list bills: %v", err)
		return
	}

	stats, err := refresher.Refresh(ctx, year, billnos)
	if errors.Is(err, cache.ErrLocked) {
		log.Printf("Skipping scheduled refresh: another refresh of %s is running", year)
		return
	}
	if err != nil {
		log.Printf("Scheduled refresh failed: %v", err)
	}
	if stats != nil {
		refresher.PrintSummary(stats)
	}
}
