package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/cryptofolio/backend/internal/api"
	"github.com/cryptofolio/backend/internal/api/handlers"
	"github.com/cryptofolio/backend/internal/scheduler"
	"github.com/cryptofolio/backend/internal/scheduler/jobs"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the API server",
	Long: `Starts the REST API server with the realtime price stream.

This command:
- serves the portfolio, trading, market data and advisory endpoints
- pushes quote snapshots over /ws/prices
- runs the background price refresh and history cleanup jobs

Example:
  go run ./cmd/cryptofolio api
  go run ./cmd/cryptofolio api --port 8080`,
	RunE: runAPIServer,
}

var apiPort string

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API server port (overrides PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	application, err := buildApp()
	if err != nil {
		return err
	}
	defer application.close()

	cfg := application.cfg
	log := application.logger

	if apiPort != "" {
		cfg.Port = apiPort
	}

	// Realtime hub
	hubCtx, hubCancel := context.WithCancel(context.Background())
	defer hubCancel()

	hub := api.NewHub(log)
	go hub.Run(hubCtx)

	// Background jobs feed the hub and prune history
	sched := scheduler.New(log)
	if err := sched.AddJob(jobs.NewPriceRefreshJob(application.fetcher, hub, log)); err != nil {
		return err
	}
	if err := sched.AddJob(jobs.NewHistoryCleanupJob(application.history, cfg.Trading.HistoryRetention, log)); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	router := api.NewRouter(api.Handlers{
		Market:    handlers.NewMarketHandler(application.fetcher, log),
		Portfolio: handlers.NewPortfolioHandler(application.account, application.rebalancer, application.fetcher, log),
		Trading:   handlers.NewTradingHandler(application.executor, application.account, application.history, application.fetcher, log),
		Advisory:  handlers.NewAdvisoryHandler(application.advisor, application.account, application.fetcher, "BTC", log),
		System:    handlers.NewSystemHandler(application.account, cfg.Env, application.db.Ping, cfg.Redis.Enabled, log),
		Hub:       hub,
	}, log)

	server := api.New(cfg, log, router)

	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	fmt.Printf("Server running on http://localhost:%s\n", cfg.Port)
	fmt.Println("Press Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
