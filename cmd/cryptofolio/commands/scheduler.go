package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cryptofolio/backend/internal/scheduler"
	"github.com/cryptofolio/backend/internal/scheduler/jobs"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Run the background jobs standalone",
	Long: `Runs the price refresh and history cleanup jobs without the
API server. Useful when the API runs elsewhere and the shared Redis
cache should stay warm.

Example:
  go run ./cmd/cryptofolio scheduler`,
	RunE: runScheduler,
}

func init() {
	rootCmd.AddCommand(schedulerCmd)
}

func runScheduler(cmd *cobra.Command, args []string) error {
	application, err := buildApp()
	if err != nil {
		return err
	}
	defer application.close()

	log := application.logger

	sched := scheduler.New(log)
	if err := sched.AddJob(jobs.NewPriceRefreshJob(application.fetcher, nil, log)); err != nil {
		return err
	}
	if err := sched.AddJob(jobs.NewHistoryCleanupJob(application.history, application.cfg.Trading.HistoryRetention, log)); err != nil {
		return err
	}

	sched.Start()
	defer sched.Stop()

	fmt.Println("Scheduler running. Press Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	return nil
}
