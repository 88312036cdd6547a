package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check connectivity to the backing services",
	Long: `Verifies database, Redis and market-data connectivity and
prints a one-line verdict per dependency.

Example:
  go run ./cmd/cryptofolio status`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	application, err := buildApp()
	if err != nil {
		return err
	}
	defer application.close()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	fmt.Println("=== Cryptofolio Status ===")

	if err := application.db.Ping(ctx); err != nil {
		fmt.Printf("database:   FAIL (%v)\n", err)
	} else {
		fmt.Println("database:   ok")
	}

	if application.redis.Enabled() {
		fmt.Println("redis:      ok")
	} else {
		fmt.Println("redis:      disabled")
	}

	quotes, degraded, err := application.fetcher.Quotes(ctx, nil)
	switch {
	case err != nil:
		fmt.Printf("marketdata: FAIL (%v)\n", err)
	case degraded:
		fmt.Printf("marketdata: degraded (%d symbols from cache)\n", len(quotes))
	default:
		fmt.Printf("marketdata: ok (%d symbols)\n", len(quotes))
	}

	snapshot := application.account.Snapshot()
	fmt.Printf("account:    cash $%s, %d positions\n", snapshot.Cash.StringFixed(2), len(snapshot.Positions))

	return nil
}
