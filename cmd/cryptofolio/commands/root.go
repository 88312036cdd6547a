package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "cryptofolio",
	Short: "Cryptofolio - paper-trading backend for crypto portfolios",
	Long: `Cryptofolio backend CLI

Simulated crypto trading against live CoinGecko market data:
virtual ledger, portfolio valuation, rebalancing suggestions and a
rule-based advisory agent behind a REST/websocket API.

Usage:
  go run ./cmd/cryptofolio [command]

Examples:
  go run ./cmd/cryptofolio api
  go run ./cmd/cryptofolio scheduler
  go run ./cmd/cryptofolio status`,
}

// Execute runs the root command. Called once from main.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
