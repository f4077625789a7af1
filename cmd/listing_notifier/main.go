// Package main provides the entry point for the listing notifier CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "listing_notifier",
	Short: "Marketplace listing notifier",
	Long: `Listing notifier polls the marketplace listings API, drops listings from business,
KYC-verified and motor-trade sellers, and sends every listing it has not seen before to a
Telegram chat. Already-notified listing ids are kept in a dedup store between runs.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
