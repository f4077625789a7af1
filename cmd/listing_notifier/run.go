package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jonathan/listing-notifier/internal/observability"
)

var runCommand = &cobra.Command{
	Use:   "run",
	Short: "Run the notifier once",
	Long: `Performs one run: load dedup state -> fetch listing pages -> resolve sellers and filter ->
build notification records -> notify new listings -> persist dedup state.

Configuration can be loaded from a JSON file using --config. Environment variables override
config file values and command-line flags override both.`,
	RunE: runOnceCmd,
}

func init() {
	addJobFlags(runCommand)
	rootCmd.AddCommand(runCommand)
}

func runOnceCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner, store, err := buildRunner(ctx, cfg, os.Stdout)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	report, err := runner.Run(ctx)
	if cfg.Verbose {
		observability.NewPrinter(os.Stdout).PrintRunReport(report)
	}
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(os.Stdout, "Done! %d new listing(s) notified.\n", report.Notified)
	return nil
}
