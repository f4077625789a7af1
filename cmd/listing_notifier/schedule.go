package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jonathan/listing-notifier/internal/observability"
	"github.com/jonathan/listing-notifier/internal/scheduler"
	"github.com/jonathan/listing-notifier/internal/types"
)

var scheduleCommand = &cobra.Command{
	Use:   "schedule",
	Short: "Run the notifier periodically on a cron spec",
	Long: `Runs the notifier on a cron spec (e.g. "@every 15m" or "*/10 * * * *") until interrupted.
A tick that fires while the previous run is still in progress is skipped. A failed run is
logged and the next tick runs as usual.`,
	RunE: scheduleCmd,
}

var (
	scheduleCron     string
	scheduleRunFirst bool
)

func init() {
	addJobFlags(scheduleCommand)
	scheduleCommand.Flags().StringVar(&scheduleCron, "cron", "", `Cron spec (default "@every 15m")`)
	scheduleCommand.Flags().BoolVar(&scheduleRunFirst, "run-now", true, "Run once immediately instead of waiting for the first tick")
	rootCmd.AddCommand(scheduleCommand)
}

func scheduleCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("cron") {
		cfg.Cron = scheduleCron
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

	printer := observability.NewPrinter(os.Stdout)
	s, err := scheduler.New(runner, scheduler.Options{
		Spec:       cfg.Cron,
		RunOnStart: scheduleRunFirst,
		OnReport: func(report *types.RunReport, _ error) {
			if cfg.Verbose {
				printer.PrintRunReport(report)
			}
		},
	})
	if err != nil {
		return err
	}
	if err := s.Start(ctx); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(os.Stdout, "Scheduled on %q; press Ctrl+C to stop.\n", cfg.Cron)
	<-ctx.Done()
	s.Stop()
	_, _ = fmt.Fprintf(os.Stdout, "Stopped after %d run(s).\n", s.Runs())
	return nil
}
