package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/listing-notifier/internal/dedup"
	"github.com/jonathan/listing-notifier/internal/observability"
)

var dedupCommand = &cobra.Command{
	Use:   "dedup",
	Short: "Inspect or reset the dedup store",
}

var dedupListCommand = &cobra.Command{
	Use:   "list",
	Short: "Print the ids of listings already notified, one per line",
	RunE:  dedupListCmd,
}

var dedupClearCommand = &cobra.Command{
	Use:   "clear",
	Short: "Forget every notified listing; the next run re-notifies current listings",
	RunE:  dedupClearCmd,
}

var dedupClearYes bool

func init() {
	dedupClearCommand.Flags().BoolVar(&dedupClearYes, "yes", false, "Confirm clearing the store")
	dedupCommand.AddCommand(dedupListCommand, dedupClearCommand)
	rootCmd.AddCommand(dedupCommand)
}

func openStore(cmd *cobra.Command) (dedup.Store, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	store, err := dedup.Open(cmd.Context(), cfg.StoreOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to open dedup store: %w", err)
	}
	return store, nil
}

func dedupListCmd(cmd *cobra.Command, _ []string) error {
	store, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	ids, err := store.Load(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to load dedup state: %w", err)
	}
	observability.NewPrinter(os.Stdout).PrintIDs(ids.Sorted())
	if flagVerbose {
		_, _ = fmt.Fprintf(os.Stderr, "%d notified listing(s)\n", ids.Len())
	}
	return nil
}

func dedupClearCmd(cmd *cobra.Command, _ []string) error {
	if !dedupClearYes {
		return fmt.Errorf("refusing to clear the dedup store without --yes")
	}

	store, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if err := store.Save(cmd.Context(), dedup.NewSet()); err != nil {
		return fmt.Errorf("failed to clear dedup state: %w", err)
	}
	_, _ = fmt.Fprintln(os.Stdout, "Dedup store cleared.")
	return nil
}
