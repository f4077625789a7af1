package main

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/jonathan/listing-notifier/internal/config"
	"github.com/jonathan/listing-notifier/internal/dedup"
	"github.com/jonathan/listing-notifier/internal/listing"
	"github.com/jonathan/listing-notifier/internal/marketplace"
	"github.com/jonathan/listing-notifier/internal/notify"
	"github.com/jonathan/listing-notifier/internal/observability"
	"github.com/jonathan/listing-notifier/internal/pipeline"
	"github.com/jonathan/listing-notifier/internal/pipeline/steps"
)

// dryRunChatID labels printed messages when no chat is configured.
const dryRunChatID = "dry-run"

// buildRunner wires a validated config into a Runner. The returned store must
// be closed by the caller.
func buildRunner(ctx context.Context, cfg config.Config, out io.Writer) (*pipeline.Runner, dedup.Store, error) {
	logger := log.Default()

	client, err := marketplace.NewClient(marketplace.ClientOptions{
		ListingsURL:        cfg.ListingsURL,
		ProfileURLTemplate: cfg.ProfileURLTemplate,
		UserAgent:          cfg.UserAgent,
		Timeout:            cfg.Timeout(),
		Logger:             logger,
	})
	if err != nil {
		return nil, nil, err
	}

	transformer, err := listing.NewTransformer(cfg.AdURLTemplate)
	if err != nil {
		return nil, nil, err
	}

	sender, chatID, err := buildSender(cfg, out, logger)
	if err != nil {
		return nil, nil, err
	}
	notifier, err := notify.New(sender, notify.Options{
		ChatID:      chatID,
		Concurrency: cfg.Concurrency,
		SendTimeout: cfg.Timeout(),
		Logger:      logger,
	})
	if err != nil {
		return nil, nil, err
	}

	store, err := dedup.Open(ctx, cfg.StoreOptions())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open dedup store: %w", err)
	}

	opts := pipeline.RunOptions{
		Listings:    client,
		Profiles:    client,
		Transformer: transformer,
		Store:       store,
		Notifier:    notifier,
		MaxPages:    cfg.MaxPages,
		Concurrency: cfg.Concurrency,
		DryRun:      cfg.DryRun,
		Logger:      logger,
	}
	if cfg.Verbose {
		printer := observability.NewPrinter(out)
		opts.OnProgress = func(e pipeline.ProgressEvent) {
			_, _ = fmt.Fprintf(out, "Step %d/%d: %s\n", steps.Position(e.Step), len(steps.Sequence), e.Message)
			if e.Step == steps.SelectNew {
				printer.PrintRecords(e.Records)
			}
		}
	}

	runner, err := pipeline.NewRunner(opts)
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}
	return runner, store, nil
}

func buildSender(cfg config.Config, out io.Writer, logger *log.Logger) (notify.Sender, string, error) {
	if cfg.DryRun {
		chatID := cfg.ChatID
		if chatID == "" {
			chatID = dryRunChatID
		}
		return notify.NewWriterSender(out), chatID, nil
	}

	sender, err := notify.NewTelegramSender(cfg.BotToken, notify.TelegramOptions{
		APIEndpoint: cfg.TelegramAPIURL,
		Timeout:     cfg.Timeout(),
	})
	if err != nil {
		return nil, "", err
	}
	logger.Printf("[notify] Authorized on account @%s", sender.Username())
	return sender, cfg.ChatID, nil
}
