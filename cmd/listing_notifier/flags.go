package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/listing-notifier/internal/config"
)

var (
	flagConfigPath  string
	flagStore       string
	flagDedupPath   string
	flagRedisURL    string
	flagDatabaseURL string
	flagVerbose     bool

	flagListingsURL string
	flagChatID      string
	flagBotToken    string
	flagTimeout     string
	flagMaxPages    int
	flagConcurrency int
	flagDryRun      bool
)

func init() {
	// Store selection is shared by every command
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagConfigPath, "config", "", "Path to config.json file (values can be overridden by environment and flags)")
	pf.StringVar(&flagStore, "store", "", "Dedup store: file, redis or postgres (defaults to DEDUP_STORE env var, then file)")
	pf.StringVar(&flagDedupPath, "dedup-path", "", "Dedup file path for the file store (default notified_ads.json)")
	pf.StringVar(&flagRedisURL, "redis-url", "", "Redis URL for the redis store (defaults to REDIS_URL env var)")
	pf.StringVar(&flagDatabaseURL, "db-url", "", "PostgreSQL connection URL for the postgres store (defaults to DATABASE_URL env var)")
	pf.BoolVarP(&flagVerbose, "verbose", "v", false, "Print progress and a run report")
}

// addJobFlags registers the flags of commands that perform runs.
func addJobFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagListingsURL, "api-url", "", "Listings API URL (defaults to API_URL env var)")
	cmd.Flags().StringVar(&flagChatID, "chat-id", "", "Telegram chat id or @channel (defaults to CHAT_ID env var)")
	cmd.Flags().StringVar(&flagBotToken, "bot-token", "", "Telegram bot token (defaults to BOT_TOKEN env var)")
	cmd.Flags().StringVar(&flagTimeout, "timeout", "", "Per-request timeout, e.g. 10s")
	cmd.Flags().IntVar(&flagMaxPages, "max-pages", 0, "Number of listing pages to fetch (default 10)")
	cmd.Flags().IntVar(&flagConcurrency, "concurrency", 0, "Concurrent profile lookups and sends (default 5)")
	cmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "Print messages instead of sending them and leave dedup state untouched")
}

// loadConfig resolves the configuration: config file, then environment, then
// explicitly set flags, then defaults.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	var cfg config.Config
	if flagConfigPath != "" {
		loaded, err := config.LoadConfig(flagConfigPath)
		if err != nil {
			return cfg, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = *loaded
		if flagVerbose {
			_, _ = fmt.Fprintf(os.Stdout, "Loaded config from: %s\n", flagConfigPath)
		}
	}

	if err := cfg.ApplyEnv(nil); err != nil {
		return cfg, err
	}

	// Only override if the flag was explicitly set
	flags := cmd.Flags()
	strs := map[string]struct {
		dst *string
		val string
	}{
		"store":      {&cfg.DedupStore, flagStore},
		"dedup-path": {&cfg.DedupPath, flagDedupPath},
		"redis-url":  {&cfg.RedisURL, flagRedisURL},
		"db-url":     {&cfg.DatabaseURL, flagDatabaseURL},
		"api-url":    {&cfg.ListingsURL, flagListingsURL},
		"chat-id":    {&cfg.ChatID, flagChatID},
		"bot-token":  {&cfg.BotToken, flagBotToken},
		"timeout":    {&cfg.RequestTimeout, flagTimeout},
	}
	for name, f := range strs {
		if flags.Changed(name) {
			*f.dst = f.val
		}
	}
	if flags.Changed("max-pages") {
		cfg.MaxPages = flagMaxPages
	}
	if flags.Changed("concurrency") {
		cfg.Concurrency = flagConcurrency
	}
	if flags.Changed("dry-run") {
		cfg.DryRun = flagDryRun
	}
	if flags.Changed("verbose") {
		cfg.Verbose = flagVerbose
	}

	return cfg.MergeWithDefaults(config.Defaults()), nil
}
