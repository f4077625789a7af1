// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/listing-notifier/internal/dedup"
	"github.com/jonathan/listing-notifier/internal/fetch"
	"github.com/jonathan/listing-notifier/internal/listing"
	"github.com/jonathan/listing-notifier/internal/marketplace"
	"github.com/jonathan/listing-notifier/internal/notify"
)

// Default endpoints of the marketplace.
const (
	DefaultProfileURLTemplate = "https://www.olx.in/api/users/" + marketplace.UserIDPlaceholder
	DefaultCronSpec           = "@every 15m"
)

// Config represents the CLI configuration. Values come from a JSON file, the
// environment and flags, in increasing precedence; MergeWithDefaults fills
// whatever is still empty.
type Config struct {
	// Marketplace
	ListingsURL        string `json:"api_url,omitempty" validate:"required,url"`
	ProfileURLTemplate string `json:"user_api_url,omitempty" validate:"required"`
	AdURLTemplate      string `json:"ad_url,omitempty" validate:"required"`
	UserAgent          string `json:"user_agent,omitempty"`
	MaxPages           int    `json:"max_pages,omitempty" validate:"gte=1"`
	RequestTimeout     string `json:"request_timeout,omitempty"` // Go duration, e.g. "10s"

	// Messaging
	BotToken    string `json:"bot_token,omitempty"`
	ChatID      string `json:"chat_id,omitempty"`
	Concurrency int    `json:"concurrency,omitempty" validate:"gte=1"`
	// TelegramAPIURL points at a self-hosted Bot API server; format "…/bot%s/%s".
	TelegramAPIURL string `json:"telegram_api_url,omitempty"`

	// Dedup state
	DedupStore  string `json:"dedup_store,omitempty" validate:"oneof=file redis postgres"`
	DedupPath   string `json:"dedup_path,omitempty"`
	RedisURL    string `json:"redis_url,omitempty"`
	RedisKey    string `json:"redis_key,omitempty"`
	DatabaseURL string `json:"database_url,omitempty"` // PostgreSQL connection URL

	// Scheduling
	Cron string `json:"cron,omitempty"`

	// Behavior
	DryRun  bool `json:"dry_run,omitempty"` // Print messages instead of sending; do not persist dedup state
	Verbose bool `json:"verbose,omitempty"` // Print a run report after each run
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		ProfileURLTemplate: DefaultProfileURLTemplate,
		AdURLTemplate:      listing.DefaultAdURLTemplate,
		UserAgent:          fetch.DefaultUserAgent,
		MaxPages:           marketplace.DefaultMaxPages,
		RequestTimeout:     fetch.DefaultTimeout.String(),
		Concurrency:        notify.DefaultConcurrency,
		DedupStore:         dedup.KindFile,
		DedupPath:          dedup.DefaultFilePath,
		RedisKey:           dedup.DefaultRedisKey,
		Cron:               DefaultCronSpec,
	}
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// LookupFunc resolves an environment variable, like os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// ApplyEnv overrides fields with the non-empty environment variables that
// name them (BOT_TOKEN, CHAT_ID, API_URL, USER_API_URL, AD_URL, DEDUP_STORE,
// DEDUP_PATH, REDIS_URL, DATABASE_URL, MAX_PAGES, CONCURRENCY,
// REQUEST_TIMEOUT, TELEGRAM_API_URL). A nil lookup reads the process environment.
func (c *Config) ApplyEnv(lookup LookupFunc) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	strs := map[string]*string{
		"BOT_TOKEN":       &c.BotToken,
		"CHAT_ID":         &c.ChatID,
		"API_URL":         &c.ListingsURL,
		"USER_API_URL":    &c.ProfileURLTemplate,
		"AD_URL":          &c.AdURLTemplate,
		"DEDUP_STORE":     &c.DedupStore,
		"DEDUP_PATH":      &c.DedupPath,
		"REDIS_URL":       &c.RedisURL,
		"DATABASE_URL":    &c.DatabaseURL,
		"REQUEST_TIMEOUT": &c.RequestTimeout,

		"TELEGRAM_API_URL": &c.TelegramAPIURL,
	}
	for key, field := range strs {
		if v, ok := get(key); ok {
			*field = v
		}
	}

	ints := map[string]*int{
		"MAX_PAGES":   &c.MaxPages,
		"CONCURRENCY": &c.Concurrency,
	}
	for key, field := range ints {
		v, ok := get(key)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config error: %s must be an integer, got %q", key, v)
		}
		*field = n
	}
	return nil
}

// Validate checks a merged configuration.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("config error: '%s' failed '%s' validation", jsonName(fe.Field()), fe.Tag())
		}
		return fmt.Errorf("config error: %w", err)
	}

	if !strings.Contains(c.ProfileURLTemplate, marketplace.UserIDPlaceholder) {
		return fmt.Errorf("config error: 'user_api_url' must contain %s", marketplace.UserIDPlaceholder)
	}
	if err := checkTemplate("user_api_url", c.ProfileURLTemplate, marketplace.UserIDPlaceholder); err != nil {
		return err
	}
	if !strings.Contains(c.AdURLTemplate, listing.AdIDPlaceholder) {
		return fmt.Errorf("config error: 'ad_url' must contain %s", listing.AdIDPlaceholder)
	}
	if err := checkTemplate("ad_url", c.AdURLTemplate, listing.AdIDPlaceholder); err != nil {
		return err
	}

	if c.TelegramAPIURL != "" && strings.Count(c.TelegramAPIURL, "%s") != 2 {
		return fmt.Errorf("config error: 'telegram_api_url' must contain two %%s verbs (token, method)")
	}

	if c.RequestTimeout != "" {
		d, err := time.ParseDuration(c.RequestTimeout)
		if err != nil || d <= 0 {
			return fmt.Errorf("config error: 'request_timeout' must be a positive duration, got %q", c.RequestTimeout)
		}
	}

	switch c.DedupStore {
	case dedup.KindFile:
		if c.DedupPath == "" {
			return fmt.Errorf("config error: 'dedup_path' is required for the file store")
		}
	case dedup.KindRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("config error: 'redis_url' is required for the redis store")
		}
	case dedup.KindPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("config error: 'database_url' is required for the postgres store")
		}
	}

	if !c.DryRun {
		if c.BotToken == "" {
			return fmt.Errorf("config error: 'bot_token' is required unless dry_run is set")
		}
		if c.ChatID == "" {
			return fmt.Errorf("config error: 'chat_id' is required unless dry_run is set")
		}
	}

	return nil
}

// Timeout returns RequestTimeout parsed, or the fetch default.
func (c *Config) Timeout() time.Duration {
	if d, err := time.ParseDuration(c.RequestTimeout); err == nil && d > 0 {
		return d
	}
	return fetch.DefaultTimeout
}

// StoreOptions maps the dedup settings onto dedup.Options.
func (c *Config) StoreOptions() dedup.Options {
	return dedup.Options{
		Kind:        c.DedupStore,
		Path:        c.DedupPath,
		RedisURL:    c.RedisURL,
		RedisKey:    c.RedisKey,
		DatabaseURL: c.DatabaseURL,
	}
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	strs := []struct{ dst, def *string }{
		{&result.ListingsURL, &defaults.ListingsURL},
		{&result.ProfileURLTemplate, &defaults.ProfileURLTemplate},
		{&result.AdURLTemplate, &defaults.AdURLTemplate},
		{&result.UserAgent, &defaults.UserAgent},
		{&result.RequestTimeout, &defaults.RequestTimeout},
		{&result.BotToken, &defaults.BotToken},
		{&result.TelegramAPIURL, &defaults.TelegramAPIURL},
		{&result.ChatID, &defaults.ChatID},
		{&result.DedupStore, &defaults.DedupStore},
		{&result.DedupPath, &defaults.DedupPath},
		{&result.RedisURL, &defaults.RedisURL},
		{&result.RedisKey, &defaults.RedisKey},
		{&result.DatabaseURL, &defaults.DatabaseURL},
		{&result.Cron, &defaults.Cron},
	}
	for _, s := range strs {
		if *s.dst == "" {
			*s.dst = *s.def
		}
	}

	if result.MaxPages == 0 {
		result.MaxPages = defaults.MaxPages
	}
	if result.Concurrency == 0 {
		result.Concurrency = defaults.Concurrency
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}

func checkTemplate(name, tmpl, placeholder string) error {
	u, err := url.Parse(strings.ReplaceAll(tmpl, placeholder, "x"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("config error: '%s' is not a valid URL template: %q", name, tmpl)
	}
	return nil
}

var jsonNames = map[string]string{
	"ListingsURL":        "api_url",
	"ProfileURLTemplate": "user_api_url",
	"AdURLTemplate":      "ad_url",
	"MaxPages":           "max_pages",
	"Concurrency":        "concurrency",
	"DedupStore":         "dedup_store",
}

func jsonName(field string) string {
	if n, ok := jsonNames[field]; ok {
		return n
	}
	return field
}
