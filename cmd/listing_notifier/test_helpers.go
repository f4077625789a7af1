package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// getBinaryPath returns the path to the listing_notifier binary for testing
func getBinaryPath(t *testing.T) string {
	binaryName := "listing_notifier"
	if testing.Short() {
		t.Skip("Skipping CLI tests in short mode")
	}

	binaryPath := filepath.Join("..", "..", "bin", binaryName)
	if _, err := os.Stat(binaryPath); os.IsNotExist(err) {
		t.Skipf("Binary not found at %s, build it first with 'go build -o bin/listing_notifier ./cmd/listing_notifier'", binaryPath)
	}

	return binaryPath
}

// configEnvKeys are the variables the binary reads configuration from.
var configEnvKeys = []string{
	"BOT_TOKEN", "CHAT_ID", "API_URL", "USER_API_URL", "AD_URL",
	"DEDUP_STORE", "DEDUP_PATH", "REDIS_URL", "DATABASE_URL",
	"MAX_PAGES", "CONCURRENCY", "REQUEST_TIMEOUT", "TELEGRAM_API_URL",
}

// cleanEnv returns the current environment without configuration variables,
// plus extra.
func cleanEnv(extra ...string) []string {
	var env []string
	for _, e := range os.Environ() {
		keep := true
		for _, key := range configEnvKeys {
			if strings.HasPrefix(e, key+"=") {
				keep = false
				break
			}
		}
		if keep {
			env = append(env, e)
		}
	}
	return append(env, extra...)
}
