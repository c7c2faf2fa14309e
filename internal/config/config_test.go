package config

import (
	"flag"
	"os"
	"testing"
	"time"
)

func parseArgs(t *testing.T, args ...string) *CLIConfig {
	t.Helper()
	fs := flag.NewFlagSet("certphish", flag.ContinueOnError)
	return parse(fs, args)
}

func TestParseDefaults(t *testing.T) {
	for _, key := range []string{"BRANDS_FILE", "OUTPUT_FILE", "WORKERS", "CERTSTREAM_URL"} {
		t.Setenv(key, "")
	}

	cfg := parseArgs(t)

	if cfg.BrandsFile != DefaultBrandsFile {
		t.Errorf("BrandsFile = %q, want %q", cfg.BrandsFile, DefaultBrandsFile)
	}
	if cfg.OutputPath != DefaultOutputPath {
		t.Errorf("OutputPath = %q, want %q", cfg.OutputPath, DefaultOutputPath)
	}
	if cfg.Workers != DefaultWorkers {
		t.Errorf("Workers = %d, want %d", cfg.Workers, DefaultWorkers)
	}
	if cfg.Verbose {
		t.Error("Verbose should default to false")
	}
	if cfg.IsReplay() {
		t.Error("IsReplay should default to false")
	}
}

func TestParseFlagsOverrideEnv(t *testing.T) {
	t.Setenv("BRANDS_FILE", "/env/brands.txt")
	t.Setenv("OUTPUT_FILE", "/env/out.csv")
	t.Setenv("WORKERS", "4")

	cfg := parseArgs(t, "-brands", "/flag/brands.txt", "-output", "/flag/out.csv", "-workers", "7")

	if cfg.BrandsFile != "/flag/brands.txt" {
		t.Errorf("BrandsFile = %q, want flag value", cfg.BrandsFile)
	}
	if cfg.OutputPath != "/flag/out.csv" {
		t.Errorf("OutputPath = %q, want flag value", cfg.OutputPath)
	}
	if cfg.Workers != 7 {
		t.Errorf("Workers = %d, want 7", cfg.Workers)
	}
}

func TestParseEnvFallback(t *testing.T) {
	t.Setenv("BRANDS_FILE", "/env/brands.txt")
	t.Setenv("WORKERS", "4")
	t.Setenv("CERTSTREAM_URL", "ws://example.com:8080")
	t.Setenv("WEBHOOK_URL", "https://hooks.example.com/alert")
	t.Setenv("API_TOKEN", "tok")

	cfg := parseArgs(t)

	if cfg.BrandsFile != "/env/brands.txt" {
		t.Errorf("BrandsFile = %q, want env value", cfg.BrandsFile)
	}
	if cfg.Workers != 4 {
		t.Errorf("Workers = %d, want 4", cfg.Workers)
	}
	if cfg.WebSocketURL != "ws://example.com:8080" {
		t.Errorf("WebSocketURL = %q, want env value", cfg.WebSocketURL)
	}
	if !cfg.HasWebhook() {
		t.Error("HasWebhook should be true when WEBHOOK_URL is set")
	}
	if cfg.APIToken != "tok" {
		t.Errorf("APIToken = %q, want tok", cfg.APIToken)
	}
}

func TestParseBadWorkersEnv(t *testing.T) {
	t.Setenv("WORKERS", "not-a-number")

	cfg := parseArgs(t)
	if cfg.Workers != DefaultWorkers {
		t.Errorf("Workers = %d, want default %d on malformed env", cfg.Workers, DefaultWorkers)
	}
}

func TestParseVerboseAliases(t *testing.T) {
	if cfg := parseArgs(t, "-v"); !cfg.Verbose {
		t.Error("-v should enable verbose")
	}
	if cfg := parseArgs(t, "-verbose"); !cfg.Verbose {
		t.Error("-verbose should enable verbose")
	}
}

func TestParseReplay(t *testing.T) {
	cfg := parseArgs(t, "-replay", "fixtures/stream.jsonl")
	if !cfg.IsReplay() {
		t.Error("IsReplay should be true when -replay is set")
	}
	if cfg.ReplayFile != "fixtures/stream.jsonl" {
		t.Errorf("ReplayFile = %q", cfg.ReplayFile)
	}
}

func TestTimeoutDurations(t *testing.T) {
	cfg := &CLIConfig{ReconnectTimeoutSec: 5, MaxReconnectTimeoutSec: 60}
	if got := cfg.ReconnectTimeout(); got != 5*time.Second {
		t.Errorf("ReconnectTimeout = %v, want 5s", got)
	}
	if got := cfg.MaxReconnectTimeout(); got != time.Minute {
		t.Errorf("MaxReconnectTimeout = %v, want 1m", got)
	}
}

func TestEnvInt(t *testing.T) {
	os.Unsetenv("CERTPHISH_TEST_INT")
	if got := envInt("CERTPHISH_TEST_INT", 3); got != 3 {
		t.Errorf("unset env: got %d, want 3", got)
	}
	t.Setenv("CERTPHISH_TEST_INT", "12")
	if got := envInt("CERTPHISH_TEST_INT", 3); got != 12 {
		t.Errorf("set env: got %d, want 12", got)
	}
	t.Setenv("CERTPHISH_TEST_INT", "-2")
	if got := envInt("CERTPHISH_TEST_INT", 3); got != 3 {
		t.Errorf("negative env: got %d, want fallback 3", got)
	}
}
