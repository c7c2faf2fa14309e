// Package config provides centralized configuration management
package config

import (
	"flag"
	"os"
	"strconv"
	"time"
)

// CLIConfig holds all configuration options for the CLI application
type CLIConfig struct {
	// Output options
	Verbose    bool
	OutputPath string

	// Connection options
	WebSocketURL           string
	ReconnectTimeoutSec    int
	MaxReconnectTimeoutSec int

	// Detection options
	BrandsFile string
	RulesFile  string
	Workers    int
	ReplayFile string

	// Permutation service options
	PermutationURL         string
	PermutationConcurrency int64

	// Whois options
	WhoisConcurrency int64

	// Webhook options
	WebhookURL string
	APIToken   string
}

// Defaults used when neither flags nor environment override them.
const (
	DefaultBrandsFile = "data/websites.txt"
	DefaultOutputPath = "output/suspected_phishing.csv"
	DefaultWorkers    = 10
)

// ParseFromFlags parses command-line flags and environment variables
func ParseFromFlags() *CLIConfig {
	return parse(flag.CommandLine, os.Args[1:])
}

// parse binds flags on the given FlagSet so tests can drive it directly.
func parse(fs *flag.FlagSet, args []string) *CLIConfig {
	cfg := &CLIConfig{}

	verbose := fs.Bool("v", false, "Enable verbose output")
	veryVerbose := fs.Bool("verbose", false, "Enable verbose output")
	brands := fs.String("brands", "", "Path to the monitored brand list")
	output := fs.String("output", "", "Path to the alert CSV file")
	rules := fs.String("rules", "", "Optional YAML rules override file")
	workers := fs.Int("workers", 0, "Number of screening workers")
	replay := fs.String("replay", "", "Replay certificate updates from a file instead of the live stream")
	reconnectTimeoutSec := fs.Int("reconnect-timeout", 1, "Base reconnection timeout in seconds")
	maxReconnectTimeoutSec := fs.Int("max-reconnect", 60, "Maximum reconnection timeout in seconds")

	fs.Parse(args)

	cfg.Verbose = *verbose || *veryVerbose
	cfg.RulesFile = *rules
	cfg.ReplayFile = *replay
	cfg.ReconnectTimeoutSec = *reconnectTimeoutSec
	cfg.MaxReconnectTimeoutSec = *maxReconnectTimeoutSec

	// Flags override environment, environment overrides defaults
	cfg.BrandsFile = firstNonEmpty(*brands, os.Getenv("BRANDS_FILE"), DefaultBrandsFile)
	cfg.OutputPath = firstNonEmpty(*output, os.Getenv("OUTPUT_FILE"), DefaultOutputPath)
	cfg.Workers = *workers
	if cfg.Workers < 1 {
		cfg.Workers = envInt("WORKERS", DefaultWorkers)
	}

	cfg.WebSocketURL = os.Getenv("CERTSTREAM_URL")
	cfg.PermutationURL = os.Getenv("PERMUTATION_URL")
	cfg.PermutationConcurrency = int64(envInt("PERMUTATION_CONCURRENCY", 0))
	cfg.WhoisConcurrency = int64(envInt("WHOIS_CONCURRENCY", 0))
	cfg.WebhookURL = os.Getenv("WEBHOOK_URL")
	cfg.APIToken = os.Getenv("API_TOKEN")

	return cfg
}

// firstNonEmpty returns the first non-empty string
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// envInt reads an integer environment variable, falling back on parse failure
func envInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}

// ReconnectTimeout returns the reconnection timeout as a Duration
func (c *CLIConfig) ReconnectTimeout() time.Duration {
	return time.Duration(c.ReconnectTimeoutSec) * time.Second
}

// MaxReconnectTimeout returns the maximum reconnection timeout as a Duration
func (c *CLIConfig) MaxReconnectTimeout() time.Duration {
	return time.Duration(c.MaxReconnectTimeoutSec) * time.Second
}

// HasWebhook returns true if webhook is configured
func (c *CLIConfig) HasWebhook() bool {
	return c.WebhookURL != ""
}

// IsReplay returns true when input comes from a recorded file
func (c *CLIConfig) IsReplay() bool {
	return c.ReplayFile != ""
}
