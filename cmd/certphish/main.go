// Package main runs the phishing surveillance pipeline: it watches the
// certificate transparency stream, screens observed domains against a brand
// list, and appends scored alerts to a CSV file.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/projectdiscovery/gologger"
	"github.com/projectdiscovery/gologger/levels"

	"github.com/certphish/certphish/certstream"
	"github.com/certphish/certphish/internal/config"
	"github.com/certphish/certphish/internal/detect"
	"github.com/certphish/certphish/internal/output"
	"github.com/certphish/certphish/internal/permute"
	"github.com/certphish/certphish/internal/webhook"
	"github.com/certphish/certphish/internal/whois"
)

const alertQueueSize = 1024

func main() {
	cfg := config.ParseFromFlags()

	if cfg.Verbose {
		gologger.DefaultLogger.SetMaxLevel(levels.LevelDebug)
	}

	rules, err := buildRules(cfg)
	if err != nil {
		gologger.Fatal().Msgf("%v", err)
	}
	gologger.Info().Msgf("Monitoring %d brands", len(rules.Brands))

	writer, err := output.NewWriter(cfg.OutputPath, alertQueueSize)
	if err != nil {
		gologger.Fatal().Msgf("failed to prepare output file: %v", err)
	}
	go writer.Run()

	permutations, err := permute.New(permute.Options{
		BaseURL:     cfg.PermutationURL,
		Concurrency: cfg.PermutationConcurrency,
	})
	if err != nil {
		gologger.Fatal().Msgf("failed to build permutation client: %v", err)
	}
	defer permutations.Close()

	registration, err := whois.New(whois.Options{Concurrency: cfg.WhoisConcurrency})
	if err != nil {
		gologger.Fatal().Msgf("failed to build whois client: %v", err)
	}

	sink := buildSink(cfg, writer)

	detector, err := detect.New(detect.Options{
		Rules:        rules,
		Permutations: permutations,
		Registration: registration,
		Sink:         sink,
		Workers:      cfg.Workers,
	})
	if err != nil {
		gologger.Fatal().Msgf("failed to build detector: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	items, shutdown := buildSource(ctx, cfg)

	if err := detector.Run(context.Background(), items); err != nil {
		gologger.Error().Msgf("detector stopped: %v", err)
	}

	shutdown()
	writer.Close()
	gologger.Info().Msgf("Shutdown complete, alerts written to %s", cfg.OutputPath)
}

// buildRules loads the brand list and applies the optional rules override.
func buildRules(cfg *config.CLIConfig) (*detect.Rules, error) {
	rules := detect.DefaultRules()

	brands, err := detect.LoadBrands(cfg.BrandsFile)
	if err != nil {
		return nil, err
	}
	rules.Brands = brands

	if cfg.RulesFile != "" {
		if err := rules.ApplyRulesFile(cfg.RulesFile); err != nil {
			return nil, err
		}
	}
	return rules, nil
}

// buildSink returns the alert sink: the CSV writer, fanned out to the webhook
// endpoint when one is configured.
func buildSink(cfg *config.CLIConfig, writer *output.Writer) detect.AlertSink {
	if !cfg.HasWebhook() {
		return writer
	}
	gologger.Info().Msgf("Webhook notifications enabled: %s", cfg.WebhookURL)
	return &fanoutSink{
		writer:  writer,
		webhook: webhook.NewClient(cfg.WebhookURL, cfg.APIToken),
	}
}

// buildSource returns the work item channel, either replayed from a recorded
// file or from the live websocket stream, plus a shutdown func that stops the
// source once the detector drains.
func buildSource(ctx context.Context, cfg *config.CLIConfig) (<-chan certstream.WorkItem, func()) {
	if cfg.IsReplay() {
		recorded, err := certstream.ReadWorkItems(cfg.ReplayFile)
		if err != nil {
			gologger.Fatal().Msgf("failed to read replay file: %v", err)
		}
		gologger.Info().Msgf("Replaying %d work items from %s", len(recorded), cfg.ReplayFile)

		items := make(chan certstream.WorkItem)
		go func() {
			defer close(items)
			for _, item := range recorded {
				select {
				case items <- item:
				case <-ctx.Done():
					return
				}
			}
		}()
		return items, func() {}
	}

	options := []certstream.Option{
		certstream.WithDebug(cfg.Verbose),
		certstream.WithReconnectTimeout(cfg.ReconnectTimeout()),
		certstream.WithMaxReconnectTimeout(cfg.MaxReconnectTimeout()),
		certstream.WithContext(ctx),
	}
	if cfg.WebSocketURL != "" {
		options = append(options, certstream.WithWebSocketURL(cfg.WebSocketURL))
	}

	monitor := certstream.New(options...)
	monitor.SetLogger(&streamLogger{debug: cfg.Verbose})
	monitor.Start()

	// A cancelled context stops the monitor, which closes the item channel
	// and lets the worker pool drain and exit.
	go func() {
		<-ctx.Done()
		monitor.Stop()
	}()

	return monitor.Items(), monitor.Stop
}

// fanoutSink writes every alert to the CSV sink and fires a webhook
// notification in the background. Webhook failures are logged, never fatal.
type fanoutSink struct {
	writer  *output.Writer
	webhook *webhook.Client
}

func (s *fanoutSink) Enqueue(alert detect.Alert) {
	s.writer.Enqueue(alert)
	go func() {
		if err := s.webhook.Send(context.Background(), alert); err != nil {
			gologger.Error().Msgf("webhook delivery failed for %s: %v", alert.Domain, err)
		}
	}()
}

// streamLogger routes monitor logs through the application logger.
type streamLogger struct {
	debug bool
}

func (l *streamLogger) Debug(format string, v ...interface{}) {
	gologger.Debug().Msgf(format, v...)
}

func (l *streamLogger) Info(format string, v ...interface{}) {
	gologger.Info().Msgf(format, v...)
}

func (l *streamLogger) Error(format string, v ...interface{}) {
	gologger.Error().Msgf(format, v...)
}
