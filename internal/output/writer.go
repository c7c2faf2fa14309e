// Package output serializes alert records to the append-only CSV sink,
// insulating workers from file I/O latency.
package output

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/projectdiscovery/gologger"

	"github.com/certphish/certphish/internal/detect"
)

// Header is the canonical first row of the alert file. The downstream
// analyzer depends on this exact column order.
var Header = []string{
	"timestamp", "domain", "brand_match", "similarity_score", "issuer",
	"tld", "tld_suspicious", "has_keyword", "entropy", "registration_days",
	"cn_mismatch", "ocsp_missing", "short_lived", "brand_in_subdomain", "score",
}

// DefaultPath is the alert file location relative to the working directory.
const DefaultPath = "output/suspected_phishing.csv"

// Writer is the single consumer of the alert queue.
type Writer struct {
	path    string
	records chan detect.Alert
	done    chan struct{}
}

// NewWriter prepares the output file (directory tree, header row for empty
// or missing files) and returns a writer ready to Run.
func NewWriter(path string, queueSize int) (*Writer, error) {
	if path == "" {
		path = DefaultPath
	}
	if queueSize < 1 {
		queueSize = 1024
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	if err := ensureHeader(path); err != nil {
		return nil, err
	}

	return &Writer{
		path:    path,
		records: make(chan detect.Alert, queueSize),
		done:    make(chan struct{}),
	}, nil
}

// ensureHeader writes the canonical header row to an empty or nonexistent
// file, exactly once.
func ensureHeader(path string) error {
	info, err := os.Stat(path)
	if err == nil && info.Size() > 0 {
		return nil
	}
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("inspecting output file: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(Header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	w.Flush()
	return w.Error()
}

// Enqueue hands an alert to the writer, blocking when the queue is full.
func (w *Writer) Enqueue(alert detect.Alert) {
	w.records <- alert
}

// Run appends records until Close. Write failures lose that record and are
// logged; the loop continues.
func (w *Writer) Run() {
	defer close(w.done)
	for alert := range w.records {
		if err := w.append(alert); err != nil {
			gologger.Error().Msgf("failed to write alert for %s: %v", alert.Domain, err)
		}
	}
}

// Close stops accepting records and waits until the queue has drained.
func (w *Writer) Close() {
	close(w.records)
	<-w.done
}

func (w *Writer) append(alert detect.Alert) error {
	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write(formatRow(alert)); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

// formatRow renders one alert in the column order of Header. Booleans use
// the True/False tokens the downstream analyzer expects.
func formatRow(alert detect.Alert) []string {
	return []string{
		alert.Timestamp,
		alert.Domain,
		alert.Brand,
		strconv.FormatFloat(alert.Similarity, 'f', 2, 64),
		alert.Issuer,
		alert.TLD,
		formatBool(alert.TLDSuspicious),
		formatBool(alert.HasKeyword),
		strconv.FormatFloat(alert.Entropy, 'f', 2, 64),
		strconv.Itoa(alert.RegistrationDays),
		formatBool(alert.CNMismatch),
		formatBool(alert.OCSPMissing),
		formatBool(alert.ShortLived),
		formatBool(alert.BrandInSubdomain),
		strconv.FormatFloat(alert.Score, 'f', 2, 64),
	}
}

func formatBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}
