package detect

import (
	"context"
	"fmt"
	"net"
	"strings"

	"github.com/projectdiscovery/gologger"
	"golang.org/x/sync/errgroup"

	"github.com/certphish/certphish/certstream"
)

const (
	// DefaultWorkers is the size of the processing pool.
	DefaultWorkers = 10
	// DefaultDedupWindow is the number of recent (candidate, brand) pairs
	// suppressed from re-alerting.
	DefaultDedupWindow = 10000
	// maxCandidates caps the candidate set built from one work item.
	maxCandidates = 30
	// maxProcessed caps the distinct candidates screened per work item.
	maxProcessed = 20

	maxDomainLength = 120
	maxLabelLength  = 63
	maxLabelCount   = 10
)

// PermutationSource yields typo permutations for a domain.
type PermutationSource interface {
	Permutations(ctx context.Context, domain string) ([]string, error)
}

// RegistrationSource resolves a domain's registration age in days, -1 when
// unknown.
type RegistrationSource interface {
	RegistrationAge(ctx context.Context, domain string) int
}

// AlertSink receives finished alert records.
type AlertSink interface {
	Enqueue(alert Alert)
}

// Alert is one emitted phishing-candidate record.
type Alert struct {
	Timestamp        string
	Domain           string
	Brand            string
	Similarity       float64
	Issuer           string
	TLD              string
	TLDSuspicious    bool
	HasKeyword       bool
	Entropy          float64
	RegistrationDays int
	CNMismatch       bool
	OCSPMissing      bool
	ShortLived       bool
	BrandInSubdomain bool
	Score            float64
}

// Detector runs the fixed worker pool over incoming work items.
type Detector struct {
	rules   *Rules
	perms   PermutationSource
	ages    RegistrationSource
	sink    AlertSink
	seen    *dedupWindow
	workers int
}

// Options configures a Detector.
type Options struct {
	Rules        *Rules
	Permutations PermutationSource
	Registration RegistrationSource
	Sink         AlertSink
	Workers      int
	DedupWindow  int
}

// New builds a Detector. Rules, Permutations, Registration, and Sink are
// required.
func New(opts Options) (*Detector, error) {
	if opts.Rules == nil || opts.Permutations == nil || opts.Registration == nil || opts.Sink == nil {
		return nil, fmt.Errorf("detect: rules, permutation source, registration source, and sink are required")
	}
	if opts.Workers < 1 {
		opts.Workers = DefaultWorkers
	}
	if opts.DedupWindow < 1 {
		opts.DedupWindow = DefaultDedupWindow
	}
	return &Detector{
		rules:   opts.Rules,
		perms:   opts.Permutations,
		ages:    opts.Registration,
		sink:    opts.Sink,
		seen:    newDedupWindow(opts.DedupWindow),
		workers: opts.Workers,
	}, nil
}

// Run consumes work items until the channel closes. Workers finish their
// current item before exiting; a failure on one item never stops the pool.
func (d *Detector) Run(ctx context.Context, items <-chan certstream.WorkItem) error {
	group, ctx := errgroup.WithContext(ctx)
	for i := 0; i < d.workers; i++ {
		group.Go(func() error {
			for item := range items {
				d.Process(ctx, item)
			}
			return nil
		})
	}
	return group.Wait()
}

// Process runs the full per-item pipeline: validation, permutation fetch,
// screening, feature extraction, scoring, dedup, and emission.
func (d *Detector) Process(ctx context.Context, item certstream.WorkItem) {
	defer func() {
		if r := recover(); r != nil {
			gologger.Error().Msgf("processing %s panicked: %v", item.Domain, r)
		}
	}()

	candidates, ok := d.candidates(ctx, item.Domain)
	if !ok {
		return
	}

	leaf := certstream.NormalizeLeaf(item.LeafCert)

	processed := make(map[string]struct{}, maxProcessed)
	for _, candidate := range candidates {
		if len(processed) >= maxProcessed {
			break
		}
		if _, dup := processed[candidate]; dup {
			continue
		}
		processed[candidate] = struct{}{}

		suspicious, brand, similarity := d.rules.IsSimilar(candidate)
		if !suspicious {
			continue
		}

		// WHOIS only runs for candidates that passed the lexical screen,
		// to bound load on the registries.
		registrationDays := d.ages.RegistrationAge(ctx, candidate)

		features := d.rules.Extract(candidate, leaf, similarity, registrationDays)
		score := Score(features, item.Issuer)

		if !d.seen.Insert(candidate, brand) {
			continue
		}

		gologger.Info().Msgf("[%s] ALERT: %s ~ %s (score=%.2f)", item.SeenAt, candidate, brand, score)
		d.sink.Enqueue(Alert{
			Timestamp:        item.SeenAt,
			Domain:           candidate,
			Brand:            brand,
			Similarity:       similarity,
			Issuer:           item.Issuer,
			TLD:              features.TLD,
			TLDSuspicious:    features.TLDSuspicious,
			HasKeyword:       features.HasKeyword,
			Entropy:          features.Entropy,
			RegistrationDays: registrationDays,
			CNMismatch:       features.CNMismatch,
			OCSPMissing:      features.OCSPMissing,
			ShortLived:       features.ShortLived,
			BrandInSubdomain: features.BrandInSubdomain,
			Score:            score,
		})
	}
}

// candidates assembles the ordered candidate set for one work item: the
// domain itself plus its permutations, deduplicated and capped. IP literals
// skip the permutation service entirely.
func (d *Detector) candidates(ctx context.Context, domain string) ([]string, bool) {
	if net.ParseIP(domain) != nil {
		return []string{domain}, true
	}

	if err := validateDomain(domain); err != nil {
		gologger.Info().Msgf("skipping %s: %v", domain, err)
		return nil, false
	}

	permutations, err := d.perms.Permutations(ctx, domain)
	if err != nil {
		gologger.Info().Msgf("skipping %s: permutation fetch failed: %v", domain, err)
		return nil, false
	}

	candidates := make([]string, 0, maxCandidates)
	candidates = append(candidates, domain)
	seen := map[string]struct{}{domain: {}}
	for _, permutation := range permutations {
		if len(candidates) >= maxCandidates {
			break
		}
		if permutation == "" {
			continue
		}
		if _, dup := seen[permutation]; dup {
			continue
		}
		seen[permutation] = struct{}{}
		candidates = append(candidates, permutation)
	}
	return candidates, true
}

// validateDomain enforces the constraints the permutation service tolerates:
// bounded length, bounded label count, and RFC hostname label characters.
func validateDomain(domain string) error {
	if len(domain) > maxDomainLength {
		return fmt.Errorf("domain longer than %d characters", maxDomainLength)
	}
	labels := strings.Split(domain, ".")
	if len(labels) > maxLabelCount {
		return fmt.Errorf("more than %d labels", maxLabelCount)
	}
	for _, label := range labels {
		if label == "" {
			return fmt.Errorf("empty label")
		}
		if len(label) > maxLabelLength {
			return fmt.Errorf("label longer than %d characters", maxLabelLength)
		}
		for _, c := range label {
			if !isLabelChar(c) {
				return fmt.Errorf("label contains invalid character %q", c)
			}
		}
	}
	return nil
}

func isLabelChar(c rune) bool {
	switch {
	case c >= 'a' && c <= 'z':
		return true
	case c >= 'A' && c <= 'Z':
		return true
	case c >= '0' && c <= '9':
		return true
	case c == '-':
		return true
	}
	return false
}
