// Package detect implements the phishing-candidate analysis: brand
// similarity screening, feature extraction, scoring, deduplication, and the
// worker pool that drives them.
package detect

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultSimilarityThreshold is the minimum normalized edit similarity for a
// candidate to count as brand-confusable.
const DefaultSimilarityThreshold = 0.8

// Rules bundles the brand list and the heuristic sets. Built once at startup
// and read-only afterwards, so it needs no locking.
type Rules struct {
	Brands              []string
	SuspiciousTLDs      map[string]struct{}
	Keywords            []string
	FalsePositives      []string
	SimilarityThreshold float64
}

var defaultSuspiciousTLDs = []string{
	"xyz", "top", "buzz", "shop", "online", "click", "link", "support",
	"help", "fit", "club", "live", "life", "host", "press", "work", "today",
	"site", "website", "space", "rest", "fail", "gdn", "uno", "trade",
}

var defaultKeywords = []string{
	"login", "verify", "secure", "update", "account", "signin",
	"password", "auth", "bank", "pay", "confirm", "reset", "validate",
	"webmail", "support", "unlock", "user", "invoice",
}

// awsRegions enumerates the regional S3 endpoints treated as known hosting
// suffixes rather than typo-squats.
var awsRegions = []string{
	"us-east-1", "us-east-2", "us-west-1", "us-west-2",
	"eu-west-1", "eu-west-2", "eu-west-3", "eu-central-1", "eu-north-1", "eu-south-1",
	"ap-southeast-1", "ap-southeast-2", "ap-northeast-1", "ap-northeast-2",
	"ap-south-1", "ap-east-1", "sa-east-1", "ca-central-1", "af-south-1", "me-south-1",
}

func defaultFalsePositives() []string {
	patterns := []string{
		"s3.amazonaws.com", "cloudfront.net", "github.io", "gitlab.io",
		"firebaseapp.com", "azurewebsites.net", "fastly.net",
		"herokuapp.com", "vercel.app", "netlify.app", "pages.dev",
		"wordpress.com", "blogspot.com", "automattic.com",
	}
	for _, region := range awsRegions {
		patterns = append(patterns, "s3."+region+".amazonaws.com")
		patterns = append(patterns, "s3-"+region+".amazonaws.com")
	}
	return patterns
}

// DefaultRules returns a Rules value with the built-in heuristic sets and an
// empty brand list.
func DefaultRules() *Rules {
	tlds := make(map[string]struct{}, len(defaultSuspiciousTLDs))
	for _, tld := range defaultSuspiciousTLDs {
		tlds[tld] = struct{}{}
	}
	return &Rules{
		SuspiciousTLDs:      tlds,
		Keywords:            defaultKeywords,
		FalsePositives:      defaultFalsePositives(),
		SimilarityThreshold: DefaultSimilarityThreshold,
	}
}

// LoadBrands reads the brand domain list, one per line, skipping blanks.
func LoadBrands(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening brand list: %w", err)
	}
	defer f.Close()

	var brands []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			brands = append(brands, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading brand list: %w", err)
	}
	if len(brands) == 0 {
		return nil, fmt.Errorf("brand list %s is empty", path)
	}
	return brands, nil
}

// rulesFile is the YAML shape of an optional overrides file.
type rulesFile struct {
	SuspiciousTLDs []string `yaml:"suspicious_tlds"`
	Keywords       []string `yaml:"keywords"`
	FalsePositives []string `yaml:"false_positives"`
}

// ApplyRulesFile overrides the heuristic sets with the contents of a YAML
// file. Empty sections keep their defaults.
func (r *Rules) ApplyRulesFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading rules file: %w", err)
	}

	var overrides rulesFile
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return fmt.Errorf("parsing rules file: %w", err)
	}

	if len(overrides.SuspiciousTLDs) > 0 {
		tlds := make(map[string]struct{}, len(overrides.SuspiciousTLDs))
		for _, tld := range overrides.SuspiciousTLDs {
			tlds[strings.ToLower(strings.TrimSpace(tld))] = struct{}{}
		}
		r.SuspiciousTLDs = tlds
	}
	if len(overrides.Keywords) > 0 {
		r.Keywords = overrides.Keywords
	}
	if len(overrides.FalsePositives) > 0 {
		r.FalsePositives = overrides.FalsePositives
	}
	return nil
}

// isFalsePositive reports whether the domain matches a known hosting or CDN
// suffix that routinely trips the similarity screen.
func (r *Rules) isFalsePositive(domain string) bool {
	lowered := strings.ToLower(domain)
	for _, pattern := range r.FalsePositives {
		if strings.Contains(lowered, pattern) {
			return true
		}
	}
	return false
}
