package detect

import (
	"math"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"

	"github.com/certphish/certphish/certstream"
)

// shortLivedWindow is the remaining validity at or below which a certificate
// counts as short-lived.
const shortLivedWindow = 30 * 24 * time.Hour

// Features is the extracted feature vector for one candidate.
type Features struct {
	TLD              string
	TLDSuspicious    bool
	HasKeyword       bool
	Entropy          float64
	CNMismatch       bool
	OCSPMissing      bool
	ShortLived       bool
	BrandInSubdomain bool
	Similarity       float64
	RegistrationDays int
}

// Extract computes the full feature vector for a candidate using the
// normalized leaf certificate of the originating work item.
func (r *Rules) Extract(domain string, leaf certstream.LeafInfo, similarity float64, registrationDays int) Features {
	return Features{
		TLD:              tldOf(domain),
		TLDSuspicious:    r.isSuspiciousTLD(domain),
		HasKeyword:       r.hasKeyword(domain),
		Entropy:          round2(Entropy(domain)),
		CNMismatch:       CNMismatch(leaf),
		OCSPMissing:      !leaf.HasOCSP && !leaf.HasCRL,
		ShortLived:       ShortLived(leaf, time.Now()),
		BrandInSubdomain: r.BrandInSubdomain(domain),
		Similarity:       similarity,
		RegistrationDays: registrationDays,
	}
}

// Entropy is the Shannon entropy of the string's character distribution in
// bits per character.
func Entropy(s string) float64 {
	runes := []rune(s)
	if len(runes) == 0 {
		return 0
	}
	counts := make(map[rune]int, len(runes))
	for _, r := range runes {
		counts[r]++
	}
	total := float64(len(runes))
	entropy := 0.0
	for _, count := range counts {
		p := float64(count) / total
		entropy -= p * math.Log2(p)
	}
	return entropy
}

func tldOf(domain string) string {
	labels := strings.Split(domain, ".")
	return labels[len(labels)-1]
}

func (r *Rules) isSuspiciousTLD(domain string) bool {
	_, ok := r.SuspiciousTLDs[strings.ToLower(tldOf(domain))]
	return ok
}

func (r *Rules) hasKeyword(domain string) bool {
	lowered := strings.ToLower(domain)
	for _, keyword := range r.Keywords {
		if strings.Contains(lowered, keyword) {
			return true
		}
	}
	return false
}

// BrandInSubdomain reports whether any brand name appears in the part of the
// domain before its registrable suffix. The eTLD+1 split comes from the
// public suffix list, falling back to the last two labels when the suffix is
// unlisted.
func (r *Rules) BrandInSubdomain(domain string) bool {
	lowered := strings.ToLower(domain)

	prefix := ""
	if etld1, err := publicsuffix.EffectiveTLDPlusOne(lowered); err == nil && strings.HasSuffix(lowered, "."+etld1) {
		prefix = strings.TrimSuffix(lowered, "."+etld1)
	} else {
		labels := strings.Split(lowered, ".")
		if len(labels) < 3 {
			return false
		}
		prefix = strings.Join(labels[:len(labels)-2], ".")
	}
	if prefix == "" {
		return false
	}

	for _, brand := range r.Brands {
		token := strings.ToLower(brand)
		if i := strings.IndexByte(token, '.'); i > 0 {
			token = token[:i]
		}
		if token != "" && strings.Contains(prefix, token) {
			return true
		}
	}
	return false
}

// CNMismatch is true when the subject CN is non-empty and no SAN entry
// covers it under wildcard-aware normalization.
func CNMismatch(leaf certstream.LeafInfo) bool {
	cn := strings.TrimPrefix(strings.ToLower(leaf.CN), "*.")
	if cn == "" {
		return false
	}
	for _, san := range leaf.SANs {
		entry := strings.ToLower(san)
		if strings.HasPrefix(entry, "*.") {
			base := entry[2:]
			if cn == base || strings.HasSuffix(cn, base) {
				return false
			}
			continue
		}
		if entry == cn {
			return false
		}
	}
	return true
}

// ShortLived is true when the leaf's remaining validity at the given instant
// is at most 30 days. A missing or malformed not_after never flags.
func ShortLived(leaf certstream.LeafInfo, now time.Time) bool {
	if leaf.NotAfter.IsZero() {
		return false
	}
	return leaf.NotAfter.Sub(now) <= shortLivedWindow
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
