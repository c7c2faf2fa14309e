package detect

// Issuers whose certificates are disproportionately common in phishing
// campaigns. Membership adds one point.
var scoredIssuers = map[string]struct{}{
	"ZeroSSL":        {},
	"Let's Encrypt":  {},
	"Actalis S.p.A.": {},
}

// Score aggregates the additive rubric over the feature vector and clamps
// the result into [0, 10], rounded to two decimals (half away from zero).
// Each banded signal contributes only its highest matching band. An unknown
// registration age (-1) contributes nothing.
func Score(f Features, issuer string) float64 {
	score := 0.0

	switch {
	case f.Entropy >= 3.7:
		score += 3
	case f.Entropy >= 3.4:
		score += 2
	case f.Entropy >= 3.1:
		score += 1
	}

	if f.HasKeyword {
		score += 2
	}
	if f.TLDSuspicious {
		score += 1
	}
	if _, ok := scoredIssuers[issuer]; ok {
		score += 1
	}
	if f.CNMismatch {
		score += 1.5
	}
	if f.OCSPMissing {
		score += 1.5
	}
	if f.ShortLived {
		score += 1.5
	}
	if f.BrandInSubdomain {
		score += 1.0
	}

	if f.RegistrationDays >= 0 {
		switch {
		case f.RegistrationDays < 14:
			score += 3
		case f.RegistrationDays < 60:
			score += 2
		case f.RegistrationDays < 180:
			score += 1
		}
	}

	switch {
	case f.Similarity >= 0.90:
		score += 1.0
	case f.Similarity >= 0.85:
		score += 0.75
	case f.Similarity >= 0.80:
		score += 0.5
	}

	if score > 10 {
		score = 10
	}
	if score < 0 {
		score = 0
	}
	return round2(score)
}
