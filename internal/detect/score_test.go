package detect

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScoreTypoSquatScenario(t *testing.T) {
	// gooogle.com against google.com: fresh registration, suspicious issuer,
	// entropy in the lowest band, everything else clean.
	f := Features{
		Entropy:          3.1,
		Similarity:       0.95,
		RegistrationDays: 3,
	}
	assert.Equal(t, 6.0, Score(f, "Let's Encrypt"))
}

func TestScoreEntropyBands(t *testing.T) {
	tests := []struct {
		entropy float64
		want    float64
	}{
		{3.0, 0},
		{3.1, 1},
		{3.4, 2},
		{3.7, 3},
		{4.2, 3},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Score(Features{Entropy: tt.entropy, RegistrationDays: -1}, "Unknown"), "entropy %v", tt.entropy)
	}
}

func TestScoreRegistrationBands(t *testing.T) {
	tests := []struct {
		days int
		want float64
	}{
		{-1, 0},
		{0, 3},
		{13, 3},
		{14, 2},
		{59, 2},
		{60, 1},
		{179, 1},
		{180, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Score(Features{RegistrationDays: tt.days}, "Unknown"), "days %d", tt.days)
	}
}

func TestScoreSimilarityBands(t *testing.T) {
	tests := []struct {
		similarity float64
		want       float64
	}{
		{0.79, 0},
		{0.80, 0.5},
		{0.85, 0.75},
		{0.90, 1.0},
		{1.0, 1.0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Score(Features{Similarity: tt.similarity, RegistrationDays: -1}, "Unknown"), "similarity %v", tt.similarity)
	}
}

func TestScoreIssuer(t *testing.T) {
	base := Features{RegistrationDays: -1}
	assert.Equal(t, 1.0, Score(base, "ZeroSSL"))
	assert.Equal(t, 1.0, Score(base, "Let's Encrypt"))
	assert.Equal(t, 1.0, Score(base, "Actalis S.p.A."))
	assert.Equal(t, 0.0, Score(base, "DigiCert Inc"))
}

func TestScoreBooleanMonotonicity(t *testing.T) {
	full := Features{
		TLDSuspicious:    true,
		HasKeyword:       true,
		CNMismatch:       true,
		OCSPMissing:      true,
		ShortLived:       true,
		BrandInSubdomain: true,
		RegistrationDays: -1,
	}
	reference := Score(full, "Unknown")
	assert.Equal(t, 8.5, reference)

	flips := []func(*Features){
		func(f *Features) { f.TLDSuspicious = false },
		func(f *Features) { f.HasKeyword = false },
		func(f *Features) { f.CNMismatch = false },
		func(f *Features) { f.OCSPMissing = false },
		func(f *Features) { f.ShortLived = false },
		func(f *Features) { f.BrandInSubdomain = false },
	}
	for i, flip := range flips {
		f := full
		flip(&f)
		assert.Less(t, Score(f, "Unknown"), reference, "flip %d should lower the score", i)
	}
}

func TestScoreClampedAtTen(t *testing.T) {
	f := Features{
		Entropy:          4.0,
		HasKeyword:       true,
		TLDSuspicious:    true,
		CNMismatch:       true,
		OCSPMissing:      true,
		ShortLived:       true,
		BrandInSubdomain: true,
		Similarity:       0.95,
		RegistrationDays: 1,
	}
	assert.Equal(t, 10.0, Score(f, "Let's Encrypt"))
}
