package detect

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// IsSimilar screens a candidate against the brand list in order and returns
// the first brand whose normalized edit similarity crosses the threshold.
// Identical strings never match: an exact brand domain is the brand itself,
// not a squat. A candidate matching a known false-positive pattern is
// rejected outright.
func (r *Rules) IsSimilar(domain string) (bool, string, float64) {
	lowered := strings.ToLower(domain)
	for _, brand := range r.Brands {
		loweredBrand := strings.ToLower(brand)
		similarity := Ratio(lowered, loweredBrand)
		if similarity >= r.SimilarityThreshold && lowered != loweredBrand {
			if r.isFalsePositive(lowered) {
				return false, "", 0
			}
			return true, brand, similarity
		}
	}
	return false, "", 0
}

// Ratio is the normalized edit similarity 1 - d/max(|a|,|b|) in [0,1].
// Identical strings yield 1.0, entirely distinct strings approach 0.
func Ratio(a, b string) float64 {
	if a == b {
		return 1.0
	}
	longest := len([]rune(a))
	if lb := len([]rune(b)); lb > longest {
		longest = lb
	}
	if longest == 0 {
		return 1.0
	}
	distance := levenshtein.ComputeDistance(a, b)
	return 1.0 - float64(distance)/float64(longest)
}
