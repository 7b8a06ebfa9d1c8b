package scheme

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	domscheme "github.com/kailas-cloud/schemedex/internal/domain/scheme"
)

// cacheKeyPrefix namespaces memoized scheme search results.
const cacheKeyPrefix = "scheme_search:"

// categoryOccupations maps scheme categories to occupation keywords that
// signal affinity for the category.
var categoryOccupations = map[domscheme.Category][]string{
	domscheme.Agriculture: {"farmer", "agricultural", "cultivator", "kisan"},
	domscheme.Education:   {"student", "scholar", "teacher"},
	domscheme.Health:      {"patient", "pregnant", "disabled"},
	domscheme.Employment:  {"unemployed", "worker", "labourer", "labor"},
}

// boostScore applies additive profile-based relevance boosts: state
// match, occupation-category affinity, BPL alignment and a small
// popularity bump. The result is clamped to [0, 1].
func boostScore(base float64, sc *domscheme.Scheme, profile *Profile) float64 {
	boost := 0.0

	// Central schemes are universally relevant; state schemes get a
	// larger boost on an exact match.
	switch {
	case sc.State == "":
		boost += 0.02
	case profile.State != "" && strings.EqualFold(sc.State, profile.State):
		boost += 0.05
	}

	occupation := strings.ToLower(profile.Occupation)
	if occupation != "" {
		for _, kw := range categoryOccupations[sc.Category] {
			if strings.Contains(occupation, kw) {
				boost += 0.04
				break
			}
		}
	}

	if profile.IsBPL != nil && *profile.IsBPL &&
		sc.Eligibility.IsBPL != nil && *sc.Eligibility.IsBPL {
		boost += 0.03
	}

	boost += sc.PopularityScore * 0.02

	score := base + boost
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// cacheKey builds a deterministic key from the search parameters.
func cacheKey(query, language string, profile *Profile) string {
	raw := query + "|" + language
	if profile != nil {
		raw += "|state=" + profile.State + "|occupation=" + profile.Occupation
		if profile.IsBPL != nil {
			if *profile.IsBPL {
				raw += "|is_bpl=true"
			} else {
				raw += "|is_bpl=false"
			}
		}
	}
	digest := sha256.Sum256([]byte(raw))
	return cacheKeyPrefix + hex.EncodeToString(digest[:8])
}
