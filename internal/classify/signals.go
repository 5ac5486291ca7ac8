package classify

import (
	"strings"
	"unicode/utf8"

	"github.com/jonathan/achievement-classifier/internal/types"
)

// Complexity thresholds
const (
	highDescriptionLength   = 200
	mediumDescriptionLength = 100
	highKeywordCount        = 5
	mediumKeywordCount      = 3
)

// impactTier pairs an impact level with the terms that signal it.
type impactTier struct {
	impact types.Impact
	terms  []string
}

// impactTiers are checked widest first; the first tier with a hit wins.
var impactTiers = []impactTier{
	{impact: types.ImpactInternational, terms: []string{"international", "global", "world"}},
	{impact: types.ImpactNational, terms: []string{"national", "india", "country"}},
	{impact: types.ImpactRegional, terms: []string{"state", "regional", "zone"}},
}

// determineComplexity derives the effort signal from description length and the number of
// distinct keywords matched across all categories.
func determineComplexity(description string, matchedKeywords int) types.Complexity {
	length := utf8.RuneCountInString(description)
	switch {
	case length > highDescriptionLength || matchedKeywords > highKeywordCount:
		return types.ComplexityHigh
	case length > mediumDescriptionLength || matchedKeywords > mediumKeywordCount:
		return types.ComplexityMedium
	default:
		return types.ComplexityLow
	}
}

// determineImpact finds the widest scope mentioned in the lower-cased text.
func determineImpact(blob string) types.Impact {
	for _, tier := range impactTiers {
		for _, term := range tier.terms {
			if strings.Contains(blob, term) {
				return tier.impact
			}
		}
	}
	return types.ImpactLocal
}
