package classify

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"

	"github.com/jonathan/achievement-classifier/internal/taxonomy"
	"github.com/jonathan/achievement-classifier/internal/types"
)

// Scoring constants
const (
	maxPredictions       = 3
	maxReasonKeywords    = 3
	confidencePerKeyword = 0.3
	confidenceBase       = 0.4
	confidenceCap        = 0.95
	fallbackConfidence   = 0.5
	fallbackPoints       = 40
)

// Classifier scores evidence against a taxonomy. It holds no mutable state, so one instance
// can serve concurrent callers.
type Classifier struct {
	tax    *taxonomy.Taxonomy
	logger *slog.Logger
}

// New creates a Classifier over the given taxonomy. A nil taxonomy uses the embedded default.
func New(tax *taxonomy.Taxonomy, logger *slog.Logger) *Classifier {
	if tax == nil {
		tax = taxonomy.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{tax: tax, logger: logger}
}

// categoryScore is the keyword tally for one category.
type categoryScore struct {
	def     types.CategoryDefinition
	score   int
	matched []string
}

// Classify scores title and description against every category and returns up to three
// ranked predictions. It fails only when title or description is blank.
func (c *Classifier) Classify(title, description string) (*types.AchievementAnalysis, error) {
	if strings.TrimSpace(title) == "" {
		return nil, &InvalidInputError{Field: "title", Message: "provide a non-empty title"}
	}
	if strings.TrimSpace(description) == "" {
		return nil, &InvalidInputError{Field: "description", Message: "provide a non-empty description"}
	}

	blob := strings.ToLower(title + " " + description)

	scores, keywords := c.scoreCategories(blob)
	complexity := determineComplexity(description, len(keywords))
	impact := determineImpact(blob)

	ranked := make([]categoryScore, 0, len(scores))
	for _, s := range scores {
		if s.score > 0 {
			ranked = append(ranked, s)
		}
	}
	// Stable so equal scores keep taxonomy order.
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})
	if len(ranked) > maxPredictions {
		ranked = ranked[:maxPredictions]
	}

	predictions := make([]types.CategoryPrediction, 0, len(ranked))
	for _, s := range ranked {
		predictions = append(predictions, c.predict(s, blob, complexity, impact))
	}

	if len(predictions) == 0 {
		c.logger.Info("classify.no_match", "title", title, "impact", impact, "complexity", complexity)
		predictions = append(predictions, fallbackPrediction(complexity, impact))
	}

	return &types.AchievementAnalysis{
		Predictions:         predictions,
		RecommendedCategory: predictions[0],
		Keywords:            keywords,
		Complexity:          complexity,
		Impact:              impact,
	}, nil
}

// scoreCategories counts, per category, how many configured keywords occur in the blob.
// It also returns every matched keyword across categories, deduplicated in first-seen order.
func (c *Classifier) scoreCategories(blob string) ([]categoryScore, []string) {
	defs := c.tax.Categories()
	scores := make([]categoryScore, 0, len(defs))
	keywords := make([]string, 0)
	seen := make(map[string]bool)

	for _, def := range defs {
		s := categoryScore{def: def}
		for _, kw := range def.Keywords {
			if !strings.Contains(blob, kw) {
				continue
			}
			s.score++
			s.matched = append(s.matched, kw)
			if !seen[kw] {
				seen[kw] = true
				keywords = append(keywords, kw)
			}
		}
		scores = append(scores, s)
	}

	return scores, keywords
}

func (c *Classifier) predict(s categoryScore, blob string, complexity types.Complexity, impact types.Impact) types.CategoryPrediction {
	return types.CategoryPrediction{
		Category:        s.def.Name,
		Subcategory:     pickSubcategory(s.def, blob),
		Confidence:      confidence(s.score),
		SuggestedPoints: c.points(s.def, complexity, impact),
		Reasoning:       reasoning(s.def, s.matched, complexity, impact),
		MatchedKeywords: s.matched,
	}
}

// confidence is a saturating function of keyword hits: 0.4 at one hit, capped at 0.95.
func confidence(score int) float64 {
	return math.Min(float64(score)*confidencePerKeyword+confidenceBase, confidenceCap)
}

// points scales the category's base points by the impact multiplier, rounding half away from zero.
func (c *Classifier) points(def types.CategoryDefinition, complexity types.Complexity, impact types.Impact) int {
	base := float64(def.BasePoints[complexity])
	return int(math.Round(base * c.tax.ImpactMultiplier(impact)))
}

// pickSubcategory returns the first declared subcategory mentioned in the text, or the
// first declared subcategory when none is mentioned.
func pickSubcategory(def types.CategoryDefinition, blob string) string {
	for _, sub := range def.Subcategories {
		if strings.Contains(blob, sub) {
			return sub
		}
	}
	return def.Subcategories[0]
}

func reasoning(def types.CategoryDefinition, matched []string, complexity types.Complexity, impact types.Impact) string {
	shown := matched
	if len(shown) > maxReasonKeywords {
		shown = shown[:maxReasonKeywords]
	}
	clauses := []string{
		strings.TrimSuffix(def.Description, "."),
		"Matched keywords: " + strings.Join(shown, ", "),
		fmt.Sprintf("Complexity: %s", complexity),
		fmt.Sprintf("Impact: %s", impact),
	}
	return strings.Join(clauses, ". ")
}

func fallbackPrediction(complexity types.Complexity, impact types.Impact) types.CategoryPrediction {
	return types.CategoryPrediction{
		Category:        types.CategoryExtracurricular,
		Confidence:      fallbackConfidence,
		SuggestedPoints: fallbackPoints,
		Reasoning: strings.Join([]string{
			"No category keywords were found, so the achievement is treated as a general extracurricular activity",
			fmt.Sprintf("Complexity: %s", complexity),
			fmt.Sprintf("Impact: %s", impact),
		}, ". "),
	}
}
