package classify

import (
	"strings"
	"sync"
	"testing"

	"github.com/jonathan/achievement-classifier/internal/taxonomy"
	"github.com/jonathan/achievement-classifier/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClassifier() *Classifier {
	return New(taxonomy.Default(), nil)
}

func TestClassify_InternationalHackathon(t *testing.T) {
	c := newTestClassifier()

	analysis, err := c.Classify(
		"First Prize in International Coding Hackathon",
		"Won gold medal at a global coding hackathon with 500 participants",
	)
	require.NoError(t, err)

	assert.Equal(t, types.ImpactInternational, analysis.Impact)
	assert.Equal(t, types.CategoryCompetition, analysis.RecommendedCategory.Category)
	assert.Equal(t, analysis.Predictions[0], analysis.RecommendedCategory)

	// "intern" is a substring of "international", so six distinct keywords match.
	assert.Equal(t, []string{"hackathon", "prize", "won", "medal", "gold", "intern"}, analysis.Keywords)
	assert.Equal(t, types.ComplexityHigh, analysis.Complexity)

	def, ok := taxonomy.Default().Lookup(types.CategoryCompetition)
	require.True(t, ok)
	want := int(float64(def.BasePoints[analysis.Complexity])*1.5 + 0.5)
	assert.Equal(t, want, analysis.RecommendedCategory.SuggestedPoints)
	assert.Equal(t, 135, analysis.RecommendedCategory.SuggestedPoints)

	assert.Equal(t, "hackathon", analysis.RecommendedCategory.Subcategory)
	assert.InDelta(t, 0.95, analysis.RecommendedCategory.Confidence, 1e-9)
	assert.Equal(t,
		"Placement or participation in a competitive event. Matched keywords: hackathon, prize, won. Complexity: high. Impact: international",
		analysis.RecommendedCategory.Reasoning,
	)

	require.Len(t, analysis.Predictions, 2)
	assert.Equal(t, types.CategoryInternship, analysis.Predictions[1].Category)
}

func TestClassify_InvalidInput(t *testing.T) {
	c := newTestClassifier()

	tests := []struct {
		name        string
		title       string
		description string
		field       string
	}{
		{name: "empty description", title: "Helped organize", description: "", field: "description"},
		{name: "whitespace description", title: "Helped organize", description: "  \n\t", field: "description"},
		{name: "empty title", title: "", description: "Organized a fest", field: "title"},
		{name: "whitespace title", title: "   ", description: "Organized a fest", field: "title"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			analysis, err := c.Classify(tt.title, tt.description)
			require.Error(t, err)
			assert.Nil(t, analysis)

			var invalid *InvalidInputError
			require.ErrorAs(t, err, &invalid)
			assert.Equal(t, tt.field, invalid.Field)
			assert.Contains(t, err.Error(), "non-empty")
		})
	}
}

func TestClassify_NoMatchFallback(t *testing.T) {
	c := newTestClassifier()

	analysis, err := c.Classify("Attended", "Went there on a sunny day")
	require.NoError(t, err)

	require.Len(t, analysis.Predictions, 1)
	p := analysis.Predictions[0]
	assert.Equal(t, types.CategoryExtracurricular, p.Category)
	assert.InDelta(t, 0.5, p.Confidence, 1e-9)
	assert.Equal(t, 40, p.SuggestedPoints)
	assert.NotEmpty(t, p.Reasoning)
	assert.Empty(t, analysis.Keywords)
	assert.Equal(t, types.ComplexityLow, analysis.Complexity)
	assert.Equal(t, types.ImpactLocal, analysis.Impact)
	assert.Equal(t, p, analysis.RecommendedCategory)
}

func TestClassify_TieKeepsTaxonomyOrder(t *testing.T) {
	c := newTestClassifier()

	// project is mentioned first in the text, but academic is declared first.
	analysis, err := c.Classify("Project", "Scholarship received")
	require.NoError(t, err)

	require.Len(t, analysis.Predictions, 2)
	assert.Equal(t, types.CategoryAcademic, analysis.Predictions[0].Category)
	assert.Equal(t, types.CategoryProject, analysis.Predictions[1].Category)
}

func TestClassify_KeepsTopThree(t *testing.T) {
	c := newTestClassifier()

	analysis, err := c.Classify(
		"Internship project",
		"Published a research paper and won a hackathon prize; club president",
	)
	require.NoError(t, err)

	require.Len(t, analysis.Predictions, 3)
	assert.Equal(t, types.CategoryCompetition, analysis.Predictions[0].Category)
	assert.Equal(t, types.CategoryPublication, analysis.Predictions[1].Category)
	assert.Equal(t, types.CategoryInternship, analysis.Predictions[2].Category)
	assert.Equal(t, types.ComplexityHigh, analysis.Complexity)
}

func TestClassify_Idempotent(t *testing.T) {
	c := newTestClassifier()

	first, err := c.Classify("Dean's list", "Placed on the dean's list with a 3.9 GPA at the state university")
	require.NoError(t, err)
	second, err := c.Classify("Dean's list", "Placed on the dean's list with a 3.9 GPA at the state university")
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestClassify_ConcurrentCallers(t *testing.T) {
	c := newTestClassifier()
	want, err := c.Classify("Hackathon winner", "Won the national hackathon")
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]*types.AchievementAnalysis, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = c.Classify("Hackathon winner", "Won the national hackathon")
		}(i)
	}
	wg.Wait()

	for _, got := range results {
		assert.Equal(t, want, got)
	}
}

func TestClassify_PredictionInvariants(t *testing.T) {
	c := newTestClassifier()

	inputs := [][2]string{
		{"AWS Certified", "Completed the AWS certification course"},
		{"Team captain", "Captain of the college cricket team at the zonal tournament"},
		{"IEEE paper", "Published a journal article in IEEE proceedings"},
		{"Summer internship", "Six week industrial training as an intern at a startup"},
		{"Volunteer", strings.Repeat("Organized community service drives. ", 10)},
	}

	for _, in := range inputs {
		analysis, err := c.Classify(in[0], in[1])
		require.NoError(t, err)
		require.NotEmpty(t, analysis.Predictions)
		assert.LessOrEqual(t, len(analysis.Predictions), 3)

		for _, p := range analysis.Predictions {
			assert.GreaterOrEqual(t, p.Confidence, 0.4)
			assert.LessOrEqual(t, p.Confidence, 0.95)
			assert.Positive(t, p.SuggestedPoints)
			assert.NotEmpty(t, p.Subcategory)
			assert.NotEmpty(t, p.Reasoning)
		}
	}
}

func TestConfidence(t *testing.T) {
	assert.InDelta(t, 0.7, confidence(1), 1e-9)
	assert.InDelta(t, 0.95, confidence(2), 1e-9)
	assert.InDelta(t, 0.95, confidence(10), 1e-9)

	prev := 0.0
	for score := 1; score <= 10; score++ {
		got := confidence(score)
		assert.GreaterOrEqual(t, got, prev)
		assert.GreaterOrEqual(t, got, 0.4)
		assert.LessOrEqual(t, got, 0.95)
		prev = got
	}
}

func TestPoints_MonotonicInImpact(t *testing.T) {
	c := newTestClassifier()

	for _, def := range taxonomy.Default().Categories() {
		for _, complexity := range types.AllComplexities() {
			prev := 0
			for _, impact := range types.AllImpacts() {
				got := c.points(def, complexity, impact)
				assert.Positive(t, got)
				assert.GreaterOrEqual(t, got, prev, "%s/%s/%s", def.Name, complexity, impact)
				prev = got
			}
		}
	}
}

func TestPoints_RoundsHalfAwayFromZero(t *testing.T) {
	c := newTestClassifier()
	def := types.CategoryDefinition{
		Name:       types.CategoryAcademic,
		BasePoints: map[types.Complexity]int{types.ComplexityLow: 50, types.ComplexityMedium: 30, types.ComplexityHigh: 90},
	}

	assert.Equal(t, 63, c.points(def, types.ComplexityLow, types.ImpactNational))    // 62.5
	assert.Equal(t, 33, c.points(def, types.ComplexityMedium, types.ImpactRegional)) // 33.0
	assert.Equal(t, 135, c.points(def, types.ComplexityHigh, types.ImpactInternational))
}

func TestDetermineComplexity(t *testing.T) {
	tests := []struct {
		name     string
		desc     string
		keywords int
		want     types.Complexity
	}{
		{name: "long description", desc: strings.Repeat("a", 201), want: types.ComplexityHigh},
		{name: "many keywords", desc: "short", keywords: 6, want: types.ComplexityHigh},
		{name: "exactly 200 chars", desc: strings.Repeat("a", 200), want: types.ComplexityMedium},
		{name: "medium description", desc: strings.Repeat("a", 101), want: types.ComplexityMedium},
		{name: "four keywords", desc: "short", keywords: 4, want: types.ComplexityMedium},
		{name: "exactly 100 chars", desc: strings.Repeat("a", 100), want: types.ComplexityLow},
		{name: "three keywords", desc: "short", keywords: 3, want: types.ComplexityLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, determineComplexity(tt.desc, tt.keywords))
		})
	}
}

func TestDetermineImpact(t *testing.T) {
	tests := []struct {
		blob string
		want types.Impact
	}{
		{blob: "won an international award", want: types.ImpactInternational},
		{blob: "world finals", want: types.ImpactInternational},
		{blob: "national level", want: types.ImpactNational},
		{blob: "held across india", want: types.ImpactNational},
		{blob: "state championship", want: types.ImpactRegional},
		{blob: "south zone meet", want: types.ImpactRegional},
		{blob: "college fest", want: types.ImpactLocal},
	}

	for _, tt := range tests {
		t.Run(tt.blob, func(t *testing.T) {
			assert.Equal(t, tt.want, determineImpact(tt.blob))
		})
	}
}

func TestPickSubcategory(t *testing.T) {
	def, ok := taxonomy.Default().Lookup(types.CategoryCompetition)
	require.True(t, ok)

	assert.Equal(t, "coding contest", pickSubcategory(def, "won the coding contest"))
	assert.Equal(t, def.Subcategories[0], pickSubcategory(def, "won a chess tournament"))
}

func TestInvalidInputError_Message(t *testing.T) {
	err := &InvalidInputError{Message: "provide a non-empty description"}
	assert.Equal(t, "invalid input: provide a non-empty description", err.Error())
}
