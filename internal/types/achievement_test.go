package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllCategories_DeclarationOrder(t *testing.T) {
	cats := AllCategories()
	require.Len(t, cats, 8)
	assert.Equal(t, CategoryAcademic, cats[0])
	assert.Equal(t, CategoryExtracurricular, cats[len(cats)-1])
}

func TestCategory_IsValid(t *testing.T) {
	assert.True(t, CategoryCompetition.IsValid())
	assert.False(t, Category("sports").IsValid())
	assert.False(t, Category("").IsValid())
}

func TestRecordStatus_IsValid(t *testing.T) {
	assert.True(t, StatusPending.IsValid())
	assert.True(t, StatusApproved.IsValid())
	assert.True(t, StatusRejected.IsValid())
	assert.False(t, RecordStatus("archived").IsValid())
}

func TestNewRecordFromAnalysis(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	analysis := &AchievementAnalysis{
		RecommendedCategory: CategoryPrediction{
			Category:        CategoryCompetition,
			Subcategory:     "hackathon",
			Confidence:      0.7,
			SuggestedPoints: 75,
		},
	}
	analysis.Predictions = []CategoryPrediction{analysis.RecommendedCategory}

	rec := NewRecordFromAnalysis("student-1", "Hackathon win", "Won first place", analysis, now)

	assert.NotEqual(t, uuid.Nil, rec.ID)
	assert.Equal(t, "student-1", rec.StudentID)
	assert.Equal(t, CategoryCompetition, rec.Category)
	assert.Equal(t, "hackathon", rec.Subcategory)
	assert.Equal(t, 75, rec.Points)
	assert.InDelta(t, 0.7, rec.Confidence, 1e-9)
	assert.Equal(t, StatusPending, rec.Status)
	assert.Equal(t, SourceManual, rec.Source)
	assert.Equal(t, now, rec.CreatedAt)
}

func TestNewRecordFromAnalysis_NilAnalysis(t *testing.T) {
	rec := NewRecordFromAnalysis("s", "t", "d", nil, time.Now())
	assert.Equal(t, StatusPending, rec.Status)
	assert.Empty(t, rec.Category)
	assert.Zero(t, rec.Points)
}

func TestAchievementAnalysis_JSONFieldNames(t *testing.T) {
	analysis := AchievementAnalysis{
		Predictions: []CategoryPrediction{{Category: CategoryProject, Confidence: 0.4, SuggestedPoints: 30}},
		Keywords:    []string{"project"},
		Complexity:  ComplexityLow,
		Impact:      ImpactLocal,
	}
	data, err := json.Marshal(analysis)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Contains(t, raw, "predictions")
	assert.Contains(t, raw, "recommended_category")
	assert.Equal(t, "low", raw["complexity"])
	assert.Equal(t, "local", raw["impact"])
}
