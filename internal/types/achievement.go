// Package types defines the data structures shared by the extraction, classification and
// persistence layers.
package types

import (
	"time"

	"github.com/google/uuid"
)

// Category is one of the fixed achievement kinds.
type Category string

// Achievement categories, in taxonomy declaration order.
const (
	CategoryAcademic        Category = "academic"
	CategoryCertification   Category = "certification"
	CategoryCompetition     Category = "competition"
	CategoryInternship      Category = "internship"
	CategoryLeadership      Category = "leadership"
	CategoryProject         Category = "project"
	CategoryPublication     Category = "publication"
	CategoryExtracurricular Category = "extracurricular"
)

// AllCategories returns the closed category set in declaration order.
func AllCategories() []Category {
	return []Category{
		CategoryAcademic,
		CategoryCertification,
		CategoryCompetition,
		CategoryInternship,
		CategoryLeadership,
		CategoryProject,
		CategoryPublication,
		CategoryExtracurricular,
	}
}

// IsValid reports whether c belongs to the closed category set.
func (c Category) IsValid() bool {
	for _, known := range AllCategories() {
		if c == known {
			return true
		}
	}
	return false
}

// Complexity is a coarse effort signal inferred from description length and keyword density.
type Complexity string

// Complexity levels
const (
	ComplexityLow    Complexity = "low"
	ComplexityMedium Complexity = "medium"
	ComplexityHigh   Complexity = "high"
)

// AllComplexities returns every complexity level from lowest to highest.
func AllComplexities() []Complexity {
	return []Complexity{ComplexityLow, ComplexityMedium, ComplexityHigh}
}

// Impact is the geographic or organizational scope of an achievement.
type Impact string

// Impact tiers, from narrowest to widest scope
const (
	ImpactLocal         Impact = "local"
	ImpactRegional      Impact = "regional"
	ImpactNational      Impact = "national"
	ImpactInternational Impact = "international"
)

// AllImpacts returns every impact tier from narrowest to widest.
func AllImpacts() []Impact {
	return []Impact{ImpactLocal, ImpactRegional, ImpactNational, ImpactInternational}
}

// CategoryDefinition is one row of the static category taxonomy.
type CategoryDefinition struct {
	Name          Category           `json:"name" yaml:"name"`
	Description   string             `json:"description" yaml:"description"`
	Keywords      []string           `json:"keywords" yaml:"keywords"`
	Subcategories []string           `json:"subcategories" yaml:"subcategories"`
	BasePoints    map[Complexity]int `json:"base_points" yaml:"base_points"`
}

// CategoryPrediction is a single scored category for one piece of evidence.
type CategoryPrediction struct {
	Category        Category `json:"category"`
	Subcategory     string   `json:"subcategory,omitempty"`
	Confidence      float64  `json:"confidence"`
	SuggestedPoints int      `json:"suggested_points"`
	Reasoning       string   `json:"reasoning"`
	MatchedKeywords []string `json:"matched_keywords,omitempty"`
}

// AchievementAnalysis is the classifier output.
// Predictions is ordered highest score first and is never empty.
type AchievementAnalysis struct {
	Predictions         []CategoryPrediction `json:"predictions"`
	RecommendedCategory CategoryPrediction   `json:"recommended_category"`
	Keywords            []string             `json:"keywords"`
	Complexity          Complexity           `json:"complexity"`
	Impact              Impact               `json:"impact"`
}

// ExtractedCertificateFields holds the structured fields pulled out of recognized certificate text.
type ExtractedCertificateFields struct {
	Title         string `json:"title"`
	Issuer        string `json:"issuer"`
	IssueDate     string `json:"issue_date"` // YYYY-MM-DD
	RawTextSample string `json:"raw_text_sample"`
	// DateFallback is set when IssueDate is the processing date rather than a parsed match.
	DateFallback bool `json:"date_fallback"`
}

// RecordStatus is the review state of a persisted achievement.
type RecordStatus string

// Record statuses
const (
	StatusPending  RecordStatus = "pending"
	StatusApproved RecordStatus = "approved"
	StatusRejected RecordStatus = "rejected"
)

// IsValid reports whether s is a known record status.
func (s RecordStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// RecordSource identifies how the evidence reached the system.
type RecordSource string

// Record sources
const (
	SourceManual      RecordSource = "manual"
	SourceCertificate RecordSource = "certificate"
)

// AchievementRecord is the finished record handed to the persistence layer.
type AchievementRecord struct {
	ID          uuid.UUID            `json:"id"`
	StudentID   string               `json:"student_id"`
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Category    Category             `json:"category"`
	Subcategory string               `json:"subcategory,omitempty"`
	Points      int                  `json:"points"`
	Confidence  float64              `json:"confidence"`
	Issuer      string               `json:"issuer,omitempty"`
	IssueDate   string               `json:"issue_date,omitempty"`
	Status      RecordStatus         `json:"status"`
	Source      RecordSource         `json:"source"`
	EvidenceURL string               `json:"evidence_url,omitempty"`
	Analysis    *AchievementAnalysis `json:"analysis,omitempty"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

// NewRecordFromAnalysis builds a pending record seeded from the recommended prediction.
func NewRecordFromAnalysis(studentID, title, description string, analysis *AchievementAnalysis, now time.Time) *AchievementRecord {
	rec := &AchievementRecord{
		ID:          uuid.New(),
		StudentID:   studentID,
		Title:       title,
		Description: description,
		Status:      StatusPending,
		Source:      SourceManual,
		Analysis:    analysis,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if analysis != nil {
		best := analysis.RecommendedCategory
		rec.Category = best.Category
		rec.Subcategory = best.Subcategory
		rec.Points = best.SuggestedPoints
		rec.Confidence = best.Confidence
	}
	return rec
}
