// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/achievement-classifier/internal/types"
	"github.com/jonathan/achievement-classifier/internal/verification"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 8
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %s │\n", pad(title, boxWidth-4))
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(strings.TrimRight(content, "\n"), "\n") {
		fmt.Fprintf(p.out, "│ %s │\n", pad(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// pad truncates or right-pads s to exactly width runes.
func pad(s string, width int) string {
	if utf8.RuneCountInString(s) > width {
		runes := []rune(s)
		return string(runes[:width-3]) + "..."
	}
	return s + strings.Repeat(" ", width-utf8.RuneCountInString(s))
}

// PrintAnalysis outputs the ranked predictions and signals of a classification.
func (p *Printer) PrintAnalysis(analysis *types.AchievementAnalysis) {
	if analysis == nil {
		return
	}

	var sb strings.Builder
	best := analysis.RecommendedCategory
	sb.WriteString(fmt.Sprintf("Recommended: %s", best.Category))
	if best.Subcategory != "" {
		sb.WriteString(fmt.Sprintf(" / %s", best.Subcategory))
	}
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Points:      %d\n", best.SuggestedPoints))
	sb.WriteString(fmt.Sprintf("Complexity:  %s\n", analysis.Complexity))
	sb.WriteString(fmt.Sprintf("Impact:      %s\n", analysis.Impact))
	sb.WriteString("\n")

	sb.WriteString("Predictions:\n")
	for i, pred := range analysis.Predictions {
		sb.WriteString(fmt.Sprintf("  %d. %-16s %3.0f%%  %d pts\n", i+1, pred.Category, pred.Confidence*100, pred.SuggestedPoints))
	}

	if len(analysis.Keywords) > 0 {
		sb.WriteString("\nKeywords:\n")
		count := min(len(analysis.Keywords), maxItemsToShow)
		for _, kw := range analysis.Keywords[:count] {
			sb.WriteString(fmt.Sprintf("  • %s\n", kw))
		}
		if len(analysis.Keywords) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(analysis.Keywords)-maxItemsToShow))
		}
	}

	p.printBox("ACHIEVEMENT ANALYSIS", sb.String())
}

// PrintCertificateFields outputs the fields extracted from certificate text.
func (p *Printer) PrintCertificateFields(fields *types.ExtractedCertificateFields) {
	if fields == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Title:   %s\n", fields.Title))
	sb.WriteString(fmt.Sprintf("Issuer:  %s\n", fields.Issuer))
	sb.WriteString(fmt.Sprintf("Issued:  %s", fields.IssueDate))
	if fields.DateFallback {
		sb.WriteString(" (not found, processing date used)")
	}
	sb.WriteString("\n")

	p.printBox("CERTIFICATE FIELDS", sb.String())
}

// PrintRecord outputs a stored achievement record.
func (p *Printer) PrintRecord(rec *types.AchievementRecord) {
	if rec == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("ID:        %s\n", rec.ID))
	sb.WriteString(fmt.Sprintf("Student:   %s\n", rec.StudentID))
	sb.WriteString(fmt.Sprintf("Title:     %s\n", rec.Title))
	sb.WriteString(fmt.Sprintf("Category:  %s\n", rec.Category))
	sb.WriteString(fmt.Sprintf("Points:    %d\n", rec.Points))
	sb.WriteString(fmt.Sprintf("Status:    %s\n", rec.Status))
	if rec.Issuer != "" {
		sb.WriteString(fmt.Sprintf("Issuer:    %s\n", rec.Issuer))
	}
	if rec.EvidenceURL != "" {
		sb.WriteString(fmt.Sprintf("Evidence:  %s\n", rec.EvidenceURL))
	}

	p.printBox("ACHIEVEMENT RECORD", sb.String())
}

// PrintVerification outputs the result of checking a verification token.
func (p *Printer) PrintVerification(result *verification.Result) {
	if result == nil {
		return
	}

	var sb strings.Builder
	if !result.Valid {
		sb.WriteString("✗ INVALID\n")
		sb.WriteString(fmt.Sprintf("Reason:  %s\n", result.Reason))
		p.printBox("VERIFICATION", sb.String())
		return
	}

	sb.WriteString("✓ VALID\n")
	sb.WriteString(fmt.Sprintf("Achievement: %s\n", result.AchievementID))
	sb.WriteString(fmt.Sprintf("Student:     %s\n", result.StudentID))
	sb.WriteString(fmt.Sprintf("Title:       %s\n", result.Title))
	sb.WriteString(fmt.Sprintf("Category:    %s (%d pts)\n", result.Category, result.Points))
	if result.ExpiresAt != nil {
		sb.WriteString(fmt.Sprintf("Expires:     %s\n", result.ExpiresAt.Format("2006-01-02")))
	}
	p.printBox("VERIFICATION", sb.String())
}

// PrintTaxonomy outputs the category table with base points per complexity.
func (p *Printer) PrintTaxonomy(categories []types.CategoryDefinition) {
	if len(categories) == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%-16s %5s %6s %5s  %s\n", "CATEGORY", "LOW", "MEDIUM", "HIGH", "KEYWORDS"))
	for _, def := range categories {
		sb.WriteString(fmt.Sprintf("%-16s %5d %6d %5d  %d\n", def.Name,
			def.BasePoints[types.ComplexityLow], def.BasePoints[types.ComplexityMedium],
			def.BasePoints[types.ComplexityHigh], len(def.Keywords)))
	}
	p.printBox("CATEGORY TAXONOMY", sb.String())
}
