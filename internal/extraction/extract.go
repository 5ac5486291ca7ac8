package extraction

import (
	"log/slog"
	"strings"
	"time"

	"github.com/jonathan/achievement-classifier/internal/types"
)

const (
	// UnknownValue is used for title and issuer when no pattern matches.
	UnknownValue = "Unknown"
	// SampleLength is the number of characters of raw text kept for review.
	SampleLength = 500
	// dateLayout is the ISO-8601 calendar date format used for IssueDate.
	dateLayout = "2006-01-02"
)

// Config holds the injectable dependencies of an Extractor.
type Config struct {
	// Now supplies the processing date used when no issue date can be read. Defaults to time.Now.
	Now    func() time.Time
	Logger *slog.Logger
}

// Extractor turns recognized certificate text into structured fields. It holds no mutable
// state and is safe for concurrent use.
type Extractor struct {
	now    func() time.Time
	logger *slog.Logger
}

// New creates an Extractor.
func New(cfg Config) *Extractor {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Extractor{now: cfg.Now, logger: cfg.Logger}
}

// Extract reads title, issuer and issue date from text. It always produces a usable date:
// an unmatched or unparseable date becomes the processing date.
func (e *Extractor) Extract(text string) (*types.ExtractedCertificateFields, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &EmptyInputError{Message: "recognized text is empty or whitespace-only"}
	}

	fields := &types.ExtractedCertificateFields{
		Title:         UnknownValue,
		Issuer:        UnknownValue,
		RawTextSample: sample(text, SampleLength),
	}

	if title, _, ok := firstField(text, titlePatterns); ok {
		fields.Title = title
	}
	if issuer, _, ok := firstField(text, issuerPatterns); ok {
		fields.Issuer = issuer
	}

	date, ok := e.extractDate(text)
	if !ok {
		date = e.now()
		fields.DateFallback = true
	}
	fields.IssueDate = date.Format(dateLayout)

	e.logger.Debug("extraction.ok",
		"title", fields.Title, "issuer", fields.Issuer,
		"issue_date", fields.IssueDate, "date_fallback", fields.DateFallback,
		"text_chars", len(text),
	)
	return fields, nil
}

// extractDate parses the first date pattern that matches. It does not try later patterns
// once a match fails to parse.
func (e *Extractor) extractDate(text string) (time.Time, bool) {
	for _, p := range datePatterns {
		groups := p.re.FindStringSubmatch(text)
		if groups == nil {
			continue
		}
		date, err := p.parse(groups)
		if err != nil {
			e.logger.Warn("extraction.date_fallback",
				"pattern", p.name, "raw", groups[0], "error", err,
			)
			return time.Time{}, false
		}
		return date, true
	}
	e.logger.Debug("extraction.date_missing")
	return time.Time{}, false
}

// sample returns at most n characters of s.
func sample(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
