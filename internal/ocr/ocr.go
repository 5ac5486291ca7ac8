package ocr

import (
	"context"
	"regexp"
	"strings"
)

// Engine names accepted by configuration.
const (
	EngineTesseract = "tesseract"
	EngineGemini    = "gemini"
)

// Recognizer reads the text of an image. mimeType is the image's media type, e.g. "image/png".
type Recognizer interface {
	Recognize(ctx context.Context, image []byte, mimeType string) (string, error)
}

var (
	reBoxNoise    = regexp.MustCompile(`[|│┃]+`)
	reSpaceRuns   = regexp.MustCompile(`[ \t]+`)
	reBlankBlocks = regexp.MustCompile(`\n{3,}`)
)

// Normalize cleans OCR output: CRLF line endings, box-drawing noise, runs of blanks
// and long stretches of empty lines. Line structure is kept since field patterns rely on it.
func Normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = reBoxNoise.ReplaceAllString(text, "")
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(reSpaceRuns.ReplaceAllString(line, " "))
	}
	text = strings.Join(lines, "\n")
	text = reBlankBlocks.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// imageSubtype returns the subtype of an image media type ("image/png" -> "png").
// Parameters are dropped and "jpg" is folded into "jpeg". A type outside image/ yields "".
func imageSubtype(mimeType string) string {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	if idx := strings.Index(mimeType, ";"); idx >= 0 {
		mimeType = strings.TrimSpace(mimeType[:idx])
	}
	sub, ok := strings.CutPrefix(mimeType, "image/")
	if !ok || sub == "" || strings.ContainsAny(sub, `/\`) {
		return ""
	}
	if sub == "jpg" {
		return "jpeg"
	}
	return sub
}
