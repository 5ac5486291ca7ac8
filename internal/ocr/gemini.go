package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonathan/achievement-classifier/internal/llm"
	"github.com/jonathan/achievement-classifier/internal/prompts"
)

// Gemini recognizes images by asking a vision model to transcribe them.
type Gemini struct {
	client llm.Client
	tier   llm.ModelTier
	prompt string
	logger *slog.Logger
}

// NewGemini creates a model-backed recognizer using the standard tier.
func NewGemini(client llm.Client, logger *slog.Logger) *Gemini {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gemini{
		client: client,
		tier:   llm.TierStandard,
		prompt: prompts.MustGet("ocr.json", "transcribe-certificate"),
		logger: logger,
	}
}

// WithTier returns a copy of the recognizer using a different model tier.
func (g *Gemini) WithTier(tier llm.ModelTier) *Gemini {
	out := *g
	out.tier = tier
	return &out
}

func (g *Gemini) Recognize(ctx context.Context, image []byte, mimeType string) (string, error) {
	if len(image) == 0 {
		return "", &RecognitionError{Engine: EngineGemini, Message: "image is empty"}
	}
	format := imageSubtype(mimeType)
	if format == "" {
		return "", &RecognitionError{Engine: EngineGemini, Message: fmt.Sprintf("unsupported image type %q", mimeType)}
	}
	start := time.Now()

	text, err := g.client.GenerateFromImage(ctx, g.prompt, format, image, g.tier)
	if err != nil {
		g.logger.Error("ocr.gemini.failed", "model", g.client.GetModel(g.tier), "error", err)
		return "", &RecognitionError{Engine: EngineGemini, Message: "model transcription failed", Cause: err}
	}

	text = Normalize(text)
	g.logger.Debug("ocr.gemini.ok",
		"model", g.client.GetModel(g.tier), "chars", len(text),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return text, nil
}
