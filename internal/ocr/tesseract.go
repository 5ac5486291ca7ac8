package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"
)

// TesseractConfig configures the tesseract engine.
type TesseractConfig struct {
	Binary      string // binary name or absolute path; defaults to "tesseract"
	Lang        string // defaults to "eng"
	TessdataDir string
	PSM         int // page segmentation mode; 0 leaves tesseract's default
	Runner      Runner
}

// Tesseract recognizes images with a local tesseract binary.
type Tesseract struct {
	cfg    TesseractConfig
	runner Runner
	logger *slog.Logger
}

// NewTesseract creates a tesseract recognizer.
func NewTesseract(cfg TesseractConfig, logger *slog.Logger) *Tesseract {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Binary == "" {
		cfg.Binary = "tesseract"
	}
	if cfg.Lang == "" {
		cfg.Lang = "eng"
	}
	runner := cfg.Runner
	if runner == nil {
		runner = execRunner{}
	}
	return &Tesseract{cfg: cfg, runner: runner, logger: logger}
}

// Recognize writes the image to a temporary file and runs `tesseract <file> stdout`.
func (t *Tesseract) Recognize(ctx context.Context, image []byte, mimeType string) (string, error) {
	if len(image) == 0 {
		return "", &RecognitionError{Engine: EngineTesseract, Message: "image is empty"}
	}
	start := time.Now()

	path, cleanup, err := writeTemp(image, imageSubtype(mimeType))
	if err != nil {
		return "", &RecognitionError{Engine: EngineTesseract, Message: "failed to stage image", Cause: err}
	}
	defer cleanup()

	args := []string{path, "stdout", "-l", t.cfg.Lang}
	if t.cfg.PSM > 0 {
		args = append(args, "--psm", fmt.Sprintf("%d", t.cfg.PSM))
	}
	if t.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", t.cfg.TessdataDir)
	}

	out, errb, err := t.runner.Run(ctx, t.cfg.Binary, args...)
	if err != nil {
		t.logger.Error("ocr.tesseract.failed", "error", err, "stderr", strings.TrimSpace(string(errb)))
		return "", &RecognitionError{Engine: EngineTesseract, Message: "tesseract exited with an error", Cause: err}
	}

	text := Normalize(string(out))
	t.logger.Debug("ocr.tesseract.ok", "chars", len(text), "duration_ms", time.Since(start).Milliseconds())
	return text, nil
}

func writeTemp(data []byte, ext string) (string, func(), error) {
	if ext == "" {
		ext = "img"
	}
	f, err := os.CreateTemp("", "certificate-*."+ext)
	if err != nil {
		return "", nil, err
	}
	cleanup := func() { _ = os.Remove(f.Name()) }
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		cleanup()
		return "", nil, err
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, err
	}
	return f.Name(), cleanup, nil
}
