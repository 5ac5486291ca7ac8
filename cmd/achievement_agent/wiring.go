package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/jonathan/achievement-classifier/internal/classify"
	"github.com/jonathan/achievement-classifier/internal/config"
	"github.com/jonathan/achievement-classifier/internal/extraction"
	"github.com/jonathan/achievement-classifier/internal/fetch"
	"github.com/jonathan/achievement-classifier/internal/llm"
	"github.com/jonathan/achievement-classifier/internal/ocr"
	"github.com/jonathan/achievement-classifier/internal/pipeline"
	"github.com/jonathan/achievement-classifier/internal/schemas"
	"github.com/jonathan/achievement-classifier/internal/taxonomy"
)

// loadSettings merges, in priority order, the overrides (flags), the environment,
// the --config file and the package defaults.
func loadSettings(overrides config.Config) (config.Config, error) {
	file := &config.Config{}
	if configFile != "" {
		loaded, err := config.LoadConfig(configFile)
		if err != nil {
			return config.Config{}, err
		}
		file = loaded
	}

	if overrides.APIKey == "" {
		overrides.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if overrides.DatabaseURL == "" {
		overrides.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	overrides.Verbose = overrides.Verbose || verbose

	merged := overrides.MergeWithDefaults(*file)
	if err := merged.Validate(); err != nil {
		return config.Config{}, err
	}
	return merged, nil
}

// newLogger logs warnings and errors to stderr, or everything in verbose mode.
func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// loadTaxonomy returns the embedded taxonomy unless path names an override file.
func loadTaxonomy(path string) (*taxonomy.Taxonomy, error) {
	if path == "" {
		return taxonomy.Default(), nil
	}
	return taxonomy.LoadFile(path)
}

// newRecognizer builds the configured OCR engine behind a worker pool.
// The returned close function is never nil.
func newRecognizer(ctx context.Context, cfg config.Config, logger *slog.Logger) (ocr.Recognizer, func(), error) {
	noop := func() {}

	switch cfg.OCREngine {
	case ocr.EngineGemini:
		if cfg.APIKey == "" {
			return nil, noop, fmt.Errorf("API key is required for the gemini OCR engine (set GEMINI_API_KEY or api_key in the config file)")
		}
		client, err := llm.NewClient(ctx, llm.DefaultConfig(), cfg.APIKey)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to create LLM client: %w", err)
		}
		closeFn := func() {
			if err := client.Close(); err != nil {
				logger.Warn("llm.close_failed", "error", err)
			}
		}
		return ocr.NewPool(ocr.NewGemini(client, logger), cfg.OCRWorkers), closeFn, nil

	case ocr.EngineTesseract:
		rec := ocr.NewTesseract(ocr.TesseractConfig{Binary: cfg.TesseractBin, Lang: cfg.TesseractLang}, logger)
		return ocr.NewPool(rec, cfg.OCRWorkers), noop, nil
	}
	return nil, noop, fmt.Errorf("unknown OCR engine %q", cfg.OCREngine)
}

// newFetcher builds an HTTP fetcher honoring the configured timeout and size cap.
func newFetcher(cfg config.Config) *fetch.HTTPFetcher {
	opts := fetch.DefaultOptions()
	opts.Timeout = cfg.FetchTimeout()
	opts.MaxBytes = cfg.MaxDocumentBytes()
	return &fetch.HTTPFetcher{Options: opts}
}

// newProcessor wires the evidence pipeline. A nil store disables persistence.
func newProcessor(ctx context.Context, cfg config.Config, store pipeline.Store, logger *slog.Logger) (*pipeline.Processor, func(), error) {
	tax, err := loadTaxonomy(cfg.Taxonomy)
	if err != nil {
		return nil, func() {}, err
	}
	recognizer, closeFn, err := newRecognizer(ctx, cfg, logger)
	if err != nil {
		return nil, closeFn, err
	}

	p := &pipeline.Processor{
		Fetcher:    newFetcher(cfg),
		Recognizer: recognizer,
		Extractor:  extraction.New(extraction.Config{Logger: logger}),
		Classifier: classify.New(tax, logger),
		Store:      store,
		Logger:     logger,
		MaxBytes:   cfg.MaxDocumentBytes(),
	}
	if cfg.UseBrowser {
		p.Render = pipeline.BrowserRenderer(cfg.FetchTimeout(), logger)
	}
	return p, closeFn, nil
}

// writeJSON writes v as indented JSON followed by a newline.
func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// checkOutput validates v against a schema under schemas/ when the schema file can be found.
// A document that violates the schema is an error; a schema that cannot be loaded is a warning.
func checkOutput(schemaFile string, v any) error {
	schemaPath := schemas.ResolveSchemaPath("schemas/" + schemaFile)
	if schemaPath == "" {
		return nil
	}
	content, err := os.ReadFile(schemaPath)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Warning: Could not read schema %s: %v\n", schemaPath, err)
		return nil
	}

	err = schemas.ValidateValue(string(content), v)
	var validationErr *schemas.ValidationError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &validationErr):
		return fmt.Errorf("output does not validate against %s: %w", schemaFile, err)
	default:
		_, _ = fmt.Fprintf(os.Stderr, "Warning: Could not validate output against schema: %v\n", err)
		return nil
	}
}
