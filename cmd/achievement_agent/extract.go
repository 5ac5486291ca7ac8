package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/jonathan/achievement-classifier/internal/classify"
	"github.com/jonathan/achievement-classifier/internal/config"
	"github.com/jonathan/achievement-classifier/internal/db"
	"github.com/jonathan/achievement-classifier/internal/extraction"
	"github.com/jonathan/achievement-classifier/internal/observability"
	"github.com/jonathan/achievement-classifier/internal/pipeline"
	"github.com/jonathan/achievement-classifier/internal/types"
	"github.com/spf13/cobra"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract title, issuer and issue date from a certificate",
	Long: "Extract the title, issuer and ISO issue date of a certificate.\n\n" +
		"  --in    reads already-recognized text and only extracts fields (add --classify to classify them)\n" +
		"  --file  reads a local image, PDF or text file and runs the full pipeline\n" +
		"  --url   downloads the evidence and runs the full pipeline\n\n" +
		"Pipeline results are stored as pending records when --save is given.",
	RunE: runExtract,
}

var (
	extractInputFile   string
	extractEvidence    string
	extractURL         string
	extractStudentID   string
	extractDescription string
	extractClassify    bool
	extractSave        bool
	extractPretty      bool
	extractOCREngine   string
	extractUseBrowser  bool
)

func init() {
	extractCmd.Flags().StringVarP(&extractInputFile, "in", "i", "", "Path to a recognized-text file")
	extractCmd.Flags().StringVarP(&extractEvidence, "file", "f", "", "Path to a certificate image, PDF or text file")
	extractCmd.Flags().StringVarP(&extractURL, "url", "u", "", "URL of a certificate image, PDF or credential page")
	extractCmd.Flags().StringVar(&extractStudentID, "student", "cli", "Student ID recorded on the achievement")
	extractCmd.Flags().StringVarP(&extractDescription, "description", "d", "", "Description to classify instead of the recognized text")
	extractCmd.Flags().BoolVar(&extractClassify, "classify", false, "Also classify the extracted fields (--in only)")
	extractCmd.Flags().BoolVar(&extractSave, "save", false, "Store the record in the database (requires DATABASE_URL)")
	extractCmd.Flags().BoolVar(&extractPretty, "pretty", false, "Print a human-readable summary instead of JSON")
	extractCmd.Flags().StringVar(&extractOCREngine, "ocr-engine", "", "OCR engine: tesseract or gemini")
	extractCmd.Flags().BoolVar(&extractUseBrowser, "browser", false, "Render credential pages in headless Chrome when needed")

	rootCmd.AddCommand(extractCmd)
}

// textExtraction is the output of extract --in.
type textExtraction struct {
	Fields   *types.ExtractedCertificateFields `json:"fields"`
	Analysis *types.AchievementAnalysis        `json:"analysis,omitempty"`
}

func runExtract(cmd *cobra.Command, _ []string) error {
	sources := 0
	for _, s := range []string{extractInputFile, extractEvidence, extractURL} {
		if s != "" {
			sources++
		}
	}
	if sources != 1 {
		return fmt.Errorf("exactly one of --in, --file or --url is required")
	}
	if extractInputFile != "" && extractSave {
		return fmt.Errorf("--save cannot be used with --in; use --file or --url")
	}

	cfg, err := loadSettings(config.Config{OCREngine: extractOCREngine, UseBrowser: extractUseBrowser})
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Verbose)
	ctx := context.Background()

	if extractInputFile != "" {
		return extractText(cmd, cfg)
	}

	var store pipeline.Store
	if extractSave {
		if cfg.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL required when using --save")
		}
		database, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer database.Close()
		if err := database.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("failed to prepare database schema: %w", err)
		}
		store = database
	}

	processor, closeFn, err := newProcessor(ctx, cfg, store, logger)
	defer closeFn()
	if err != nil {
		return err
	}
	if cfg.Verbose {
		processor.OnProgress = func(e pipeline.ProgressEvent) {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "[%s] %s\n", e.Stage, e.Message)
		}
	}

	var result *pipeline.CertificateResult
	if extractURL != "" {
		result, err = processor.ProcessCertificate(ctx, types.CertificateRequest{
			StudentID:   extractStudentID,
			URL:         extractURL,
			Description: extractDescription,
		})
	} else {
		result, err = processor.ProcessFile(ctx, extractStudentID, extractEvidence, extractDescription)
	}
	if err != nil {
		return err
	}
	if err := checkOutput("achievement_record.schema.json", result.Record); err != nil {
		return err
	}

	if extractPretty {
		p := observability.NewPrinter(cmd.OutOrStdout())
		p.PrintCertificateFields(result.Fields)
		p.PrintRecord(result.Record)
		return nil
	}
	if err := writeJSON(cmd.OutOrStdout(), result); err != nil {
		return err
	}
	if extractSave {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Saved achievement %s for review\n", result.Record.ID)
	}
	return nil
}

// extractText handles --in: field extraction on recognized text, with optional classification.
func extractText(cmd *cobra.Command, cfg config.Config) error {
	content, err := os.ReadFile(extractInputFile)
	if err != nil {
		return fmt.Errorf("failed to read input file: %w", err)
	}
	logger := newLogger(cfg.Verbose)

	fields, err := extraction.New(extraction.Config{Logger: logger}).Extract(string(content))
	if err != nil {
		return fmt.Errorf("failed to extract certificate fields: %w", err)
	}
	if err := checkOutput("certificate_fields.schema.json", fields); err != nil {
		return err
	}
	out := textExtraction{Fields: fields}

	if extractClassify {
		tax, err := loadTaxonomy(cfg.Taxonomy)
		if err != nil {
			return fmt.Errorf("failed to load taxonomy: %w", err)
		}
		description := strings.TrimSpace(extractDescription)
		if description == "" {
			description = fields.RawTextSample
		}
		out.Analysis, err = classify.New(tax, logger).Classify(fields.Title, description)
		if err != nil {
			return fmt.Errorf("failed to classify certificate: %w", err)
		}
	}

	if extractPretty {
		p := observability.NewPrinter(cmd.OutOrStdout())
		p.PrintCertificateFields(fields)
		if out.Analysis != nil {
			p.PrintAnalysis(out.Analysis)
		}
		return nil
	}
	return writeJSON(cmd.OutOrStdout(), out)
}
