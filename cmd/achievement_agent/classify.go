package main

import (
	"fmt"
	"os"

	"github.com/jonathan/achievement-classifier/internal/classify"
	"github.com/jonathan/achievement-classifier/internal/config"
	"github.com/jonathan/achievement-classifier/internal/observability"
	"github.com/spf13/cobra"
)

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Classify a typed achievement and suggest points",
	Long: "Classify a typed achievement title and description into one of the achievement categories " +
		"and print the ranked predictions, keywords, complexity and impact as JSON.",
	RunE: runClassify,
}

var (
	classifyTitle       string
	classifyDescription string
	classifyTaxonomy    string
	classifyOutputFile  string
	classifyPretty      bool
)

func init() {
	classifyCmd.Flags().StringVarP(&classifyTitle, "title", "t", "", "Achievement title")
	classifyCmd.Flags().StringVarP(&classifyDescription, "description", "d", "", "Achievement description")
	classifyCmd.Flags().StringVar(&classifyTaxonomy, "taxonomy", "", "Path to a JSON or YAML taxonomy override")
	classifyCmd.Flags().StringVarP(&classifyOutputFile, "out", "o", "", "Write JSON to this file instead of stdout")
	classifyCmd.Flags().BoolVar(&classifyPretty, "pretty", false, "Print a human-readable summary instead of JSON")

	rootCmd.AddCommand(classifyCmd)
}

func runClassify(cmd *cobra.Command, _ []string) error {
	if classifyTitle == "" || classifyDescription == "" {
		return fmt.Errorf("both --title and --description are required")
	}

	cfg, err := loadSettings(config.Config{Taxonomy: classifyTaxonomy})
	if err != nil {
		return err
	}
	tax, err := loadTaxonomy(cfg.Taxonomy)
	if err != nil {
		return fmt.Errorf("failed to load taxonomy: %w", err)
	}

	analysis, err := classify.New(tax, newLogger(cfg.Verbose)).Classify(classifyTitle, classifyDescription)
	if err != nil {
		return fmt.Errorf("failed to classify achievement: %w", err)
	}
	if err := checkOutput("analysis.schema.json", analysis); err != nil {
		return err
	}

	if classifyPretty {
		observability.NewPrinter(cmd.OutOrStdout()).PrintAnalysis(analysis)
		return nil
	}
	if classifyOutputFile == "" {
		return writeJSON(cmd.OutOrStdout(), analysis)
	}

	f, err := os.Create(classifyOutputFile)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()
	if err := writeJSON(f, analysis); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Classified as %s (%d points)\nOutput: %s\n",
		analysis.RecommendedCategory.Category, analysis.RecommendedCategory.SuggestedPoints, classifyOutputFile)
	return nil
}
