package main

import (
	"fmt"

	"github.com/jonathan/achievement-classifier/internal/config"
	"github.com/jonathan/achievement-classifier/internal/observability"
	"github.com/spf13/cobra"
)

var taxonomyCmd = &cobra.Command{
	Use:   "taxonomy",
	Short: "Show the achievement categories and their base points",
	RunE:  runTaxonomy,
}

var (
	taxonomyFile string
	taxonomyJSON bool
)

func init() {
	taxonomyCmd.Flags().StringVar(&taxonomyFile, "taxonomy", "", "Path to a JSON or YAML taxonomy override")
	taxonomyCmd.Flags().BoolVar(&taxonomyJSON, "json", false, "Print the full taxonomy as JSON")

	rootCmd.AddCommand(taxonomyCmd)
}

func runTaxonomy(cmd *cobra.Command, _ []string) error {
	cfg, err := loadSettings(config.Config{Taxonomy: taxonomyFile})
	if err != nil {
		return err
	}
	tax, err := loadTaxonomy(cfg.Taxonomy)
	if err != nil {
		return fmt.Errorf("failed to load taxonomy: %w", err)
	}

	if taxonomyJSON {
		return writeJSON(cmd.OutOrStdout(), tax.Categories())
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintTaxonomy(tax.Categories())
	return nil
}
