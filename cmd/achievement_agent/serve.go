package main

import (
	"context"
	"fmt"

	"github.com/jonathan/achievement-classifier/internal/config"
	"github.com/jonathan/achievement-classifier/internal/db"
	"github.com/jonathan/achievement-classifier/internal/server"
	"github.com/jonathan/achievement-classifier/internal/verification"
	"github.com/spf13/cobra"
)

var (
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long: "Start an HTTP server that exposes REST endpoints for classifying achievements, " +
		"processing certificates, reviewing records and verifying approved achievements.",
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (default 8080)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadSettings(config.Config{Port: servePort})
	if err != nil {
		return err
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable is required")
	}
	logger := newLogger(cfg.Verbose)
	ctx := context.Background()

	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()
	if err := database.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("failed to prepare database schema: %w", err)
	}

	tax, err := loadTaxonomy(cfg.Taxonomy)
	if err != nil {
		return fmt.Errorf("failed to load taxonomy: %w", err)
	}
	processor, closeFn, err := newProcessor(ctx, cfg, database, logger)
	defer closeFn()
	if err != nil {
		return err
	}

	// Verification is optional; the token endpoints answer 503 without it.
	var verifier *verification.Service
	if jwtCfg, err := config.NewJWTConfig(); err != nil {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Warning: verification tokens disabled: %v\n", err)
	} else {
		verifier = verification.NewService(jwtCfg)
	}

	srv, err := server.New(server.Config{
		Port:             cfg.Port,
		Taxonomy:         tax,
		Classifier:       processor.Classifier,
		Extractor:        processor.Extractor,
		Processor:        processor,
		Store:            database,
		Verifier:         verifier,
		BatchConcurrency: cfg.BatchConcurrency,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	defer srv.Close()

	return srv.Start()
}
