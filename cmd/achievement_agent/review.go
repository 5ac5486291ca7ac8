package main

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonathan/achievement-classifier/internal/config"
	"github.com/jonathan/achievement-classifier/internal/db"
	"github.com/jonathan/achievement-classifier/internal/observability"
	"github.com/jonathan/achievement-classifier/internal/types"
	"github.com/spf13/cobra"
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Approve or reject a pending achievement",
	RunE:  runReview,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List a student's achievements with a points summary",
	RunE:  runList,
}

var (
	reviewID     string
	reviewStatus string

	listStudentID string
	listStatus    string
	listJSON      bool
)

func init() {
	reviewCmd.Flags().StringVar(&reviewID, "id", "", "Achievement ID (required)")
	reviewCmd.Flags().StringVar(&reviewStatus, "status", "", "New status: pending, approved or rejected (required)")
	_ = reviewCmd.MarkFlagRequired("id")
	_ = reviewCmd.MarkFlagRequired("status")

	listCmd.Flags().StringVar(&listStudentID, "student", "", "Student ID (required)")
	listCmd.Flags().StringVar(&listStatus, "status", "", "Only show records with this status")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Print records and summary as JSON")
	_ = listCmd.MarkFlagRequired("student")

	rootCmd.AddCommand(reviewCmd)
	rootCmd.AddCommand(listCmd)
}

// openDatabase connects with DATABASE_URL or the config file's database_url.
func openDatabase(ctx context.Context) (*db.DB, error) {
	cfg, err := loadSettings(config.Config{})
	if err != nil {
		return nil, err
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}
	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return database, nil
}

func runReview(cmd *cobra.Command, _ []string) error {
	id, err := uuid.Parse(reviewID)
	if err != nil {
		return fmt.Errorf("invalid --id: %w", err)
	}
	status := types.RecordStatus(reviewStatus)
	if !status.IsValid() {
		return fmt.Errorf("invalid --status %q: must be pending, approved or rejected", reviewStatus)
	}

	ctx := context.Background()
	database, err := openDatabase(ctx)
	if err != nil {
		return err
	}
	defer database.Close()

	rec, err := database.UpdateAchievementStatus(ctx, id, status)
	if err != nil {
		return fmt.Errorf("failed to update achievement: %w", err)
	}
	if rec == nil {
		return fmt.Errorf("achievement not found: %s", id)
	}

	observability.NewPrinter(cmd.OutOrStdout()).PrintRecord(rec)
	return nil
}

func runList(cmd *cobra.Command, _ []string) error {
	status := types.RecordStatus(listStatus)
	if status != "" && !status.IsValid() {
		return fmt.Errorf("invalid --status %q: must be pending, approved or rejected", listStatus)
	}

	ctx := context.Background()
	database, err := openDatabase(ctx)
	if err != nil {
		return err
	}
	defer database.Close()

	records, err := database.ListAchievementsByStudent(ctx, listStudentID, status)
	if err != nil {
		return fmt.Errorf("failed to list achievements: %w", err)
	}
	summary, err := database.SummarizeStudent(ctx, listStudentID)
	if err != nil {
		return fmt.Errorf("failed to summarize achievements: %w", err)
	}

	if listJSON {
		if records == nil {
			records = []types.AchievementRecord{}
		}
		return writeJSON(cmd.OutOrStdout(), map[string]any{"summary": summary, "achievements": records})
	}

	p := observability.NewPrinter(cmd.OutOrStdout())
	for i := range records {
		p.PrintRecord(&records[i])
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%d achievements (%d pending, %d approved, %d rejected), %d approved points\n",
		summary.Total, summary.Pending, summary.Approved, summary.Rejected, summary.ApprovedPoints)
	return nil
}
