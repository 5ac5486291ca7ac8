package main

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonathan/achievement-classifier/internal/config"
	"github.com/jonathan/achievement-classifier/internal/observability"
	"github.com/jonathan/achievement-classifier/internal/verification"
	"github.com/spf13/cobra"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check a verification token for an approved achievement",
	Long: "Check the signature, issuer and expiry of a verification token and print the achievement it vouches for. " +
		"Requires the JWT_SECRET the token was signed with.",
	RunE: runVerify,
}

var issueTokenCmd = &cobra.Command{
	Use:   "issue-token",
	Short: "Sign a verification token for an approved achievement",
	RunE:  runIssueToken,
}

var (
	verifyToken  string
	verifyJSON   bool
	issueTokenID string
)

func init() {
	verifyCmd.Flags().StringVar(&verifyToken, "token", "", "Verification token (required)")
	verifyCmd.Flags().BoolVar(&verifyJSON, "json", false, "Print the result as JSON")
	_ = verifyCmd.MarkFlagRequired("token")

	issueTokenCmd.Flags().StringVar(&issueTokenID, "id", "", "Achievement ID (required)")
	_ = issueTokenCmd.MarkFlagRequired("id")

	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(issueTokenCmd)
}

func runVerify(cmd *cobra.Command, _ []string) error {
	jwtCfg, err := config.NewJWTConfig()
	if err != nil {
		return err
	}

	result := verification.NewService(jwtCfg).Verify(verifyToken)
	if verifyJSON {
		if err := writeJSON(cmd.OutOrStdout(), result); err != nil {
			return err
		}
	} else {
		observability.NewPrinter(cmd.OutOrStdout()).PrintVerification(result)
	}

	if !result.Valid {
		return fmt.Errorf("token is invalid: %s", result.Reason)
	}
	return nil
}

func runIssueToken(cmd *cobra.Command, _ []string) error {
	id, err := uuid.Parse(issueTokenID)
	if err != nil {
		return fmt.Errorf("invalid --id: %w", err)
	}
	jwtCfg, err := config.NewJWTConfig()
	if err != nil {
		return err
	}

	ctx := context.Background()
	database, err := openDatabase(ctx)
	if err != nil {
		return err
	}
	defer database.Close()

	rec, err := database.GetAchievement(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load achievement: %w", err)
	}
	if rec == nil {
		return fmt.Errorf("achievement not found: %s", id)
	}

	token, err := verification.NewService(jwtCfg).IssueToken(rec)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
