// Package main provides the achievement_agent command line tool and REST API server.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	configFile string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "achievement_agent",
	Short: "Achievement evidence extraction and classification",
	Long: "achievement_agent reads student achievement evidence (typed descriptions, certificate images, " +
		"PDFs and credential pages), extracts certificate fields, classifies the achievement and " +
		"suggests points for faculty review.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to JSON config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Print detailed output and debug logs to stderr")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
