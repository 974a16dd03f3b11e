// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "roadmap-health",
	Short: "A CLI tool to monitor roadmap health across repositories.",
	Long: `roadmap-health aggregates open pull requests, open issues and recent commits
from GitHub (and optionally a Jira project), derives health metrics (feature
completion, blockers, commit velocity) and renders them as a JSON report or an
interactive terminal dashboard.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	// Add a persistent flag for verbose output, available to all commands.
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose/debug logging")
	rootCmd.PersistentFlags().StringP("config", "c", "config.yaml", "Path to the YAML config file")
}
