package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/naka-gawa/roadmap-health/internal/config"
	"github.com/naka-gawa/roadmap-health/internal/gateway"
	"github.com/naka-gawa/roadmap-health/internal/usecase"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Runs one fetch cycle and outputs the health report as JSON",
	Long: `Fetches open PRs, open issues and recent commits for the configured
repositories, derives progress, blockers and velocity, and prints the full report
as pretty-printed JSON on standard output.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		// Get the verbose flag from the root command to set up the logger.
		verbose, _ := cmd.InheritedFlags().GetBool("verbose")
		logger := log.New(io.Discard, "", log.LstdFlags) // Default: discard all logs.
		if verbose {
			logger.SetOutput(os.Stderr) // If verbose, log to standard error.
		}

		configPath, _ := cmd.InheritedFlags().GetString("config")
		cfg, err := config.Load(configPath, os.LookupEnv)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}

		// Flags override the resolved config.
		if org, _ := cmd.Flags().GetString("org"); org != "" {
			cfg.GitHub.Org = org
		}
		if repos, _ := cmd.Flags().GetStringSlice("repos"); len(repos) > 0 {
			cfg.GitHub.Repos = repos
		}
		if cmd.Flags().Changed("pr-threshold") {
			cfg.Blockers.PRThresholdDays, _ = cmd.Flags().GetInt("pr-threshold")
		}
		if cmd.Flags().Changed("issue-threshold") {
			cfg.Blockers.IssueThresholdDays, _ = cmd.Flags().GetInt("issue-threshold")
		}
		if cmd.Flags().Changed("window") {
			cfg.Velocity.WindowDays, _ = cmd.Flags().GetInt("window")
		}

		// Missing credentials short-circuit before any network call.
		if cfg.GitHub.Token == "" {
			fmt.Fprintln(os.Stderr, "Error: GITHUB_TOKEN environment variable is not set.")
			os.Exit(1)
		}

		// Inject dependencies and run the main business logic.
		githubGateway, err := gateway.NewGitHubGateway(cfg.GitHub.Token, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create GitHub gateway: %v\n", err)
			os.Exit(1)
		}
		var tracker gateway.TrackerFetcher
		if cfg.Tracker.Enabled && cfg.Tracker.URL != "" {
			tracker = gateway.NewJiraGateway(cfg.Tracker.URL, cfg.Tracker.Email, cfg.Tracker.APIToken, logger)
		}
		aggregator := usecase.NewAggregator(githubGateway, tracker, logger)

		report, err := aggregator.BuildReport(ctx, usecase.Options{
			Org:                cfg.GitHub.Org,
			Repos:              cfg.GitHub.Repos,
			PRThresholdDays:    cfg.Blockers.PRThresholdDays,
			IssueThresholdDays: cfg.Blockers.IssueThresholdDays,
			VelocityWindowDays: cfg.Velocity.WindowDays,
			TrackerProject:     cfg.Tracker.ProjectKey,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to build report: %v\n", err)
			os.Exit(1)
		}

		// Marshal the results into a pretty-printed JSON string.
		jsonData, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to marshal report to JSON: %v\n", err)
			os.Exit(1)
		}

		// Print the final JSON to standard output.
		fmt.Println(string(jsonData))
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().StringP("org", "o", "", "Target GitHub organization name")
	reportCmd.Flags().StringSliceP("repos", "r", nil, "Explicit owner/repo list (overrides config)")
	reportCmd.Flags().Int("pr-threshold", config.DefaultPRThresholdDays, "PR blocker threshold in days")
	reportCmd.Flags().Int("issue-threshold", config.DefaultIssueThresholdDays, "Unassigned-issue blocker threshold in days")
	reportCmd.Flags().Int("window", config.DefaultVelocityWindowDays, "Velocity trailing window in days")
}
