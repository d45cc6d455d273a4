package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rileyhilliard/viewui/internal/config"
	"github.com/rileyhilliard/viewui/internal/errors"
)

// Command-specific flags
var (
	snapshotVarsFlag   []string
	snapshotAskFlag    bool
	dashboardsPickFlag bool
	dashboardsDirFlag  string
	checkWaitFlag      string
	initForce          bool
	initPathFlag       string
)

// snapshotCmd refreshes a dashboard once and prints it
var snapshotCmd = &cobra.Command{
	Use:   "snapshot [dashboard.json]",
	Short: "Refresh a dashboard once and print it as tables",
	Long: `Load a dashboard, resolve its variables, run every panel query once and
print the results as plain text tables.

Variables start at their dashboard defaults. Override them with --var,
which is applied in order so dependent variables see earlier values, or
choose them interactively with --ask.

Examples:
  viewui snapshot dashboards/node.json
  viewui snapshot dashboards/node.json --var job=node --var instance=web-1:9100
  viewui snapshot --ask`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		vars, err := parseVarFlags(snapshotVarsFlag)
		if err != nil {
			return err
		}
		return snapshotCommand(cmd.Context(), firstArg(args), vars, snapshotAskFlag, cmd.OutOrStdout())
	},
}

// dashboardsCmd lists dashboards in the configured directory
var dashboardsCmd = &cobra.Command{
	Use:   "dashboards",
	Short: "List dashboards in the dashboard directory",
	Long: `List the Grafana dashboard JSON files in dashboard.directory, sorted by
title. The configured default dashboard is marked with *.

With --pick, choose one interactively and open it.

Examples:
  viewui dashboards
  viewui dashboards --dir ./grafana
  viewui dashboards --pick`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return dashboardsCommand(cmd.Context(), dashboardsDirFlag, dashboardsPickFlag, cmd.OutOrStdout())
	},
}

// checkCmd probes the Prometheus backend
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that the Prometheus backend is reachable",
	Long: `Probe prometheus.url and print the backend's build information.

With --wait, keep retrying with backoff until the backend answers or the
duration elapses. Useful in scripts that start Prometheus first.

Examples:
  viewui check
  viewui check --wait 30s`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var wait time.Duration
		if checkWaitFlag != "" {
			parsed, err := config.ParseDuration(checkWaitFlag)
			if err != nil {
				return errors.WrapWithCode(err, errors.ErrConfig,
					fmt.Sprintf("Invalid wait duration: %s", checkWaitFlag),
					"Use a valid duration like 10s, 30s or 2m")
			}
			wait = parsed
		}
		return checkCommand(cmd.Context(), wait, cmd.OutOrStdout())
	},
}

// initCmd writes an example config
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create viewui.yaml configuration",
	Long: `Write a viewui.yaml holding the default settings, with a comment on
every key.

Examples:
  viewui init
  viewui init --path ~/.config/viewui/config.yaml
  viewui init --force`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return initCommand(initPathFlag, initForce, cmd.OutOrStdout())
	},
}

func init() {
	// snapshot command flags
	snapshotCmd.Flags().StringArrayVar(&snapshotVarsFlag, "var", nil, "set a variable (name=value), may be repeated")
	snapshotCmd.Flags().BoolVar(&snapshotAskFlag, "ask", false, "choose variable values interactively")

	// dashboards command flags
	dashboardsCmd.Flags().BoolVar(&dashboardsPickFlag, "pick", false, "pick a dashboard and open it")
	dashboardsCmd.Flags().StringVar(&dashboardsDirFlag, "dir", "", "directory to scan (default: dashboard.directory)")

	// check command flags
	checkCmd.Flags().StringVar(&checkWaitFlag, "wait", "", "retry until healthy for up to this long (e.g., 30s)")

	// init command flags
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "overwrite existing config")
	initCmd.Flags().StringVar(&initPathFlag, "path", "", "where to write the config (default: ./viewui.yaml)")

	// Register all commands
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(dashboardsCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(initCmd)
}
