package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/rileyhilliard/viewui/internal/errors"
	"github.com/rileyhilliard/viewui/internal/tui"
)

// Global flags
var (
	cfgFile     string
	verbose     bool
	noColor     bool
	rangeFlag   string
	refreshFlag string
)

// rootCmd opens a dashboard in the terminal UI
var rootCmd = &cobra.Command{
	Use:   "viewui [dashboard.json]",
	Short: "Grafana dashboards in your terminal",
	Long: `Render a Grafana dashboard JSON file against a Prometheus backend,
right in the terminal.

Panels refresh on the configured interval. Template variables can be
changed interactively and dependent variables reload their options.

Keyboard shortcuts:
  q / Ctrl+C       Quit
  r                Refresh now
  tab / shift+tab  Select next / previous panel
  enter            Panel details
  esc              Back
  v                Select next variable
  [ / ]            Previous / next value of the selected variable
  t                Cycle time range
  d                Open another dashboard
  ?                Show help

When stdout is not a terminal, viewui refreshes once and prints the
dashboard as text tables instead.

Examples:
  viewui dashboards/node.json
  viewui --config ./viewui.yaml
  viewui dashboards/node.json --range 1h --refresh 30s
  viewui dashboards/node.json | less`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if noColor || os.Getenv("NO_COLOR") != "" {
			lipgloss.SetColorProfile(termenv.Ascii)
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return dashboardCommand(cmd.Context(), firstArg(args), cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./viewui.yaml, then ~/.config/viewui/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().StringVar(&rangeFlag, "range", "", "query time range (e.g., 15m, 6h, 1d), overrides time_range")
	rootCmd.PersistentFlags().StringVar(&refreshFlag, "refresh", "", "refresh interval (e.g., 10s, 1m), overrides refresh_interval")
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprint(os.Stderr, formatError(err))
		os.Exit(1)
	}
}

// formatError renders structured errors as-is and gives cobra's usage
// errors a hint.
func formatError(err error) string {
	var vErr *errors.Error
	if stderrors.As(err, &vErr) {
		return vErr.Error()
	}
	if isUnknownCommandError(err) {
		return fmt.Sprintf("✗ %s\n\n  Run 'viewui --help' to see available commands and flags\n", err)
	}
	return fmt.Sprintf("✗ %s\n", err)
}

// isUnknownCommandError reports whether err came from cobra's argument or
// flag parsing.
func isUnknownCommandError(err error) bool {
	msg := err.Error()
	return strings.HasPrefix(msg, "unknown command") ||
		strings.HasPrefix(msg, "unknown flag") ||
		strings.HasPrefix(msg, "unknown shorthand flag") ||
		strings.HasPrefix(msg, "accepts at most")
}

// dashboardCommand runs the TUI, or prints one snapshot when stdout is not
// a terminal.
func dashboardCommand(ctx context.Context, arg string, out io.Writer) error {
	interactive := isTerminal(os.Stdout) && isTerminal(os.Stdin)

	a, err := newApp(appOptions{quiet: interactive})
	if err != nil {
		return err
	}
	defer a.Close()

	path, err := a.dashboardPath(arg)
	if err != nil {
		return err
	}

	if !interactive {
		a.log.Debug("stdout is not a terminal, printing a snapshot")
		return a.snapshot(ctx, path, nil, out)
	}
	return a.runTUI(ctx, path)
}

// runTUI shows path until the user quits.
func (a *app) runTUI(ctx context.Context, path string) error {
	a.coord.Start()
	defer a.coord.Stop()

	return tui.Run(ctx, a.coord, os.Stdin, os.Stdout,
		tui.WithDirectory(a.cfg.Dashboard.Directory),
		tui.WithInitialDashboard(path))
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
