package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/huh"

	"github.com/rileyhilliard/viewui/internal/config"
	"github.com/rileyhilliard/viewui/internal/errors"
)

// initCommand writes the example config to path. An existing file is only
// replaced with --force or after confirming at a terminal.
func initCommand(path string, force bool, out io.Writer) error {
	if path == "" {
		path = config.ConfigFileName
	}
	path = config.ExpandPath(path)

	if _, err := os.Stat(path); err == nil && !force && isTerminal(os.Stdin) {
		var overwrite bool
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title(fmt.Sprintf("Config file '%s' already exists. Overwrite?", path)).
					Value(&overwrite),
			),
		)
		if err := form.Run(); err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				"Failed to get user input",
				"Try running with --force to overwrite")
		}
		if !overwrite {
			fmt.Fprintln(out, "Cancelled.")
			return nil
		}
		force = true
	}

	if err := config.WriteExample(path, force); err != nil {
		return err
	}

	fmt.Fprintf(out, "✓ Created %s\n\n", path)
	fmt.Fprintln(out, "Next steps:")
	fmt.Fprintln(out, "  1. Set prometheus.url to your Prometheus server")
	fmt.Fprintln(out, "  2. Run 'viewui check' to verify the connection")
	fmt.Fprintln(out, "  3. Run 'viewui <dashboard.json>' to open a dashboard")
	return nil
}
