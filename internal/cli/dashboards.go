package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/charmbracelet/huh"
	"github.com/samber/lo"

	"github.com/rileyhilliard/viewui/internal/config"
	"github.com/rileyhilliard/viewui/internal/errors"
	"github.com/rileyhilliard/viewui/internal/grafana"
	"github.com/rileyhilliard/viewui/internal/tui"
)

// dashboardsCommand lists the dashboard directory, or picks one and opens
// it in the TUI.
func dashboardsCommand(ctx context.Context, dir string, pick bool, out io.Writer) error {
	a, err := newApp(appOptions{quiet: pick})
	if err != nil {
		return err
	}
	defer a.Close()

	if dir == "" {
		dir = a.cfg.Dashboard.Directory
	}
	dir = config.ExpandPath(dir)
	files, err := listDashboards(dir)
	if err != nil {
		return err
	}

	current := config.ExpandPath(a.cfg.Dashboard.Path)
	if !pick {
		tui.WriteDashboardList(out, files, current)
		return nil
	}

	path, err := pickDashboard(files, current)
	if err != nil || path == "" {
		return err
	}
	a.cfg.Dashboard.Directory = dir
	return a.runTUI(ctx, path)
}

// listDashboards scans dir and fails when it holds no dashboards.
func listDashboards(dir string) ([]grafana.DashboardFile, error) {
	if dir == "" {
		return nil, errors.New(errors.ErrConfig,
			"No dashboard directory configured",
			"Set dashboard.directory in viewui.yaml or pass --dir")
	}
	files, err := grafana.ScanDashboards(dir)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrDashboard,
			"Cannot read dashboard directory "+dir,
			"Check the directory exists and is readable")
	}
	if len(files) == 0 {
		return nil, errors.New(errors.ErrDashboard,
			"No dashboards found in "+dir,
			"Export a dashboard from Grafana as JSON and save it there")
	}
	return files, nil
}

// pickDashboard asks which dashboard to open. An aborted prompt returns an
// empty path and no error.
func pickDashboard(files []grafana.DashboardFile, current string) (string, error) {
	options := lo.Map(files, func(f grafana.DashboardFile, _ int) huh.Option[string] {
		return huh.NewOption(fmt.Sprintf("%s (%s)", f.Title, filepath.Base(f.Path)), f.Path)
	})

	selected := current
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Open dashboard").
				Options(options...).
				Value(&selected),
		),
	)
	if err := form.Run(); err != nil {
		if stderrors.Is(err, huh.ErrUserAborted) {
			return "", nil
		}
		return "", errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to get user input",
			"Pass the dashboard file to 'viewui' directly")
	}
	return selected, nil
}
