package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/rileyhilliard/viewui/internal/errors"
	"github.com/rileyhilliard/viewui/internal/store"
	"github.com/rileyhilliard/viewui/internal/tui"
)

// parseVarFlags splits name=value pairs, keeping their order.
func parseVarFlags(flags []string) ([]varAssignment, error) {
	vars := make([]varAssignment, 0, len(flags))
	for _, f := range flags {
		name, value, ok := strings.Cut(f, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, errors.New(errors.ErrConfig,
				fmt.Sprintf("Invalid --var %q", f),
				"Use --var name=value, e.g. --var job=node")
		}
		vars = append(vars, varAssignment{name: name, value: value})
	}
	return vars, nil
}

// snapshotCommand refreshes a dashboard once and prints it.
func snapshotCommand(ctx context.Context, arg string, vars []varAssignment, ask bool, out io.Writer) error {
	a, err := newApp(appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	path, err := a.dashboardPath(arg)
	if err != nil {
		return err
	}

	if !ask {
		return a.snapshot(ctx, path, vars, out)
	}

	if err := a.coord.LoadDashboard(ctx, path); err != nil {
		return err
	}
	if err := askVariables(ctx, a.coord); err != nil {
		return err
	}
	return tui.WriteSnapshot(out, a.coord.Snapshot())
}

// variableSetter is the part of the coordinator askVariables drives.
type variableSetter interface {
	Snapshot() store.State
	SetVariableValue(ctx context.Context, name, value string) error
}

// askVariables prompts for each variable in dashboard order. Options are
// read fresh before every prompt since choosing a value can reload the
// options of the variables after it.
func askVariables(ctx context.Context, c variableSetter) error {
	for _, v := range c.Snapshot().Variables {
		s := c.Snapshot()
		opts := s.VariableOptions[v.Name]
		if len(opts) == 0 {
			continue
		}

		selected := s.VariableValues[v.Name]
		title := v.DisplayName()
		if v.Description != "" {
			title += " - " + v.Description
		}
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewSelect[string]().
					Title(title).
					Options(huh.NewOptions(opts...)...).
					Value(&selected),
			),
		)
		if err := form.RunWithContext(ctx); err != nil {
			if stderrors.Is(err, huh.ErrUserAborted) {
				return errors.New(errors.ErrConfig, "Cancelled", "")
			}
			return errors.WrapWithCode(err, errors.ErrConfig,
				"Failed to get user input",
				"Use --var name=value instead of --ask")
		}

		if selected == s.VariableValues[v.Name] {
			continue
		}
		if err := c.SetVariableValue(ctx, v.Name, selected); err != nil {
			return err
		}
	}
	return nil
}
