package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rileyhilliard/viewui/internal/config"
	"github.com/rileyhilliard/viewui/internal/errors"
	"github.com/rileyhilliard/viewui/internal/logger"
	"github.com/rileyhilliard/viewui/internal/prometheus"
	"github.com/rileyhilliard/viewui/internal/store"
	"github.com/rileyhilliard/viewui/internal/tui"
)

// app holds what every command needs: config, logger, client and
// coordinator.
type app struct {
	cfg     *config.Config
	cfgPath string
	log     logger.Logger
	client  *prometheus.Client
	coord   *store.Coordinator

	closers []io.Closer
}

type appOptions struct {
	// quiet sends logs to log.file, or nowhere, so they don't tear the TUI.
	quiet bool
	// stderr defaults to os.Stderr.
	stderr io.Writer
}

// newApp loads and validates config and wires the client and coordinator.
func newApp(opts appOptions) (*app, error) {
	cfg, path, err := config.LoadOrDefault(cfgFile)
	if err != nil {
		return nil, err
	}
	if err := applyFlagOverrides(cfg); err != nil {
		return nil, err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, cfgPath: path}
	if err := a.setupLogger(opts); err != nil {
		return nil, err
	}
	if path != "" {
		a.log.Debug("using config %s", path)
	}

	clientCfg := cfg.ClientConfig()
	clientCfg.UserAgent = "viewui/" + version
	a.client = prometheus.NewClient(clientCfg, prometheus.WithLogger(a.log))
	a.coord = store.NewCoordinator(a.client, cfg.StoreConfig(), store.WithLogger(a.log))
	return a, nil
}

// applyFlagOverrides lets --range and --refresh win over the config file.
// Validate runs afterwards, so the usual limits still apply.
func applyFlagOverrides(cfg *config.Config) error {
	if rangeFlag != "" {
		cfg.TimeRange = rangeFlag
	}
	if refreshFlag != "" {
		d, err := config.ParseDuration(refreshFlag)
		if err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				fmt.Sprintf("Invalid refresh interval: %s", refreshFlag),
				"Use a valid duration like 5s, 30s or 1m")
		}
		cfg.RefreshInterval = d
	}
	return nil
}

func (a *app) setupLogger(opts appOptions) error {
	level := a.cfg.Log.Level
	if verbose {
		level = "debug"
	}

	out := opts.stderr
	if out == nil {
		out = os.Stderr
	}
	if opts.quiet {
		out = io.Discard
		if a.cfg.Log.File != "" {
			f, err := os.OpenFile(a.cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err != nil {
				return errors.WrapWithCode(err, errors.ErrConfig,
					"Cannot open log file "+a.cfg.Log.File,
					"Check log.file in your config points to a writable location")
			}
			a.closers = append(a.closers, f)
			out = f
		}
	}

	l, err := logger.New(logger.Options{
		Level:   level,
		Output:  out,
		NoColor: noColor || opts.quiet,
	})
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Invalid log level "+level,
			"Use one of debug, info, warn or error")
	}
	logger.SetDefault(l)
	a.log = l
	return nil
}

// Close releases the log file, if any.
func (a *app) Close() {
	for _, c := range a.closers {
		_ = c.Close()
	}
	a.closers = nil
}

// dashboardPath picks the dashboard from the argument or the config.
func (a *app) dashboardPath(arg string) (string, error) {
	path := arg
	if path == "" {
		path = a.cfg.Dashboard.Path
	}
	if path == "" {
		return "", errors.New(errors.ErrDashboard,
			"No dashboard given",
			"Pass a dashboard file, or set dashboard.path in viewui.yaml")
	}
	return config.ExpandPath(path), nil
}

// varAssignment is one --var name=value flag.
type varAssignment struct {
	name  string
	value string
}

// snapshot loads path, applies vars in order and prints the result.
func (a *app) snapshot(ctx context.Context, path string, vars []varAssignment, out io.Writer) error {
	if err := a.coord.LoadDashboard(ctx, path); err != nil {
		return err
	}
	for _, v := range vars {
		if err := a.coord.SetVariableValue(ctx, v.name, v.value); err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				"Cannot set variable "+v.name,
				"Run 'viewui snapshot' without --var to list the dashboard's variables")
		}
	}
	return tui.WriteSnapshot(out, a.coord.Snapshot())
}
