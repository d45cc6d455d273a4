package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rileyhilliard/viewui/internal/errors"
)

// checkCommand probes the backend and prints its build information.
func checkCommand(ctx context.Context, wait time.Duration, out io.Writer) error {
	a, err := newApp(appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	url := a.client.BaseURL()
	if wait > 0 {
		if err := a.client.WaitHealthy(ctx, wait); err != nil {
			return err
		}
	} else if !a.client.HealthCheck(ctx) {
		return errors.New(errors.ErrBackend,
			fmt.Sprintf("Prometheus at %s is not reachable", url),
			"Check prometheus.url, or use --wait to retry while it starts")
	}

	fmt.Fprintf(out, "✓ Prometheus at %s is healthy\n", url)
	if info, err := a.client.BuildInfo(ctx); err == nil && info.Version != "" {
		fmt.Fprintf(out, "  version:  %s\n", info.Version)
		if info.Revision != "" {
			fmt.Fprintf(out, "  revision: %s\n", info.Revision)
		}
		if info.GoVersion != "" {
			fmt.Fprintf(out, "  go:       %s\n", info.GoVersion)
		}
	} else if err != nil {
		a.log.Debug("build info unavailable: %s", errors.Message(err))
	}
	if a.cfgPath != "" {
		fmt.Fprintf(out, "  config:   %s\n", a.cfgPath)
	}
	return nil
}
