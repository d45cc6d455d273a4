// Command fakeprom serves a Prometheus-compatible API backed by synthetic
// node and web service metrics, for trying viewui without a real server.
package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rileyhilliard/viewui/internal/logger"
	"github.com/rileyhilliard/viewui/internal/prometheus/promtest"
)

var (
	addrFlag    string
	verboseFlag bool
)

var rootCmd = &cobra.Command{
	Use:   "fakeprom",
	Short: "Serve synthetic metrics over the Prometheus HTTP API",
	Long: `Serve the query, query_range, label values, series and buildinfo
endpoints with a fixed set of generated metrics: CPU, memory, load and
filesystem gauges for a node, plus request counters for a web service.

Examples:
  fakeprom
  fakeprom --addr :9099
  VIEWUI_PROMETHEUS_URL=http://localhost:9099 viewui dashboards/node.json`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context(), addrFlag)
	},
}

func init() {
	rootCmd.Flags().StringVar(&addrFlag, "addr", ":9099", "listen address")
	rootCmd.Flags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable debug logging")
}

func serve(ctx context.Context, addr string) error {
	level := "info"
	if verboseFlag {
		level = "debug"
	}
	log, err := logger.New(logger.Options{Level: level, Component: "fakeprom"})
	if err != nil {
		return err
	}

	metrics := promtest.DemoMetrics()
	srv := &http.Server{
		Addr:              addr,
		Handler:           promtest.NewBackend(metrics...),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("serving %d synthetic series on %s", len(metrics), addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("listen on %s: %w", addr, err)
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "✗ %s\n", err)
		os.Exit(1)
	}
}
