package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rileyhilliard/viewui/internal/prometheus/promtest"
)

const nodeDashboard = `{
  "title": "Node Overview",
  "templating": {
    "list": [
      {"name": "job", "type": "custom", "query": "node,app", "current": {"value": "node"}}
    ]
  },
  "panels": [
    {
      "id": 1, "title": "Targets Up", "type": "stat",
      "datasource": {"type": "prometheus", "uid": "prom"},
      "targets": [{"expr": "up{job=\"$job\"}", "refId": "A"}],
      "gridPos": {"x": 0, "y": 0, "w": 12, "h": 6}
    },
    {
      "id": 2, "title": "Load", "type": "timeseries",
      "datasource": {"type": "prometheus", "uid": "prom"},
      "targets": [{"expr": "node_load1", "refId": "A", "legendFormat": "{{instance}}"}],
      "gridPos": {"x": 12, "y": 0, "w": 12, "h": 6}
    },
    {
      "id": 3, "title": "All Targets", "type": "table",
      "datasource": {"type": "prometheus", "uid": "prom"},
      "targets": [{"expr": "up", "refId": "A"}],
      "gridPos": {"x": 0, "y": 6, "w": 24, "h": 8}
    }
  ]
}`

// testEnv is a config file pointing at a fake backend, with one dashboard
// in the dashboard directory.
type testEnv struct {
	backend   *promtest.Backend
	url       string
	dir       string
	dashboard string
	config    string
}

func setupTestEnv(t *testing.T) testEnv {
	t.Helper()
	backend, srv := promtest.NewServer(t, promtest.DemoMetrics()...)

	dir := t.TempDir()
	dash := filepath.Join(dir, "node.json")
	require.NoError(t, os.WriteFile(dash, []byte(nodeDashboard), 0o644))

	cfg := filepath.Join(t.TempDir(), "viewui.yaml")
	content := fmt.Sprintf(`prometheus:
  url: %s
  timeout: 5s
dashboard:
  path: %s
  directory: %s
log:
  level: error
`, srv.URL, dash, dir)
	require.NoError(t, os.WriteFile(cfg, []byte(content), 0o644))

	useConfig(t, cfg)
	return testEnv{backend: backend, url: srv.URL, dir: dir, dashboard: dash, config: cfg}
}

// useConfig points the --config flag at path for the duration of the test.
func useConfig(t *testing.T, path string) {
	t.Helper()
	orig := cfgFile
	cfgFile = path
	t.Cleanup(func() { cfgFile = orig })
}

// writeFile writes content to name in a fresh temp dir and returns the path.
func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// testContext stands in for testing.T.Context (Go 1.24+): a context
// canceled when the test finishes.
func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}
