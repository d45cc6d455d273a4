package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/rileyhilliard/viewui/internal/errors"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "http://localhost:9090", cfg.Prometheus.URL)
	assert.Equal(t, 10*time.Second, cfg.Prometheus.Timeout)
	assert.Empty(t, cfg.Prometheus.Username)
	assert.Equal(t, "./dashboards/example.json", cfg.Dashboard.Path)
	assert.Equal(t, "./dashboards", cfg.Dashboard.Directory)
	assert.Equal(t, 5*time.Second, cfg.RefreshInterval)
	assert.Equal(t, "5m", cfg.TimeRange)
	assert.Equal(t, 60, cfg.HistorySize)
	assert.Equal(t, 4, cfg.Concurrency)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.NoError(t, Validate(cfg))
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "viewui.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
prometheus:
  url: https://prom.example.com/
  timeout: 30s
  username: admin
  password: secret
dashboard:
  path: /srv/dash/node.json
refresh_interval: 1m
time_range: 1h
history_size: 120
concurrency: 8
log:
  level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://prom.example.com/", cfg.Prometheus.URL)
	assert.Equal(t, 30*time.Second, cfg.Prometheus.Timeout)
	assert.Equal(t, "admin", cfg.Prometheus.Username)
	assert.Equal(t, "secret", cfg.Prometheus.Password)
	assert.Equal(t, "/srv/dash/node.json", cfg.Dashboard.Path)
	assert.Equal(t, "./dashboards", cfg.Dashboard.Directory, "unset keys keep defaults")
	assert.Equal(t, time.Minute, cfg.RefreshInterval)
	assert.Equal(t, "1h", cfg.TimeRange)
	assert.Equal(t, 120, cfg.HistorySize)
	assert.Equal(t, 8, cfg.Concurrency)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_Durations(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  time.Duration
	}{
		{"go syntax", "1m30s", 90 * time.Second},
		{"days", "1d", 24 * time.Hour},
		{"weeks", "1w", 7 * 24 * time.Hour},
		{"milliseconds", "1500ms", 1500 * time.Millisecond},
		{"bare seconds", "15", 15 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeConfig(t, "refresh_interval: "+tt.value+"\n"))
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.RefreshInterval)
		})
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	_, err := Load(writeConfig(t, "prometheus:\n  timeout: soon\n"))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrConfig))
	assert.Contains(t, err.Error(), "Invalid config format")
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("VIEWUI_PROMETHEUS_URL", "http://env-prom:9090")
	t.Setenv("VIEWUI_TIME_RANGE", "15m")
	t.Setenv("VIEWUI_REFRESH_INTERVAL", "10s")

	cfg, err := Load(writeConfig(t, "time_range: 1h\n"))
	require.NoError(t, err)

	assert.Equal(t, "http://env-prom:9090", cfg.Prometheus.URL)
	assert.Equal(t, "15m", cfg.TimeRange, "environment beats the file")
	assert.Equal(t, 10*time.Second, cfg.RefreshInterval)
}

func TestLoad_NoFileGivesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Prometheus.URL, cfg.Prometheus.URL)
	assert.Equal(t, DefaultConfig().RefreshInterval, cfg.RefreshInterval)
}

func TestLoadNotFound(t *testing.T) {
	_, err := Load("/nonexistent/path/viewui.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Config file not found")
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "prometheus: [unclosed\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Failed to read config file")
}

func TestLoad_ExpandsPaths(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	t.Setenv("DASH_ROOT", "/opt/dash")

	cfg, err := Load(writeConfig(t, "dashboard:\n  path: ~/dash/node.json\n  directory: $DASH_ROOT/all\n"))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "dash", "node.json"), cfg.Dashboard.Path)
	assert.Equal(t, "/opt/dash/all", cfg.Dashboard.Directory)
}

func TestFind(t *testing.T) {
	t.Run("explicit path exists", func(t *testing.T) {
		path := writeConfig(t, "time_range: 5m\n")
		got, err := Find(path)
		require.NoError(t, err)
		assert.Equal(t, path, got)
	})

	t.Run("explicit path not found", func(t *testing.T) {
		_, err := Find("/nonexistent/config.yaml")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Specified config file not found")
	})

	t.Run("current directory", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte("{}"), 0644))
		testChdir(t, dir)
		t.Setenv("XDG_CONFIG_HOME", t.TempDir())

		got, err := Find("")
		require.NoError(t, err)
		assert.Equal(t, ConfigFileName, got)
	})

	t.Run("xdg config home", func(t *testing.T) {
		testChdir(t, t.TempDir())
		xdg := t.TempDir()
		t.Setenv("XDG_CONFIG_HOME", xdg)
		path := filepath.Join(xdg, GlobalConfigDir, GlobalConfigFile)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte("{}"), 0644))

		got, err := Find("")
		require.NoError(t, err)
		assert.Equal(t, path, got)
	})

	t.Run("nothing found", func(t *testing.T) {
		testChdir(t, t.TempDir())
		t.Setenv("XDG_CONFIG_HOME", t.TempDir())
		t.Setenv("HOME", t.TempDir())

		got, err := Find("")
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestLoadOrDefault(t *testing.T) {
	testChdir(t, t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, path, err := LoadOrDefault("")
	require.NoError(t, err)
	assert.Empty(t, path)
	assert.Equal(t, DefaultConfig().TimeRange, cfg.TimeRange)

	explicit := writeConfig(t, "time_range: 2h\n")
	cfg, path, err = LoadOrDefault(explicit)
	require.NoError(t, err)
	assert.Equal(t, explicit, path)
	assert.Equal(t, "2h", cfg.TimeRange)
}

func TestWriteExample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "viewui.yaml")

	require.NoError(t, WriteExample(path, false))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# Prometheus-compatible backend")
	assert.Contains(t, string(data), "timeout: 10s")
	assert.Contains(t, string(data), "refresh_interval: 5s")
	assert.Contains(t, string(data), "time_range: 5m")

	var raw map[string]any
	require.NoError(t, yaml.Unmarshal(data, &raw))
	assert.Contains(t, raw, "prometheus")

	// The example round-trips to the defaults.
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	err = WriteExample(path, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	assert.NoError(t, WriteExample(path, true))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "5s", formatDuration(5*time.Second))
	assert.Equal(t, "5m", formatDuration(5*time.Minute))
	assert.Equal(t, "1h", formatDuration(time.Hour))
	assert.Equal(t, "1h30m", formatDuration(90*time.Minute))
	assert.Equal(t, "1m30s", formatDuration(90*time.Second))
}

func TestConversions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Prometheus.Username = "u"
	cfg.Prometheus.Password = "p"

	cc := cfg.ClientConfig()
	assert.Equal(t, cfg.Prometheus.URL, cc.URL)
	assert.Equal(t, "u", cc.Username)
	assert.Equal(t, "p", cc.Password)
	assert.Equal(t, 10*time.Second, cc.Timeout)

	sc := cfg.StoreConfig()
	assert.Equal(t, "5m", sc.TimeRange)
	assert.Equal(t, 5*time.Second, sc.RefreshInterval)
	assert.Equal(t, 60, sc.HistorySize)
	assert.Equal(t, 4, sc.Concurrency)
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, "", ExpandPath(""))
	assert.Equal(t, home, ExpandPath("~"))
	assert.Equal(t, filepath.Join(home, "x.json"), ExpandPath("~/x.json"))
	assert.Equal(t, "./rel.json", ExpandPath("./rel.json"))
	assert.Equal(t, "~other/x", ExpandPath("~other/x"))
}

// testChdir stands in for testing.T.Chdir (Go 1.24+): it changes the
// working directory and restores it when the test finishes.
func testChdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		if err := os.Chdir(wd); err != nil {
			t.Fatalf("restore working directory: %v", err)
		}
	})
}
