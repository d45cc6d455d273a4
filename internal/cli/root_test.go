package cli

import (
	"bytes"
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rileyhilliard/viewui/internal/config"
	"github.com/rileyhilliard/viewui/internal/errors"
)

func TestIsUnknownCommandError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "unknown command error",
			err:  stderrors.New(`unknown command "foo" for "viewui"`),
			want: true,
		},
		{
			name: "unknown flag error",
			err:  stderrors.New(`unknown flag: --foo`),
			want: true,
		},
		{
			name: "too many args",
			err:  stderrors.New(`accepts at most 1 arg(s), received 2`),
			want: true,
		},
		{
			name: "other error",
			err:  stderrors.New("connection failed"),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isUnknownCommandError(tt.err))
		})
	}
}

func TestFormatError(t *testing.T) {
	t.Run("structured error keeps its layout", func(t *testing.T) {
		err := errors.New(errors.ErrConfig, "Bad config", "Fix it")
		assert.Equal(t, err.Error(), formatError(err))
	})

	t.Run("wrapped structured error is found", func(t *testing.T) {
		inner := errors.New(errors.ErrBackend, "Backend down", "")
		got := formatError(wrapped{inner})
		assert.Contains(t, got, "✗ Backend down")
	})

	t.Run("usage errors get a hint", func(t *testing.T) {
		got := formatError(stderrors.New("unknown flag: --nope"))
		assert.Contains(t, got, "✗ unknown flag: --nope")
		assert.Contains(t, got, "viewui --help")
	})

	t.Run("plain errors", func(t *testing.T) {
		assert.Equal(t, "✗ boom\n", formatError(stderrors.New("boom")))
	})
}

type wrapped struct{ err error }

func (w wrapped) Error() string { return "wrapped: " + w.err.Error() }
func (w wrapped) Unwrap() error { return w.err }

func TestFirstArg(t *testing.T) {
	assert.Equal(t, "", firstArg(nil))
	assert.Equal(t, "a.json", firstArg([]string{"a.json"}))
}

func TestDashboardPath(t *testing.T) {
	a := &app{cfg: config.DefaultConfig()}
	a.cfg.Dashboard.Path = "/dash/default.json"

	got, err := a.dashboardPath("")
	require.NoError(t, err)
	assert.Equal(t, "/dash/default.json", got)

	got, err = a.dashboardPath("/dash/other.json")
	require.NoError(t, err)
	assert.Equal(t, "/dash/other.json", got)

	a.cfg.Dashboard.Path = ""
	_, err = a.dashboardPath("")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrDashboard))
}

func TestRootCommand_PrintsSnapshotWhenNotATerminal(t *testing.T) {
	env := setupTestEnv(t)

	var out bytes.Buffer
	err := dashboardCommand(testContext(t), env.dashboard, &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Node Overview")
	assert.Contains(t, out.String(), "## Targets Up (stat)")
}

func TestNewApp_InvalidConfig(t *testing.T) {
	path := writeFile(t, "viewui.yaml", "refresh_interval: 10ms\n")
	useConfig(t, path)

	_, err := newApp(appOptions{})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrConfig))
}

func TestNewApp_LogFileWhenQuiet(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "viewui.log")
	path := writeFile(t, "viewui.yaml", "log:\n  level: debug\n  file: "+logPath+"\n")
	useConfig(t, path)

	a, err := newApp(appOptions{quiet: true})
	require.NoError(t, err)
	a.log.Info("hello from the test")
	a.Close()

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello from the test")
}

func TestApplyFlagOverrides(t *testing.T) {
	t.Cleanup(func() { rangeFlag, refreshFlag = "", "" })

	cfg := config.DefaultConfig()
	rangeFlag, refreshFlag = "1h", "30s"
	require.NoError(t, applyFlagOverrides(cfg))
	assert.Equal(t, "1h", cfg.TimeRange)
	assert.Equal(t, 30*time.Second, cfg.RefreshInterval)

	refreshFlag = "soon"
	err := applyFlagOverrides(cfg)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrConfig))
}

func TestNewApp_RangeFlagIsValidated(t *testing.T) {
	setupTestEnv(t)
	rangeFlag = "5 minutes"
	t.Cleanup(func() { rangeFlag = "" })

	_, err := newApp(appOptions{})
	require.Error(t, err)
	assert.Contains(t, errors.Message(err), "time_range")
}
