package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorCodes(t *testing.T) {
	codes := []string{
		ErrConfig,
		ErrDashboard,
		ErrQuery,
		ErrPanel,
		ErrBackend,
	}

	seen := make(map[string]bool)
	for _, code := range codes {
		assert.NotEmpty(t, code)
		assert.False(t, seen[code], "error code %q should be unique", code)
		seen[code] = true
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name       string
		code       string
		message    string
		suggestion string
	}{
		{
			name:       "config error",
			code:       ErrConfig,
			message:    "Invalid configuration in viewui.yaml",
			suggestion: "Check your configuration file syntax",
		},
		{
			name:       "dashboard error",
			code:       ErrDashboard,
			message:    "invalid dashboard JSON: missing panels array",
			suggestion: "Export the dashboard again from Grafana",
		},
		{
			name:    "backend error without suggestion",
			code:    ErrBackend,
			message: "Prometheus is not reachable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code, tt.message, tt.suggestion)

			require.NotNil(t, err)
			assert.Equal(t, tt.code, err.Code)
			assert.Equal(t, tt.message, err.Message)
			assert.Equal(t, tt.suggestion, err.Suggestion)
			assert.Nil(t, err.Cause)
		})
	}
}

func TestErrorFormatting(t *testing.T) {
	cause := fmt.Errorf("dial tcp 127.0.0.1:9090: connection refused")
	err := WrapWithCode(cause, ErrBackend, "Prometheus is not reachable", "Check prometheus.url in your config")

	out := err.Error()
	assert.True(t, strings.HasPrefix(out, "✗ Prometheus is not reachable\n"))
	assert.Contains(t, out, "\n  dial tcp 127.0.0.1:9090: connection refused\n")
	assert.Contains(t, out, "\n  Check prometheus.url in your config\n")

	assert.Equal(t, "Prometheus is not reachable: dial tcp 127.0.0.1:9090: connection refused", err.Short())
}

func TestWrapDefaultsToDashboardCode(t *testing.T) {
	err := Wrap(errors.New("boom"), "failed to load dashboard")

	assert.Equal(t, ErrDashboard, err.Code)
	assert.True(t, IsCode(err, ErrDashboard))
}

func TestIsCodeAndUnwrap(t *testing.T) {
	base := errors.New("root cause")
	err := WrapWithCode(base, ErrPanel, "panel fetch failed", "")
	wrapped := fmt.Errorf("refresh: %w", err)

	assert.True(t, IsCode(wrapped, ErrPanel))
	assert.False(t, IsCode(wrapped, ErrQuery))
	assert.False(t, IsCode(nil, ErrPanel))
	assert.False(t, IsCode(base, ErrPanel))
	assert.ErrorIs(t, wrapped, base)
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "", Message(nil))
	assert.Equal(t, "plain", Message(errors.New("plain")))
	assert.Equal(t, "bad config", Message(Newf(ErrConfig, "bad %s", "config")))
}
