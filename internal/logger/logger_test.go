package logger

import (
	"bytes"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Levels(t *testing.T) {
	tests := []struct {
		name      string
		level     string
		debugEnv  string
		expectDbg bool
		expectInf bool
	}{
		{name: "info hides debug", level: "info", expectInf: true},
		{name: "debug shows everything", level: "debug", expectDbg: true, expectInf: true},
		{name: "warn hides info", level: "warn"},
		{name: "env forces debug", level: "warn", debugEnv: "1", expectDbg: true, expectInf: true},
		{name: "empty defaults to info", level: "", expectInf: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(DebugEnv, tt.debugEnv)

			var buf bytes.Buffer
			l, err := New(Options{Level: tt.level, Output: &buf, NoColor: true})
			require.NoError(t, err)

			l.Debug("debug %s", "line")
			l.Info("info %s", "line")

			assert.Equal(t, tt.expectDbg, bytes.Contains(buf.Bytes(), []byte("debug line")))
			assert.Equal(t, tt.expectInf, bytes.Contains(buf.Bytes(), []byte("info line")))
		})
	}
}

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New(Options{Level: "loud"})
	assert.Error(t, err)
}

func TestNew_ComponentJSON(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Options{Output: &buf, Component: "store", JSON: true})
	require.NoError(t, err)

	l.Warn("refresh skipped")

	out := buf.String()
	assert.Contains(t, out, `"component":"store"`)
	assert.Contains(t, out, `"level":"warn"`)
	assert.Contains(t, out, `"message":"refresh skipped"`)
}

func TestFromZerolog(t *testing.T) {
	var buf bytes.Buffer
	l := FromZerolog(zerolog.New(&buf))

	l.Error("failed %d", 3)
	assert.Contains(t, buf.String(), "failed 3")
}

func TestNoop(t *testing.T) {
	l := Noop()
	assert.NotPanics(t, func() {
		l.Debug("x")
		l.Info("x")
		l.Warn("x")
		l.Error("x")
	})
}

func TestBufferLogger(t *testing.T) {
	l := NewBufferLogger()

	l.Info("loaded %d panels", 4)
	l.Warn("variable %q failed", "job")

	msgs := l.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, LogMessage{Level: "info", Message: "loaded 4 panels"}, msgs[0])
	assert.True(t, l.HasLevel("warn"))
	assert.False(t, l.HasLevel("error"))
	assert.True(t, l.Contains("warn", `"job"`))
	assert.False(t, l.Contains("info", `"job"`))

	l.Clear()
	assert.Empty(t, l.Messages())
}

func TestBufferLogger_Concurrent(t *testing.T) {
	l := NewBufferLogger()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			l.Debug("msg %d", n)
		}(i)
	}
	wg.Wait()

	assert.Len(t, l.Messages(), 20)
}

func TestDefault(t *testing.T) {
	orig := Default()
	t.Cleanup(func() { SetDefault(orig) })

	buf := NewBufferLogger()
	SetDefault(buf)
	Default().Info("hello")

	assert.True(t, buf.HasLevel("info"))
}
