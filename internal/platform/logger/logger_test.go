package logger

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_WritesToWriter(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{App: "test", Writer: &buf})

	log.Info("hello", "key", "value")

	out := buf.String()
	assert.Contains(t, out, "hello")
	assert.Contains(t, out, "app=test")
	assert.Contains(t, out, "key=value")
}

func TestNew_ConsoleLevelFiltersRecords(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{App: "test", Writer: &buf, ConsoleLevel: "error"})

	log.Info("quiet")
	log.Error("loud")

	out := buf.String()
	assert.NotContains(t, out, "quiet")
	assert.Contains(t, out, "loud")
}

func TestNew_RedactsSensitiveAttrs(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{App: "test", Writer: &buf})

	log.Info("opening", "dsn", "file:/srv/app.db?secretparam=1", "path", "/srv/app.db")

	out := buf.String()
	assert.NotContains(t, out, "secretparam")
	assert.Contains(t, out, "[REDACTED]")
	assert.Contains(t, out, "/srv/app.db", "non-sensitive attrs pass through")
}

func TestNew_FileHandler(t *testing.T) {
	var buf bytes.Buffer
	file := filepath.Join(t.TempDir(), "app.log")
	log := New(Options{App: "test", Writer: &buf, File: file})

	log.Info("to both sinks", "password", "hunter2")
	require.NoError(t, Close(log))

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), "to both sinks")
	assert.Contains(t, string(data), "[REDACTED]")
	assert.NotContains(t, string(data), "hunter2")

	assert.Contains(t, buf.String(), "to both sinks")
}

func TestClose_WithoutFileIsNoop(t *testing.T) {
	log := New(Options{App: "test", Writer: &bytes.Buffer{}})
	assert.NoError(t, Close(log))
	assert.NoError(t, Close(log), "repeat close stays safe")
}

func TestLevelFromString(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"WARN", slog.LevelWarn},
		{"Error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, levelFromString(tt.in), tt.in)
	}
}

func TestRedactingHandler_WithAttrs(t *testing.T) {
	var buf bytes.Buffer
	inner := slog.NewTextHandler(&buf, nil)
	h := NewRedactingHandler(inner, []string{"secret"})

	log := slog.New(h).With("secret", "s3cr3t", "plain", "ok")
	log.Info("msg")

	out := buf.String()
	assert.NotContains(t, out, "s3cr3t")
	assert.Contains(t, out, "[REDACTED]")
	assert.Contains(t, out, "plain=ok")
}

func TestMultiHandler(t *testing.T) {
	var a, b bytes.Buffer
	ha := slog.NewTextHandler(&a, &slog.HandlerOptions{Level: slog.LevelDebug})
	hb := slog.NewTextHandler(&b, &slog.HandlerOptions{Level: slog.LevelError})
	h := NewMultiHandler(ha, hb)

	require.True(t, h.Enabled(context.Background(), slog.LevelDebug))

	log := slog.New(h)
	log.Debug("debug only")
	log.Error("everywhere")

	assert.Contains(t, a.String(), "debug only")
	assert.Contains(t, a.String(), "everywhere")
	assert.NotContains(t, b.String(), "debug only")
	assert.Contains(t, b.String(), "everywhere")
}
