package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	testCases := []struct {
		in       string
		expected slog.Level
	}{
		{in: "debug", expected: slog.LevelDebug},
		{in: " WARN ", expected: slog.LevelWarn},
		{in: "warning", expected: slog.LevelWarn},
		{in: "error", expected: slog.LevelError},
		{in: "", expected: slog.LevelInfo},
		{in: "verbose", expected: slog.LevelInfo},
	}

	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.expected, ParseLogLevel(tc.in))
		})
	}
}

func TestContextLogger(t *testing.T) {
	assert.Same(t, slog.Default(), FromContext(context.Background()))

	l := New(io.Discard, "actiond", "v0.0.0", "debug")
	ctx := WithContext(context.Background(), l)
	assert.Same(t, l, FromContext(ctx))
}

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "actiond", "v1.2.3", "warn")

	l.Info("dropped")
	assert.Zero(t, buf.Len())

	l.Warn("kept", "id", "support-menu")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "kept", rec["msg"])
	assert.Equal(t, "actiond", rec["app"])
	assert.Equal(t, "v1.2.3", rec["version"])
	assert.Equal(t, "support-menu", rec["id"])
	assert.NotContains(t, rec, slog.SourceKey)
}
