// Package logger_test contains tests for the logger package
package logger_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/phrazzld/scry-scheduler/internal/config"
	"github.com/phrazzld/scry-scheduler/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func restoreDefault(t *testing.T) {
	t.Helper()
	original := slog.Default()
	t.Cleanup(func() { slog.SetDefault(original) })
}

// TestSetupWithWriter checks level filtering and that the logger becomes the default.
func TestSetupWithWriter(t *testing.T) {
	testCases := []struct {
		level        string
		debugEnabled bool
		infoEnabled  bool
		warnEnabled  bool
	}{
		{level: "debug", debugEnabled: true, infoEnabled: true, warnEnabled: true},
		{level: "info", infoEnabled: true, warnEnabled: true},
		{level: "WARN", warnEnabled: true},
		{level: "error"},
		{level: "invalid_level", infoEnabled: true, warnEnabled: true},
	}

	for _, tc := range testCases {
		t.Run(tc.level, func(t *testing.T) {
			restoreDefault(t)
			buf := &logger.TestLogBuffer{}

			l, err := logger.SetupWithWriter(config.ServerConfig{LogLevel: tc.level, Port: 8080}, buf)
			require.NoError(t, err)
			require.NotNil(t, l)
			assert.Same(t, l, slog.Default())

			ctx := context.Background()
			assert.Equal(t, tc.debugEnabled, l.Enabled(ctx, slog.LevelDebug))
			assert.Equal(t, tc.infoEnabled, l.Enabled(ctx, slog.LevelInfo))
			assert.Equal(t, tc.warnEnabled, l.Enabled(ctx, slog.LevelWarn))
			assert.True(t, l.Enabled(ctx, slog.LevelError))
		})
	}
}

func TestSetupWithWriter_WritesJSON(t *testing.T) {
	restoreDefault(t)
	buf := &logger.TestLogBuffer{}

	l, err := logger.SetupWithWriter(config.ServerConfig{LogLevel: "info", Port: 8080}, buf)
	require.NoError(t, err)

	l.Info("review recorded", slog.String("item_id", "abc"))
	l.Debug("filtered out")

	entries, err := buf.GetLogEntries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "review recorded", entries[0]["msg"])
	assert.Equal(t, "INFO", entries[0]["level"])
	logger.AssertLogField(t, buf, "item_id", "abc")
}

func TestParseLevel(t *testing.T) {
	t.Parallel() // Enable parallel execution

	level, ok := logger.ParseLevel("Debug")
	assert.True(t, ok)
	assert.Equal(t, slog.LevelDebug, level)

	level, ok = logger.ParseLevel("fatal")
	assert.False(t, ok)
	assert.Equal(t, slog.LevelInfo, level)
}

func TestContextHelpers(t *testing.T) {
	t.Parallel() // Enable parallel execution

	l, buf := logger.GetTestLogger(t)
	fallback := slog.New(slog.NewJSONHandler(&logger.TestLogBuffer{}, nil))

	t.Run("missing logger uses fallback", func(t *testing.T) {
		assert.Same(t, fallback, logger.FromContextOrDefault(context.Background(), fallback))
	})

	t.Run("nil fallback uses default", func(t *testing.T) {
		assert.NotNil(t, logger.FromContextOrDefault(context.Background(), nil))
		assert.NotNil(t, logger.FromContext(context.Background()))
	})

	t.Run("stored logger wins", func(t *testing.T) {
		ctx := logger.WithLogger(context.Background(), l)
		assert.Same(t, l, logger.FromContextOrDefault(ctx, fallback))
		assert.Same(t, l, logger.FromContext(ctx))
	})

	t.Run("request id is attached", func(t *testing.T) {
		ctx := logger.WithLogger(context.Background(), l)
		ctx = logger.WithRequestID(ctx, "req-42")
		assert.Equal(t, "req-42", logger.RequestID(ctx))

		logger.FromContext(ctx).Info("with request id")
		logger.AssertLogField(t, buf, "request_id", "req-42")
	})
}

func TestLogCaptureContext(t *testing.T) {
	t.Parallel() // Enable parallel execution

	capture := logger.NewLogCaptureContext(t)

	logger.FromContext(capture.Context).Warn("captured", slog.Int("count", 3))

	logger.AssertLogContains(t, capture.Buffer, "captured")
	logger.AssertLogField(t, capture.Buffer, "count", float64(3))

	out := logger.CaptureLogs(t, func(l *slog.Logger) {
		l.Error("boom")
	})
	entry, err := logger.ParseLogEntry(out)
	require.NoError(t, err)
	assert.Equal(t, "boom", entry["msg"])
}
