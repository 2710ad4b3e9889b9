package logger

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

// TestLogBuffer collects JSON log lines written by concurrent goroutines.
type TestLogBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

// Write implements io.Writer.
func (b *TestLogBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

// String returns everything written so far.
func (b *TestLogBuffer) String() string {
	return string(b.Bytes())
}

// Bytes returns a copy of everything written so far.
func (b *TestLogBuffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return bytes.Clone(b.buf.Bytes())
}

// Reset discards the collected output.
func (b *TestLogBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf.Reset()
}

// GetLogEntries decodes one JSON object per non-empty line.
func (b *TestLogBuffer) GetLogEntries() ([]map[string]any, error) {
	var entries []map[string]any
	sc := bufio.NewScanner(bytes.NewReader(b.Bytes()))
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		var entry map[string]any
		if err := json.Unmarshal(line, &entry); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, sc.Err()
}

// newTestHandlerLogger builds a debug-level JSON logger over buf.
func newTestHandlerLogger(buf io.Writer, opts *slog.HandlerOptions) *slog.Logger {
	if opts == nil {
		opts = &slog.HandlerOptions{Level: slog.LevelDebug}
	}
	return slog.New(slog.NewJSONHandler(buf, opts))
}

// SetupTestLogger installs a buffer-backed logger as slog's default for the
// rest of the test. Tests using it must not run in parallel with others that
// read the default logger.
func SetupTestLogger(t *testing.T, opts *slog.HandlerOptions) (*TestLogBuffer, *slog.Logger) {
	t.Helper()

	buf := &TestLogBuffer{}
	l := newTestHandlerLogger(buf, opts)

	previous := slog.Default()
	slog.SetDefault(l)
	t.Cleanup(func() { slog.SetDefault(previous) })

	return buf, l
}

// GetTestLogger returns a debug-level logger writing to a fresh buffer,
// without touching the default logger.
func GetTestLogger(t *testing.T) (*slog.Logger, *TestLogBuffer) {
	t.Helper()
	buf := &TestLogBuffer{}
	return newTestHandlerLogger(buf, nil), buf
}

// AssertLogContains fails the test unless the output contains content.
func AssertLogContains(t *testing.T, buf *TestLogBuffer, content string) {
	t.Helper()
	if logs := buf.String(); !strings.Contains(logs, content) {
		t.Errorf("expected logs to contain %q\nlogs:\n%s", content, logs)
	}
}

// AssertLogField fails the test unless some entry has field == expected.
// JSON numbers decode as float64.
func AssertLogField(t *testing.T, buf *TestLogBuffer, field string, expected any) {
	t.Helper()

	entries, err := buf.GetLogEntries()
	if err != nil {
		t.Fatalf("failed to parse log entries: %v", err)
	}
	for _, entry := range entries {
		if v, ok := entry[field]; ok && v == expected {
			return
		}
	}
	t.Errorf("no log entry has %s=%v (%d entries)\nlogs:\n%s", field, expected, len(entries), buf.String())
}

// LogCaptureContext is a context whose logger writes into Buffer.
type LogCaptureContext struct {
	Context context.Context
	Logger  *slog.Logger
	Buffer  *TestLogBuffer
}

// NewLogCaptureContext returns a context carrying a capturing logger, for
// code that logs through FromContext.
func NewLogCaptureContext(t *testing.T) *LogCaptureContext {
	t.Helper()
	l, buf := GetTestLogger(t)
	return &LogCaptureContext{
		Context: WithLogger(context.Background(), l),
		Logger:  l,
		Buffer:  buf,
	}
}

// CaptureLogs runs fn with a capturing logger and returns its output.
func CaptureLogs(t *testing.T, fn func(*slog.Logger)) string {
	t.Helper()
	l, buf := GetTestLogger(t)
	fn(l)
	return buf.String()
}

// ParseLogEntry decodes a single JSON log line.
func ParseLogEntry(line string) (map[string]any, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, io.EOF
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		return nil, err
	}
	return entry, nil
}
