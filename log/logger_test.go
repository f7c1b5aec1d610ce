package log

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLogLevel(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Level
	}{
		{"debug level", "debug", LevelDebug},
		{"info level", "info", LevelInfo},
		{"warn level", "warn", LevelWarn},
		{"warning alias", "warning", LevelWarn},
		{"error level", "error", LevelError},
		{"uppercase", "DEBUG", LevelDebug},
		{"mixed case", "WaRn", LevelWarn},
		{"invalid level", "invalid", defaultLevel},
		{"empty string", "", defaultLevel},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expected, LevelFromString(tc.input))
		})
	}
}

func TestSetDefaultLevel(t *testing.T) {
	t.Cleanup(func() { SetDefaultLevel(LevelInfo) })
	SetDefaultLevel(LevelWarn)

	require.Equal(t, LevelWarn, LevelFromString("bogus"))
	require.Equal(t, LevelDebug, LevelFromString("debug"))
}

func TestFormatFromString(t *testing.T) {
	require.Equal(t, FormatJSON, FormatFromString("json"))
	require.Equal(t, FormatJSON, FormatFromString("JSON"))
	require.Equal(t, FormatText, FormatFromString("text"))
	require.Equal(t, FormatText, FormatFromString(""))
}

func TestNullLogger(t *testing.T) {
	logger := NewNullLogger()

	logger.Debug("debug message", "key", "value")
	logger.Info("info message", "key", "value")
	logger.Warn("warn message", "key", "value")
	logger.Error("error message", "key", "value")

	withLogger := logger.With("context", "value")
	require.NotNil(t, withLogger)
	require.IsType(t, &NullLogger{}, withLogger)
}

func TestStructuredLogger(t *testing.T) {
	logger := New(LevelDebug)
	require.NotNil(t, logger)

	logger.Debug("debug message", "key", "value")
	logger.Info("info message", "key", "value")

	withLogger := logger.With("context", "value")
	require.IsType(t, &StructuredLogger{}, withLogger)
}

func TestJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithOptions(Options{Level: LevelInfo, Format: FormatJSON, Output: &buf})

	logger.Debug("hidden")
	logger.With("tenant", "Acme").Info("saga completed", "task_id", "t-1")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "saga completed", entry["msg"])
	require.Equal(t, "Acme", entry["tenant"])
	require.Equal(t, "t-1", entry["task_id"])
	require.Contains(t, entry["caller"], "log/logger_test.go")
}

func TestTextOutputHasNoColorWhenNotATerminal(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithOptions(Options{Level: LevelInfo, Output: &buf})
	logger.Warn("ledger append failed", "row", 3)
	require.Contains(t, buf.String(), "ledger append failed")
	require.NotContains(t, buf.String(), "\x1b[")
}

func TestContextFunctions(t *testing.T) {
	logger := NewNullLogger()

	ctx := WithLogger(context.Background(), logger)
	require.Equal(t, logger, Ctx(ctx))

	emptyLogger := Ctx(context.Background())
	require.IsType(t, &StructuredLogger{}, emptyLogger)
}
