package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"hrreport/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitializeLogger(t *testing.T) {
	ResetLoggerForTesting()
	defer ResetLoggerForTesting()

	logFile := filepath.Join(t.TempDir(), "logs", "test.log")
	logger, err := InitializeLogger(config.LoggingConfig{
		Level:    "info",
		Format:   "json",
		Output:   "file",
		FilePath: logFile,
	})
	require.NoError(t, err)
	require.NotNil(t, logger)

	logger.Info("test message", "key", "value")
	require.NoError(t, CloseLogFile())

	content, err := os.ReadFile(logFile)
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(content, &entry))
	assert.Equal(t, "test message", entry["msg"])
	assert.Equal(t, "value", entry["key"])
	assert.Equal(t, "INFO", entry["level"])
}

func TestRunIDInjection(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, nil)

	ctx := WithRunID(context.Background(), "run-123")
	logger.InfoContext(ctx, "with run")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "run-123", entry["run_id"])

	buf.Reset()
	WithComponent(logger, "pipeline").InfoContext(context.Background(), "without run")
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "pipeline", entry["component"])
	assert.NotContains(t, buf.String(), "run_id")
}

func TestNewRunContext(t *testing.T) {
	a := RunID(NewRunContext(context.Background()))
	b := RunID(NewRunContext(context.Background()))

	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
	assert.Empty(t, RunID(context.Background()))
}

func TestLogLevels(t *testing.T) {
	tests := []struct {
		level  string
		logged bool
	}{
		{"debug", true},
		{"info", false},
		{"warn", false},
		{"bogus", false},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			ResetLoggerForTesting()
			defer ResetLoggerForTesting()

			logFile := filepath.Join(t.TempDir(), "test.log")
			logger, err := InitializeLogger(config.LoggingConfig{Level: tt.level, Output: "file", FilePath: logFile})
			require.NoError(t, err)

			logger.Debug("debug line")
			require.NoError(t, CloseLogFile())

			content, err := os.ReadFile(logFile)
			require.NoError(t, err)
			assert.Equal(t, tt.logged, strings.Contains(string(content), "debug line"))
		})
	}
}

func TestTraceIDInjection(t *testing.T) {
	tel, err := InitializeTelemetry(config.TelemetryConfig{
		TraceExporter: "file",
		TraceFile:     filepath.Join(t.TempDir(), "traces.json"),
	}, testLogger())
	require.NoError(t, err)
	defer tel.Shutdown(context.Background())

	var buf bytes.Buffer
	logger := NewLogger(&buf, nil)

	ctx, span := tel.StartSpan(context.Background(), "pipeline.step")
	logger.InfoContext(ctx, "inside span")
	span.End()

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, TraceIDFromContext(ctx), entry["trace_id"])
	assert.NotEmpty(t, entry["trace_id"])
}
