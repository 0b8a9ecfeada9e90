package logging_test

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/arloliu/reflow/internal/logging"
)

func TestSlogLogger(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	logger := logging.NewSlog(slog.New(handler))

	logger.Debug("debug message", "key", "value")
	logger.Info("info message", "count", 3)
	logger.Warn("warn message")
	logger.Error("error message", "error", "boom")

	out := buf.String()
	assert.Contains(t, out, "debug message")
	assert.Contains(t, out, "info message")
	assert.Contains(t, out, "count=3")
	assert.Contains(t, out, "warn message")
	assert.Contains(t, out, "error message")
}

func TestZapLogger(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	logger := logging.NewZap(zap.New(core))

	logger.Debug("flow bound", "queue", "orders")
	logger.Info("message received", "id", 42)
	logger.Warn("iterator error")
	logger.Error("bind failed", "code", 503)

	require.Equal(t, 4, logs.Len())

	entries := logs.All()
	assert.Equal(t, "flow bound", entries[0].Message)
	assert.Equal(t, "orders", entries[0].ContextMap()["queue"])
	assert.Equal(t, int64(42), entries[1].ContextMap()["id"])
	assert.Equal(t, zap.WarnLevel, entries[2].Level)
	assert.Equal(t, zap.ErrorLevel, entries[3].Level)
}

func TestNopLogger(t *testing.T) {
	logger := logging.NewNop()

	// Must be silent and side-effect free, Fatal included.
	logger.Debug("ignored")
	logger.Info("ignored")
	logger.Warn("ignored")
	logger.Error("ignored")
	logger.Fatal("ignored")
}
