package oteladapters_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/log/noop"

	"github.com/datdd/library-management-system/storage/oteladapters"
)

func Test_NewSlogBridgeLogger_Construction(t *testing.T) {
	logger := oteladapters.NewSlogBridgeLogger("test")
	assert.NotNil(t, logger)
}

func Test_SlogBridgeLogger_AllLevels(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	logger := oteladapters.NewSlogBridgeLoggerWithHandler(handler)

	logger.Debug("debug message", "level", "debug")
	logger.Info("info message", "level", "info")
	logger.Warn("warn message", "level", "warn")
	logger.Error("error message", "level", "error")

	output := buf.String()
	assert.Contains(t, output, "debug message")
	assert.Contains(t, output, "info message")
	assert.Contains(t, output, "warn message")
	assert.Contains(t, output, "error message")
}

func Test_SlogBridgeLogger_ContextVariants(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	logger := oteladapters.NewSlogBridgeLoggerWithHandler(handler)
	ctx := context.Background()

	logger.DebugContext(ctx, "ctx debug")
	logger.InfoContext(ctx, "ctx info")
	logger.WarnContext(ctx, "ctx warn")
	logger.ErrorContext(ctx, "ctx error")

	output := buf.String()
	assert.Contains(t, output, "ctx debug")
	assert.Contains(t, output, "ctx info")
	assert.Contains(t, output, "ctx warn")
	assert.Contains(t, output, "ctx error")
}

func Test_SlogBridgeLogger_WithAttributes(t *testing.T) {
	var buf bytes.Buffer
	logger := oteladapters.NewSlogBridgeLoggerWithHandler(slog.NewJSONHandler(&buf, nil))

	logger.Info("attributed",
		"string_attr", "value1",
		"int_attr", 42,
		"bool_attr", true,
	)

	output := buf.String()
	assert.Contains(t, output, `"string_attr":"value1"`)
	assert.Contains(t, output, `"int_attr":42`)
	assert.Contains(t, output, `"bool_attr":true`)
}

func Test_OTelLogger_DoesNotPanicOnAnyLevel(t *testing.T) {
	provider := noop.NewLoggerProvider()
	logger := oteladapters.NewOTelLogger(provider.Logger("test"))
	ctx := context.Background()

	assert.NotPanics(t, func() {
		logger.Debug("debug", "key", "value")
		logger.Info("info", "key", 7)
		logger.Warn("warn", "odd_args", "value", "dangling")
		logger.Error("error")
		logger.InfoContext(ctx, "ctx info", "key", "value")
	})
}
