package log

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelFromEnv(t *testing.T) {
	tests := map[string]slog.Level{
		"":        slog.LevelInfo,
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		" error ": slog.LevelError,
		"verbose": slog.LevelInfo,
	}

	for raw, want := range tests {
		t.Setenv("LOG_LEVEL", raw)
		assert.Equal(t, want, levelFromEnv(), raw)
	}
}

func TestGetLoggerInstanceFromContext(t *testing.T) {
	var buf bytes.Buffer
	fallback := NewLogger(&buf, slog.LevelInfo)

	t.Run("stored logger wins", func(t *testing.T) {
		stored := NewLogger(&bytes.Buffer{}, slog.LevelInfo)
		ctx := context.WithValue(context.Background(), LoggerKeyForContext, stored)

		assert.Same(t, stored, GetLoggerInstanceFromContext(ctx, fallback))
	})

	t.Run("fallback carries correlation id", func(t *testing.T) {
		buf.Reset()
		ctx := context.WithValue(context.Background(), CorrelatedIDKey, "abc-123")

		GetLoggerInstanceFromContext(ctx, fallback).Info("hello")

		var line map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
		assert.Equal(t, "abc-123", line["correlation_id"])
		assert.Equal(t, "hello", line["msg"])
	})

	t.Run("nil context", func(t *testing.T) {
		//nolint:staticcheck
		assert.Same(t, fallback, GetLoggerInstanceFromContext(nil, fallback))
	})
}

func TestGetOrGenerateCorrelationID(t *testing.T) {
	ctx := context.WithValue(context.Background(), CorrelatedIDKey, "fixed")
	assert.Equal(t, "fixed", GetOrGenerateCorrelationID(ctx))

	generated := GetOrGenerateCorrelationID(context.Background())
	assert.Len(t, generated, 36)
	assert.NotEqual(t, generated, GetOrGenerateCorrelationID(context.Background()))
}
