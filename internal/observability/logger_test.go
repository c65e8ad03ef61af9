package observability

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(buf *bytes.Buffer, redactor *Redactor) *slog.Logger {
	return NewLogger(LoggerConfig{Level: slog.LevelDebug, Output: buf, JSONFormat: true}, redactor)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel(" WARN "))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
}

func TestNewLogger_RedactsMessageAndAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf, NewRedactor())

	key := "gsk_" + strings.Repeat("A1b2", 10)
	logger.Info("using key "+key,
		"auth", "Bearer "+key,
		"err", errors.New("upstream said "+key),
		"count", 3,
	)

	out := buf.String()
	assert.NotContains(t, out, key)
	assert.Contains(t, out, "[REDACTED_GROQ_KEY]")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, float64(3), rec["count"])
	assert.Equal(t, "Bearer [REDACTED]", rec["auth"])
}

func TestNewLogger_KeepsIdentifiers(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf, NewRedactor())

	id := "123e4567-e89b-12d3-a456-426614174000"
	logger.Info("call", "upstream_id", id)

	assert.Contains(t, buf.String(), id)
}

func TestNewLogger_RedactsWithAttrsAndGroups(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf, NewRedactor())

	logger.With("owner", "jane@example.com").
		Info("doc", slog.Group("fields", slog.String("email", "john@example.com")))

	out := buf.String()
	assert.NotContains(t, out, "jane@example.com")
	assert.NotContains(t, out, "john@example.com")
	assert.Equal(t, 2, strings.Count(out, "[REDACTED_EMAIL]"))
}

func TestNewLogger_NilRedactor(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf, nil)

	logger.Info("plain", "email", "jane@example.com")
	assert.Contains(t, buf.String(), "jane@example.com")
}

func TestNewLogger_AddSecret(t *testing.T) {
	var buf bytes.Buffer
	r := NewRedactor()
	r.AddSecret("not-a-known-format", "credential")
	logger := newTestLogger(&buf, r)

	logger.Warn("value is not-a-known-format")
	assert.NotContains(t, buf.String(), "not-a-known-format")
}

func TestWithRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf, NewRedactor())

	ctx := ContextWithRequestID(context.Background(), "test-req-123")
	WithRequestID(ctx, logger).Info("test message")
	assert.Contains(t, buf.String(), `"request_id":"test-req-123"`)

	assert.Same(t, logger, WithRequestID(context.Background(), logger))
}
