package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromContext_AttachesKnownKeys(t *testing.T) {
	var buf bytes.Buffer
	Setup(Options{Level: "debug", Format: "json", Service: "edu-ai-api", Writer: &buf})
	t.Cleanup(func() { Setup(Options{Level: "info"}) })

	ctx := WithContext(context.Background(), RequestIDKey, "req-1")
	ctx = WithContext(ctx, TaskKindKey, "solve_math")

	Error(ctx, "dispatch failed", errors.New("connection reset"), "attempt", 2)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "req-1", line["request_id"])
	assert.Equal(t, "solve_math", line["task_kind"])
	assert.Equal(t, "connection reset", line["error"])
	assert.Equal(t, float64(2), line["attempt"])
	assert.Equal(t, "edu-ai-api", line["service"])
	assert.NotContains(t, line, "user_id")
	assert.NotContains(t, line, "version")

	src, ok := line["source"].(string)
	require.True(t, ok)
	assert.Regexp(t, `^logger/logger_test\.go:\d+$`, src)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, "DEBUG", parseLevel("debug").String())
	assert.Equal(t, "WARN", parseLevel("warning").String())
	assert.Equal(t, "ERROR", parseLevel(" ERROR ").String())
	assert.Equal(t, "INFO", parseLevel("nonsense").String())
}
