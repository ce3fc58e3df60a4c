package main

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagarc03/scopefs/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{" WARN ", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, parseLevel(tt.in), "parseLevel(%q)", tt.in)
	}
}

func TestNewLogHandler_ProductionJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newLogHandler(&buf, &config.Config{Env: "production"}))

	logger.Debug("hidden")
	logger.Info("visible", "path", "docs/a.txt")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "visible", line["msg"])
	assert.Equal(t, "docs/a.txt", line["path"])
	assert.Contains(t, line, "ts")
	assert.NotContains(t, line, "time")
}

func TestNewLogHandler_DevLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newLogHandler(&buf, &config.Config{Log: config.LogConfig{Level: "warn"}}))

	logger.Info("dropped")
	assert.Empty(t, buf.String())

	logger.Warn("kept")
	assert.Contains(t, buf.String(), "kept")
}
