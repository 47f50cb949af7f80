package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, ParseLevel("warn"))
	assert.Equal(t, zapcore.ErrorLevel, ParseLevel(" error "))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("verbose"))
}

func TestProductionWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter("info", "PROD", &buf)
	logger.Info("started", zap.String("addr", ":5000"))
	logger.Debug("hidden")
	require.NoError(t, logger.Sync())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "started", entry["msg"])
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, ":5000", entry["addr"])
	assert.Contains(t, entry, "timestamp")
}

func TestDevelopmentWritesConsole(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter("debug", "DEV", &buf)
	logger.Debug("visible")
	require.NoError(t, logger.Sync())

	out := buf.String()
	assert.Contains(t, out, "DEBUG")
	assert.Contains(t, out, "visible")
	assert.False(t, json.Valid([]byte(strings.TrimSpace(out))))
}
