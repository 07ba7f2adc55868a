// File: internal/observability/logger_test.go
package observability

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/xkilldash9x/uiharness/internal/config"
)

// syncBuffer adapts a strings.Builder to zapcore.WriteSyncer.
type syncBuffer struct {
	strings.Builder
}

func (b *syncBuffer) Sync() error { return nil }

func TestInitialize_ConsoleFormat(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	var buf syncBuffer
	Initialize(config.LoggerConfig{
		Level:       "debug",
		Format:      "console",
		ServiceName: "uiharness-test",
	}, &buf)

	GetLogger().Info("session opened")

	out := buf.String()
	assert.Contains(t, out, "INFO")
	assert.Contains(t, out, "session opened")
	assert.Contains(t, out, "uiharness-test.")
	assert.Contains(t, out, colorGreen)
}

func TestInitialize_JSONFormat(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	var buf syncBuffer
	Initialize(config.LoggerConfig{
		Level:       "info",
		Format:      "json",
		ServiceName: "uiharness-test",
	}, &buf)

	GetLogger().Warn("element wait exceeded")

	line := strings.TrimSpace(buf.String())
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &entry))
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "element wait exceeded", entry["msg"])
}

func TestInitialize_LevelFiltering(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	var buf syncBuffer
	Initialize(config.LoggerConfig{Level: "warn", Format: "json", ServiceName: "t"}, &buf)

	GetLogger().Info("quiet")
	GetLogger().Warn("loud")

	out := buf.String()
	assert.NotContains(t, out, "quiet")
	assert.Contains(t, out, "loud")
}

func TestInitialize_InvalidLevelFallsBackToInfo(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	var buf syncBuffer
	Initialize(config.LoggerConfig{Level: "chatty", Format: "json", ServiceName: "t"}, &buf)

	GetLogger().Debug("hidden")
	GetLogger().Info("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
}

func TestInitialize_FileCore(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	logFile := filepath.Join(t.TempDir(), "run.log")
	var buf syncBuffer
	Initialize(config.LoggerConfig{
		Level:       "info",
		Format:      "console",
		ServiceName: "t",
		LogFile:     logFile,
		MaxSize:     1,
	}, &buf)

	GetLogger().Info("written to file")
	Sync()

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "written to file")
}

func TestGetLogger_BeforeInitialize(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	logger := GetLogger()
	require.NotNil(t, logger)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))
}

func TestInitialize_OnlyOnce(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	var first, second syncBuffer
	Initialize(config.LoggerConfig{Level: "info", Format: "json", ServiceName: "first"}, &first)
	Initialize(config.LoggerConfig{Level: "info", Format: "json", ServiceName: "second"}, &second)

	GetLogger().Info("routed")
	assert.Contains(t, first.String(), "routed")
	assert.Empty(t, second.String())
}
