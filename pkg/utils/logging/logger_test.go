package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestInitLogger_WritesJSONFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")

	logger, err := initLogger(dir, "test", false)
	require.NoError(t, err)

	logger.Debug("model built", zap.Int("binaries", 12))
	_ = logger.Sync()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasPrefix(entries[0].Name(), "test_"))

	data, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)

	var line map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(string(data))), &line))
	assert.Equal(t, "model built", line["msg"])
	assert.Equal(t, float64(12), line["binaries"])
	assert.Contains(t, line, "timestamp")
}

func TestConsoleLevel(t *testing.T) {
	assert.Equal(t, zapcore.InfoLevel, consoleLevel(false))
	assert.Equal(t, zapcore.DebugLevel, consoleLevel(true))
}
