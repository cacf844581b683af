package log

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunLoggerAppendsToFile(t *testing.T) {
	dir := t.TempDir()
	logFile := filepath.Join(dir, "run_log.txt")

	runLogger, err := NewRunLogger(logFile, LevelInfo)
	require.NoError(t, err)

	runLogger.Info("first entry %d", 1)
	runLogger.Debug("filtered out")
	require.NoError(t, runLogger.Close())

	// Reopen and append to the same file.
	runLogger, err = NewRunLogger(logFile, LevelInfo)
	require.NoError(t, err)
	runLogger.Warn("second entry")
	require.NoError(t, runLogger.Close())

	content, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(content), "first entry 1")
	assert.Contains(t, string(content), "second entry")
	assert.NotContains(t, string(content), "filtered out")
}

func TestRunLoggerCreatesDirectory(t *testing.T) {
	dir := t.TempDir()
	logFile := filepath.Join(dir, "nested", "logs", "run_log.txt")

	runLogger, err := NewRunLogger(logFile, LevelInfo)
	require.NoError(t, err)
	runLogger.Info("hello")
	require.NoError(t, runLogger.Close())

	_, err = os.Stat(logFile)
	assert.NoError(t, err)
}
