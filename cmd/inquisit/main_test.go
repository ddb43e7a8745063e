package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inquisit/internal/logging"
)

func resetGlobals(t *testing.T) {
	t.Helper()
	prevConfig, prevWorkspace, prevDebug := configPath, workspace, debugMode
	t.Cleanup(func() {
		configPath, workspace, debugMode = prevConfig, prevWorkspace, prevDebug
		cfg = nil
		logging.Shutdown()
	})
}

func TestPreRunLoggingDisabledByDefault(t *testing.T) {
	resetGlobals(t)
	ws := t.TempDir()
	configPath = ""
	workspace = ws
	debugMode = false

	require.NoError(t, rootCmd.PersistentPreRunE(rootCmd, nil))

	_, err := os.Stat(filepath.Join(ws, ".inquisit", "logs"))
	assert.True(t, os.IsNotExist(err), "logs directory should not exist when debug mode is off")
}

func TestPreRunDebugFlagEnablesLogging(t *testing.T) {
	resetGlobals(t)
	ws := t.TempDir()
	configPath = ""
	workspace = ws
	debugMode = true

	require.NoError(t, rootCmd.PersistentPreRunE(rootCmd, nil))

	info, err := os.Stat(filepath.Join(ws, ".inquisit", "logs"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestPreRunConfigControlsLoggingCategories(t *testing.T) {
	resetGlobals(t)
	ws := t.TempDir()
	path := filepath.Join(ws, "inquisit.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"logging:\n  debug_mode: true\n  categories:\n    store: false\n"), 0644))
	configPath = path
	workspace = ws
	debugMode = false

	require.NoError(t, rootCmd.PersistentPreRunE(rootCmd, nil))

	require.True(t, cfg.Logging.DebugMode)
	require.Equal(t, map[string]bool{"store": false}, cfg.Logging.Categories)

	// The filtered category gets a no-op logger; an unfiltered one writes a file.
	logging.Get(logging.CategoryStore).Info("dropped")
	logging.Get(logging.CategorySelection).Info("written")
	logging.Shutdown()

	logsDir := filepath.Join(ws, ".inquisit", "logs")
	_, err := os.Stat(filepath.Join(logsDir, "store.log"))
	assert.True(t, os.IsNotExist(err), "filtered category should not produce a log file")
	_, err = os.Stat(filepath.Join(logsDir, "selection.log"))
	assert.NoError(t, err)
}
