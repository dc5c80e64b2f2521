package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_LevelsAndFile(t *testing.T) {
	dir := t.TempDir()
	var console bytes.Buffer

	prev := currentOptions()
	defer Configure(prev)
	Configure(Options{
		Dir:          dir,
		MaxSizeMB:    1,
		ConsoleLevel: WARN,
		FileLevel:    DEBUG,
		Console:      &console,
	})

	l, err := NewLogger("test")
	require.NoError(t, err)

	l.Trace("trace %d", 1)
	l.Debug("debug %d", 2)
	l.Info("info %d", 3)
	l.Warn("warn %d", 4)
	require.NoError(t, l.Close())

	data, err := os.ReadFile(filepath.Join(dir, "test.log"))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "trace 1")
	assert.Contains(t, string(data), "[DEBUG] [test] debug 2")
	assert.Contains(t, string(data), "[WARN] [test] warn 4")

	assert.NotContains(t, console.String(), "info 3")
	assert.Contains(t, console.String(), "warn 4")
}

func TestLogger_ConsoleOnly(t *testing.T) {
	var console bytes.Buffer
	prev := currentOptions()
	defer Configure(prev)
	Configure(Options{ConsoleLevel: INFO, Console: &console})

	l, err := NewLogger("console")
	require.NoError(t, err)
	l.Info("привет")
	assert.Contains(t, console.String(), "[INFO] [console] привет")
	assert.NoError(t, l.Close())
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DEBUG, ParseLevel("debug"))
	assert.Equal(t, WARN, ParseLevel(" Warning "))
	assert.Equal(t, ERROR, ParseLevel("ERROR"))
	assert.Equal(t, INFO, ParseLevel("что-то"))
}

func TestLoggerManager_ReusesLoggers(t *testing.T) {
	prev := currentOptions()
	defer Configure(prev)
	Configure(Options{ConsoleLevel: ERROR, Console: &bytes.Buffer{}})

	lm := newLoggerManager()
	a, err := lm.GetLogger("sync")
	require.NoError(t, err)
	b, err := lm.GetLogger("sync")
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.Equal(t, []string{"sync"}, lm.ListComponents())

	require.NoError(t, lm.SetLogLevel("sync", DEBUG, DEBUG))
	assert.Error(t, lm.SetLogLevel("missing", DEBUG, DEBUG))
	assert.NoError(t, lm.CloseAll())
	assert.Empty(t, lm.ListComponents())
}

func TestLoggerManager_ComponentLevels(t *testing.T) {
	var console bytes.Buffer
	prev := currentOptions()
	defer Configure(prev)
	Configure(Options{ConsoleLevel: INFO, Console: &console})

	lm := newLoggerManager()
	existing, err := lm.GetLogger("server")
	require.NoError(t, err)

	lm.ApplyLevels(map[string]string{"sync": "debug", "server": "error"})

	// Уровень применяется к логгеру, созданному после настройки
	syncLogger, err := lm.GetLogger("sync")
	require.NoError(t, err)
	syncLogger.Debug("ячейка готова")

	// И к уже существующему
	existing.Warn("не видно")
	existing.Error("видно")

	assert.Contains(t, console.String(), "[DEBUG] [sync] ячейка готова")
	assert.NotContains(t, console.String(), "не видно")
	assert.Contains(t, console.String(), "[ERROR] [server] видно")
	assert.Equal(t, []string{"server", "sync"}, lm.ListComponents())
}
