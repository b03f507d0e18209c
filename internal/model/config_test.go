package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("TASKFLOW_DB", "")
	path := filepath.Join(t.TempDir(), "nope.yaml")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, DefaultDBPath(), cfg.DBPath)
	assert.Equal(t, "default", cfg.Display.Theme)
	assert.True(t, cfg.Display.ShowCompleted)
	assert.Empty(t, cfg.Timezone)
}

func TestLoadConfig_ReadsFile(t *testing.T) {
	t.Setenv("TASKFLOW_DB", "")
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
db_path: /tmp/tasks.db
timezone: Europe/Berlin
display:
  show_completed: false
`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/tasks.db", cfg.DBPath)
	assert.Equal(t, "default", cfg.Display.Theme)
	assert.False(t, cfg.Display.ShowCompleted)
	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", loc.String())
}

func TestLoadConfig_EnvOverridesDB(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("db_path: /tmp/file.db\n"), 0o644))
	t.Setenv("TASKFLOW_DB", "/tmp/env.db")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/env.db", cfg.DBPath)
}

func TestLoadConfig_BadTimezone(t *testing.T) {
	t.Setenv("TASKFLOW_DB", "")
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("timezone: Mars/Olympus\n"), 0o644))

	_, err := LoadConfig(path)
	assert.ErrorContains(t, err, "Mars/Olympus")
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	t.Setenv("TASKFLOW_DB", "")
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	want := &AppConfig{
		DBPath:   "/data/taskflow.db",
		Timezone: "UTC",
		LogFile:  "/tmp/taskflow.log",
		Display:  DisplayConfig{Theme: "default", ShowCompleted: false},
	}

	require.NoError(t, SaveConfig(path, want))
	got, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, want, got)
}
