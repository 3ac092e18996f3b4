package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))

	require.NoError(t, err)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "qwen2.5:7b", cfg.Planner.Model)
	assert.Equal(t, 3, cfg.React.MaxIterations)
	assert.Equal(t, 20, cfg.React.TimeoutSeconds)
	assert.Equal(t, "always", cfg.Finalizer.Mode)
	assert.Equal(t, 1200, cfg.Finalizer.TokenBudget)
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `log_level: debug
planner:
  model: llama3:8b
react:
  max_iterations: 5
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "llama3:8b", cfg.Planner.Model)
	assert.Equal(t, 5, cfg.React.MaxIterations)
	// Untouched keys keep their defaults.
	assert.Equal(t, 20, cfg.React.TimeoutSeconds)
	assert.Equal(t, "qwen2.5:32b", cfg.Quality.Model)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("BANTZ_LOG_LEVEL", "warn")
	t.Setenv("BANTZ_PLANNER_API_KEY", "sk-test")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))

	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "sk-test", cfg.Planner.APIKey)
}

func TestWriteDefaultAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	require.NoError(t, WriteDefault(path))
	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, Default().Planner.Model, cfg.Planner.Model)
}

func TestWriteDefaultRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, WriteDefault(path))

	assert.Error(t, WriteDefault(path))
}

func TestLoadMalformedFileErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: [unclosed"), 0o644))

	_, err := Load(path)

	assert.Error(t, err)
}
