package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT42_HOME", "PORT42_POLL_INTERVAL", "PORT42_API_KEY",
		"PORT42_GENERATOR_URL", "PORT42_GENERATOR_MODEL",
	} {
		t.Setenv(key, "")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 10*time.Second, cfg.PollInterval)
	assert.True(t, cfg.Watch)
	assert.Equal(t, DefaultHomeDirName, filepath.Base(cfg.Home))
}

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT42_HOME", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultPollInterval, cfg.PollInterval)
	assert.True(t, cfg.Watch)
	assert.Empty(t, cfg.Generator.APIKey)
}

func TestLoadReadsConfigFile(t *testing.T) {
	clearEnv(t)
	home := t.TempDir()
	t.Setenv("PORT42_HOME", home)

	file := `poll_interval: 30s
watch: false
generator:
  url: http://localhost:11434
  model: local-model
`
	require.NoError(t, os.WriteFile(filepath.Join(home, "config.yaml"), []byte(file), 0o644))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, home, cfg.Home)
	assert.Equal(t, 30*time.Second, cfg.PollInterval)
	assert.False(t, cfg.Watch)
	assert.Equal(t, "http://localhost:11434", cfg.Generator.URL)
	assert.Equal(t, "local-model", cfg.Generator.Model)
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	clearEnv(t)
	home := t.TempDir()
	t.Setenv("PORT42_HOME", home)

	require.NoError(t, os.WriteFile(filepath.Join(home, "config.yaml"), []byte("poll_interval: 1m\n"), 0o644))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, time.Minute, cfg.PollInterval)
	assert.True(t, cfg.Watch, "unset file keys keep their defaults")
}

func TestLoadEnvOverridesFile(t *testing.T) {
	clearEnv(t)
	home := t.TempDir()
	t.Setenv("PORT42_HOME", home)
	require.NoError(t, os.WriteFile(filepath.Join(home, "config.yaml"), []byte("poll_interval: 30s\n"), 0o644))

	t.Setenv("PORT42_POLL_INTERVAL", "5s")
	t.Setenv("PORT42_API_KEY", "sk-test")
	t.Setenv("PORT42_GENERATOR_MODEL", "env-model")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, cfg.PollInterval, "environment wins over the file")
	assert.Equal(t, "sk-test", cfg.Generator.APIKey)
	assert.Equal(t, "env-model", cfg.Generator.Model)
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	clearEnv(t)
	home := t.TempDir()
	t.Setenv("PORT42_HOME", home)
	require.NoError(t, os.WriteFile(filepath.Join(home, "config.yaml"), []byte("poll_interval: [broken\n"), 0o644))

	_, err := Load()
	assert.Error(t, err, "a present but malformed file must not be silently ignored")
}

func TestLoadRejectsBadDurations(t *testing.T) {
	clearEnv(t)
	home := t.TempDir()
	t.Setenv("PORT42_HOME", home)

	t.Run("in file", func(t *testing.T) {
		require.NoError(t, os.WriteFile(filepath.Join(home, "config.yaml"), []byte("poll_interval: soonish\n"), 0o644))
		_, err := Load()
		assert.Error(t, err)
		require.NoError(t, os.Remove(filepath.Join(home, "config.yaml")))
	})

	t.Run("in environment", func(t *testing.T) {
		t.Setenv("PORT42_POLL_INTERVAL", "whenever")
		_, err := Load()
		assert.Error(t, err)
	})
}

func TestLoadNonPositiveIntervalFallsBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT42_HOME", t.TempDir())
	t.Setenv("PORT42_POLL_INTERVAL", "0s")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultPollInterval, cfg.PollInterval)
}
