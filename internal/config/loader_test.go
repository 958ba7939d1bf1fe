package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestLoadWritesDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	logger := zerolog.Nop()

	cfg, resolved, err := Load(&logger, path)
	require.NoError(t, err)
	require.Equal(t, path, resolved)
	require.Equal(t, Default(), cfg)

	// The default file was materialized and loads back unchanged.
	_, err = os.Stat(path)
	require.NoError(t, err)
	again, _, err := Load(&logger, path)
	require.NoError(t, err)
	require.Equal(t, cfg, again)
}

func TestLoadReadsConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "addr: \":7777\"\nserver_name: irc.example.com\nresolve_hostnames: false\nshutdown_timeout: 10s\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	logger := zerolog.Nop()

	cfg, _, err := Load(&logger, path)
	require.NoError(t, err)
	require.Equal(t, ":7777", cfg.Addr)
	require.Equal(t, "irc.example.com", cfg.ServerName)
	require.False(t, cfg.ResolveHostnames)
	require.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	// Untouched keys keep their defaults.
	require.Equal(t, Default().SendQueueDepth, cfg.SendQueueDepth)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("addr: \":7777\"\n"), 0o600))
	t.Setenv("RAUTA_ADDR", ":9999")
	t.Setenv("RAUTA_LOG_LEVEL", "debug")
	logger := zerolog.Nop()

	cfg, _, err := Load(&logger, path)
	require.NoError(t, err)
	require.Equal(t, ":9999", cfg.Addr)
	require.Equal(t, "debug", cfg.LogLevel)
}

func TestResolveConfigPathHonorsEnvBase(t *testing.T) {
	base := t.TempDir()
	t.Setenv(envConfigDefaultPath, base)
	require.Equal(t, filepath.Join(base, defaultConfigName), resolveConfigPath(""))
	require.Equal(t, "/explicit/config.yaml", resolveConfigPath("/explicit/config.yaml"))
}
