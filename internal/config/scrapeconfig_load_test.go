package config_test

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/jkroepke/logscrape-exporter/internal/config"
	"github.com/stretchr/testify/require"
)

func writeScrapeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "scrapeconfig.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	return path
}

func TestLoadScrapeConfigFromFile(t *testing.T) {
	t.Parallel()

	path := writeScrapeConfig(t, sampleScrapeConfig)

	conf, err := config.LoadScrapeConfig(t.Context(), path)
	require.NoError(t, err)
	require.Equal(t, "myapp", conf.Global.Prefix)
}

func TestLoadScrapeConfigMissingFile(t *testing.T) {
	t.Parallel()

	_, err := config.LoadScrapeConfig(t.Context(), filepath.Join(t.TempDir(), "missing.yml"))
	require.Error(t, err)
}

func TestLoadScrapeConfigEmptyFile(t *testing.T) {
	t.Parallel()

	path := writeScrapeConfig(t, "")

	_, err := config.LoadScrapeConfig(t.Context(), path)
	require.ErrorIs(t, err, config.ErrEmptyConfigFile)
}

func TestLoadScrapeConfigInvalidIsStartupFatal(t *testing.T) {
	t.Parallel()

	path := writeScrapeConfig(t, "global:\n  prefix: 1bad\n  ttl: 60\n  format: []\nlocal:\n  - path: /x\n")

	_, err := config.LoadScrapeConfig(t.Context(), path)
	require.Error(t, err)
}

func TestLoadScrapeConfigFromScript(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("script execution assumes a POSIX shell")
	}

	t.Parallel()

	command := "cat <<'EOF'\n" + sampleScrapeConfig + "EOF\n"

	conf, err := config.LoadScrapeConfigFromScript(t.Context(), command)
	require.NoError(t, err)
	require.Equal(t, "myapp", conf.Global.Prefix)
}

func TestLoadScrapeConfigFromScriptFailureIsNonFatal(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("script execution assumes a POSIX shell")
	}

	t.Parallel()

	_, err := config.LoadScrapeConfigFromScript(t.Context(), "exit 1")
	require.ErrorContains(t, err, "failed")
}

func TestLoadScrapeConfigFromScriptInvalidConfig(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("script execution assumes a POSIX shell")
	}

	t.Parallel()

	_, err := config.LoadScrapeConfigFromScript(t.Context(), "echo 'global: {prefix: 1bad, ttl: 60, format: []}'")
	require.Error(t, err)
}
