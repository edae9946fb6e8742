package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(nil)
	require.NoError(t, err)
	require.Equal(t, "https://api.lookforge.app", cfg.BaseURL)
	require.Equal(t, 30*time.Second, cfg.RequestTimeout)
	require.Equal(t, 10*time.Second, cfg.RefreshTimeout)
	require.Equal(t, "lookforge.db", cfg.StoragePath)
	require.Equal(t, uint64(60), cfg.PollAttempts)
	require.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lookforge.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
base_url: https://staging.lookforge.app
refresh_timeout: 3s
log_level: debug
`), 0o600))

	cfg, err := load([]string{"-c", path})
	require.NoError(t, err)
	require.Equal(t, "https://staging.lookforge.app", cfg.BaseURL)
	require.Equal(t, 3*time.Second, cfg.RefreshTimeout)
	require.Equal(t, "debug", cfg.LogLevel)
	// Untouched fields keep their defaults.
	require.Equal(t, 30*time.Second, cfg.RequestTimeout)
}

func TestLoad_MissingFileErrors(t *testing.T) {
	_, err := load([]string{"-c", filepath.Join(t.TempDir(), "absent.yaml")})
	require.Error(t, err)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lookforge.yaml")
	require.NoError(t, os.WriteFile(path, []byte("base_url: https://file.lookforge.app\n"), 0o600))

	t.Setenv("LOOKFORGE_BASE_URL", "https://env.lookforge.app")
	t.Setenv("LOOKFORGE_REQUEST_TIMEOUT", "5s")

	cfg, err := load([]string{"-c", path})
	require.NoError(t, err)
	require.Equal(t, "https://env.lookforge.app", cfg.BaseURL)
	require.Equal(t, 5*time.Second, cfg.RequestTimeout)
}

func TestLoad_FlagsWinOverEnv(t *testing.T) {
	t.Setenv("LOOKFORGE_BASE_URL", "https://env.lookforge.app")

	cfg, err := load([]string{"-a", "https://flag.lookforge.app", "-t", "7", "-s", "creds.db"})
	require.NoError(t, err)
	require.Equal(t, "https://flag.lookforge.app", cfg.BaseURL)
	require.Equal(t, 7*time.Second, cfg.RequestTimeout)
	require.Equal(t, "creds.db", cfg.StoragePath)
}

func TestLoad_ValidationRejectsBadURL(t *testing.T) {
	_, err := load([]string{"-a", "not a url"})
	require.Error(t, err)
}

func TestLoad_ValidationRejectsBadLogLevel(t *testing.T) {
	t.Setenv("LOOKFORGE_LOG_LEVEL", "loud")
	_, err := load(nil)
	require.Error(t, err)
}

func TestConfigFilePath(t *testing.T) {
	require.Equal(t, "x.yaml", configFilePath([]string{"-c", "x.yaml"}))
	require.Equal(t, "y.yaml", configFilePath([]string{"-a", "http://h", "-config", "y.yaml"}))
	require.Equal(t, "z.yaml", configFilePath([]string{"-c=z.yaml"}))
	require.Equal(t, "w.yaml", configFilePath([]string{"-config=w.yaml"}))
	require.Equal(t, "", configFilePath([]string{"-a", "http://h"}))
}

func TestFilterArgs(t *testing.T) {
	got := filterArgs(
		[]string{"-c", "x.yaml", "-a", "http://h", "-unknown", "v", "-t=9"},
		map[string]bool{"-a": true, "-t": true},
	)
	require.Equal(t, []string{"-a", "http://h", "-t=9"}, got)
}
