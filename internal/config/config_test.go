package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	// Server config
	assert.Equal(t, "8090", cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)

	// Zipline config
	assert.Equal(t, "http://localhost:3000", cfg.Zipline.Endpoint)
	assert.Empty(t, cfg.Zipline.Token)

	// Sandbox config
	assert.False(t, cfg.Sandbox.DisableUserSandboxing)
	assert.NotEmpty(t, cfg.Sandbox.BaseDir)
	assert.Equal(t, time.Hour, cfg.Sandbox.SweepInterval)

	// Download config
	assert.Equal(t, 30*time.Second, cfg.Download.Timeout())

	// Logging config
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Logging.Development)
}

func TestLoadWithEnvironmentVariables(t *testing.T) {
	envVars := map[string]string{
		"PORT":                    "9000",
		"ZIPLINE_ENDPOINT":        "https://files.example.com",
		"ZIPLINE_TOKEN":           "secret-token",
		"SANDBOX_BASE_DIR":        "/var/lib/zipline",
		"DISABLE_USER_SANDBOXING": "true",
		"DOWNLOAD_TIMEOUT_MS":     "5000",
		"LOG_LEVEL":               "debug",
	}

	for key, value := range envVars {
		t.Setenv(key, value)
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "https://files.example.com", cfg.Zipline.Endpoint)
	assert.Equal(t, "secret-token", cfg.Zipline.Token)
	assert.Equal(t, "/var/lib/zipline", cfg.Sandbox.BaseDir)
	assert.True(t, cfg.Sandbox.DisableUserSandboxing)
	assert.Equal(t, 5*time.Second, cfg.Download.Timeout())
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadFileTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[Zipline]
endpoint = "https://host.example.com"
token = "file-token"

[Sandbox]
base_dir = "/srv/sandbox"

[Download]
timeout_ms = 10000
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "https://host.example.com", cfg.Zipline.Endpoint)
	assert.Equal(t, "file-token", cfg.Zipline.Token)
	assert.Equal(t, "/srv/sandbox", cfg.Sandbox.BaseDir)
	assert.Equal(t, 10*time.Second, cfg.Download.Timeout())

	// Untouched sections keep defaults.
	assert.Equal(t, "8090", cfg.Server.Port)
}

func TestLoadFileYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
zipline:
  endpoint: https://yaml.example.com
  token: yaml-token
logging:
  level: warn
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "https://yaml.example.com", cfg.Zipline.Endpoint)
	assert.Equal(t, "yaml-token", cfg.Zipline.Token)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoadFileEnvWins(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[Zipline]
token = "file-token"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("ZIPLINE_TOKEN", "env-token")

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "env-token", cfg.Zipline.Token)
}

func TestLoadFileUnsupportedFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.ini")
	require.NoError(t, os.WriteFile(path, []byte("a=b"), 0o644))

	_, err := LoadFile(path)
	assert.Error(t, err)
}
