package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"wakectl/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Setenv(EnvServer, "")
	t.Setenv(EnvToken, "")
	t.Setenv(EnvLogLevel, "")
}

// TestDefaultsWhenFileMissing checks that a missing file yields defaults
// without creating the config directory
func TestDefaultsWhenFileMissing(t *testing.T) {
	clearEnv(t)
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)

	config, err := LoadGlobalConfig()
	require.NoError(t, err)

	assert.Equal(t, 7700, config.Server.Port)
	assert.Equal(t, "localhost", config.Server.Host)
	assert.Equal(t, "dev", config.Registry.DefaultEnvironment)
	assert.Equal(t, filepath.Join(tmpDir, "wakectl", "services.yaml"), config.Registry.Path)
	assert.Equal(t, 10*time.Second, config.Probe.WakeTimeout())
	assert.Equal(t, 5*time.Second, config.Probe.StatusTimeout())
	assert.Equal(t, 5*time.Second, config.Probe.SlowThreshold())
	assert.Equal(t, 2*time.Second, config.Probe.PollInterval())
	assert.Equal(t, 10*time.Second, config.Monitor.Interval())
	assert.Equal(t, 5*time.Minute, config.Monitor.Duration())
	assert.NoError(t, config.Validate())

	_, err = os.Stat(filepath.Join(tmpDir, "wakectl"))
	assert.True(t, os.IsNotExist(err), "loading must not create the config directory")
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[server]
port = 9000
api_token = "secret"

[registry]
path = "/etc/wakectl/services.json"
default_environment = "staging"

[probe]
wake_timeout_seconds = 30
`), 0644))

	config, err := LoadGlobalConfigFrom(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, config.Server.Port)
	assert.Equal(t, "secret", config.Server.APIToken)
	assert.Equal(t, "localhost:9000", config.ServerAddress())
	assert.Equal(t, "/etc/wakectl/services.json", config.Registry.Path)
	assert.Equal(t, "staging", config.Registry.DefaultEnvironment)
	assert.Equal(t, 30*time.Second, config.Probe.WakeTimeout())
	assert.Equal(t, 5*time.Second, config.Probe.StatusTimeout())
	assert.Equal(t, 8, config.Probe.MaxConcurrentStatus)
}

func TestLoadInvalidTOML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[server\nport = "), 0644))

	_, err := LoadGlobalConfigFrom(path)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrConfigParse))
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv(EnvServer, "http://wake.internal:7700")
	t.Setenv(EnvToken, "tok")
	t.Setenv(EnvLogLevel, "debug")

	config, err := LoadGlobalConfigFrom(filepath.Join(t.TempDir(), "config.toml"))
	require.NoError(t, err)

	assert.Equal(t, "http://wake.internal:7700", config.Client.ServerURL)
	assert.Equal(t, "tok", config.Client.Token)
	assert.Equal(t, "tok", config.Server.APIToken)
	assert.Equal(t, "debug", config.Log.Level)
}

func TestTildeExpansion(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[registry]\npath = \"~/wake/services.yaml\"\n"), 0644))

	config, err := LoadGlobalConfigFrom(path)
	require.NoError(t, err)

	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "wake", "services.yaml"), config.Registry.Path)
}

func TestSaveRoundTrip(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	config := DefaultGlobalConfig()
	config.Registry.Path = "/srv/services.yaml"
	config.Server.Port = 8123
	config.Server.APIToken = "abc"
	require.NoError(t, config.Save(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := LoadGlobalConfigFrom(path)
	require.NoError(t, err)
	assert.Equal(t, 8123, loaded.Server.Port)
	assert.Equal(t, "abc", loaded.Server.APIToken)
	assert.Equal(t, "/srv/services.yaml", loaded.Registry.Path)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*GlobalConfig)
		field  string
	}{
		{name: "bad port", mutate: func(c *GlobalConfig) { c.Server.Port = 70000 }, field: "Port"},
		{name: "empty registry path", mutate: func(c *GlobalConfig) { c.Registry.Path = "" }, field: "registry.path"},
		{name: "bad environment", mutate: func(c *GlobalConfig) { c.Registry.DefaultEnvironment = "has space" }, field: "registry.default_environment"},
		{name: "negative timeout", mutate: func(c *GlobalConfig) { c.Probe.WakeTimeoutSeconds = -1 }, field: "probe.wake_timeout_seconds"},
		{name: "zero monitor interval", mutate: func(c *GlobalConfig) { c.Monitor.IntervalSeconds = 0 }, field: "monitor.interval_seconds"},
		{name: "negative retries", mutate: func(c *GlobalConfig) { c.Client.RetryMax = -1 }, field: "client.retry_max"},
		{name: "bad server url", mutate: func(c *GlobalConfig) { c.Client.ServerURL = "wake:7700" }, field: "client.server_url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultGlobalConfig()
			config.Registry.Path = "/srv/services.yaml"
			tt.mutate(config)

			err := ValidateGlobalConfig(config)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.field)
		})
	}

	assert.Error(t, ValidateGlobalConfig(nil))
}
