package app

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"wakectl/internal/config"
	"wakectl/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlagValue(t *testing.T) {
	tests := []struct {
		args []string
		name string
		want string
	}{
		{[]string{"--server", "http://x:7700", "status"}, "server", "http://x:7700"},
		{[]string{"status", "--server=http://y"}, "server", "http://y"},
		{[]string{"status"}, "server", ""},
		{[]string{"status", "--server"}, "server", ""},
		{[]string{"wake", "--", "--config", "x"}, "config", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, flagValue(tt.args, tt.name), "%v", tt.args)
	}
}

func TestIsServerStart(t *testing.T) {
	assert.True(t, isServerStart([]string{"server", "start"}))
	assert.True(t, isServerStart([]string{"--log-level", "debug", "server", "--port", "start"}))
	assert.False(t, isServerStart([]string{"server", "status"}))
	assert.False(t, isServerStart([]string{"wake", "server"}))
}

func writeConfig(t *testing.T, registryDoc string) string {
	t.Helper()
	t.Setenv(config.EnvServer, "")
	t.Setenv(config.EnvToken, "")

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "services.yaml"), []byte(registryDoc), 0644))

	cfg := config.DefaultGlobalConfig()
	cfg.Registry.Path = filepath.Join(dir, "services.yaml")
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, cfg.Save(path))
	return path
}

func TestApp_LocalMode(t *testing.T) {
	svc := testutil.NewFakeService(t, http.StatusOK)
	path := writeConfig(t, testutil.RegistryYAML("dev", testutil.Spec("auth", svc.URL)))

	a := New()
	err := a.RunWithContext(context.Background(), []string{"--config", path, "registry", "order", "auth"})
	require.NoError(t, err)

	assert.Equal(t, path, a.ConfigPath)
	assert.NotNil(t, a.Local)
	assert.Nil(t, a.Client)
}

func TestApp_RemoteModeFromFlag(t *testing.T) {
	path := writeConfig(t, testutil.RegistryYAML("dev"))

	a := New()
	// nothing listens there, so the command fails after the client is built
	err := a.RunWithContext(context.Background(), []string{"--config", path, "--server", "http://127.0.0.1:1", "registry", "stats"})
	require.Error(t, err)

	assert.Equal(t, "http://127.0.0.1:1", a.Config.Client.ServerURL)
	assert.NotNil(t, a.Client)
	assert.Nil(t, a.Local)
}

func TestApp_MissingRegistry(t *testing.T) {
	path := writeConfig(t, testutil.RegistryYAML("dev"))
	require.NoError(t, os.Remove(filepath.Join(filepath.Dir(path), "services.yaml")))

	a := New()
	err := a.RunWithContext(context.Background(), []string{"--config", path, "status"})
	require.Error(t, err)
}
