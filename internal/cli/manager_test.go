package cli

import (
	"bytes"
	"testing"

	"wakectl/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_CommandTree(t *testing.T) {
	m := New(config.DefaultGlobalConfig(), "/tmp/wakectl/config.toml")

	tests := []struct {
		path  []string
		flags []string
	}{
		{path: []string{"wake"}, flags: []string{"wait", "timeout", "monitor", "interval", "duration"}},
		{path: []string{"status"}},
		{path: []string{"health"}},
		{path: []string{"monitor"}, flags: []string{"interval", "duration"}},
		{path: []string{"registry", "validate"}},
		{path: []string{"registry", "list"}},
		{path: []string{"registry", "order"}},
		{path: []string{"registry", "stats"}},
		{path: []string{"registry", "reload"}},
		{path: []string{"server", "start"}, flags: []string{"host", "port", "registry", "daemon"}},
		{path: []string{"server", "stop"}},
		{path: []string{"server", "status"}},
		{path: []string{"config", "init"}, flags: []string{"force"}},
		{path: []string{"config", "show"}, flags: []string{"reveal"}},
		{path: []string{"config", "path"}},
		{path: []string{"config", "validate"}},
	}

	for _, tt := range tests {
		cmd, _, err := m.Root().Find(tt.path)
		require.NoError(t, err, tt.path)
		assert.Equal(t, tt.path[len(tt.path)-1], cmd.Name())
		for _, f := range tt.flags {
			assert.NotNil(t, cmd.Flags().Lookup(f), "%v should have --%s", tt.path, f)
		}
	}

	for _, f := range []string{"env", "output", "server", "token", "config", "log-level"} {
		assert.NotNil(t, m.Root().PersistentFlags().Lookup(f), "root should have --%s", f)
	}
}

func TestManager_ConfigPath(t *testing.T) {
	cfg := config.DefaultGlobalConfig()
	cfg.Registry.Path = "/srv/services.yaml"
	m := New(cfg, "/etc/wakectl/config.toml")

	var out bytes.Buffer
	m.SetOutput(&out)

	require.NoError(t, m.Execute([]string{"config", "path"}))
	assert.Contains(t, out.String(), "/etc/wakectl/config.toml")
	assert.Contains(t, out.String(), "/srv/services.yaml")
}

func TestManager_NoBackend(t *testing.T) {
	m := New(config.DefaultGlobalConfig(), "")
	var out bytes.Buffer
	m.SetOutput(&out)

	err := m.Execute([]string{"status"})
	assert.Error(t, err)
}
