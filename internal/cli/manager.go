package cli

import (
	"context"
	"io"

	"wakectl/internal/cli/commands"
	"wakectl/internal/config"

	"github.com/spf13/cobra"
)

// Manager handles CLI operations
type Manager struct {
	deps    *commands.Deps
	rootCmd *cobra.Command
}

// New creates a new CLI manager. configPath is only displayed and passed
// on to daemonized servers; cfg is already loaded.
func New(cfg *config.GlobalConfig, configPath string) *Manager {
	m := &Manager{
		deps: &commands.Deps{
			Config:     cfg,
			ConfigPath: configPath,
		},
	}

	m.rootCmd = createRootCommand()
	m.setupCommands()

	return m
}

// SetBackend sets how commands reach the orchestrator: in-process or
// through an API client
func (m *Manager) SetBackend(provider commands.BackendProvider) {
	m.deps.Provider = provider
}

// SetOutput redirects command output, mainly for tests
func (m *Manager) SetOutput(w io.Writer) {
	m.deps.Out = w
	m.rootCmd.SetOut(w)
	m.rootCmd.SetErr(w)
}

// Root returns the root command
func (m *Manager) Root() *cobra.Command {
	return m.rootCmd
}

// Execute executes the CLI with the given arguments
func (m *Manager) Execute(args []string) error {
	return m.ExecuteWithContext(context.Background(), args)
}

// ExecuteWithContext executes the CLI with the given arguments and context
func (m *Manager) ExecuteWithContext(ctx context.Context, args []string) error {
	m.rootCmd.SetArgs(args)
	return m.rootCmd.ExecuteContext(ctx)
}

// setupCommands sets up all CLI commands
func (m *Manager) setupCommands() {
	// Top-level wake workflow
	for _, group := range [][]*cobra.Command{
		commands.WakeCommands(m.deps),
		commands.StatusCommands(m.deps),
		commands.MonitorCommands(m.deps),
	} {
		for _, cmd := range group {
			m.rootCmd.AddCommand(cmd)
		}
	}

	// Registry commands
	registryCmd := &cobra.Command{
		Use:     "registry",
		Short:   "Inspect and reload the service registry",
		Aliases: []string{"reg"},
	}
	for _, cmd := range commands.RegistryCommands(m.deps) {
		registryCmd.AddCommand(cmd)
	}
	m.rootCmd.AddCommand(registryCmd)

	// Server commands
	serverCmd := &cobra.Command{
		Use:   "server",
		Short: "Run and manage the wakectl API server",
	}
	for _, cmd := range commands.ServerCommands(m.deps) {
		serverCmd.AddCommand(cmd)
	}
	m.rootCmd.AddCommand(serverCmd)

	// Configuration commands
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage wakectl configuration",
	}
	for _, cmd := range commands.ConfigCommands(m.deps) {
		configCmd.AddCommand(cmd)
	}
	m.rootCmd.AddCommand(configCmd)
}
