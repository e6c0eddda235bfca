package cli

import (
	"github.com/spf13/cobra"
)

// createRootCommand creates the root command with global flags
func createRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "wakectl",
		Short: "Wake sleeping services in dependency order and watch their health",
		Long: `wakectl wakes services that scale to zero by probing their health endpoints,
dependencies first. Services, their environments and their dependencies are
declared in a registry file (services.yaml).

By default every command runs in-process against the local registry. With
--server (or WAKECTL_SERVER) the same commands talk to a wakectl API server,
which keeps the state of every service between calls.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Default to showing help if no subcommand
			return cmd.Help()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringP("env", "e", "", "Environment (defaults to registry.default_environment)")
	flags.StringP("output", "o", "text", "Output format: text or json")
	flags.String("server", "", "wakectl server URL; commands run remotely when set")
	flags.String("token", "", "API token for the server")
	flags.String("config", "", "Configuration file (defaults to $XDG_CONFIG_HOME/wakectl/config.toml)")
	flags.String("log-level", "", "Log level: debug, info, warn or error")

	return rootCmd
}
