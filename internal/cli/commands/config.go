package commands

import (
	"fmt"
	"os"

	"wakectl/internal/config"
	"wakectl/internal/constants"
	"wakectl/internal/logger"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
)

// ConfigCommands creates configuration management commands
func ConfigCommands(d *Deps) []*cobra.Command {
	commands := []*cobra.Command{}

	// wakectl config init
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a configuration file with the defaults",
		RunE: func(cmd *cobra.Command, args []string) error {
			force, _ := cmd.Flags().GetBool("force")
			return initConfig(d, force)
		},
	}
	initCmd.Flags().BoolP("force", "f", false, "Overwrite an existing configuration file")
	commands = append(commands, initCmd)

	// wakectl config show
	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Long: `Show the configuration after defaults and environment overrides are
applied. Tokens are masked unless --reveal is given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			reveal, _ := cmd.Flags().GetBool("reveal")
			return showConfig(cmd, d, reveal)
		},
	}
	showCmd.Flags().Bool("reveal", false, "Print tokens in clear text")
	commands = append(commands, showCmd)

	// wakectl config path
	pathCmd := &cobra.Command{
		Use:   "path",
		Short: "Show where wakectl reads its configuration and registry",
		RunE: func(cmd *cobra.Command, args []string) error {
			registryPath := ""
			if d.Config != nil {
				registryPath = d.Config.Registry.Path
			}
			fmt.Fprintf(d.out(), "config:   %s\n", d.ConfigPath)
			fmt.Fprintf(d.out(), "registry: %s\n", registryPath)
			return nil
		},
	}
	commands = append(commands, pathCmd)

	// wakectl config validate
	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.ValidateGlobalConfig(d.Config); err != nil {
				return err
			}
			fmt.Fprintf(d.out(), "%s %s is valid\n", liveStyle.Render("✓"), d.ConfigPath)
			return nil
		},
	}
	commands = append(commands, validateCmd)

	return commands
}

func initConfig(d *Deps, force bool) error {
	path := d.ConfigPath
	if path == "" {
		var err error
		if path, err = config.DefaultConfigPath(); err != nil {
			return err
		}
	}

	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("configuration already exists at %s (use --force to overwrite)", path)
	}

	cfg := config.DefaultGlobalConfig()
	if err := cfg.Save(path); err != nil {
		return err
	}

	logger.WithField("path", path).Debug("Configuration written")
	fmt.Fprintf(d.out(), "%s wrote %s\n", liveStyle.Render("✓"), path)
	fmt.Fprintf(d.out(), "Put your registry next to it as %s or set registry.path.\n", constants.DefaultRegistryFile)
	return nil
}

func showConfig(cmd *cobra.Command, d *Deps, reveal bool) error {
	if d.Config == nil {
		return fmt.Errorf("no configuration loaded")
	}

	cfg := *d.Config
	if !reveal {
		cfg.Server.APIToken = mask(cfg.Server.APIToken)
		cfg.Client.Token = mask(cfg.Client.Token)
	}

	if jsonOutput(cmd) {
		return printJSON(d.out(), cfg)
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	fmt.Fprintf(d.out(), "# %s\n", d.ConfigPath)
	_, err = d.out().Write(data)
	return err
}

func mask(token string) string {
	if token == "" {
		return ""
	}
	return "********"
}
