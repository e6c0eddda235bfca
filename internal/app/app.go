// Package app wires configuration, the backend and the CLI together
package app

import (
	"context"
	"os"
	"strings"

	"wakectl/internal/cli"
	"wakectl/internal/cli/commands"
	"wakectl/internal/client"
	"wakectl/internal/config"
	"wakectl/internal/logger"
	"wakectl/internal/service"
)

// App represents the main application
type App struct {
	Config     *config.GlobalConfig
	ConfigPath string

	// Exactly one of these is set once a command needs a backend
	Local  *service.Local
	Client *client.Client

	CLI *cli.Manager
}

// New creates a new application instance
func New() *App {
	return &App{}
}

// Run starts the application in the appropriate mode
func (a *App) Run(args []string) error {
	return a.RunWithContext(context.Background(), args)
}

// RunWithContext starts the application with a context for cancellation
func (a *App) RunWithContext(ctx context.Context, args []string) error {
	if err := a.loadConfig(args); err != nil {
		return err
	}

	a.configureLogging(args)

	a.CLI = cli.New(a.Config, a.ConfigPath)
	if a.Config.Client.ServerURL != "" {
		// Client mode - every command goes through the API
		a.CLI.SetBackend(a.remoteBackend)
	} else {
		// Local mode - the orchestrator runs in this process
		a.CLI.SetBackend(a.localBackend)
	}

	// Show help if no arguments provided
	if len(args) == 0 {
		return a.CLI.ExecuteWithContext(ctx, []string{"--help"})
	}

	return a.CLI.ExecuteWithContext(ctx, args)
}

// loadConfig reads the configuration file and applies the global flags
// that change how the backend is built
func (a *App) loadConfig(args []string) error {
	configPath := flagValue(args, "config")
	if configPath == "" {
		var err error
		if configPath, err = config.DefaultConfigPath(); err != nil {
			return err
		}
	}

	cfg, err := config.LoadGlobalConfigFrom(configPath)
	if err != nil {
		return err
	}

	if v := flagValue(args, "server"); v != "" {
		cfg.Client.ServerURL = v
	}
	if v := flagValue(args, "token"); v != "" {
		cfg.Client.Token = v
	}
	if v := flagValue(args, "log-level"); v != "" {
		cfg.Log.Level = v
	}

	a.Config = cfg
	a.ConfigPath = configPath
	return nil
}

// configureLogging keeps the CLI quiet unless asked otherwise. The server
// logs at the configured level.
func (a *App) configureLogging(args []string) {
	level := a.Config.Log.Level
	explicit := flagValue(args, "log-level") != "" || os.Getenv(config.EnvLogLevel) != ""
	if !isServerStart(args) && !explicit {
		level = "warn"
	}
	logger.SetLevel(level)
}

func (a *App) localBackend(ctx context.Context) (commands.Backend, error) {
	local, err := service.FromConfig(a.Config)
	if err != nil {
		return nil, err
	}
	a.Local = local
	return local, nil
}

func (a *App) remoteBackend(ctx context.Context) (commands.Backend, error) {
	c, err := client.New(a.Config.Client.ServerURL, client.Options{
		Token:    a.Config.Client.Token,
		RetryMax: a.Config.Client.RetryMax,
	})
	if err != nil {
		return nil, err
	}

	logger.WithField("server", c.BaseURL()).Debug("Using remote server")
	a.Client = c
	return c, nil
}

func isServerStart(args []string) bool {
	for i, arg := range args {
		if arg != "server" {
			continue
		}
		for _, next := range args[i+1:] {
			if !strings.HasPrefix(next, "-") {
				return next == "start"
			}
		}
	}
	return false
}

// flagValue finds --name value or --name=value before cobra parses args
func flagValue(args []string, name string) string {
	long := "--" + name
	for i, arg := range args {
		if arg == "--" {
			break
		}
		if arg == long && i+1 < len(args) {
			return args[i+1]
		}
		if strings.HasPrefix(arg, long+"=") {
			return strings.TrimPrefix(arg, long+"=")
		}
	}
	return ""
}
