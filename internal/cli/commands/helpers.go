package commands

import (
	"context"
	"io"
	"os"
	"strings"

	"wakectl/internal/config"
	"wakectl/internal/constants"
	"wakectl/internal/errors"
	"wakectl/internal/lazy"
	"wakectl/internal/registry"

	"github.com/spf13/cobra"
)

// Deps carries what commands share: configuration, the backend and output
type Deps struct {
	Config     *config.GlobalConfig
	ConfigPath string
	Provider   BackendProvider
	Out        io.Writer

	backend *lazy.Value[Backend]
}

// Backend returns the backend, building it on first use
func (d *Deps) Backend(ctx context.Context) (Backend, error) {
	if d.Provider == nil {
		return nil, errors.ErrNoRegistry
	}
	if d.backend == nil {
		d.backend = lazy.New(lazy.Loader[Backend](d.Provider))
	}
	return d.backend.Get(ctx)
}

func (d *Deps) out() io.Writer {
	if d.Out != nil {
		return d.Out
	}
	return os.Stdout
}

// environment returns --env, or the configured default
func (d *Deps) environment(cmd *cobra.Command) string {
	if env, _ := cmd.Flags().GetString("env"); env != "" {
		return env
	}
	if d.Config != nil && d.Config.Registry.DefaultEnvironment != "" {
		return d.Config.Registry.DefaultEnvironment
	}
	return constants.DefaultEnvironment
}

// jsonOutput reports whether --output json was requested
func jsonOutput(cmd *cobra.Command) bool {
	out, _ := cmd.Flags().GetString("output")
	return strings.EqualFold(out, "json")
}

// targetFromArgs joins positional arguments into a target. No arguments
// means every service.
func targetFromArgs(args []string) registry.Target {
	return registry.ParseTarget(strings.Join(args, ","))
}
