package commands

import (
	"fmt"

	"wakectl/internal/registry"

	"github.com/spf13/cobra"
)

// RegistryCommands creates service registry commands
func RegistryCommands(d *Deps) []*cobra.Command {
	commands := []*cobra.Command{}

	// wakectl registry validate [file]
	validateCmd := &cobra.Command{
		Use:   "validate [file]",
		Short: "Validate a registry file",
		Long: `Parse and validate a registry file without loading it into a server.
Defaults to the configured registry path. Dependency cycles are reported
for every environment.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) > 0 {
				path = args[0]
			} else if d.Config != nil {
				path = d.Config.Registry.Path
			}
			return validateRegistry(cmd, d, path)
		},
	}
	commands = append(commands, validateCmd)

	// wakectl registry list
	listCmd := &cobra.Command{
		Use:     "list",
		Short:   "List environments and their services",
		Aliases: []string{"ls"},
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := d.Backend(cmd.Context())
			if err != nil {
				return err
			}

			var envs []string
			if cmd.Flags().Changed("env") {
				envs = []string{d.environment(cmd)}
			} else {
				stats, err := b.Environments(cmd.Context())
				if err != nil {
					return err
				}
				for _, e := range stats {
					envs = append(envs, e.Name)
				}
			}

			listing := make(map[string][]*registry.ServiceDefinition, len(envs))
			for i, env := range envs {
				services, err := b.Services(cmd.Context(), env)
				if err != nil {
					return err
				}
				listing[env] = services

				if !jsonOutput(cmd) {
					if i > 0 {
						fmt.Fprintln(d.out())
					}
					printServices(d.out(), env, services)
				}
			}

			if jsonOutput(cmd) {
				return printJSON(d.out(), listing)
			}
			return nil
		},
	}
	commands = append(commands, listCmd)

	// wakectl registry order [target...]
	orderCmd := &cobra.Command{
		Use:   "order [target...]",
		Short: "Show the wake order for a target",
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := d.Backend(cmd.Context())
			if err != nil {
				return err
			}

			order, err := b.WakeOrder(cmd.Context(), targetFromArgs(args), d.environment(cmd))
			if err != nil {
				return err
			}

			names := make([]string, 0, len(order))
			for _, svc := range order {
				names = append(names, svc.Name)
			}

			if jsonOutput(cmd) {
				return printJSON(d.out(), names)
			}
			for i, name := range names {
				fmt.Fprintf(d.out(), "%d. %s\n", i+1, name)
			}
			return nil
		},
	}
	commands = append(commands, orderCmd)

	// wakectl registry stats
	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show registry statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := d.Backend(cmd.Context())
			if err != nil {
				return err
			}

			stats, err := b.Stats(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOutput(cmd) {
				return printJSON(d.out(), stats)
			}
			printStats(d, stats)
			return nil
		},
	}
	commands = append(commands, statsCmd)

	// wakectl registry reload
	reloadCmd := &cobra.Command{
		Use:   "reload",
		Short: "Re-read the registry file",
		Long: `Re-read the registry file. Against a server this swaps in the new registry
for every client; if the file is invalid the server keeps the previous one.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := d.Backend(cmd.Context())
			if err != nil {
				return err
			}

			stats, err := b.Reload(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOutput(cmd) {
				return printJSON(d.out(), stats)
			}
			fmt.Fprintf(d.out(), "%s registry reloaded\n", liveStyle.Render("✓"))
			printStats(d, stats)
			return nil
		},
	}
	commands = append(commands, reloadCmd)

	return commands
}

func validateRegistry(cmd *cobra.Command, d *Deps, path string) error {
	reg, err := registry.LoadFile(path)
	if err != nil {
		return err
	}

	// cycles are only found by resolving
	for _, env := range reg.Environments() {
		if _, err := reg.ResolveWakeOrder(registry.AllTarget(), env); err != nil {
			return err
		}
	}

	stats := reg.GetStats()
	if jsonOutput(cmd) {
		return printJSON(d.out(), stats)
	}
	fmt.Fprintf(d.out(), "%s %s is valid\n", liveStyle.Render("✓"), path)
	printStats(d, &stats)
	return nil
}

func printStats(d *Deps, stats *registry.Stats) {
	w := d.out()
	if stats.Source != "" {
		fmt.Fprintf(w, "source:   %s\n", stats.Source)
	}
	if !stats.LastLoadTime.IsZero() {
		fmt.Fprintf(w, "loaded:   %s\n", stats.LastLoadTime.Local().Format("2006-01-02 15:04:05"))
	}
	fmt.Fprintf(w, "services: %d\n", stats.TotalServices)

	tw := newTable(w)
	for _, env := range stats.Environments {
		fmt.Fprintf(tw, "  %s\t%d\n", env.Name, env.ServiceCount)
	}
	tw.Flush()

	if stats.Groups > 0 {
		fmt.Fprintf(w, "groups:   %d\n", stats.Groups)
	}
}
