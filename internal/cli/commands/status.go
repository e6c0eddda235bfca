package commands

import (
	"github.com/spf13/cobra"
)

// StatusCommands creates the status and health commands
func StatusCommands(d *Deps) []*cobra.Command {
	// wakectl status [target...]
	statusCmd := &cobra.Command{
		Use:   "status [target...]",
		Short: "Probe services and show their state",
		Long: `Probe the named services (all by default) without following dependencies.
A service answering with a 5xx or slower than the slow threshold is shown
as WAKING.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := d.Backend(cmd.Context())
			if err != nil {
				return err
			}

			report, err := b.GetStatus(cmd.Context(), targetFromArgs(args), d.environment(cmd))
			if err != nil {
				return err
			}

			if jsonOutput(cmd) {
				return printJSON(d.out(), report)
			}
			printStatusReport(d.out(), report)
			return nil
		},
	}

	// wakectl health [target...]
	healthCmd := &cobra.Command{
		Use:   "health [target...]",
		Short: "Show detailed health diagnostics",
		Long: `Probe the named services (all by default) and show status codes, response
times, uptime and dependencies. A 5xx answer counts as FAILED here. Exits
non-zero when any service is not healthy.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := d.Backend(cmd.Context())
			if err != nil {
				return err
			}

			report, err := b.GetHealth(cmd.Context(), targetFromArgs(args), d.environment(cmd))
			if err != nil {
				return err
			}

			if jsonOutput(cmd) {
				if err := printJSON(d.out(), report); err != nil {
					return err
				}
			} else {
				printHealthReport(d.out(), report)
			}

			if !report.Healthy {
				return &ExitError{Code: 1}
			}
			return nil
		},
	}

	return []*cobra.Command{statusCmd, healthCmd}
}
