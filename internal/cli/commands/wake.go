package commands

import (
	"context"
	"time"

	"wakectl/internal/monitor"
	"wakectl/internal/orchestrator"
	"wakectl/internal/registry"

	"github.com/spf13/cobra"
)

// WakeCommands creates the wake command
func WakeCommands(d *Deps) []*cobra.Command {
	// wakectl wake [target...]
	wakeCmd := &cobra.Command{
		Use:   "wake [target...]",
		Short: "Wake services and their dependencies",
		Long: `Probe every service of the target in wake order, dependencies first.
The target is "all" (the default), a service, a group, or several of them.

With --wait a service that is not live yet is probed again until it answers
or its timeout runs out. With --monitor the status of the target is watched
after the wake completes.`,
		Example: `  wakectl wake consumer
  wakectl wake payment ledger --env staging --wait --timeout 60
  wakectl wake all --monitor --interval 5 --duration 120`,
		RunE: func(cmd *cobra.Command, args []string) error {
			wait, _ := cmd.Flags().GetBool("wait")
			timeout, _ := cmd.Flags().GetInt("timeout")
			watch, _ := cmd.Flags().GetBool("monitor")

			target := targetFromArgs(args)
			env := d.environment(cmd)

			outcome, err := wake(cmd.Context(), d, target, env, orchestrator.WakeOptions{
				Wait:    wait,
				Timeout: time.Duration(timeout) * time.Second,
			})
			if err != nil {
				return err
			}

			if jsonOutput(cmd) {
				if err := printJSON(d.out(), outcome); err != nil {
					return err
				}
			} else {
				printWakeOutcome(d.out(), outcome)
			}

			if watch && outcome.Error == "" {
				if err := runMonitor(cmd.Context(), cmd, d, monitorOptions(cmd, d, target, env)); err != nil {
					return err
				}
			}

			if !outcome.Success {
				return &ExitError{Code: 1}
			}
			return nil
		},
	}
	wakeCmd.Flags().BoolP("wait", "w", false, "Keep probing until each service is live or its timeout runs out")
	wakeCmd.Flags().IntP("timeout", "t", 0, "Per-service timeout in seconds (0 uses the configured default)")
	wakeCmd.Flags().BoolP("monitor", "m", false, "Watch status after waking")
	addMonitorFlags(wakeCmd)

	return []*cobra.Command{wakeCmd}
}

func wake(ctx context.Context, d *Deps, target registry.Target, env string, opts orchestrator.WakeOptions) (*orchestrator.WakeOutcome, error) {
	b, err := d.Backend(ctx)
	if err != nil {
		return nil, err
	}
	return b.Wake(ctx, target, env, opts)
}

func addMonitorFlags(cmd *cobra.Command) {
	cmd.Flags().Int("interval", 0, "Seconds between status polls (0 uses the configured default)")
	cmd.Flags().Int("duration", 0, "Seconds to keep watching (0 uses the configured default)")
}

func monitorOptions(cmd *cobra.Command, d *Deps, target registry.Target, env string) monitor.Options {
	interval, _ := cmd.Flags().GetInt("interval")
	duration, _ := cmd.Flags().GetInt("duration")

	opts := monitor.Options{
		Target:      target,
		Environment: env,
		Interval:    time.Duration(interval) * time.Second,
		Duration:    time.Duration(duration) * time.Second,
	}
	if d.Config != nil {
		if opts.Interval <= 0 {
			opts.Interval = d.Config.Monitor.Interval()
		}
		if opts.Duration <= 0 {
			opts.Duration = d.Config.Monitor.Duration()
		}
	}
	return opts
}
