package commands

import (
	"context"
	stderrors "errors"
	"time"

	"wakectl/internal/monitor"

	"github.com/spf13/cobra"
)

// MonitorCommands creates the monitor command
func MonitorCommands(d *Deps) []*cobra.Command {
	// wakectl monitor [target...]
	monitorCmd := &cobra.Command{
		Use:   "monitor [target...]",
		Short: "Watch service status for a while",
		Long: `Poll the status of the target every interval until the duration has passed,
then poll once more and print a summary. Interrupt with Ctrl-C to stop early.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMonitor(cmd.Context(), cmd, d, monitorOptions(cmd, d, targetFromArgs(args), d.environment(cmd)))
		},
	}
	addMonitorFlags(monitorCmd)

	return []*cobra.Command{monitorCmd}
}

// runMonitor runs the loop in-process, or on the server when the backend
// can stream
func runMonitor(ctx context.Context, cmd *cobra.Command, d *Deps, opts monitor.Options) error {
	b, err := d.Backend(ctx)
	if err != nil {
		return err
	}

	r := &trackingRenderer{next: &terminalRenderer{w: d.out(), json: jsonOutput(cmd)}, start: time.Now()}

	streamer, ok := b.(StatusStreamer)
	if !ok {
		monitor.Run(ctx, b, opts, r)
		return nil
	}

	err = streamer.StreamStatus(ctx, opts, r)
	if err != nil && !stderrors.Is(err, context.Canceled) {
		return err
	}
	if !r.finished {
		// the connection went away before the server sent its summary
		r.RenderFinal(monitor.Summary{
			Polls:       r.polls,
			Failures:    r.failures,
			Last:        r.last.Report,
			Elapsed:     time.Since(r.start),
			Interrupted: true,
		})
	}
	return nil
}

// trackingRenderer remembers enough to summarize a stream cut short
type trackingRenderer struct {
	next     monitor.Renderer
	start    time.Time
	polls    int
	failures int
	last     monitor.Snapshot
	finished bool
}

func (r *trackingRenderer) RenderSnapshot(s monitor.Snapshot) {
	r.polls = s.Poll
	r.last = s
	r.next.RenderSnapshot(s)
}

func (r *trackingRenderer) RenderError(poll int, err error) {
	r.polls = poll
	r.failures++
	r.next.RenderError(poll, err)
}

func (r *trackingRenderer) RenderFinal(s monitor.Summary) {
	r.finished = true
	r.next.RenderFinal(s)
}
