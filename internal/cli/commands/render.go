package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"wakectl/internal/monitor"
	"wakectl/internal/orchestrator"
	"wakectl/internal/probe"
	"wakectl/internal/registry"

	"github.com/charmbracelet/lipgloss"
)

var (
	liveStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{Light: "#008000", Dark: "#00D75F"})
	wakingStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{Light: "#B58900", Dark: "#FFAF00"})
	deadStyle    = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#666666", Dark: "#8A8A8A"})
	failedStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{Light: "#CC0000", Dark: "#FF5F5F"})
	unknownStyle = lipgloss.NewStyle().Faint(true)
	headerStyle  = lipgloss.NewStyle().Bold(true)
	mutedStyle   = lipgloss.NewStyle().Faint(true)
)

func stateStyle(s probe.State) lipgloss.Style {
	switch s {
	case probe.StateLive:
		return liveStyle
	case probe.StateWaking:
		return wakingStyle
	case probe.StateDead:
		return deadStyle
	case probe.StateFailed:
		return failedStyle
	default:
		return unknownStyle
	}
}

// stateLabel renders a colored state. It always goes in the last column
// of a table since escape codes confuse tabwriter widths.
func stateLabel(s probe.State) string {
	return stateStyle(s).Render(string(s))
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func ms(n int64) string {
	return (time.Duration(n) * time.Millisecond).String()
}

func statusCode(code int) string {
	if code == 0 {
		return "-"
	}
	return fmt.Sprintf("%d", code)
}

func printWakeOutcome(w io.Writer, outcome *orchestrator.WakeOutcome) {
	fmt.Fprintf(w, "%s %s in %s\n",
		headerStyle.Render("Wake"), outcome.Target, outcome.Environment)

	if len(outcome.Services) > 0 {
		tw := newTable(w)
		fmt.Fprintln(tw, "SERVICE\tCODE\tTIME\tATTEMPTS\tSTATE")
		for _, r := range outcome.Services {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n",
				r.Service, statusCode(r.StatusCode), ms(r.DurationMs), r.Attempts, stateLabel(r.State))
		}
		tw.Flush()
	}

	for _, r := range outcome.Services {
		if r.Error != "" {
			fmt.Fprintf(w, "  %s: %s\n", r.Service, mutedStyle.Render(r.Error))
		}
	}

	switch {
	case outcome.Error != "":
		fmt.Fprintf(w, "%s %s\n", failedStyle.Render("✗"), outcome.Error)
	case outcome.Success:
		fmt.Fprintf(w, "%s all %d services live (%s)\n",
			liveStyle.Render("✓"), len(outcome.Services), ms(outcome.TotalDurationMs))
	default:
		fmt.Fprintf(w, "%s not every service is live yet (%s)\n",
			wakingStyle.Render("…"), ms(outcome.TotalDurationMs))
	}
}

func printSummary(w io.Writer, summary orchestrator.Summary) {
	parts := make([]string, 0, len(probe.AllStates))
	for _, s := range probe.AllStates {
		if n := summary[s]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, stateLabel(s)))
		}
	}
	if len(parts) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("no services"))
		return
	}
	fmt.Fprintln(w, strings.Join(parts, ", "))
}

func printStatusReport(w io.Writer, report *orchestrator.StatusReport) {
	tw := newTable(w)
	fmt.Fprintln(tw, "SERVICE\tCODE\tTIME\tLAST WAKE\tSTATE")
	for _, s := range report.Services {
		lastWake := "-"
		if s.LastWake != nil {
			lastWake = s.LastWake.Local().Format("15:04:05")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			s.Service, statusCode(s.StatusCode), ms(s.ResponseTimeMs), lastWake, stateLabel(s.State))
	}
	tw.Flush()
	printSummary(w, report.Summary)
}

func printHealthReport(w io.Writer, report *orchestrator.HealthReport) {
	for i, h := range report.Services {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s  %s\n", headerStyle.Render(h.Service), stateLabel(h.State))
		tw := newTable(w)
		fmt.Fprintf(tw, "  url\t%s\n", h.URL)
		fmt.Fprintf(tw, "  status code\t%s\n", statusCode(h.StatusCode))
		fmt.Fprintf(tw, "  response time\t%s\n", ms(h.ResponseTimeMs))
		if h.Uptime != nil {
			fmt.Fprintf(tw, "  uptime\t%v\n", h.Uptime)
		}
		if len(h.DependsOn) > 0 {
			fmt.Fprintf(tw, "  depends on\t%s\n", strings.Join(h.DependsOn, ", "))
		}
		if len(h.Dependents) > 0 {
			fmt.Fprintf(tw, "  needed by\t%s\n", strings.Join(h.Dependents, ", "))
		}
		if h.Description != "" {
			fmt.Fprintf(tw, "  description\t%s\n", h.Description)
		}
		if h.Error != "" {
			fmt.Fprintf(tw, "  error\t%s\n", h.Error)
		}
		tw.Flush()
	}

	if report.Healthy {
		fmt.Fprintf(w, "\n%s healthy\n", liveStyle.Render("✓"))
	} else {
		fmt.Fprintf(w, "\n%s unhealthy\n", failedStyle.Render("✗"))
	}
}

func printServices(w io.Writer, env string, services []*registry.ServiceDefinition) {
	fmt.Fprintf(w, "%s (%d services)\n", headerStyle.Render(env), len(services))
	tw := newTable(w)
	fmt.Fprintln(tw, "SERVICE\tHEALTH URL\tDEPENDS ON")
	for _, svc := range services {
		deps := "-"
		if len(svc.DependsOn) > 0 {
			deps = strings.Join(svc.DependsOn, ", ")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", svc.Name, svc.HealthURL(), deps)
	}
	tw.Flush()
}

// terminalRenderer prints monitor snapshots as they arrive
type terminalRenderer struct {
	w    io.Writer
	json bool
}

func (r *terminalRenderer) RenderSnapshot(s monitor.Snapshot) {
	if r.json {
		_ = printJSON(r.w, monitor.Event{
			Type:        monitor.EventSnapshot,
			Poll:        s.Poll,
			Report:      s.Report,
			ElapsedMs:   s.Elapsed.Milliseconds(),
			RemainingMs: s.Remaining.Milliseconds(),
		})
		return
	}
	fmt.Fprintf(r.w, "%s %s\n",
		headerStyle.Render(fmt.Sprintf("poll %d", s.Poll)),
		mutedStyle.Render(fmt.Sprintf("(%s elapsed, %s left)",
			s.Elapsed.Round(time.Second), s.Remaining.Round(time.Second))))
	printStatusReport(r.w, s.Report)
	fmt.Fprintln(r.w)
}

func (r *terminalRenderer) RenderError(poll int, err error) {
	if r.json {
		_ = printJSON(r.w, monitor.Event{Type: monitor.EventError, Poll: poll, Error: err.Error()})
		return
	}
	fmt.Fprintf(r.w, "%s poll %d failed: %v\n\n", failedStyle.Render("✗"), poll, err)
}

func (r *terminalRenderer) RenderFinal(s monitor.Summary) {
	if r.json {
		_ = printJSON(r.w, monitor.Event{
			Type:        monitor.EventFinal,
			Report:      s.Last,
			ElapsedMs:   s.Elapsed.Milliseconds(),
			Polls:       s.Polls,
			Failures:    s.Failures,
			Interrupted: s.Interrupted,
		})
		return
	}

	verb := "finished"
	if s.Interrupted {
		verb = "interrupted"
	}
	fmt.Fprintf(r.w, "%s monitor %s after %s: %d polls, %d failed\n",
		headerStyle.Render("■"), verb, s.Elapsed.Round(time.Second), s.Polls, s.Failures)
	if s.Last != nil {
		printSummary(r.w, s.Last.Summary)
	}
}
