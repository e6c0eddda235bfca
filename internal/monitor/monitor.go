// Package monitor polls service status on a fixed cadence for a bounded
// amount of time and hands every snapshot to a Renderer.
package monitor

import (
	"context"
	"time"

	"wakectl/internal/constants"
	"wakectl/internal/logger"
	"wakectl/internal/orchestrator"
	"wakectl/internal/registry"
)

// StatusSource is the status query the monitor observes
type StatusSource interface {
	GetStatus(ctx context.Context, target registry.Target, env string) (*orchestrator.StatusReport, error)
}

// Options configures a monitor session
type Options struct {
	Target      registry.Target
	Environment string
	Interval    time.Duration
	Duration    time.Duration
}

func (o Options) withDefaults() Options {
	if o.Interval <= 0 {
		o.Interval = constants.DefaultMonitorInterval
	}
	if o.Duration <= 0 {
		o.Duration = constants.DefaultMonitorDuration
	}
	if o.Environment == "" {
		o.Environment = constants.DefaultEnvironment
	}
	return o
}

// Snapshot is one successful poll
type Snapshot struct {
	Poll      int
	Report    *orchestrator.StatusReport
	Elapsed   time.Duration
	Remaining time.Duration
}

// Summary describes a finished session
type Summary struct {
	Polls       int
	Failures    int
	Last        *orchestrator.StatusReport
	Elapsed     time.Duration
	Interrupted bool
}

// Renderer presents monitor progress
type Renderer interface {
	RenderSnapshot(s Snapshot)
	RenderError(poll int, err error)
	RenderFinal(s Summary)
}

// Run polls src immediately and then every Interval until Duration has
// elapsed, polls once more and renders the final summary. A failed poll is
// rendered and the loop carries on. Cancelling ctx ends the session early
// with Interrupted set. Run only reads status and never wakes anything.
func Run(ctx context.Context, src StatusSource, opts Options, r Renderer) Summary {
	opts = opts.withDefaults()
	log := logger.WithContext(ctx).WithFields(logger.Fields{
		"target":      opts.Target.String(),
		"environment": opts.Environment,
	})

	start := time.Now()
	deadline := start.Add(opts.Duration)
	var summary Summary

	poll := func() {
		summary.Polls++
		report, err := src.GetStatus(ctx, opts.Target, opts.Environment)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			summary.Failures++
			log.WithError(err).WithField("poll", summary.Polls).Warn("Status poll failed")
			r.RenderError(summary.Polls, err)
			return
		}

		summary.Last = report
		remaining := time.Until(deadline)
		if remaining < 0 {
			remaining = 0
		}
		r.RenderSnapshot(Snapshot{
			Poll:      summary.Polls,
			Report:    report,
			Elapsed:   time.Since(start),
			Remaining: remaining,
		})
	}

	finish := func(interrupted bool) Summary {
		summary.Interrupted = interrupted
		summary.Elapsed = time.Since(start)
		r.RenderFinal(summary)
		log.WithFields(logger.Fields{
			"polls":       summary.Polls,
			"failures":    summary.Failures,
			"interrupted": interrupted,
		}).Debug("Monitor finished")
		return summary
	}

	ticks, stopTicker := newTicker(opts.Interval)
	defer stopTicker()
	expired, stopTimer := newTimer(opts.Duration)
	defer stopTimer()

	poll()

	for {
		select {
		case <-ctx.Done():
			return finish(true)
		case <-expired:
			poll()
			return finish(false)
		case <-ticks:
			// the closing poll belongs to the timer
			if time.Until(deadline) <= 0 {
				continue
			}
			poll()
		}
	}
}

var newTicker = func(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}

var newTimer = func(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTimer(d)
	return t.C, func() { t.Stop() }
}
