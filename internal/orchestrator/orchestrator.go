// Package orchestrator wakes services in dependency order and answers status
// and health queries by probing them.
package orchestrator

import (
	"context"
	"time"

	"wakectl/internal/constants"
	"wakectl/internal/errors"
	"wakectl/internal/logger"
	"wakectl/internal/probe"
	"wakectl/internal/registry"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// RegistrySource supplies the registry to resolve against. *registry.Store
// satisfies it.
type RegistrySource interface {
	Current() (*registry.Registry, error)
}

// Options tunes probing. Zero values fall back to the package defaults.
type Options struct {
	WakeTimeout   time.Duration
	StatusTimeout time.Duration
	SlowThreshold time.Duration
	PollInterval  time.Duration
	MaxConcurrent int
}

func (o Options) withDefaults() Options {
	if o.WakeTimeout <= 0 {
		o.WakeTimeout = constants.DefaultWakeTimeout
	}
	if o.StatusTimeout <= 0 {
		o.StatusTimeout = constants.DefaultStatusTimeout
	}
	if o.SlowThreshold <= 0 {
		o.SlowThreshold = constants.DefaultSlowThreshold
	}
	if o.PollInterval <= 0 {
		o.PollInterval = constants.DefaultWakePollInterval
	}
	if o.MaxConcurrent <= 0 {
		o.MaxConcurrent = constants.DefaultMaxConcurrentProbes
	}
	return o
}

// Orchestrator owns the per-service state map for one process
type Orchestrator struct {
	source RegistrySource
	prober *probe.Prober
	states *StateStore
	opts   Options
	now    func() time.Time
	after  func(time.Duration) <-chan time.Time
}

// New creates an Orchestrator. A nil prober uses probe.New(nil).
func New(source RegistrySource, prober *probe.Prober, opts Options) *Orchestrator {
	if prober == nil {
		prober = probe.New(nil)
	}
	return &Orchestrator{
		source: source,
		prober: prober,
		states: NewStateStore(),
		opts:   opts.withDefaults(),
		now:    time.Now,
		after:  time.After,
	}
}

// States returns the recorded state of every probed service in env
func (o *Orchestrator) States(env string) []Entry {
	return o.states.Snapshot(env)
}

// Options returns the effective probe options
func (o *Orchestrator) Options() Options {
	return o.opts
}

// ResolveWakeOrder resolves against the current registry
func (o *Orchestrator) ResolveWakeOrder(target registry.Target, env string) ([]*registry.ServiceDefinition, error) {
	reg, err := o.source.Current()
	if err != nil {
		return nil, err
	}
	return reg.ResolveWakeOrder(target, env)
}

// Wake probes the target services and their dependencies one at a time in
// wake order. Resolution failures are reported in the outcome rather than
// returned, so the caller always gets a structured result.
func (o *Orchestrator) Wake(ctx context.Context, target registry.Target, env string, opts WakeOptions) *WakeOutcome {
	if opts.Timeout <= 0 {
		opts.Timeout = o.opts.WakeTimeout
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = o.opts.PollInterval
	}

	started := o.now()
	outcome := &WakeOutcome{
		ID:          uuid.New().String(),
		Target:      target.String(),
		Environment: env,
		Services:    []WakeResult{},
		StartedAt:   started,
	}
	log := logger.WithContext(ctx).WithFields(logger.Fields{
		"wake_id":     outcome.ID,
		"target":      outcome.Target,
		"environment": env,
	})

	order, err := o.ResolveWakeOrder(target, env)
	if err != nil {
		log.WithError(err).Warn("Wake order resolution failed")
		outcome.Error = err.Error()
		outcome.ErrorCode = string(errors.GetCode(err))
		o.finish(outcome, started)
		return outcome
	}

	log.WithField("services", len(order)).Info("Waking services")

	success := true
	for _, svc := range order {
		if err := ctx.Err(); err != nil {
			outcome.Error = errors.Wrap(errors.ErrCancelled, "Wake cancelled", err).Error()
			outcome.ErrorCode = string(errors.ErrCancelled)
			success = false
			break
		}

		result := o.wakeOne(ctx, env, svc, opts)
		outcome.Services = append(outcome.Services, result)
		if result.State != probe.StateLive {
			success = false
		}

		log.WithFields(logger.Fields{
			"service":     svc.Name,
			"state":       result.State,
			"duration_ms": result.DurationMs,
			"attempts":    result.Attempts,
		}).Info("Service probed")
	}

	outcome.Success = success
	o.finish(outcome, started)
	return outcome
}

func (o *Orchestrator) finish(outcome *WakeOutcome, started time.Time) {
	outcome.TotalDuration = o.now().Sub(started)
	outcome.TotalDurationMs = outcome.TotalDuration.Milliseconds()
}

// wakeOne marks the service DEAD with a fresh wake time, probes it and
// records the thresholded state. With opts.Wait it keeps probing until LIVE
// or until opts.Timeout has passed.
func (o *Orchestrator) wakeOne(ctx context.Context, env string, svc *registry.ServiceDefinition, opts WakeOptions) WakeResult {
	wakeTime := o.now()
	o.states.MarkWaking(env, svc.Name, wakeTime)

	url := svc.HealthURL()
	deadline := wakeTime.Add(opts.Timeout)
	result := WakeResult{Service: svc.Name, LastWake: wakeTime}

	for {
		timeout := opts.Timeout
		if opts.Wait && result.Attempts > 0 {
			if remaining := deadline.Sub(o.now()); remaining < timeout {
				timeout = remaining
			}
			if timeout <= 0 {
				break
			}
		}

		raw := o.prober.Probe(ctx, url, timeout)
		result.Attempts++

		state := probe.ClassifyThreshold(raw, o.opts.SlowThreshold)
		errMsg := probeError(svc.Name, url, raw)
		o.states.Record(env, svc.Name, state, o.now(), errMsg)

		// the store keeps the classified state; the result reports a probe
		// that got no response as FAILED
		result.State = state
		result.StatusCode = raw.StatusCode
		result.Error = errMsg
		if raw.Err != nil {
			result.State = probe.StateFailed
		}

		if !opts.Wait || state == probe.StateLive || raw.Exceptional {
			break
		}

		wait := opts.PollInterval
		remaining := deadline.Sub(o.now())
		if remaining <= wait {
			break
		}

		select {
		case <-ctx.Done():
			result.Error = errors.Wrap(errors.ErrCancelled, "Wake cancelled", ctx.Err()).Error()
			result.Duration = o.now().Sub(wakeTime)
			result.DurationMs = result.Duration.Milliseconds()
			return result
		case <-o.after(wait):
		}
	}

	result.Duration = o.now().Sub(wakeTime)
	result.DurationMs = result.Duration.Milliseconds()
	return result
}

// probeError renders a probe failure as a message, or "" when the service answered
func probeError(service, url string, raw probe.Result) string {
	if raw.Err == nil {
		return ""
	}
	return errors.ProbeFailed(service, url, raw.Err).Error() + ": " + raw.Err.Error()
}

// GetStatus re-probes the targeted services concurrently using the lenient
// classification, records the resulting states and returns a snapshot. Last
// wake times are not changed.
func (o *Orchestrator) GetStatus(ctx context.Context, target registry.Target, env string) (*StatusReport, error) {
	services, err := o.selectServices(target, env)
	if err != nil {
		return nil, err
	}

	report := &StatusReport{
		Environment: env,
		Target:      target.String(),
		Services:    make([]ServiceStatus, len(services)),
		Summary:     newSummary(),
	}

	var g errgroup.Group
	g.SetLimit(o.opts.MaxConcurrent)
	for i, svc := range services {
		i, svc := i, svc
		g.Go(func() error {
			url := svc.HealthURL()
			raw := o.prober.Probe(ctx, url, o.opts.StatusTimeout)
			state := probe.ClassifyThreshold(raw, o.opts.SlowThreshold)
			checked := o.now()
			errMsg := probeError(svc.Name, url, raw)
			o.states.Record(env, svc.Name, state, checked, errMsg)

			report.Services[i] = ServiceStatus{
				Service:        svc.Name,
				URL:            url,
				State:          state,
				StatusCode:     raw.StatusCode,
				ResponseTimeMs: raw.Duration.Milliseconds(),
				Error:          errMsg,
				LastWake:       o.states.Get(env, svc.Name).LastWake,
				CheckedAt:      checked,
			}
			return nil
		})
	}
	_ = g.Wait()

	for _, s := range report.Services {
		report.Summary[s.State]++
	}
	report.Timestamp = o.now()

	logger.WithContext(ctx).WithFields(logger.Fields{
		"environment": env,
		"target":      report.Target,
		"live":        report.Summary[probe.StateLive],
		"services":    len(services),
	}).Debug("Status checked")

	return report, nil
}

// GetHealth probes the targeted services with the strict classification and
// returns diagnostic detail. It records nothing.
func (o *Orchestrator) GetHealth(ctx context.Context, target registry.Target, env string) (*HealthReport, error) {
	reg, err := o.source.Current()
	if err != nil {
		return nil, err
	}
	services, err := reg.Select(target, env)
	if err != nil {
		return nil, err
	}

	report := &HealthReport{
		Environment: env,
		Target:      target.String(),
		Services:    make([]ServiceHealth, len(services)),
	}

	var g errgroup.Group
	g.SetLimit(o.opts.MaxConcurrent)
	for i, svc := range services {
		i, svc := i, svc
		g.Go(func() error {
			url := svc.HealthURL()
			raw := o.prober.Probe(ctx, url, o.opts.StatusTimeout)
			state := probe.Classify(raw)

			entry := ServiceHealth{
				Service:        svc.Name,
				URL:            url,
				State:          state,
				Healthy:        state == probe.StateLive,
				StatusCode:     raw.StatusCode,
				ResponseTimeMs: raw.Duration.Milliseconds(),
				Uptime:         raw.Uptime,
				DependsOn:      append([]string{}, svc.DependsOn...),
				Dependents:     reg.Dependents(svc.Name, env),
				Description:    svc.Description,
			}
			if raw.Err != nil {
				entry.Error = raw.Err.Error()
			}
			report.Services[i] = entry
			return nil
		})
	}
	_ = g.Wait()

	report.Healthy = len(report.Services) > 0
	for _, s := range report.Services {
		if !s.Healthy {
			report.Healthy = false
		}
	}
	report.Timestamp = o.now()
	return report, nil
}

func (o *Orchestrator) selectServices(target registry.Target, env string) ([]*registry.ServiceDefinition, error) {
	reg, err := o.source.Current()
	if err != nil {
		return nil, err
	}
	return reg.Select(target, env)
}
