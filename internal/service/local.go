// Package service provides the in-process Backend: a registry store plus an
// orchestrator sharing one state map.
package service

import (
	"context"

	"wakectl/internal/config"
	"wakectl/internal/errors"
	"wakectl/internal/logger"
	"wakectl/internal/orchestrator"
	"wakectl/internal/registry"
)

// Local serves every operation from memory
type Local struct {
	store *registry.Store
	orch  *orchestrator.Orchestrator
}

// NewLocal wires a store to a new orchestrator
func NewLocal(store *registry.Store, orch *orchestrator.Orchestrator) *Local {
	return &Local{store: store, orch: orch}
}

// FromConfig loads the registry named by the configuration and builds an
// orchestrator with the configured probe settings
func FromConfig(g *config.GlobalConfig) (*Local, error) {
	store := registry.NewStore(g.Registry.Path)
	if _, err := store.Reload(); err != nil {
		return nil, err
	}

	orch := orchestrator.New(store, nil, orchestrator.Options{
		WakeTimeout:   g.Probe.WakeTimeout(),
		StatusTimeout: g.Probe.StatusTimeout(),
		SlowThreshold: g.Probe.SlowThreshold(),
		PollInterval:  g.Probe.PollInterval(),
		MaxConcurrent: g.Probe.MaxConcurrentStatus,
	})

	logger.WithFields(logger.Fields{
		"registry": g.Registry.Path,
	}).Debug("Local backend ready")

	return NewLocal(store, orch), nil
}

// Orchestrator exposes the underlying orchestrator
func (l *Local) Orchestrator() *orchestrator.Orchestrator {
	return l.orch
}

// Store exposes the underlying registry store
func (l *Local) Store() *registry.Store {
	return l.store
}

// Wake never returns an error; failures are carried in the outcome
func (l *Local) Wake(ctx context.Context, target registry.Target, env string, opts orchestrator.WakeOptions) (*orchestrator.WakeOutcome, error) {
	return l.orch.Wake(ctx, target, env, opts), nil
}

func (l *Local) GetStatus(ctx context.Context, target registry.Target, env string) (*orchestrator.StatusReport, error) {
	return l.orch.GetStatus(ctx, target, env)
}

func (l *Local) GetHealth(ctx context.Context, target registry.Target, env string) (*orchestrator.HealthReport, error) {
	return l.orch.GetHealth(ctx, target, env)
}

// Environments lists environments with their service counts
func (l *Local) Environments(ctx context.Context) ([]registry.EnvironmentStats, error) {
	reg, err := l.store.Current()
	if err != nil {
		return nil, err
	}
	return reg.GetStats().Environments, nil
}

// Services lists an environment's services in declaration order
func (l *Local) Services(ctx context.Context, env string) ([]*registry.ServiceDefinition, error) {
	reg, err := l.store.Current()
	if err != nil {
		return nil, err
	}
	if _, ok := reg.Environment(env); !ok {
		return nil, errors.EnvironmentNotFound(env)
	}
	return reg.GetServices(env), nil
}

func (l *Local) WakeOrder(ctx context.Context, target registry.Target, env string) ([]*registry.ServiceDefinition, error) {
	return l.orch.ResolveWakeOrder(target, env)
}

func (l *Local) Stats(ctx context.Context) (*registry.Stats, error) {
	reg, err := l.store.Current()
	if err != nil {
		return nil, err
	}
	stats := reg.GetStats()
	return &stats, nil
}

// Reload re-reads the registry file; the previous registry stays active on failure
func (l *Local) Reload(ctx context.Context) (*registry.Stats, error) {
	reg, err := l.store.Reload()
	if err != nil {
		return nil, err
	}
	stats := reg.GetStats()
	return &stats, nil
}
