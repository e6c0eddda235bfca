// Package interfaces provides the interfaces shared by the local
// orchestrator, the API server and the API client.
package interfaces

import (
	"context"

	"wakectl/internal/orchestrator"
	"wakectl/internal/registry"
)

// WakeService wakes services and reports their state. The in-process
// implementation lives in internal/service; internal/client implements it
// against a remote server.
type WakeService interface {
	WakeOperations
	StatusOperations
}

// WakeOperations handles wake calls
type WakeOperations interface {
	Wake(ctx context.Context, target registry.Target, env string, opts orchestrator.WakeOptions) (*orchestrator.WakeOutcome, error)
}

// StatusOperations handles read-side queries
type StatusOperations interface {
	GetStatus(ctx context.Context, target registry.Target, env string) (*orchestrator.StatusReport, error)
	GetHealth(ctx context.Context, target registry.Target, env string) (*orchestrator.HealthReport, error)
}

// RegistryService exposes the loaded service registry
type RegistryService interface {
	Environments(ctx context.Context) ([]registry.EnvironmentStats, error)
	Services(ctx context.Context, env string) ([]*registry.ServiceDefinition, error)
	WakeOrder(ctx context.Context, target registry.Target, env string) ([]*registry.ServiceDefinition, error)
	Stats(ctx context.Context) (*registry.Stats, error)
	Reload(ctx context.Context) (*registry.Stats, error)
}

// Backend is everything the CLI and the API server need
type Backend interface {
	WakeService
	RegistryService
}
