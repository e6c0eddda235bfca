package commands

import (
	"context"

	"wakectl/internal/interfaces"
	"wakectl/internal/monitor"
)

// Backend is the in-process orchestrator or a remote server
type Backend = interfaces.Backend

// StatusStreamer is implemented by backends that can run the monitor
// loop themselves and push its events back
type StatusStreamer interface {
	StreamStatus(ctx context.Context, opts monitor.Options, r monitor.Renderer) error
}

// BackendProvider builds the backend the first time a command needs it
type BackendProvider func(ctx context.Context) (Backend, error)
