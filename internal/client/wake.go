package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"wakectl/internal/errors"
	"wakectl/internal/monitor"
	"wakectl/internal/orchestrator"
	"wakectl/internal/registry"
	"wakectl/internal/server"
)

// Wake asks the server to wake target in env
func (c *Client) Wake(ctx context.Context, target registry.Target, env string, opts orchestrator.WakeOptions) (*orchestrator.WakeOutcome, error) {
	req := server.WakeRequest{
		Target:         target.String(),
		Environment:    env,
		Wait:           opts.Wait,
		TimeoutSeconds: int(opts.Timeout.Seconds()),
	}

	// a wake lasts as long as its services take, so only ctx bounds it
	var outcome orchestrator.WakeOutcome
	if err := c.callWithTimeout(ctx, 0, http.MethodPost, "/api/wake", req, &outcome); err != nil {
		return nil, err
	}
	return &outcome, nil
}

// GetStatus fetches a status report
func (c *Client) GetStatus(ctx context.Context, target registry.Target, env string) (*orchestrator.StatusReport, error) {
	var report orchestrator.StatusReport
	if err := c.call(ctx, http.MethodGet, "/api/status?"+targetQuery(target, env).Encode(), nil, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// GetHealth fetches a health report
func (c *Client) GetHealth(ctx context.Context, target registry.Target, env string) (*orchestrator.HealthReport, error) {
	var report orchestrator.HealthReport
	if err := c.call(ctx, http.MethodGet, "/api/health?"+targetQuery(target, env).Encode(), nil, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// Environments lists the environments known to the server
func (c *Client) Environments(ctx context.Context) ([]registry.EnvironmentStats, error) {
	var resp server.EnvironmentsResponse
	if err := c.call(ctx, http.MethodGet, "/api/environments", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Environments, nil
}

// Services lists the services of env
func (c *Client) Services(ctx context.Context, env string) ([]*registry.ServiceDefinition, error) {
	var resp server.ServicesResponse
	path := "/api/environments/" + url.PathEscape(env) + "/services"
	if err := c.call(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Services, nil
}

// WakeOrder resolves the wake order on the server
func (c *Client) WakeOrder(ctx context.Context, target registry.Target, env string) ([]*registry.ServiceDefinition, error) {
	var resp server.WakeOrderResponse
	q := url.Values{"target": {target.String()}}
	path := "/api/environments/" + url.PathEscape(env) + "/order?" + q.Encode()
	if err := c.call(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Services, nil
}

// Stats returns registry statistics
func (c *Client) Stats(ctx context.Context) (*registry.Stats, error) {
	var stats registry.Stats
	if err := c.call(ctx, http.MethodGet, "/api/registry/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// Reload makes the server re-read its registry file
func (c *Client) Reload(ctx context.Context) (*registry.Stats, error) {
	var stats registry.Stats
	if err := c.call(ctx, http.MethodPost, "/api/registry/reload", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// StreamStatus runs a monitor on the server and replays its events into r.
// It returns once the server sends the final event or ctx is cancelled.
func (c *Client) StreamStatus(ctx context.Context, opts monitor.Options, r monitor.Renderer) error {
	q := targetQuery(opts.Target, opts.Environment)
	if opts.Interval > 0 {
		q.Set("interval_seconds", strconv.Itoa(int(opts.Interval.Seconds())))
	}
	if opts.Duration > 0 {
		q.Set("duration_seconds", strconv.Itoa(int(opts.Duration.Seconds())))
	}

	conn, err := c.WebSocketConnect(ctx, "/api/status/stream?"+q.Encode())
	if err != nil {
		return err
	}
	defer conn.Close()

	// ReadJSON does not watch ctx
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		var ev monitor.Event
		if err := conn.ReadJSON(&ev); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return errors.NetworkConnectionError(c.baseURL, err)
		}
		if monitor.Replay(ev, r) {
			return nil
		}
	}
}

func targetQuery(target registry.Target, env string) url.Values {
	q := url.Values{}
	q.Set("target", target.String())
	if env != "" {
		q.Set("environment", env)
	}
	return q
}
