package server

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"wakectl/internal/errors"
	"wakectl/internal/logger"
	"wakectl/internal/monitor"
	"wakectl/internal/registry"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const wsWriteWait = 10 * time.Second

// WebSocket upgrader configuration
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")

		// Allow connections without origin header (e.g., CLI tools)
		if origin == "" {
			return true
		}

		allowedOrigins := []string{
			"http://localhost",
			"https://localhost",
			"http://127.0.0.1",
			"https://127.0.0.1",
			"http://[::1]",
			"https://[::1]",
		}
		for _, allowed := range allowedOrigins {
			if strings.HasPrefix(origin, allowed) {
				return true
			}
		}

		logger.WithFields(logger.Fields{
			"origin": origin,
			"remote": r.RemoteAddr,
		}).Warn("WebSocket connection rejected - invalid origin")

		return false
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
}

// handleStatusStream streams monitor events over a websocket
// @Summary Stream service status
// @Description Poll status every interval for a bounded duration and push each snapshot as a JSON event. The last event has type "final".
// @Tags wake,websocket
// @Param environment query string false "Environment"
// @Param target query string false "all, a service, a group or a comma separated list"
// @Param interval_seconds query int false "Seconds between polls"
// @Param duration_seconds query int false "Seconds to keep streaming"
// @Success 101 {string} string "Switching Protocols"
// @Failure 400 {object} ErrorResponse
// @Router /api/status/stream [get]
func (s *Server) handleStatusStream(c echo.Context) error {
	interval, err := secondsParam(c, "interval_seconds", s.config.MonitorInterval)
	if err != nil {
		return err
	}
	duration, err := secondsParam(c, "duration_seconds", s.config.MonitorDuration)
	if err != nil {
		return err
	}

	opts := monitor.Options{
		Target:      registry.ParseTarget(c.QueryParam("target")),
		Environment: s.environment(c.QueryParam("environment")),
		Interval:    interval,
		Duration:    duration,
	}

	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// the upgrader already wrote the error response
		return nil
	}
	defer ws.Close()

	log := logger.GetLogger(c).WithFields(logger.Fields{
		"target":      opts.Target.String(),
		"environment": opts.Environment,
	})
	log.Info("Status stream opened")

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()

	// The read loop only watches for the peer going away.
	go func() {
		defer cancel()
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	var writeMu sync.Mutex
	renderer := &monitor.EventRenderer{Send: func(ev monitor.Event) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		_ = ws.SetWriteDeadline(time.Now().Add(wsWriteWait))
		if err := ws.WriteJSON(ev); err != nil {
			cancel()
			return err
		}
		return nil
	}}

	summary := monitor.Run(ctx, s.backend, opts, renderer)

	writeMu.Lock()
	_ = ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "monitor finished"),
		time.Now().Add(wsWriteWait))
	writeMu.Unlock()

	log.WithFields(logger.Fields{
		"polls":       summary.Polls,
		"failures":    summary.Failures,
		"interrupted": summary.Interrupted,
	}).Info("Status stream closed")
	return nil
}

func secondsParam(c echo.Context, name string, fallback time.Duration) (time.Duration, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, errors.BadRequest("Invalid "+name, "must be a positive integer")
	}
	return time.Duration(n) * time.Second, nil
}
