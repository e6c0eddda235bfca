package server

import (
	"net/http"
	"time"

	"wakectl/internal/errors"
	"wakectl/internal/orchestrator"
	"wakectl/internal/registry"

	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"
)

const version = "1.0.0"

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	// Swagger documentation
	s.echo.GET("/swagger/*", echoSwagger.WrapHandler)

	// Health check
	s.echo.GET("/health", s.handleHealth)

	// API group
	api := s.echo.Group("/api", AuthMiddleware(s.config.APIToken))

	// Registry
	reg := api.Group("/registry")
	reg.GET("/stats", s.handleRegistryStats)
	reg.POST("/reload", s.handleRegistryReload)

	// Environments
	envs := api.Group("/environments")
	envs.GET("", s.handleListEnvironments)
	envs.GET("/:env/services", s.handleListServices)
	envs.GET("/:env/order", s.handleWakeOrder)

	// Wake and status
	api.POST("/wake", s.handleWake)
	api.GET("/status", s.handleStatus)
	api.GET("/status/stream", s.handleStatusStream)
	api.GET("/health", s.handleServiceHealth)
}

// handleHealth godoc
// @Summary Health check
// @Description Check if the API is healthy
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{
		Status:  "healthy",
		Version: version,
		Uptime:  time.Since(s.startTime).Round(time.Second).String(),
	})
}

// handleRegistryStats godoc
// @Summary Registry statistics
// @Description Service counts per environment and the last load time
// @Tags registry
// @Produce json
// @Success 200 {object} registry.Stats
// @Failure 503 {object} ErrorResponse
// @Router /api/registry/stats [get]
func (s *Server) handleRegistryStats(c echo.Context) error {
	stats, err := s.backend.Stats(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}

// handleRegistryReload godoc
// @Summary Reload the registry
// @Description Re-read the registry file. On validation failure the previous registry stays active.
// @Tags registry
// @Produce json
// @Success 200 {object} registry.Stats
// @Failure 400 {object} ErrorResponse
// @Router /api/registry/reload [post]
func (s *Server) handleRegistryReload(c echo.Context) error {
	stats, err := s.backend.Reload(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}

// handleListEnvironments godoc
// @Summary List environments
// @Tags registry
// @Produce json
// @Success 200 {object} EnvironmentsResponse
// @Router /api/environments [get]
func (s *Server) handleListEnvironments(c echo.Context) error {
	envs, err := s.backend.Environments(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, EnvironmentsResponse{
		Environments:       envs,
		DefaultEnvironment: s.config.DefaultEnvironment,
	})
}

// handleListServices godoc
// @Summary List services
// @Description Services of an environment in declaration order
// @Tags registry
// @Produce json
// @Param env path string true "Environment"
// @Success 200 {object} ServicesResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/environments/{env}/services [get]
func (s *Server) handleListServices(c echo.Context) error {
	env := c.Param("env")
	services, err := s.backend.Services(c.Request().Context(), env)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ServicesResponse{
		Environment: env,
		Services:    services,
		Total:       len(services),
	})
}

// handleWakeOrder godoc
// @Summary Resolve wake order
// @Description Dependencies come before their dependents
// @Tags registry
// @Produce json
// @Param env path string true "Environment"
// @Param target query string false "all, a service, a group or a comma separated list"
// @Success 200 {object} WakeOrderResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /api/environments/{env}/order [get]
func (s *Server) handleWakeOrder(c echo.Context) error {
	env := c.Param("env")
	target := registry.ParseTarget(c.QueryParam("target"))

	order, err := s.backend.WakeOrder(c.Request().Context(), target, env)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(order))
	for _, svc := range order {
		names = append(names, svc.Name)
	}
	return c.JSON(http.StatusOK, WakeOrderResponse{
		Environment: env,
		Target:      target.String(),
		Order:       names,
		Services:    order,
	})
}

// handleWake godoc
// @Summary Wake services
// @Description Probe the target and its dependencies in wake order. Resolution failures are reported in the outcome.
// @Tags wake
// @Accept json
// @Produce json
// @Param request body WakeRequest true "Wake request"
// @Success 200 {object} orchestrator.WakeOutcome
// @Failure 400 {object} ErrorResponse
// @Router /api/wake [post]
func (s *Server) handleWake(c echo.Context) error {
	var req WakeRequest
	if err := c.Bind(&req); err != nil {
		return errors.BadRequest("Invalid request body", err.Error())
	}
	if req.TimeoutSeconds < 0 {
		return errors.BadRequest("Invalid timeout", "timeout_seconds cannot be negative")
	}

	outcome, err := s.backend.Wake(c.Request().Context(),
		registry.ParseTarget(req.Target),
		s.environment(req.Environment),
		orchestrator.WakeOptions{
			Wait:    req.Wait,
			Timeout: time.Duration(req.TimeoutSeconds) * time.Second,
		})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, outcome)
}

// handleStatus godoc
// @Summary Service status
// @Description Re-probe services with the lenient classification (slow or 5xx is WAKING)
// @Tags wake
// @Produce json
// @Param environment query string false "Environment"
// @Param target query string false "all, a service, a group or a comma separated list"
// @Success 200 {object} orchestrator.StatusReport
// @Failure 404 {object} ErrorResponse
// @Router /api/status [get]
func (s *Server) handleStatus(c echo.Context) error {
	report, err := s.backend.GetStatus(c.Request().Context(),
		registry.ParseTarget(c.QueryParam("target")),
		s.environment(c.QueryParam("environment")))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, report)
}

// handleServiceHealth godoc
// @Summary Service health diagnostics
// @Description Probe services with the strict classification (5xx is FAILED) and return details
// @Tags wake
// @Produce json
// @Param environment query string false "Environment"
// @Param target query string false "all, a service, a group or a comma separated list"
// @Success 200 {object} orchestrator.HealthReport
// @Failure 404 {object} ErrorResponse
// @Router /api/health [get]
func (s *Server) handleServiceHealth(c echo.Context) error {
	report, err := s.backend.GetHealth(c.Request().Context(),
		registry.ParseTarget(c.QueryParam("target")),
		s.environment(c.QueryParam("environment")))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, report)
}
