package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"wakectl/internal/config"
	"wakectl/internal/constants"
	"wakectl/internal/interfaces"
	"wakectl/internal/logger"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// Config holds the server configuration
type Config struct {
	// Server settings
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	// APIToken enables the bearer token check on /api when non-empty
	APIToken string

	// CORS settings
	AllowOrigins []string
	AllowHeaders []string

	// Defaults applied to requests that leave them out
	DefaultEnvironment string
	MonitorInterval    time.Duration
	MonitorDuration    time.Duration

	LogLevel string
}

// DefaultConfig returns the default server configuration
func DefaultConfig() *Config {
	return &Config{
		Host:               constants.DefaultServerHost,
		Port:               constants.DefaultServerPort,
		ReadTimeout:        constants.DefaultServerReadTimeout,
		WriteTimeout:       constants.DefaultServerWriteTimeout,
		ShutdownTimeout:    constants.DefaultServerShutdownTimeout,
		AllowOrigins:       []string{"*"},
		AllowHeaders:       []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		DefaultEnvironment: constants.DefaultEnvironment,
		MonitorInterval:    constants.DefaultMonitorInterval,
		MonitorDuration:    constants.DefaultMonitorDuration,
		LogLevel:           "info",
	}
}

// ConfigFromGlobal builds the server configuration from the user configuration
func ConfigFromGlobal(g *config.GlobalConfig) *Config {
	cfg := DefaultConfig()
	cfg.Host = g.Server.Host
	cfg.Port = g.Server.Port
	cfg.ReadTimeout = g.Server.ReadTimeout()
	cfg.WriteTimeout = g.Server.WriteTimeout()
	cfg.ShutdownTimeout = g.Server.ShutdownTimeout()
	cfg.APIToken = g.Server.APIToken
	cfg.DefaultEnvironment = g.Registry.DefaultEnvironment
	cfg.MonitorInterval = g.Monitor.Interval()
	cfg.MonitorDuration = g.Monitor.Duration()
	cfg.LogLevel = g.Log.Level
	return cfg
}

// Server represents the main HTTP server
type Server struct {
	config    *Config
	echo      *echo.Echo
	backend   interfaces.Backend
	startTime time.Time
	setupOnce sync.Once
}

// New creates a new server instance serving backend
func New(cfg *Config, backend interfaces.Backend) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	if cfg.LogLevel != "" {
		logger.SetLevel(cfg.LogLevel)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Set custom error handler
	e.HTTPErrorHandler = ErrorHandler

	return &Server{
		config:    cfg,
		echo:      e,
		backend:   backend,
		startTime: time.Now(),
	}
}

// Echo returns the Echo instance
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	s.setup()
	return s.echo
}

func (s *Server) setup() {
	s.setupOnce.Do(func() {
		s.setupMiddleware()
		s.setupRoutes()
	})
}

// Start starts the server and blocks until ctx is cancelled, a termination
// signal arrives or the listener fails
func (s *Server) Start(ctx context.Context) error {
	s.setup()

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	logger.WithField("addr", addr).Info("Starting server")

	srv := &http.Server{
		Addr:         addr,
		Handler:      s.echo,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	errChan := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("failed to start server: %w", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errChan:
		return err
	case <-quit:
		logger.Info("Shutting down server...")
	case <-ctx.Done():
		logger.Info("Context cancelled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	logger.Info("Server stopped gracefully")
	return nil
}

// setupMiddleware configures all middleware
func (s *Server) setupMiddleware() {
	s.echo.Use(logger.RequestLogger())
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: s.config.AllowOrigins,
		AllowHeaders: s.config.AllowHeaders,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
	}))
}

// environment returns the env query or body value, or the configured default
func (s *Server) environment(env string) string {
	if env != "" {
		return env
	}
	return s.config.DefaultEnvironment
}
