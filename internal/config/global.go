// Package config loads the wakectl user configuration from
// $XDG_CONFIG_HOME/wakectl/config.toml.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"wakectl/internal/constants"
	"wakectl/internal/errors"
	"wakectl/internal/validation"
	"wakectl/internal/xdg"

	"github.com/pelletier/go-toml/v2"
)

// Environment variables that override the file
const (
	EnvServer   = "WAKECTL_SERVER"
	EnvToken    = "WAKECTL_TOKEN"
	EnvLogLevel = "WAKECTL_LOG_LEVEL"
)

// GlobalConfig represents the wakectl configuration
type GlobalConfig struct {
	Server   ServerConfig   `toml:"server"`
	Registry RegistryConfig `toml:"registry"`
	Probe    ProbeConfig    `toml:"probe"`
	Monitor  MonitorConfig  `toml:"monitor"`
	Client   ClientConfig   `toml:"client"`
	Log      LogConfig      `toml:"log"`
}

type ServerConfig struct {
	Host                   string `toml:"host"`
	Port                   int    `toml:"port"`
	APIToken               string `toml:"api_token,omitempty"` // Bearer token required by the API when set
	ReadTimeoutSeconds     int    `toml:"read_timeout_seconds"`
	WriteTimeoutSeconds    int    `toml:"write_timeout_seconds"`
	ShutdownTimeoutSeconds int    `toml:"shutdown_timeout_seconds"`
}

type RegistryConfig struct {
	Path               string `toml:"path"`                // services.yaml or services.json
	DefaultEnvironment string `toml:"default_environment"` // used when --env is not given
}

type ProbeConfig struct {
	WakeTimeoutSeconds   int `toml:"wake_timeout_seconds"`
	StatusTimeoutSeconds int `toml:"status_timeout_seconds"`
	SlowThresholdSeconds int `toml:"slow_threshold_seconds"`
	PollIntervalSeconds  int `toml:"poll_interval_seconds"`
	MaxConcurrentStatus  int `toml:"max_concurrent_status"`
}

type MonitorConfig struct {
	IntervalSeconds int `toml:"interval_seconds"`
	DurationSeconds int `toml:"duration_seconds"`
}

type ClientConfig struct {
	ServerURL string `toml:"server_url,omitempty"` // remote mode when set
	Token     string `toml:"token,omitempty"`
	RetryMax  int    `toml:"retry_max"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

// DefaultGlobalConfig returns the default configuration
func DefaultGlobalConfig() *GlobalConfig {
	return &GlobalConfig{
		Server: ServerConfig{
			Host:                   constants.DefaultServerHost,
			Port:                   constants.DefaultServerPort,
			ReadTimeoutSeconds:     seconds(constants.DefaultServerReadTimeout),
			WriteTimeoutSeconds:    seconds(constants.DefaultServerWriteTimeout),
			ShutdownTimeoutSeconds: seconds(constants.DefaultServerShutdownTimeout),
		},
		Registry: RegistryConfig{
			Path:               "", // Will use XDG default
			DefaultEnvironment: constants.DefaultEnvironment,
		},
		Probe: ProbeConfig{
			WakeTimeoutSeconds:   seconds(constants.DefaultWakeTimeout),
			StatusTimeoutSeconds: seconds(constants.DefaultStatusTimeout),
			SlowThresholdSeconds: seconds(constants.DefaultSlowThreshold),
			PollIntervalSeconds:  seconds(constants.DefaultWakePollInterval),
			MaxConcurrentStatus:  constants.DefaultMaxConcurrentProbes,
		},
		Monitor: MonitorConfig{
			IntervalSeconds: seconds(constants.DefaultMonitorInterval),
			DurationSeconds: seconds(constants.DefaultMonitorDuration),
		},
		Client: ClientConfig{
			RetryMax: constants.DefaultClientRetryMax,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

func seconds(d time.Duration) int {
	return int(d / time.Second)
}

// GetConfigDir returns the XDG config directory for wakectl
func GetConfigDir() (string, error) {
	return xdg.ConfigDir()
}

// DefaultConfigPath returns $XDG_CONFIG_HOME/wakectl/config.toml
func DefaultConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.toml"), nil
}

// LoadGlobalConfig loads the configuration from the XDG config directory.
// A missing file yields the defaults.
func LoadGlobalConfig() (*GlobalConfig, error) {
	configPath, err := DefaultConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadGlobalConfigFrom(configPath)
}

// LoadGlobalConfigFrom loads the configuration stored at configPath
func LoadGlobalConfigFrom(configPath string) (*GlobalConfig, error) {
	config := DefaultGlobalConfig()

	data, err := os.ReadFile(configPath)
	switch {
	case os.IsNotExist(err):
		// defaults only
	case err != nil:
		return nil, errors.Wrap(errors.ErrConfigParse, "Failed to read configuration", err)
	default:
		var fromFile GlobalConfig
		if err := toml.Unmarshal(data, &fromFile); err != nil {
			return nil, errors.ConfigParseError(err)
		}
		config = &fromFile
		config.applyDefaults()
	}

	if config.Registry.Path == "" {
		config.Registry.Path = filepath.Join(filepath.Dir(configPath), constants.DefaultRegistryFile)
	}

	config.applyEnv()

	if err := expandPaths(config); err != nil {
		return nil, err
	}

	return config, nil
}

// applyDefaults fills zero values with defaults
func (g *GlobalConfig) applyDefaults() {
	defaults := DefaultGlobalConfig()

	if g.Server.Host == "" {
		g.Server.Host = defaults.Server.Host
	}
	if g.Server.Port == 0 {
		g.Server.Port = defaults.Server.Port
	}
	if g.Server.ReadTimeoutSeconds == 0 {
		g.Server.ReadTimeoutSeconds = defaults.Server.ReadTimeoutSeconds
	}
	if g.Server.WriteTimeoutSeconds == 0 {
		g.Server.WriteTimeoutSeconds = defaults.Server.WriteTimeoutSeconds
	}
	if g.Server.ShutdownTimeoutSeconds == 0 {
		g.Server.ShutdownTimeoutSeconds = defaults.Server.ShutdownTimeoutSeconds
	}
	if g.Registry.DefaultEnvironment == "" {
		g.Registry.DefaultEnvironment = defaults.Registry.DefaultEnvironment
	}
	if g.Probe.WakeTimeoutSeconds == 0 {
		g.Probe.WakeTimeoutSeconds = defaults.Probe.WakeTimeoutSeconds
	}
	if g.Probe.StatusTimeoutSeconds == 0 {
		g.Probe.StatusTimeoutSeconds = defaults.Probe.StatusTimeoutSeconds
	}
	if g.Probe.SlowThresholdSeconds == 0 {
		g.Probe.SlowThresholdSeconds = defaults.Probe.SlowThresholdSeconds
	}
	if g.Probe.PollIntervalSeconds == 0 {
		g.Probe.PollIntervalSeconds = defaults.Probe.PollIntervalSeconds
	}
	if g.Probe.MaxConcurrentStatus == 0 {
		g.Probe.MaxConcurrentStatus = defaults.Probe.MaxConcurrentStatus
	}
	if g.Monitor.IntervalSeconds == 0 {
		g.Monitor.IntervalSeconds = defaults.Monitor.IntervalSeconds
	}
	if g.Monitor.DurationSeconds == 0 {
		g.Monitor.DurationSeconds = defaults.Monitor.DurationSeconds
	}
	if g.Client.RetryMax == 0 {
		g.Client.RetryMax = defaults.Client.RetryMax
	}
	if g.Log.Level == "" {
		g.Log.Level = defaults.Log.Level
	}
}

// applyEnv lets environment variables override the file
func (g *GlobalConfig) applyEnv() {
	if v := os.Getenv(EnvServer); v != "" {
		g.Client.ServerURL = v
	}
	if v := os.Getenv(EnvToken); v != "" {
		g.Client.Token = v
		if g.Server.APIToken == "" {
			g.Server.APIToken = v
		}
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		g.Log.Level = v
	}
}

// SaveGlobalConfig saves the configuration to the XDG config directory
func SaveGlobalConfig(config *GlobalConfig) error {
	configPath, err := DefaultConfigPath()
	if err != nil {
		return err
	}
	return config.Save(configPath)
}

// Save saves the configuration to the specified path
func (g *GlobalConfig) Save(path string) error {
	data, err := toml.Marshal(g)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), constants.DirPermissions); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// the file may carry an API token
	return os.WriteFile(path, data, constants.SecureFilePermissions)
}

// Validate checks ranges and required values
func (g *GlobalConfig) Validate() error {
	if err := validation.Port(g.Server.Port); err != nil {
		return err
	}
	if g.Registry.Path == "" {
		return errors.ConfigValidationError("registry.path", "cannot be empty")
	}
	if err := validation.Name("registry.default_environment", g.Registry.DefaultEnvironment); err != nil {
		return errors.ConfigValidationError("registry.default_environment", err.Error())
	}

	positive := map[string]int{
		"probe.wake_timeout_seconds":   g.Probe.WakeTimeoutSeconds,
		"probe.status_timeout_seconds": g.Probe.StatusTimeoutSeconds,
		"probe.slow_threshold_seconds": g.Probe.SlowThresholdSeconds,
		"probe.poll_interval_seconds":  g.Probe.PollIntervalSeconds,
		"probe.max_concurrent_status":  g.Probe.MaxConcurrentStatus,
		"monitor.interval_seconds":     g.Monitor.IntervalSeconds,
		"monitor.duration_seconds":     g.Monitor.DurationSeconds,
	}
	for field, value := range positive {
		if value <= 0 {
			return errors.ConfigValidationError(field, "must be greater than zero")
		}
	}

	if g.Client.RetryMax < 0 {
		return errors.ConfigValidationError("client.retry_max", "cannot be negative")
	}
	if g.Client.ServerURL != "" {
		if err := validation.ServiceURL("client.server_url", g.Client.ServerURL); err != nil {
			return errors.ConfigValidationError("client.server_url", err.Error())
		}
	}

	return nil
}

// ValidateGlobalConfig validates the configuration
func ValidateGlobalConfig(config *GlobalConfig) error {
	if config == nil {
		return errors.ConfigInvalid("config cannot be nil")
	}
	return config.Validate()
}

// ServerAddress returns host:port for the API server
func (g *GlobalConfig) ServerAddress() string {
	return fmt.Sprintf("%s:%d", g.Server.Host, g.Server.Port)
}

// WakeTimeout returns the per-probe timeout for wake calls
func (p ProbeConfig) WakeTimeout() time.Duration {
	return time.Duration(p.WakeTimeoutSeconds) * time.Second
}

// StatusTimeout returns the per-probe timeout for status and health calls
func (p ProbeConfig) StatusTimeout() time.Duration {
	return time.Duration(p.StatusTimeoutSeconds) * time.Second
}

// SlowThreshold returns the response time above which a live service is WAKING
func (p ProbeConfig) SlowThreshold() time.Duration {
	return time.Duration(p.SlowThresholdSeconds) * time.Second
}

// PollInterval returns the delay between re-probes of a wake with wait
func (p ProbeConfig) PollInterval() time.Duration {
	return time.Duration(p.PollIntervalSeconds) * time.Second
}

func (m MonitorConfig) Interval() time.Duration {
	return time.Duration(m.IntervalSeconds) * time.Second
}

func (m MonitorConfig) Duration() time.Duration {
	return time.Duration(m.DurationSeconds) * time.Second
}

func (s ServerConfig) ReadTimeout() time.Duration {
	return time.Duration(s.ReadTimeoutSeconds) * time.Second
}

func (s ServerConfig) WriteTimeout() time.Duration {
	return time.Duration(s.WriteTimeoutSeconds) * time.Second
}

func (s ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(s.ShutdownTimeoutSeconds) * time.Second
}

// expandPaths expands tilde paths in the configuration
func expandPaths(config *GlobalConfig) error {
	if !strings.HasPrefix(config.Registry.Path, "~/") {
		return nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	config.Registry.Path = filepath.Join(homeDir, config.Registry.Path[2:])
	return nil
}
