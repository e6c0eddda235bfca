// Package constants defines application-wide constants to avoid magic numbers
package constants

import "time"

// Network and Port Constants
const (
	// DefaultServerPort is the default port for the wakectl API server
	DefaultServerPort = 7700

	// DefaultServerHost is the default bind address for the API server
	DefaultServerHost = "localhost"
)

// File System Permissions
const (
	// DirPermissions is the standard directory permissions for wakectl directories
	DirPermissions = 0755

	// FilePermissions is the standard file permissions for wakectl config files
	FilePermissions = 0644

	// SecureDirPermissions is used for directories containing sensitive data
	SecureDirPermissions = 0700

	// SecureFilePermissions is used for files containing sensitive data
	SecureFilePermissions = 0600
)

// Registry Defaults
const (
	// DefaultEnvironment is used when no environment is given on the command line or in config
	DefaultEnvironment = "dev"

	// DefaultRegistryFile is the registry file name inside the config directory
	DefaultRegistryFile = "services.yaml"

	// TargetAll selects every service of an environment
	TargetAll = "all"
)

// Probe Timing
const (
	// DefaultWakeTimeout bounds a single health probe issued by wake
	DefaultWakeTimeout = 10 * time.Second

	// DefaultStatusTimeout bounds a single health probe issued by status checks
	DefaultStatusTimeout = 5 * time.Second

	// DefaultSlowThreshold is the round-trip above which a live service is reported as waking
	DefaultSlowThreshold = 5 * time.Second

	// DefaultWakePollInterval is the delay between re-probes when waiting for a service
	DefaultWakePollInterval = 2 * time.Second

	// DefaultMaxConcurrentProbes caps parallel probes for status and health queries
	DefaultMaxConcurrentProbes = 8

	// MaxProbeBodyBytes limits how much of a health payload is read
	MaxProbeBodyBytes = 64 * 1024
)

// Monitor Timing
const (
	// DefaultMonitorInterval is the delay between status polls
	DefaultMonitorInterval = 10 * time.Second

	// DefaultMonitorDuration is the wall-clock budget of a monitor session
	DefaultMonitorDuration = 5 * time.Minute
)

// HTTP Configuration
const (
	// DefaultHTTPClientTimeout is the default timeout for API client requests
	DefaultHTTPClientTimeout = 2 * time.Minute

	// DefaultClientRetryMax is the number of retries the API client makes on transient failures
	DefaultClientRetryMax = 2

	// DefaultServerReadTimeout is the default server read timeout
	DefaultServerReadTimeout = 10 * time.Second

	// DefaultServerWriteTimeout is the default server write timeout; wake calls with
	// wait enabled can take several probe timeouts
	DefaultServerWriteTimeout = 5 * time.Minute

	// DefaultServerShutdownTimeout is the default server graceful shutdown timeout
	DefaultServerShutdownTimeout = 30 * time.Second
)

// Network Port Validation
const (
	// MinPortNumber is the minimum valid TCP port number
	MinPortNumber = 1

	// MaxPortNumber is the maximum valid TCP port number
	MaxPortNumber = 65535
)

// Logging and Output Limits
const (
	// MaxErrorMessageLength is the maximum length for error messages before truncation
	MaxErrorMessageLength = 500
)
