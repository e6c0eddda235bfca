package errors

import "fmt"

// Configuration Errors
func ConfigNotFound(path string) *WakeError {
	return NewWithDetails(ErrConfigNotFound, "Configuration file not found", fmt.Sprintf("Path: %s", path))
}

func ConfigInvalid(reason string) *WakeError {
	return NewWithDetails(ErrConfigInvalid, "Invalid configuration", reason)
}

func ConfigParseError(cause error) *WakeError {
	return Wrap(ErrConfigParse, "Failed to parse configuration", cause)
}

func ConfigValidationError(field, reason string) *WakeError {
	return NewWithDetails(ErrConfigValidation, "Configuration validation failed",
		fmt.Sprintf("Field: %s, Reason: %s", field, reason))
}

// Registry Errors

// RegistryValidation is the ValidationError raised while loading a registry.
// field names the offending key path (for example "services.dev.auth.healthPath").
func RegistryValidation(field, reason string) *WakeError {
	return NewWithDetails(ErrRegistryValidation, "Registry validation failed",
		fmt.Sprintf("Field: %s, Reason: %s", field, reason)).
		WithContext("field", field)
}

// CircularDependency is raised when wake-order resolution re-enters a service
// that is still being visited.
func CircularDependency(service string) *WakeError {
	return NewWithDetails(ErrCircularDependency, "Circular dependency detected",
		fmt.Sprintf("Service: %s", service)).
		WithContext("service", service)
}

func ServiceNotFound(name, environment string) *WakeError {
	return NewWithDetails(ErrServiceNotFound, "Service not found",
		fmt.Sprintf("Service: %s, Environment: %s", name, environment)).
		WithContext("service", name).
		WithContext("environment", environment)
}

func EnvironmentNotFound(environment string) *WakeError {
	return NewWithDetails(ErrEnvironmentNotFound, "Environment not found",
		fmt.Sprintf("Environment: %s", environment)).
		WithContext("environment", environment)
}

// Probe Errors

// ProbeFailed is the ProbeError for a health probe that could not be completed.
func ProbeFailed(service, url string, cause error) *WakeError {
	return WrapWithDetails(ErrProbeFailed, "Health probe failed",
		fmt.Sprintf("Service: %s, URL: %s", service, url), cause)
}

// Network/API Errors
func NetworkConnectionError(endpoint string, cause error) *WakeError {
	return WrapWithDetails(ErrNetworkConnection, "Network connection failed",
		fmt.Sprintf("Endpoint: %s", endpoint), cause)
}

func APICallError(method, url string, cause error) *WakeError {
	return WrapWithDetails(ErrAPICall, "API call failed",
		fmt.Sprintf("Method: %s, URL: %s", method, url), cause)
}

func Unauthorized(reason string) *WakeError {
	return NewWithDetails(ErrUnauthorized, "Authentication required", reason)
}

// Validation Errors
func InvalidInput(input, expected string) *WakeError {
	return NewWithDetails(ErrInvalidInput, "Invalid input",
		fmt.Sprintf("Input: %s, Expected: %s", input, expected))
}

func InvalidPort(port interface{}, reason string) *WakeError {
	return NewWithDetails(ErrInvalidPort, "Invalid port",
		fmt.Sprintf("Port: %v, Reason: %s", port, reason))
}

// Internal Errors
func InternalError(details string, cause error) *WakeError {
	if cause != nil {
		return WrapWithDetails(ErrInternal, "Internal error", details, cause)
	}
	return NewWithDetails(ErrInternal, "Internal error", details)
}

func TimeoutError(operation string, duration interface{}) *WakeError {
	return NewWithDetails(ErrTimeout, "Operation timed out",
		fmt.Sprintf("Operation: %s, Duration: %v", operation, duration))
}
