// Package errors provides typed error definitions for wakectl.
// Fatal conditions (registry validation, dependency cycles, unknown services)
// are returned as *WakeError values carrying an ErrorCode; recoverable probe
// failures are folded into service states by the orchestrator instead.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a unique identifier for different error types
type ErrorCode string

const (
	// Configuration errors
	ErrConfigNotFound   ErrorCode = "CONFIG_NOT_FOUND"
	ErrConfigInvalid    ErrorCode = "CONFIG_INVALID"
	ErrConfigParse      ErrorCode = "CONFIG_PARSE"
	ErrConfigValidation ErrorCode = "CONFIG_VALIDATION"

	// Registry errors
	ErrRegistryValidation  ErrorCode = "REGISTRY_VALIDATION"
	ErrRegistryNotLoaded   ErrorCode = "REGISTRY_NOT_LOADED"
	ErrCircularDependency  ErrorCode = "CIRCULAR_DEPENDENCY"
	ErrServiceNotFound     ErrorCode = "SERVICE_NOT_FOUND"
	ErrEnvironmentNotFound ErrorCode = "ENVIRONMENT_NOT_FOUND"

	// Probe errors
	ErrProbeFailed ErrorCode = "PROBE_FAILED"

	// Network/API errors
	ErrNetworkConnection ErrorCode = "NETWORK_CONNECTION"
	ErrAPICall           ErrorCode = "API_CALL"
	ErrUnauthorized      ErrorCode = "UNAUTHORIZED"

	// Validation errors
	ErrInvalidInput ErrorCode = "INVALID_INPUT"
	ErrInvalidPort  ErrorCode = "INVALID_PORT"
	ErrNotFound     ErrorCode = "NOT_FOUND"

	// Internal errors
	ErrInternal  ErrorCode = "INTERNAL_ERROR"
	ErrTimeout   ErrorCode = "TIMEOUT"
	ErrCancelled ErrorCode = "CANCELLED"
)

// WakeError represents a structured error with additional context
type WakeError struct {
	Code       ErrorCode              `json:"code"`
	Message    string                 `json:"message"`
	Details    string                 `json:"details,omitempty"`
	Cause      error                  `json:"-"`
	Context    map[string]interface{} `json:"context,omitempty"`
	HTTPStatus int                    `json:"-"`
}

// Error implements the error interface
func (e *WakeError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error
func (e *WakeError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error
func (e *WakeError) WithContext(key string, value interface{}) *WakeError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithCause adds the underlying cause error
func (e *WakeError) WithCause(cause error) *WakeError {
	e.Cause = cause
	return e
}

// GetHTTPStatus returns the appropriate HTTP status code for this error
func (e *WakeError) GetHTTPStatus() int {
	if e.HTTPStatus != 0 {
		return e.HTTPStatus
	}

	switch e.Code {
	case ErrConfigNotFound, ErrServiceNotFound, ErrEnvironmentNotFound, ErrNotFound:
		return http.StatusNotFound
	case ErrUnauthorized:
		return http.StatusUnauthorized
	case ErrRegistryValidation, ErrConfigValidation, ErrInvalidInput, ErrInvalidPort:
		return http.StatusBadRequest
	case ErrCircularDependency:
		return http.StatusConflict
	case ErrRegistryNotLoaded:
		return http.StatusServiceUnavailable
	case ErrProbeFailed, ErrNetworkConnection:
		return http.StatusBadGateway
	case ErrTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// New creates a new WakeError
func New(code ErrorCode, message string) *WakeError {
	return &WakeError{
		Code:    code,
		Message: message,
	}
}

// NewWithDetails creates a new WakeError with details
func NewWithDetails(code ErrorCode, message, details string) *WakeError {
	return &WakeError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

// Wrap creates a new WakeError that wraps an existing error
func Wrap(code ErrorCode, message string, cause error) *WakeError {
	return &WakeError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WrapWithDetails creates a new WakeError with details that wraps an existing error
func WrapWithDetails(code ErrorCode, message, details string, cause error) *WakeError {
	return &WakeError{
		Code:    code,
		Message: message,
		Details: details,
		Cause:   cause,
	}
}

// As finds the first WakeError in err's chain.
func As(err error) (*WakeError, bool) {
	var we *WakeError
	if stderrors.As(err, &we) {
		return we, true
	}
	return nil, false
}

// IsWakeError checks if an error is (or wraps) a WakeError
func IsWakeError(err error) bool {
	_, ok := As(err)
	return ok
}

// GetCode extracts the error code from an error, if it's a WakeError
func GetCode(err error) ErrorCode {
	if we, ok := As(err); ok {
		return we.Code
	}
	return ""
}

// HasCode checks if an error has a specific error code
func HasCode(err error, code ErrorCode) bool {
	return GetCode(err) == code
}

// IsValidationError reports whether err is a registry validation failure.
func IsValidationError(err error) bool {
	return HasCode(err, ErrRegistryValidation)
}

// IsCircularDependency reports whether err is a dependency cycle failure.
func IsCircularDependency(err error) bool {
	return HasCode(err, ErrCircularDependency)
}

// Common pre-defined errors for consistency
var (
	ErrNoRegistry       = New(ErrRegistryNotLoaded, "service registry has not been loaded")
	ErrEmptyInput       = New(ErrInvalidInput, "input cannot be empty")
	ErrInvalidPortError = New(ErrInvalidPort, "port number is invalid")
)
