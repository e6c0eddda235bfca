package errors

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// HTTPErrorResponse represents the structure of error responses sent to clients
type HTTPErrorResponse struct {
	Error     ErrorInfo              `json:"error"`
	Context   map[string]interface{} `json:"context,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
}

// ErrorInfo contains the core error information
type ErrorInfo struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
}

// ToHTTPError converts a WakeError to an Echo HTTP error
func ToHTTPError(err error) error {
	if we, ok := As(err); ok {
		return echo.NewHTTPError(we.GetHTTPStatus(), HTTPErrorResponse{
			Error: ErrorInfo{
				Code:    we.Code,
				Message: we.Message,
				Details: we.Details,
			},
			Context: we.Context,
		})
	}

	return echo.NewHTTPError(http.StatusInternalServerError, HTTPErrorResponse{
		Error: ErrorInfo{
			Code:    ErrInternal,
			Message: "Internal server error",
			Details: err.Error(),
		},
	})
}

// FromResponse rebuilds a WakeError from a decoded error body and status code.
// Used by the API client so remote failures keep their codes.
func FromResponse(status int, body HTTPErrorResponse) *WakeError {
	code := body.Error.Code
	if code == "" {
		code = ErrAPICall
	}
	return &WakeError{
		Code:       code,
		Message:    body.Error.Message,
		Details:    body.Error.Details,
		Context:    body.Context,
		HTTPStatus: status,
	}
}

// BadRequest creates a 400 Bad Request error
func BadRequest(message, details string) error {
	return echo.NewHTTPError(http.StatusBadRequest, HTTPErrorResponse{
		Error: ErrorInfo{
			Code:    ErrInvalidInput,
			Message: message,
			Details: details,
		},
	})
}

// UnauthorizedHTTP creates a 401 Unauthorized error
func UnauthorizedHTTP(message string) error {
	return echo.NewHTTPError(http.StatusUnauthorized, HTTPErrorResponse{
		Error: ErrorInfo{
			Code:    ErrUnauthorized,
			Message: "Authentication required",
			Details: message,
		},
	})
}
