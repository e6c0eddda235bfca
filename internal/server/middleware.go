package server

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"wakectl/internal/errors"
	"wakectl/internal/logger"

	"github.com/labstack/echo/v4"
)

// AuthMiddleware is a pass-through boundary check. With an empty token every
// request is let through; otherwise the request must carry
// "Authorization: Bearer <token>". Websocket clients that cannot set headers
// may send the token as the access_token query parameter.
func AuthMiddleware(token string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if token == "" {
			return next
		}
		return func(c echo.Context) error {
			presented := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if presented == "" {
				presented = c.QueryParam("access_token")
			}
			if presented == "" {
				return errors.UnauthorizedHTTP("missing bearer token")
			}
			if subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
				logger.GetLogger(c).Warn("Rejected request with invalid token")
				return errors.UnauthorizedHTTP("invalid bearer token")
			}
			return next(c)
		}
	}
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

// ErrorHandler writes every error as an HTTPErrorResponse
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var (
		code = http.StatusInternalServerError
		body errors.HTTPErrorResponse
	)

	if we, ok := errors.As(err); ok {
		code = we.GetHTTPStatus()
		body = errors.HTTPErrorResponse{
			Error:   errors.ErrorInfo{Code: we.Code, Message: we.Message, Details: we.Details},
			Context: we.Context,
		}
	} else if he, ok := err.(*echo.HTTPError); ok {
		code = he.Code
		switch m := he.Message.(type) {
		case errors.HTTPErrorResponse:
			body = m
		case string:
			body.Error = errors.ErrorInfo{Code: codeForStatus(code), Message: m}
		default:
			body.Error = errors.ErrorInfo{Code: codeForStatus(code), Message: http.StatusText(code)}
		}
	} else {
		body.Error = errors.ErrorInfo{Code: errors.ErrInternal, Message: "Internal server error", Details: err.Error()}
	}

	body.RequestID = c.Response().Header().Get(echo.HeaderXRequestID)

	if code >= http.StatusInternalServerError {
		logger.GetLogger(c).WithError(err).Error("Request error")
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	_ = c.JSON(code, body)
}

func codeForStatus(status int) errors.ErrorCode {
	switch status {
	case http.StatusBadRequest:
		return errors.ErrInvalidInput
	case http.StatusUnauthorized:
		return errors.ErrUnauthorized
	case http.StatusNotFound:
		return errors.ErrNotFound
	case http.StatusGatewayTimeout:
		return errors.ErrTimeout
	default:
		return errors.ErrInternal
	}
}
