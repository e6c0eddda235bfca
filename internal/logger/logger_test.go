package logger

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prevOut, prevFmt, prevLevel := Logger.Out, Logger.Formatter, Logger.Level
	Logger.SetOutput(&buf)
	Logger.SetFormatter(&logrus.JSONFormatter{})
	Logger.SetLevel(logrus.DebugLevel)
	t.Cleanup(func() {
		Logger.SetOutput(prevOut)
		Logger.SetFormatter(prevFmt)
		Logger.SetLevel(prevLevel)
	})
	return &buf
}

func TestSetLevel(t *testing.T) {
	prev := Logger.Level
	defer Logger.SetLevel(prev)

	tests := map[string]logrus.Level{
		"debug":   logrus.DebugLevel,
		"warn":    logrus.WarnLevel,
		"error":   logrus.ErrorLevel,
		"info":    logrus.InfoLevel,
		"verbose": logrus.InfoLevel,
	}
	for in, want := range tests {
		SetLevel(in)
		assert.Equal(t, want, Logger.Level, in)
	}
}

func TestRequestLogger(t *testing.T) {
	buf := captureLogs(t)

	e := echo.New()
	e.Use(RequestLogger())
	e.GET("/ok", func(c echo.Context) error {
		GetLogger(c).Info("inside handler")
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/boom", func(c echo.Context) error {
		return errors.New("boom")
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ok", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	reqID := rec.Header().Get(echo.HeaderXRequestID)
	assert.NotEmpty(t, reqID)
	assert.Contains(t, buf.String(), `"request_id":"`+reqID+`"`)
	assert.Contains(t, buf.String(), "inside handler")
	assert.Contains(t, buf.String(), "Request completed")

	buf.Reset()
	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	req.Header.Set(echo.HeaderXRequestID, "fixed-id")
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "fixed-id", rec.Header().Get(echo.HeaderXRequestID))
	assert.Contains(t, buf.String(), "Request failed")
}

func TestForComponent(t *testing.T) {
	buf := captureLogs(t)
	ForComponent("client").Warn("retrying")
	assert.Contains(t, buf.String(), `"component":"client"`)
}
