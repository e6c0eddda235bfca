package server

import (
	"wakectl/internal/errors"
	"wakectl/internal/registry"
)

// ErrorResponse documents the error body for swagger
type ErrorResponse = errors.HTTPErrorResponse

// HealthResponse is returned by GET /health
type HealthResponse struct {
	Status  string `json:"status" example:"healthy"`
	Version string `json:"version" example:"1.0.0"`
	Uptime  string `json:"uptime" example:"2h30m15s"`
}

// WakeRequest is the body of POST /api/wake
type WakeRequest struct {
	Target         string `json:"target" example:"payment"`
	Environment    string `json:"environment" example:"dev"`
	Wait           bool   `json:"wait"`
	TimeoutSeconds int    `json:"timeout_seconds" example:"10"`
}

// EnvironmentsResponse lists the environments of the loaded registry
type EnvironmentsResponse struct {
	Environments       []registry.EnvironmentStats `json:"environments"`
	DefaultEnvironment string                      `json:"default_environment" example:"dev"`
}

// ServicesResponse lists the services of one environment in declaration order
type ServicesResponse struct {
	Environment string                        `json:"environment" example:"dev"`
	Services    []*registry.ServiceDefinition `json:"services"`
	Total       int                           `json:"total" example:"3"`
}

// WakeOrderResponse is the resolved wake order for a target
type WakeOrderResponse struct {
	Environment string                        `json:"environment" example:"dev"`
	Target      string                        `json:"target" example:"consumer"`
	Order       []string                      `json:"order" example:"auth,payment,consumer"`
	Services    []*registry.ServiceDefinition `json:"services"`
}
