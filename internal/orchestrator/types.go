package orchestrator

import (
	"time"

	"wakectl/internal/probe"
)

// WakeOptions controls a wake call
type WakeOptions struct {
	// Wait keeps re-probing a service that is not LIVE until it is, or until
	// Timeout has elapsed for that service.
	Wait bool

	// Timeout bounds each probe, and the whole wait per service when Wait is set.
	Timeout time.Duration

	PollInterval time.Duration
}

// WakeResult is the outcome of waking one service
type WakeResult struct {
	Service    string        `json:"service"`
	State      probe.State   `json:"state"`
	Duration   time.Duration `json:"-"`
	DurationMs int64         `json:"durationMs"`
	StatusCode int           `json:"statusCode,omitempty"`
	Error      string        `json:"error,omitempty"`
	LastWake   time.Time     `json:"lastWake"`
	Attempts   int           `json:"attempts"`
}

// WakeOutcome aggregates a wake call. Success is true only when every
// service ended LIVE.
type WakeOutcome struct {
	ID              string        `json:"id"`
	Target          string        `json:"target"`
	Environment     string        `json:"environment"`
	Success         bool          `json:"success"`
	Services        []WakeResult  `json:"services"`
	TotalDuration   time.Duration `json:"-"`
	TotalDurationMs int64         `json:"totalDurationMs"`
	Error           string        `json:"error,omitempty"`
	ErrorCode       string        `json:"errorCode,omitempty"`
	StartedAt       time.Time     `json:"startedAt"`
}

// ServiceStatus is one line of a status report
type ServiceStatus struct {
	Service        string      `json:"service"`
	URL            string      `json:"url"`
	State          probe.State `json:"state"`
	StatusCode     int         `json:"statusCode,omitempty"`
	ResponseTimeMs int64       `json:"responseTimeMs"`
	Error          string      `json:"error,omitempty"`
	LastWake       *time.Time  `json:"lastWake,omitempty"`
	CheckedAt      time.Time   `json:"checkedAt"`
}

// Summary counts services per state
type Summary map[probe.State]int

// Total returns the number of services counted
func (s Summary) Total() int {
	n := 0
	for _, c := range s {
		n += c
	}
	return n
}

// AllLive reports whether every counted service is LIVE
func (s Summary) AllLive() bool {
	total := s.Total()
	return total > 0 && s[probe.StateLive] == total
}

func newSummary() Summary {
	s := make(Summary, len(probe.AllStates))
	for _, state := range probe.AllStates {
		s[state] = 0
	}
	return s
}

// StatusReport is a point-in-time view of the targeted services
type StatusReport struct {
	Environment string          `json:"environment"`
	Target      string          `json:"target"`
	Services    []ServiceStatus `json:"services"`
	Summary     Summary         `json:"summary"`
	Timestamp   time.Time       `json:"timestamp"`
}

// ServiceHealth is the detailed, unthresholded probe outcome for one service
type ServiceHealth struct {
	Service        string      `json:"service"`
	URL            string      `json:"url"`
	State          probe.State `json:"state"`
	Healthy        bool        `json:"healthy"`
	StatusCode     int         `json:"statusCode,omitempty"`
	ResponseTimeMs int64       `json:"responseTimeMs"`
	Uptime         interface{} `json:"uptime,omitempty"`
	DependsOn      []string    `json:"dependsOn"`
	Dependents     []string    `json:"dependents,omitempty"`
	Description    string      `json:"description,omitempty"`
	Error          string      `json:"error,omitempty"`
}

// HealthReport is the result of a read-only health query
type HealthReport struct {
	Environment string          `json:"environment"`
	Target      string          `json:"target"`
	Healthy     bool            `json:"healthy"`
	Services    []ServiceHealth `json:"services"`
	Timestamp   time.Time       `json:"timestamp"`
}
