// Package probe issues single health checks against services and classifies
// the outcome into a lifecycle state.
package probe

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"wakectl/internal/constants"
)

// State is the lifecycle state of a service as seen by its last probe
type State string

const (
	StateDead    State = "DEAD"
	StateWaking  State = "WAKING"
	StateLive    State = "LIVE"
	StateFailed  State = "FAILED"
	StateUnknown State = "UNKNOWN"
)

// AllStates lists every state in display order
var AllStates = []State{StateLive, StateWaking, StateDead, StateFailed, StateUnknown}

// Valid reports whether s is a known state
func (s State) Valid() bool {
	for _, known := range AllStates {
		if s == known {
			return true
		}
	}
	return false
}

// Doer is the HTTP capability a Prober needs
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Result is the raw outcome of one probe. StatusCode is zero when no HTTP
// response was received.
type Result struct {
	URL        string
	StatusCode int
	Duration   time.Duration
	Uptime     interface{}
	Err        error

	// Exceptional is set when the request could not be issued at all,
	// for example because the URL does not parse.
	Exceptional bool
}

// Responded reports whether the service answered with any HTTP response
func (r Result) Responded() bool {
	return r.StatusCode != 0
}

// Prober sends health probes. Every HTTP status is returned to the caller
// instead of being treated as an error.
type Prober struct {
	client    Doer
	userAgent string
}

// New creates a Prober. A nil client uses a dedicated http.Client that does
// not follow redirects, so a 3xx counts as a response.
func New(client Doer) *Prober {
	if client == nil {
		client = &http.Client{
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		}
	}
	return &Prober{client: client, userAgent: "wakectl-probe"}
}

// Probe issues a GET to url bounded by timeout. A non-positive timeout falls
// back to the default wake timeout so no probe is ever unbounded.
func (p *Prober) Probe(ctx context.Context, url string, timeout time.Duration) Result {
	result := Result{URL: url}

	if timeout <= 0 {
		timeout = constants.DefaultWakeTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		result.Err = err
		result.Exceptional = true
		return result
	}
	req.Header.Set("User-Agent", p.userAgent)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := p.client.Do(req)
	result.Duration = time.Since(start)
	if err != nil {
		result.Err = err
		return result
	}
	defer resp.Body.Close()

	result.StatusCode = resp.StatusCode
	result.Uptime = readUptime(resp.Body)
	return result
}

// readUptime pulls the optional uptime field out of a JSON health payload
func readUptime(body io.Reader) interface{} {
	data, err := io.ReadAll(io.LimitReader(body, constants.MaxProbeBodyBytes))
	if err != nil || len(data) == 0 {
		return nil
	}

	var payload struct {
		Uptime interface{} `json:"uptime"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil
	}
	return payload.Uptime
}

// Classify maps a probe result to a state by reachability alone: any HTTP
// response below 500 is LIVE, 5xx is FAILED and no response is DEAD.
func Classify(r Result) State {
	switch {
	case !r.Responded():
		return StateDead
	case r.StatusCode >= http.StatusInternalServerError:
		return StateFailed
	default:
		return StateLive
	}
}

// ClassifyThreshold is the lenient classification used while waking and for
// status checks. A 5xx means the service is still coming up and a live
// response slower than slow is reported as WAKING.
func ClassifyThreshold(r Result, slow time.Duration) State {
	if !r.Responded() {
		return StateDead
	}
	if r.StatusCode >= http.StatusInternalServerError {
		return StateWaking
	}
	if slow > 0 && r.Duration > slow {
		return StateWaking
	}
	return StateLive
}
