package orchestrator

import (
	"sort"
	"sync"
	"time"

	"wakectl/internal/probe"
)

// Entry is the recorded state of one service in one environment
type Entry struct {
	Environment string      `json:"environment"`
	Service     string      `json:"service"`
	State       probe.State `json:"state"`
	LastWake    *time.Time  `json:"lastWake,omitempty"`
	LastProbe   *time.Time  `json:"lastProbe,omitempty"`
	LastError   string      `json:"lastError,omitempty"`
}

type stateKey struct {
	env     string
	service string
}

// StateStore keeps the latest state of every probed service for the life of
// the process. Each write replaces a single key; concurrent writers to the
// same key are last-writer-wins.
type StateStore struct {
	mu      sync.RWMutex
	entries map[stateKey]Entry
}

// NewStateStore creates an empty store
func NewStateStore() *StateStore {
	return &StateStore{entries: make(map[stateKey]Entry)}
}

// Get returns the entry for a service. A service that was never probed is
// reported as UNKNOWN.
func (s *StateStore) Get(env, service string) Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if e, ok := s.entries[stateKey{env, service}]; ok {
		return e
	}
	return Entry{Environment: env, Service: service, State: probe.StateUnknown}
}

// MarkWaking records the start of a wake attempt: the service is DEAD until
// the probe says otherwise and its last wake time becomes at.
func (s *StateStore) MarkWaking(env, service string, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.load(env, service)
	e.State = probe.StateDead
	e.LastWake = &at
	e.LastError = ""
	s.entries[stateKey{env, service}] = e
}

// Record stores the state produced by a probe without touching the last wake time
func (s *StateStore) Record(env, service string, state probe.State, at time.Time, errMsg string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.load(env, service)
	e.State = state
	e.LastProbe = &at
	e.LastError = errMsg
	s.entries[stateKey{env, service}] = e
}

// Snapshot returns every entry of an environment sorted by service name.
// An empty env returns all environments.
func (s *StateStore) Snapshot(env string) []Entry {
	s.mu.RLock()
	out := make([]Entry, 0, len(s.entries))
	for k, e := range s.entries {
		if env == "" || k.env == env {
			out = append(out, e)
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Environment != out[j].Environment {
			return out[i].Environment < out[j].Environment
		}
		return out[i].Service < out[j].Service
	})
	return out
}

// Reset forgets every recorded state
func (s *StateStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[stateKey]Entry)
}

// load must be called with the write lock held
func (s *StateStore) load(env, service string) Entry {
	if e, ok := s.entries[stateKey{env, service}]; ok {
		return e
	}
	return Entry{Environment: env, Service: service, State: probe.StateUnknown}
}
