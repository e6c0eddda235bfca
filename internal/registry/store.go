package registry

import (
	"sync"
	"sync/atomic"

	"wakectl/internal/errors"
	"wakectl/internal/logger"
)

// Store hands out the current Registry and swaps in a new one on reload.
// Readers never see a partially loaded registry; a failed reload leaves the
// previous one in place.
type Store struct {
	path    string
	current atomic.Pointer[Registry]
	mu      sync.Mutex // serializes reloads
}

// NewStore creates a store that loads from path. Nothing is read until Reload.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// NewStaticStore wraps an already built registry
func NewStaticStore(reg *Registry) *Store {
	s := &Store{}
	s.current.Store(reg)
	return s
}

// Path returns the registry file path
func (s *Store) Path() string {
	return s.path
}

// Current returns the active registry
func (s *Store) Current() (*Registry, error) {
	reg := s.current.Load()
	if reg == nil {
		return nil, errors.ErrNoRegistry
	}
	return reg, nil
}

// Set replaces the active registry
func (s *Store) Set(reg *Registry) {
	s.current.Store(reg)
}

// Reload reads the registry file again and activates it if it validates
func (s *Store) Reload() (*Registry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return nil, errors.ConfigInvalid("no registry path configured")
	}

	reg, err := LoadFile(s.path)
	if err != nil {
		logger.WithError(err).WithField("path", s.path).Warn("Registry reload failed, keeping previous registry")
		return nil, err
	}

	s.current.Store(reg)
	stats := reg.GetStats()
	logger.WithFields(logger.Fields{
		"path":         s.path,
		"environments": len(stats.Environments),
		"services":     stats.TotalServices,
	}).Info("Registry loaded")
	return reg, nil
}
