package registry

import (
	"time"

	"wakectl/internal/validation"
)

// ServiceDefinition describes one service of an environment. Definitions are
// built once when a registry is parsed and must not be modified afterwards.
type ServiceDefinition struct {
	Name        string   `json:"name" yaml:"-"`
	URL         string   `json:"url" yaml:"url"`
	HealthPath  string   `json:"healthPath" yaml:"healthPath"`
	WakePath    string   `json:"wakePath,omitempty" yaml:"wakePath,omitempty"`
	DependsOn   []string `json:"dependsOn" yaml:"dependsOn"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Group       string   `json:"group,omitempty" yaml:"group,omitempty"`
}

// HealthURL returns the address probed for this service
func (s *ServiceDefinition) HealthURL() string {
	return validation.JoinURL(s.URL, s.HealthPath)
}

// Environment is a named set of service definitions in declaration order
type Environment struct {
	Name     string
	order    []string
	services map[string]*ServiceDefinition
}

func newEnvironment(name string) *Environment {
	return &Environment{
		Name:     name,
		services: make(map[string]*ServiceDefinition),
	}
}

func (e *Environment) add(svc *ServiceDefinition) {
	if _, exists := e.services[svc.Name]; !exists {
		e.order = append(e.order, svc.Name)
	}
	e.services[svc.Name] = svc
}

// Services returns the definitions in declaration order
func (e *Environment) Services() []*ServiceDefinition {
	out := make([]*ServiceDefinition, 0, len(e.order))
	for _, name := range e.order {
		out = append(out, e.services[name])
	}
	return out
}

// Lookup returns the named definition
func (e *Environment) Lookup(name string) (*ServiceDefinition, bool) {
	svc, ok := e.services[name]
	return svc, ok
}

// Len returns the number of services
func (e *Environment) Len() int {
	return len(e.order)
}

// EnvironmentStats holds per-environment counts
type EnvironmentStats struct {
	Name         string `json:"name"`
	ServiceCount int    `json:"serviceCount"`
}

// Stats summarizes a loaded registry
type Stats struct {
	TotalServices int                `json:"totalServices"`
	Environments  []EnvironmentStats `json:"environments"`
	Groups        int                `json:"groups"`
	LastLoadTime  time.Time          `json:"lastLoadTime"`
	Source        string             `json:"source,omitempty"`
}
