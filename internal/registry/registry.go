// Package registry holds the service definitions of every environment and
// resolves the order in which services must be woken.
package registry

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"wakectl/internal/errors"
	"wakectl/internal/validation"
)

// Registry is an immutable snapshot of a loaded service configuration.
// A reload builds a new Registry instead of changing an existing one.
type Registry struct {
	envOrder     []string
	environments map[string]*Environment
	groupOrder   []string
	groups       map[string][]string
	loadedAt     time.Time
	source       string
}

// Parse validates a decoded configuration tree of the form
//
//	services:
//	  <environment>:
//	    <name>: {url, healthPath, dependsOn, wakePath, description, group}
//	groups:
//	  <group>: [<name>, ...]
//
// and builds a Registry from it.
func Parse(doc Value) (*Registry, error) {
	root, ok := doc.(*Map)
	if !ok {
		return nil, errors.RegistryValidation("", fmt.Sprintf("document must be a mapping, got %s", kindOf(doc)))
	}

	rawServices, ok := root.Get("services")
	if !ok {
		return nil, errors.RegistryValidation("services", "top-level services key is required")
	}

	envs, ok := rawServices.(*Map)
	if !ok {
		return nil, errors.RegistryValidation("services", fmt.Sprintf("services must be a mapping, got %s", kindOf(rawServices)))
	}

	reg := &Registry{
		environments: make(map[string]*Environment, envs.Len()),
		groups:       make(map[string][]string),
		loadedAt:     time.Now(),
	}

	for _, envName := range envs.Keys() {
		field := "services." + envName
		if err := validation.Name(field, envName); err != nil {
			return nil, err
		}

		rawEnv, _ := envs.Get(envName)
		envMap, ok := rawEnv.(*Map)
		if !ok {
			return nil, errors.RegistryValidation(field,
				fmt.Sprintf("environment %q must be a mapping, got %s", envName, kindOf(rawEnv)))
		}

		env := newEnvironment(envName)
		for _, name := range envMap.Keys() {
			raw, _ := envMap.Get(name)
			svc, err := parseService(field+"."+name, name, raw)
			if err != nil {
				return nil, err
			}
			env.add(svc)
			if svc.Group != "" {
				reg.addToGroup(svc.Group, svc.Name)
			}
		}

		reg.envOrder = append(reg.envOrder, envName)
		reg.environments[envName] = env
	}

	if rawGroups, ok := root.Get("groups"); ok && rawGroups != nil {
		if err := reg.parseGroups(rawGroups); err != nil {
			return nil, err
		}
	}

	return reg, nil
}

func parseService(field, name string, raw Value) (*ServiceDefinition, error) {
	if err := validation.Name(field, name); err != nil {
		return nil, err
	}

	m, ok := raw.(*Map)
	if !ok {
		return nil, errors.RegistryValidation(field,
			fmt.Sprintf("service %q must be a mapping, got %s", name, kindOf(raw)))
	}

	svc := &ServiceDefinition{Name: name, DependsOn: []string{}}

	url, err := requiredString(m, field, "url")
	if err != nil {
		return nil, err
	}
	if err := validation.ServiceURL(field+".url", url); err != nil {
		return nil, err
	}
	svc.URL = url

	healthPath, err := requiredString(m, field, "healthPath")
	if err != nil {
		return nil, err
	}
	if err := validation.HealthPath(field+".healthPath", healthPath); err != nil {
		return nil, err
	}
	svc.HealthPath = healthPath

	if svc.WakePath, err = optionalString(m, field, "wakePath"); err != nil {
		return nil, err
	}
	if svc.Description, err = optionalString(m, field, "description"); err != nil {
		return nil, err
	}
	if svc.Group, err = optionalString(m, field, "group"); err != nil {
		return nil, err
	}

	if rawDeps, ok := m.Get("dependsOn"); ok && rawDeps != nil {
		deps, err := stringList(field+".dependsOn", "dependsOn", rawDeps)
		if err != nil {
			return nil, err
		}
		svc.DependsOn = dedupe(deps)
	}

	return svc, nil
}

func (r *Registry) parseGroups(raw Value) error {
	m, ok := raw.(*Map)
	if !ok {
		return errors.RegistryValidation("groups", fmt.Sprintf("groups must be a mapping, got %s", kindOf(raw)))
	}

	for _, name := range m.Keys() {
		field := "groups." + name
		if err := validation.Name(field, name); err != nil {
			return err
		}
		rawMembers, _ := m.Get(name)
		members, err := stringList(field, "group "+name, rawMembers)
		if err != nil {
			return err
		}
		for _, member := range members {
			r.addToGroup(name, member)
		}
	}
	return nil
}

func (r *Registry) addToGroup(group, service string) {
	members, exists := r.groups[group]
	if !exists {
		r.groupOrder = append(r.groupOrder, group)
	}
	for _, m := range members {
		if m == service {
			return
		}
	}
	r.groups[group] = append(members, service)
}

func requiredString(m *Map, field, key string) (string, error) {
	raw, ok := m.Get(key)
	if !ok || raw == nil {
		return "", errors.RegistryValidation(field+"."+key, key+" is required")
	}
	s, ok := raw.(string)
	if !ok {
		return "", errors.RegistryValidation(field+"."+key,
			fmt.Sprintf("%s must be a string, got %s", key, kindOf(raw)))
	}
	return s, nil
}

func optionalString(m *Map, field, key string) (string, error) {
	raw, ok := m.Get(key)
	if !ok || raw == nil {
		return "", nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", errors.RegistryValidation(field+"."+key,
			fmt.Sprintf("%s must be a string, got %s", key, kindOf(raw)))
	}
	return s, nil
}

func stringList(field, what string, raw Value) ([]string, error) {
	seq, ok := raw.([]Value)
	if !ok {
		return nil, errors.RegistryValidation(field,
			fmt.Sprintf("%s must be a sequence, got %s", what, kindOf(raw)))
	}
	out := make([]string, 0, len(seq))
	for i, item := range seq {
		s, ok := item.(string)
		if !ok || strings.TrimSpace(s) == "" {
			return nil, errors.RegistryValidation(fmt.Sprintf("%s[%d]", field, i),
				fmt.Sprintf("%s entries must be non-empty strings", what))
		}
		out = append(out, s)
	}
	return out, nil
}

// Environments returns the environment names in declaration order
func (r *Registry) Environments() []string {
	return append([]string(nil), r.envOrder...)
}

// Environment returns the named environment
func (r *Registry) Environment(name string) (*Environment, bool) {
	env, ok := r.environments[name]
	return env, ok
}

// GetServices returns the services of an environment in declaration order.
// An unknown environment yields an empty slice.
func (r *Registry) GetServices(environment string) []*ServiceDefinition {
	env, ok := r.environments[environment]
	if !ok {
		return []*ServiceDefinition{}
	}
	return env.Services()
}

// GetService returns the named service or nil
func (r *Registry) GetService(name, environment string) *ServiceDefinition {
	env, ok := r.environments[environment]
	if !ok {
		return nil
	}
	svc, _ := env.Lookup(name)
	return svc
}

// Groups returns a copy of the group table
func (r *Registry) Groups() map[string][]string {
	out := make(map[string][]string, len(r.groups))
	for name, members := range r.groups {
		out[name] = append([]string(nil), members...)
	}
	return out
}

// GroupNames returns group names in declaration order
func (r *Registry) GroupNames() []string {
	return append([]string(nil), r.groupOrder...)
}

// roots expands a target into the starting service names for an environment.
// A name that is not a service is looked up as a group; group members missing
// from the environment are skipped.
func (r *Registry) roots(target Target, env *Environment) ([]string, error) {
	if target.All || len(target.Names) == 0 {
		return append([]string(nil), env.order...), nil
	}

	var roots []string
	for _, name := range target.Names {
		if _, ok := env.Lookup(name); ok {
			roots = append(roots, name)
			continue
		}
		if members, ok := r.groups[name]; ok {
			for _, member := range members {
				if _, ok := env.Lookup(member); ok {
					roots = append(roots, member)
				}
			}
			continue
		}
		return nil, errors.ServiceNotFound(name, env.Name)
	}
	return dedupe(roots), nil
}

// Select returns the services named by a target without following
// dependencies, in target order. Status and health queries use this.
func (r *Registry) Select(target Target, environment string) ([]*ServiceDefinition, error) {
	env, ok := r.environments[environment]
	if !ok {
		return nil, errors.EnvironmentNotFound(environment)
	}

	roots, err := r.roots(target, env)
	if err != nil {
		return nil, err
	}

	out := make([]*ServiceDefinition, 0, len(roots))
	for _, name := range roots {
		svc, _ := env.Lookup(name)
		out = append(out, svc)
	}
	return out, nil
}

type visitState int

const (
	unvisited visitState = iota
	visiting
	visited
)

// ResolveWakeOrder returns the target services and their transitive
// dependencies ordered so that every dependency comes before its dependents.
// Traversal is depth first over dependsOn in declaration order. A dependency
// that is not defined in the environment is skipped. Re-entering a service
// that is still being visited fails with a circular dependency error and no
// partial order is returned.
func (r *Registry) ResolveWakeOrder(target Target, environment string) ([]*ServiceDefinition, error) {
	env, ok := r.environments[environment]
	if !ok {
		return nil, errors.EnvironmentNotFound(environment)
	}

	roots, err := r.roots(target, env)
	if err != nil {
		return nil, err
	}

	state := make(map[string]visitState, env.Len())
	order := make([]*ServiceDefinition, 0, env.Len())
	var path []string

	var visit func(name string) error
	visit = func(name string) error {
		svc, ok := env.Lookup(name)
		if !ok {
			return nil
		}

		switch state[name] {
		case visiting:
			cycle := append(cyclePath(path, name), name)
			return errors.CircularDependency(name).
				WithContext("cycle", strings.Join(cycle, " -> "))
		case visited:
			return nil
		}

		state[name] = visiting
		path = append(path, name)
		for _, dep := range svc.DependsOn {
			if err := visit(dep); err != nil {
				return err
			}
		}
		path = path[:len(path)-1]
		state[name] = visited

		order = append(order, svc)
		return nil
	}

	for _, root := range roots {
		if err := visit(root); err != nil {
			return nil, err
		}
	}
	return order, nil
}

// cyclePath trims the visiting stack to the part that loops back to name
func cyclePath(path []string, name string) []string {
	for i, p := range path {
		if p == name {
			return append([]string(nil), path[i:]...)
		}
	}
	return append([]string(nil), path...)
}

// GetStats summarizes the registry
func (r *Registry) GetStats() Stats {
	stats := Stats{
		Environments: make([]EnvironmentStats, 0, len(r.envOrder)),
		Groups:       len(r.groups),
		LastLoadTime: r.loadedAt,
		Source:       r.source,
	}
	for _, name := range r.envOrder {
		count := r.environments[name].Len()
		stats.TotalServices += count
		stats.Environments = append(stats.Environments, EnvironmentStats{Name: name, ServiceCount: count})
	}
	return stats
}

// LoadedAt returns when the registry was built
func (r *Registry) LoadedAt() time.Time {
	return r.loadedAt
}

// Source returns the file the registry was loaded from, if any
func (r *Registry) Source() string {
	return r.source
}

// Dependents returns the services of an environment that list name in their
// dependsOn, sorted by name.
func (r *Registry) Dependents(name, environment string) []string {
	env, ok := r.environments[environment]
	if !ok {
		return nil
	}
	var out []string
	for _, svc := range env.Services() {
		for _, dep := range svc.DependsOn {
			if dep == name {
				out = append(out, svc.Name)
				break
			}
		}
	}
	sort.Strings(out)
	return out
}
