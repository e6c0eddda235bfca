package registry

import (
	"strings"

	"wakectl/internal/constants"
)

// Target is the scope of a wake, status or health operation: every service of
// an environment, or a list of service or group names.
type Target struct {
	All   bool
	Names []string
}

// AllTarget selects every service of an environment
func AllTarget() Target {
	return Target{All: true}
}

// NamesTarget selects the given services or groups
func NamesTarget(names ...string) Target {
	return Target{Names: dedupe(names)}
}

// ParseTarget reads a target as written on the command line or in an API
// query: "all", a single name, or a comma separated list. An empty string
// means all.
func ParseTarget(raw string) Target {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == constants.TargetAll {
		return AllTarget()
	}

	var names []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == constants.TargetAll {
			return AllTarget()
		}
		if part != "" {
			names = append(names, part)
		}
	}
	if len(names) == 0 {
		return AllTarget()
	}
	return NamesTarget(names...)
}

// IsSingle reports whether the target names exactly one service or group
func (t Target) IsSingle() bool {
	return !t.All && len(t.Names) == 1
}

func (t Target) String() string {
	if t.All || len(t.Names) == 0 {
		return constants.TargetAll
	}
	return strings.Join(t.Names, ",")
}

func dedupe(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
