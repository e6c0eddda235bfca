package validation

import (
	"net/url"
	"regexp"
	"strings"

	"wakectl/internal/constants"
	"wakectl/internal/errors"
)

var (
	// nameRegex validates service, environment and group names
	nameRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_.-]*$`)
)

// Name validates a service, environment or group identifier
func Name(field, name string) error {
	if name == "" {
		return errors.RegistryValidation(field, "name cannot be empty")
	}

	if len(name) > 128 {
		return errors.RegistryValidation(field, "name too long (max 128 characters)")
	}

	if !nameRegex.MatchString(name) {
		return errors.RegistryValidation(field, "name may only contain letters, digits, '.', '_' and '-'")
	}

	if name == constants.TargetAll {
		return errors.RegistryValidation(field, "'all' is reserved")
	}

	return nil
}

// ServiceURL validates the base address of a service
func ServiceURL(field, raw string) error {
	if strings.TrimSpace(raw) == "" {
		return errors.RegistryValidation(field, "url is required")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return errors.RegistryValidation(field, "url is not parseable: "+err.Error())
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.RegistryValidation(field, "url must use http or https")
	}

	if u.Host == "" {
		return errors.RegistryValidation(field, "url must include a host")
	}

	return nil
}

// HealthPath validates a path relative to the service URL
func HealthPath(field, path string) error {
	if strings.TrimSpace(path) == "" {
		return errors.RegistryValidation(field, "healthPath is required")
	}

	if !strings.HasPrefix(path, "/") {
		return errors.RegistryValidation(field, "healthPath must start with '/'")
	}

	if strings.ContainsAny(path, " \t\r\n") {
		return errors.RegistryValidation(field, "healthPath must not contain whitespace")
	}

	return nil
}

// Port validates a TCP port number
func Port(port int) error {
	if port < constants.MinPortNumber || port > constants.MaxPortNumber {
		return errors.InvalidPort(port, "must be between 1 and 65535")
	}
	return nil
}

// JoinURL appends a health path to a base URL without doubling slashes
func JoinURL(base, path string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}
