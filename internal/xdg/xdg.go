// Package xdg resolves wakectl's directories under the XDG base directory
// layout
package xdg

import (
	"os"
	"path/filepath"
)

const appName = "wakectl"

// dir returns $envVar/wakectl, or ~/<fallback...>/wakectl when the
// variable is unset
func dir(envVar string, fallback ...string) (string, error) {
	if base := os.Getenv(envVar); base != "" {
		return filepath.Join(base, appName), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	parts := append([]string{home}, fallback...)
	return filepath.Join(append(parts, appName)...), nil
}

// ConfigDir holds config.toml and, by default, services.yaml
func ConfigDir() (string, error) {
	return dir("XDG_CONFIG_HOME", ".config")
}

// StateDir holds runtime state such as the daemon PID file and logs
func StateDir() (string, error) {
	return dir("XDG_STATE_HOME", ".local", "state")
}

// LogsDir is where a daemonized server writes its log. It falls back to
// the temp directory when no home directory is known.
func LogsDir() string {
	state, err := StateDir()
	if err != nil {
		return filepath.Join(os.TempDir(), appName, "logs")
	}
	return filepath.Join(state, "logs")
}
