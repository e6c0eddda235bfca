package commands

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"

	"wakectl/internal/errors"
	"wakectl/internal/logger"
)

// ExitError ends the process with Code. The command has already reported
// the problem, so nothing more is printed.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// HandleError adds a hint for the errors users can fix themselves
func HandleError(err error) error {
	if err == nil {
		return nil
	}

	logger.WithError(err).Debug("Command failed")

	switch errors.GetCode(err) {
	case errors.ErrConfigNotFound, errors.ErrRegistryNotLoaded:
		return fmt.Errorf("%v\n\nTip: create a registry file or point registry.path at one. 'wakectl config path' shows where wakectl looks.", err)
	case errors.ErrRegistryValidation:
		return fmt.Errorf("%v\n\nTip: 'wakectl registry validate' checks a registry file without loading it.", err)
	case errors.ErrCircularDependency:
		return fmt.Errorf("%v\n\nTip: remove one of the dependsOn edges in the cycle.", err)
	case errors.ErrServiceNotFound, errors.ErrEnvironmentNotFound:
		return fmt.Errorf("%v\n\nTip: use 'wakectl registry list' to see available environments and services.", err)
	case errors.ErrNetworkConnection:
		return fmt.Errorf("%v\n\nTip: check the server with 'wakectl server status' or drop --server to run locally.", err)
	case errors.ErrUnauthorized:
		return fmt.Errorf("%v\n\nTip: set WAKECTL_TOKEN or client.token in the configuration.", err)
	default:
		return err
	}
}

// ExitCode maps an error to a process exit status
func ExitCode(err error) int {
	if err == nil {
		return 0
	}

	var exitErr *ExitError
	if stderrors.As(err, &exitErr) {
		return exitErr.Code
	}

	switch errors.GetCode(err) {
	case errors.ErrRegistryValidation, errors.ErrCircularDependency,
		errors.ErrConfigInvalid, errors.ErrConfigParse, errors.ErrConfigValidation,
		errors.ErrInvalidInput, errors.ErrInvalidPort:
		return 65 // EX_DATAERR
	case errors.ErrServiceNotFound, errors.ErrEnvironmentNotFound,
		errors.ErrConfigNotFound, errors.ErrRegistryNotLoaded, errors.ErrNotFound:
		return 2
	case errors.ErrNetworkConnection:
		return 69 // EX_UNAVAILABLE
	case errors.ErrUnauthorized:
		return 77 // EX_NOPERM
	default:
		return 1
	}
}

// ReportError prints err with its hint to w and returns the exit status
func ReportError(w io.Writer, err error) int {
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if !stderrors.As(err, &exitErr) {
		fmt.Fprintf(w, "Error: %v\n", HandleError(err))
	}
	return ExitCode(err)
}

// ExitOnError handles errors consistently across CLI commands
func ExitOnError(err error) {
	if err == nil {
		return
	}
	os.Exit(ReportError(os.Stderr, err))
}
