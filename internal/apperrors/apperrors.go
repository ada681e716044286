// Package apperrors defines the error taxonomy shared by all services.
// Callers classify failures with errors.Is against the sentinels below.
package apperrors

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation marks bad input; the client's fault, surfaced as 4xx.
	ErrValidation = errors.New("validation failed")

	// ErrAuth marks a missing, invalid or expired credential.
	ErrAuth = errors.New("authentication failed")

	// ErrBrokerUnavailable is returned by publish attempts while the
	// broker connection is not ready. Never silently queued.
	ErrBrokerUnavailable = errors.New("broker unavailable")

	// ErrComputation marks an unexpected failure inside ETA logic.
	ErrComputation = errors.New("computation failed")

	// ErrDependency marks a failed call to a dependent service. Logged
	// and swallowed by the caller, never user-visible.
	ErrDependency = errors.New("dependency call failed")

	// ErrNotFound marks a lookup for a record that does not exist.
	ErrNotFound = errors.New("not found")
)

// Validationf wraps ErrValidation with a formatted detail message.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Authf wraps ErrAuth with a formatted detail message.
func Authf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrAuth, fmt.Sprintf(format, args...))
}

// Computationf wraps ErrComputation with a formatted detail message.
func Computationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrComputation, fmt.Sprintf(format, args...))
}

// Dependency wraps err as a dependency failure, keeping the cause in
// the chain for logging.
func Dependency(err error) error {
	return fmt.Errorf("%w: %v", ErrDependency, err)
}

// Detail returns the human-readable part of a wrapped taxonomy error,
// the text after the sentinel prefix. Handlers use it to echo the
// specific validation failure to the client.
func Detail(err error) string {
	msg := err.Error()
	if i := strings.Index(msg, ": "); i >= 0 {
		return msg[i+2:]
	}
	return msg
}
