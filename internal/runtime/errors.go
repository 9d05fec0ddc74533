package runtime

import (
	"errors"
	"strconv"
)

// timeoutError signals that a command exceeded its deadline.
type timeoutError struct{ cmd string }

func (e timeoutError) Error() string { return "timeout: " + e.cmd + " did not finish in time" }

// IsTimeout reports whether err indicates a command deadline was exceeded.
func IsTimeout(err error) bool {
	var te timeoutError
	return errors.As(err, &te)
}

// dependencyUnavailableError signals a missing external tool.
type dependencyUnavailableError struct{ msg string }

func (e dependencyUnavailableError) Error() string { return e.msg }

// ErrDependencyUnavailable constructs a dependencyUnavailableError.
func ErrDependencyUnavailable(msg string) error { return dependencyUnavailableError{msg: msg} }

// IsDependencyUnavailable reports whether err indicates a missing runtime dependency.
func IsDependencyUnavailable(err error) bool {
	var de dependencyUnavailableError
	return errors.As(err, &de)
}

// processError is a non-zero exit surfaced as an error by the Ollama client.
type processError struct {
	cmd      string
	exitCode int
	stderr   string
}

func (e processError) Error() string {
	if e.stderr == "" {
		return e.cmd + " exited with code " + strconv.Itoa(e.exitCode)
	}
	return e.cmd + " exited with code " + strconv.Itoa(e.exitCode) + ": " + e.stderr
}

// IsProcessFailure reports whether err is a non-zero exit of the runtime.
func IsProcessFailure(err error) bool {
	var pe processError
	return errors.As(err, &pe)
}

// Stderr returns the captured stderr of a process failure, or "".
func Stderr(err error) string {
	var pe processError
	if errors.As(err, &pe) {
		return pe.stderr
	}
	return ""
}
