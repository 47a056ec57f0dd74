package sandbox

import "errors"

// ErrNotFound indicates the container or image does not exist.
var ErrNotFound = errors.New("sandbox not found")

// ErrDaemonUnavailable indicates the container engine cannot be reached.
var ErrDaemonUnavailable = errors.New("container engine unavailable")

// ErrTimeout indicates an engine operation exceeded its deadline.
var ErrTimeout = errors.New("operation timed out")

// ErrSpecConflict indicates the sandbox exists with a different spec.
// Remove the sandbox before building with the new spec.
var ErrSpecConflict = errors.New("spec conflicts with existing sandbox")

// ErrNotRunning indicates an operation that requires a running sandbox.
var ErrNotRunning = errors.New("sandbox is not running")

// ErrErrored indicates the sandbox is stuck in the errored state.
// Only a forced remove resets it.
var ErrErrored = errors.New("sandbox is errored, remove it to reset")
