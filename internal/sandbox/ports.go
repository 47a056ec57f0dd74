package sandbox

import (
	"context"
	"time"
)

// TimedOutExitCode marks an exec whose process was killed at the deadline.
const TimedOutExitCode = -1

// EngineStatus is the engine-level view of the sandbox container.
type EngineStatus struct {
	Exists   bool
	Running  bool
	ExitCode int
	SpecHash string // from the SpecHashLabel container label
}

// ResourceSnapshot is a point-in-time resource usage reading.
type ResourceSnapshot struct {
	At          time.Time `json:"at"`
	CPUPercent  float64   `json:"cpu_percent"`
	MemoryUsage uint64    `json:"memory_usage"`
	MemoryLimit uint64    `json:"memory_limit"`
	PIDs        uint64    `json:"pids"`
}

// ExecResult is the outcome of one command run inside the sandbox.
// A non-zero exit code is data, not an error.
type ExecResult struct {
	Command  []string      `json:"command"`
	ExitCode int           `json:"exit_code"`
	Stdout   string        `json:"stdout"`
	Stderr   string        `json:"stderr"`
	Duration time.Duration `json:"duration"`
}

// Runtime is the container engine surface the manager drives.
// Production: *docker.Gateway. Testing: fake.
type Runtime interface {
	EnsureImage(ctx context.Context, spec Spec) (string, error)
	CreateContainer(ctx context.Context, spec Spec, labels map[string]string) error
	StartContainer(ctx context.Context, name string) error
	StopContainer(ctx context.Context, name string, grace time.Duration) error
	RemoveContainer(ctx context.Context, name string) error
	Status(ctx context.Context, name string) (EngineStatus, error)
	Stats(ctx context.Context, name string) (ResourceSnapshot, error)
	Exec(ctx context.Context, name string, argv []string, timeout time.Duration) (ExecResult, error)
	CopyFrom(ctx context.Context, name, path string) ([]byte, error)
}

// Filter validates a command before it may reach the exec path.
// Production: *safety.Filter.
type Filter interface {
	Check(command string) error
	Parse(command string) ([]string, error)
}

// AuditEvent records one lifecycle or exec operation.
type AuditEvent struct {
	At        time.Time
	Type      string // build, start, stop, remove, exec
	Container string
	Success   bool
	Detail    string
	Error     string
}

// AuditRecorder receives audit events. Production: *audit.Store.
type AuditRecorder interface {
	Record(ctx context.Context, ev AuditEvent) error
}
