package fake

import (
	"context"
	"fmt"
	"sync"
	"time"

	"vivarium/internal/sandbox"
)

var _ sandbox.Runtime = (*Runtime)(nil)

type containerState struct {
	Spec     sandbox.Spec
	Labels   map[string]string
	Running  bool
	ExitCode int
}

// Runtime is an in-memory implementation of sandbox.Runtime. It mirrors
// the engine gateway's error contract: Status on a missing container
// reports a zero EngineStatus with no error, Start and Stop on a missing
// container fail with sandbox.ErrNotFound, and Remove is idempotent.
type Runtime struct {
	CallRecorder
	mu         sync.Mutex
	containers map[string]*containerState
	images     map[string]bool
	files      map[string]map[string][]byte // container -> path -> content
	stats      sandbox.ResourceSnapshot
	execResult sandbox.ExecResult

	// ExecFunc, when set, replaces the canned exec result entirely.
	ExecFunc func(ctx context.Context, name string, argv []string, timeout time.Duration) (sandbox.ExecResult, error)

	EnsureImageErr     func(ctx context.Context, spec sandbox.Spec) error
	CreateContainerErr func(ctx context.Context, spec sandbox.Spec, labels map[string]string) error
	StartContainerErr  func(ctx context.Context, name string) error
	StopContainerErr   func(ctx context.Context, name string, grace time.Duration) error
	RemoveContainerErr func(ctx context.Context, name string) error
	StatusErr          func(ctx context.Context, name string) error
	StatsErr           func(ctx context.Context, name string) error
	ExecErr            func(ctx context.Context, name string, argv []string, timeout time.Duration) error
	CopyFromErr        func(ctx context.Context, name, path string) error
}

// NewRuntime creates an empty Runtime with a zero-exit canned exec result.
func NewRuntime() *Runtime {
	return &Runtime{
		containers: make(map[string]*containerState),
		images:     make(map[string]bool),
		files:      make(map[string]map[string][]byte),
	}
}

func (r *Runtime) EnsureImage(ctx context.Context, spec sandbox.Spec) (string, error) {
	r.record("EnsureImage", spec)
	if r.EnsureImageErr != nil {
		if err := r.EnsureImageErr(ctx, spec); err != nil {
			return "", err
		}
	}
	ref := spec.Image
	if ref == "" {
		ref = spec.Name + ":latest"
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.images[ref] = true
	return ref, nil
}

func (r *Runtime) CreateContainer(ctx context.Context, spec sandbox.Spec, labels map[string]string) error {
	r.record("CreateContainer", spec, labels)
	if r.CreateContainerErr != nil {
		if err := r.CreateContainerErr(ctx, spec, labels); err != nil {
			return err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.containers[spec.Name]; ok {
		return fmt.Errorf("container %q already exists", spec.Name)
	}
	copied := make(map[string]string, len(labels))
	for k, v := range labels {
		copied[k] = v
	}
	r.containers[spec.Name] = &containerState{Spec: spec, Labels: copied}
	return nil
}

func (r *Runtime) StartContainer(ctx context.Context, name string) error {
	r.record("StartContainer", name)
	if r.StartContainerErr != nil {
		if err := r.StartContainerErr(ctx, name); err != nil {
			return err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.containers[name]
	if !ok {
		return fmt.Errorf("start container %q: %w", name, sandbox.ErrNotFound)
	}
	c.Running = true
	return nil
}

func (r *Runtime) StopContainer(ctx context.Context, name string, grace time.Duration) error {
	r.record("StopContainer", name, grace)
	if r.StopContainerErr != nil {
		if err := r.StopContainerErr(ctx, name, grace); err != nil {
			return err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.containers[name]
	if !ok {
		return fmt.Errorf("stop container %q: %w", name, sandbox.ErrNotFound)
	}
	c.Running = false
	return nil
}

func (r *Runtime) RemoveContainer(ctx context.Context, name string) error {
	r.record("RemoveContainer", name)
	if r.RemoveContainerErr != nil {
		if err := r.RemoveContainerErr(ctx, name); err != nil {
			return err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.containers, name)
	delete(r.files, name)
	return nil
}

func (r *Runtime) Status(ctx context.Context, name string) (sandbox.EngineStatus, error) {
	r.record("Status", name)
	if r.StatusErr != nil {
		if err := r.StatusErr(ctx, name); err != nil {
			return sandbox.EngineStatus{}, err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.containers[name]
	if !ok {
		return sandbox.EngineStatus{}, nil
	}
	return sandbox.EngineStatus{
		Exists:   true,
		Running:  c.Running,
		ExitCode: c.ExitCode,
		SpecHash: c.Labels[sandbox.SpecHashLabel],
	}, nil
}

func (r *Runtime) Stats(ctx context.Context, name string) (sandbox.ResourceSnapshot, error) {
	r.record("Stats", name)
	if r.StatsErr != nil {
		if err := r.StatsErr(ctx, name); err != nil {
			return sandbox.ResourceSnapshot{}, err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.containers[name]; !ok {
		return sandbox.ResourceSnapshot{}, fmt.Errorf("stats %q: %w", name, sandbox.ErrNotFound)
	}
	return r.stats, nil
}

func (r *Runtime) Exec(ctx context.Context, name string, argv []string, timeout time.Duration) (sandbox.ExecResult, error) {
	r.record("Exec", name, argv, timeout)
	if r.ExecErr != nil {
		if err := r.ExecErr(ctx, name, argv, timeout); err != nil {
			return sandbox.ExecResult{}, err
		}
	}
	if r.ExecFunc != nil {
		return r.ExecFunc(ctx, name, argv, timeout)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.containers[name]
	if !ok {
		return sandbox.ExecResult{}, fmt.Errorf("exec in container %q: %w", name, sandbox.ErrNotFound)
	}
	if !c.Running {
		return sandbox.ExecResult{}, fmt.Errorf("exec in container %q: container is not running", name)
	}
	res := r.execResult
	res.Command = argv
	return res, nil
}

func (r *Runtime) CopyFrom(ctx context.Context, name, path string) ([]byte, error) {
	r.record("CopyFrom", name, path)
	if r.CopyFromErr != nil {
		if err := r.CopyFromErr(ctx, name, path); err != nil {
			return nil, err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.containers[name]; !ok {
		return nil, fmt.Errorf("copy from %q: %w", name, sandbox.ErrNotFound)
	}
	content, ok := r.files[name][path]
	if !ok {
		return nil, fmt.Errorf("copy %q from %q: %w", path, name, sandbox.ErrNotFound)
	}
	out := make([]byte, len(content))
	copy(out, content)
	return out, nil
}

// AddContainer seeds a container as if it had been created earlier.
func (r *Runtime) AddContainer(spec sandbox.Spec, labels map[string]string, running bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := make(map[string]string, len(labels))
	for k, v := range labels {
		copied[k] = v
	}
	r.containers[spec.Name] = &containerState{Spec: spec, Labels: copied, Running: running}
}

// SetRunning flips the running flag of an existing container.
func (r *Runtime) SetRunning(name string, running bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.containers[name]; ok {
		c.Running = running
	}
}

// SetExitCode sets the exit code reported for a stopped container.
func (r *Runtime) SetExitCode(name string, code int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.containers[name]; ok {
		c.ExitCode = code
	}
}

// PutFile stores content readable through CopyFrom.
func (r *Runtime) PutFile(name, path string, content []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.files[name] == nil {
		r.files[name] = make(map[string][]byte)
	}
	r.files[name][path] = content
}

// SetStats sets the snapshot returned by Stats.
func (r *Runtime) SetStats(snap sandbox.ResourceSnapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats = snap
}

// SetExecResult sets the canned result returned by Exec. The Command
// field is overwritten with the argv of each call.
func (r *Runtime) SetExecResult(res sandbox.ExecResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.execResult = res
}

// HasContainer reports whether the named container exists.
func (r *Runtime) HasContainer(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.containers[name]
	return ok
}

// HasImage reports whether EnsureImage produced the given reference.
func (r *Runtime) HasImage(ref string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.images[ref]
}
