// Package sandbox owns the lifecycle state machine for the single managed
// container that hosts the agent. All reads of "is the sandbox usable" go
// through the Manager; collaborators never infer state from exec results.
package sandbox

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Manager drives one sandbox container through
// Absent → Stopped → Running → Stopped → Absent. Mutating operations are
// serialized; Exec and Stats run concurrently with each other and are
// blocked only by an in-flight mutating operation.
type Manager struct {
	spec    Spec
	hash    string
	runtime Runtime
	filter  Filter
	audit   AuditRecorder
	log     *slog.Logger

	// mu serializes Build/Start/Stop/Remove; Exec, Stats and Status take
	// the read side.
	mu sync.RWMutex

	// st guards the cheap-to-read view so Current and the not-running
	// Stats path never wait behind a mutating operation.
	st struct {
		sync.Mutex
		state      State
		engineHash string
		lastErr    string
		stats      ResourceSnapshot
	}
}

// Option configures optional Manager collaborators.
type Option func(*Manager)

// WithAudit wires an audit recorder. Audit failures are logged, never
// surfaced to the operation caller.
func WithAudit(a AuditRecorder) Option {
	return func(m *Manager) { m.audit = a }
}

// WithLogger overrides the default component logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.log = l }
}

// NewManager validates the spec, probes the engine once to hydrate the
// authoritative state, and returns a ready Manager.
func NewManager(ctx context.Context, spec Spec, runtime Runtime, filter Filter, opts ...Option) (*Manager, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if runtime == nil {
		return nil, fmt.Errorf("new manager: runtime is required")
	}
	if filter == nil {
		return nil, fmt.Errorf("new manager: command filter is required")
	}

	m := &Manager{
		spec:    spec,
		hash:    spec.Hash(),
		runtime: runtime,
		filter:  filter,
		log:     slog.With("component", "sandbox", "container", spec.Name),
	}
	for _, opt := range opts {
		opt(m)
	}

	est, err := runtime.Status(ctx, spec.Name)
	if err != nil {
		return nil, fmt.Errorf("probe sandbox %q: %w", spec.Name, err)
	}
	m.setStateAndHash(stateFromEngine(est), est.SpecHash)
	m.log.Debug("sandbox state hydrated", "state", m.Current())
	return m, nil
}

// Spec returns the immutable sandbox spec.
func (m *Manager) Spec() Spec { return m.spec }

// Hash returns the canonical spec hash.
func (m *Manager) Hash() string { return m.hash }

// Current returns the cached state without touching the engine.
func (m *Manager) Current() State {
	m.st.Lock()
	defer m.st.Unlock()
	return m.st.state
}

// LastError returns the failure detail behind an Errored state.
func (m *Manager) LastError() string {
	m.st.Lock()
	defer m.st.Unlock()
	return m.st.lastErr
}

// Build ensures the image exists and the container is created, moving the
// sandbox from Absent to Stopped. Building an already-built sandbox with
// the same spec hash is a no-op success; a different hash is a
// SpecConflict until the sandbox is removed.
func (m *Manager) Build(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.Current() {
	case StateErrored:
		m.record(ctx, "build", false, "", ErrErrored.Error())
		return ErrErrored
	case StateRunning, StateStopped:
		if m.engineHash() == m.hash {
			m.log.Debug("sandbox already built", "hash", shortHash(m.hash))
			m.record(ctx, "build", true, "already built", "")
			return nil
		}
		err := fmt.Errorf("%w: existing %s, requested %s",
			ErrSpecConflict, shortHash(m.engineHash()), shortHash(m.hash))
		m.record(ctx, "build", false, "", err.Error())
		return err
	}

	m.setState(StateBuilding)
	imageRef, err := m.runtime.EnsureImage(ctx, m.spec)
	if err != nil {
		// Nothing was created; the sandbox is still absent and the
		// build can simply be retried.
		m.setState(StateAbsent)
		m.record(ctx, "build", false, "", err.Error())
		return fmt.Errorf("ensure image: %w", err)
	}

	labels := map[string]string{SpecHashLabel: m.hash}
	if err := m.runtime.CreateContainer(ctx, m.spec, labels); err != nil {
		m.toErrored(err)
		m.record(ctx, "build", false, "image "+imageRef, err.Error())
		return fmt.Errorf("create container: %w", err)
	}

	m.setStateAndHash(StateStopped, m.hash)
	m.record(ctx, "build", true, "image "+imageRef, "")
	m.log.Info("sandbox built", "image", imageRef)
	return nil
}

// Start moves a Stopped sandbox to Running. Starting an already-Running
// sandbox is a no-op success.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.Current() {
	case StateErrored:
		m.record(ctx, "start", false, "", ErrErrored.Error())
		return ErrErrored
	case StateRunning:
		m.record(ctx, "start", true, "already running", "")
		return nil
	case StateAbsent:
		m.record(ctx, "start", false, "", ErrNotFound.Error())
		return fmt.Errorf("start %q: %w", m.spec.Name, ErrNotFound)
	}

	if err := m.runtime.StartContainer(ctx, m.spec.Name); err != nil {
		if errors.Is(err, ErrNotFound) {
			// The container vanished out of band.
			m.setStateAndHash(StateAbsent, "")
		} else {
			m.toErrored(err)
		}
		m.record(ctx, "start", false, "", err.Error())
		return fmt.Errorf("start container: %w", err)
	}

	m.setState(StateRunning)
	m.record(ctx, "start", true, "", "")
	m.log.Info("sandbox started")
	return nil
}

// Stop moves a Running sandbox to Stopped with the given grace period.
// Stopping an already-Stopped or Absent sandbox is a no-op success with
// no engine call.
func (m *Manager) Stop(ctx context.Context, grace time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.Current() {
	case StateErrored:
		m.record(ctx, "stop", false, "", ErrErrored.Error())
		return ErrErrored
	case StateRunning:
	default: // Stopped or Absent, nothing to do
		m.record(ctx, "stop", true, "already stopped", "")
		return nil
	}

	if err := m.runtime.StopContainer(ctx, m.spec.Name, grace); err != nil {
		if errors.Is(err, ErrNotFound) {
			m.setStateAndHash(StateAbsent, "")
			m.record(ctx, "stop", true, "container already gone", "")
			return nil
		}
		m.toErrored(err)
		m.record(ctx, "stop", false, "", err.Error())
		return fmt.Errorf("stop container: %w", err)
	}

	m.setState(StateStopped)
	m.record(ctx, "stop", true, "", "")
	m.log.Info("sandbox stopped")
	return nil
}

// Remove force-removes the container and resets the sandbox to Absent.
// It is the only operation accepted from Errored.
func (m *Manager) Remove(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Current() == StateAbsent {
		m.record(ctx, "remove", true, "already absent", "")
		return nil
	}

	if err := m.runtime.RemoveContainer(ctx, m.spec.Name); err != nil && !errors.Is(err, ErrNotFound) {
		m.toErrored(err)
		m.record(ctx, "remove", false, "", err.Error())
		return fmt.Errorf("remove container: %w", err)
	}

	m.st.Lock()
	m.st.state = StateAbsent
	m.st.engineHash = ""
	m.st.lastErr = ""
	m.st.stats = ResourceSnapshot{}
	m.st.Unlock()

	m.record(ctx, "remove", true, "", "")
	m.log.Info("sandbox removed")
	return nil
}

// Exec runs a command inside the Running sandbox. The command passes the
// safety filter before anything else; a rejected command never reaches
// the engine. A command that ran and exited non-zero is a successful call
// whose result carries the exit code.
func (m *Manager) Exec(ctx context.Context, command string, timeout time.Duration) (ExecResult, error) {
	if err := m.filter.Check(command); err != nil {
		m.record(ctx, "exec", false, command, err.Error())
		return ExecResult{}, err
	}
	argv, err := m.filter.Parse(command)
	if err != nil {
		return ExecResult{}, fmt.Errorf("parse command: %w", err)
	}

	m.mu.RLock()
	if st := m.Current(); st != StateRunning {
		m.mu.RUnlock()
		m.record(ctx, "exec", false, command, ErrNotRunning.Error())
		return ExecResult{}, fmt.Errorf("exec in state %s: %w", st, ErrNotRunning)
	}
	res, err := m.runtime.Exec(ctx, m.spec.Name, argv, timeout)
	m.mu.RUnlock()

	if err != nil {
		m.record(ctx, "exec", false, command, err.Error())
		return res, fmt.Errorf("exec %q: %w", command, err)
	}
	m.record(ctx, "exec", true,
		fmt.Sprintf("%s (exit %d in %s)", command, res.ExitCode, res.Duration.Round(time.Millisecond)), "")
	return res, nil
}

// Stats returns a resource snapshot. When the sandbox is not Running it
// returns the last-known snapshot immediately, without waiting behind
// lifecycle transitions.
func (m *Manager) Stats(ctx context.Context) (ResourceSnapshot, error) {
	m.st.Lock()
	state, cached := m.st.state, m.st.stats
	m.st.Unlock()
	if state != StateRunning {
		return cached, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Current() != StateRunning { // transitioned while acquiring
		return m.cachedStats(), nil
	}

	snap, err := m.runtime.Stats(ctx, m.spec.Name)
	if err != nil {
		return m.cachedStats(), fmt.Errorf("read stats: %w", err)
	}
	m.st.Lock()
	m.st.stats = snap
	m.st.Unlock()
	return snap, nil
}

// Status re-syncs the authoritative state from the engine, detecting
// out-of-band exits and removals. Errored is sticky until Remove.
func (m *Manager) Status(ctx context.Context) (State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.Current() == StateErrored {
		return StateErrored, nil
	}

	est, err := m.runtime.Status(ctx, m.spec.Name)
	if err != nil {
		return m.Current(), fmt.Errorf("probe sandbox: %w", err)
	}

	prev := m.Current()
	next := stateFromEngine(est)
	if next != prev {
		if prev == StateRunning && est.Exists && !est.Running && est.ExitCode != 0 {
			m.log.Warn("sandbox exited abnormally", "exit_code", est.ExitCode)
		}
		m.log.Debug("state re-synced", "from", prev.String(), "to", next.String())
	}
	m.setStateAndHash(next, est.SpecHash)
	return next, nil
}

func stateFromEngine(est EngineStatus) State {
	switch {
	case !est.Exists:
		return StateAbsent
	case est.Running:
		return StateRunning
	default:
		return StateStopped
	}
}

func (m *Manager) setState(s State) {
	m.st.Lock()
	m.st.state = s
	m.st.Unlock()
}

func (m *Manager) setStateAndHash(s State, hash string) {
	m.st.Lock()
	m.st.state = s
	m.st.engineHash = hash
	m.st.Unlock()
}

func (m *Manager) engineHash() string {
	m.st.Lock()
	defer m.st.Unlock()
	return m.st.engineHash
}

func (m *Manager) cachedStats() ResourceSnapshot {
	m.st.Lock()
	defer m.st.Unlock()
	return m.st.stats
}

func (m *Manager) toErrored(err error) {
	m.st.Lock()
	m.st.state = StateErrored
	m.st.lastErr = err.Error()
	m.st.Unlock()
	m.log.Error("sandbox errored", "err", err)
}

// record appends an audit event. The event must survive the caller's
// context expiring mid-failure, so cancellation is stripped.
func (m *Manager) record(ctx context.Context, typ string, success bool, detail, errMsg string) {
	if m.audit == nil {
		return
	}
	ev := AuditEvent{
		At:        time.Now().UTC(),
		Type:      typ,
		Container: m.spec.Name,
		Success:   success,
		Detail:    detail,
		Error:     errMsg,
	}
	if err := m.audit.Record(context.WithoutCancel(ctx), ev); err != nil {
		m.log.Warn("record audit event", "type", typ, "err", err)
	}
}

func shortHash(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	if hash == "" {
		return "none"
	}
	return hash
}
