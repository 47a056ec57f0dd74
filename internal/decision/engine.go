package decision

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"vivarium/internal/jsonl"
	"vivarium/internal/observer"
	"vivarium/internal/safety"
	"vivarium/internal/sandbox"
)

const (
	// DefaultExecTimeout bounds commands the engine submits.
	DefaultExecTimeout = 30 * time.Second
	// historyWindow is how many prior observations a policy sees.
	historyWindow = 5
	// detailLimit truncates captured output in log entries.
	detailLimit = 256
)

// Engine runs one decision cycle per consumed observation.
type Engine struct {
	policy  Policy
	exec    Executor
	journal *jsonl.Writer
	log     *slog.Logger

	execTimeout time.Duration

	mu     sync.Mutex
	window []observer.Observation
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithExecTimeout overrides the per-command timeout.
func WithExecTimeout(d time.Duration) EngineOption {
	return func(e *Engine) {
		if d > 0 {
			e.execTimeout = d
		}
	}
}

// WithEngineLogger overrides the default logger.
func WithEngineLogger(log *slog.Logger) EngineOption {
	return func(e *Engine) { e.log = log.With("component", "decision") }
}

// NewEngine wires a decision engine. The journal receives every
// decision, append-only.
func NewEngine(policy Policy, exec Executor, journal *jsonl.Writer, opts ...EngineOption) *Engine {
	e := &Engine{
		policy:      policy,
		exec:        exec,
		journal:     journal,
		log:         slog.With("component", "decision"),
		execTimeout: DefaultExecTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run consumes observations until ctx is cancelled or the channel
// closes. One cycle per observation, no independent polling.
func (e *Engine) Run(ctx context.Context, observations <-chan observer.Observation) {
	e.log.Info("starting")
	for {
		select {
		case <-ctx.Done():
			e.log.Info("stopped")
			return
		case obs, ok := <-observations:
			if !ok {
				e.log.Info("stopped", "reason", "observation channel closed")
				return
			}
			e.Decide(ctx, obs)
		}
	}
}

// Decide runs one cycle for the given observation and returns the
// recorded entry. Rejected commands are logged and never retried.
func (e *Engine) Decide(ctx context.Context, obs observer.Observation) LogEntry {
	entry := LogEntry{
		ID:            uuid.NewString(),
		At:            time.Now().UTC(),
		ObservationID: obs.ID,
	}

	proposal, err := e.policy.Decide(ctx, obs, e.pastWindow())
	e.remember(obs)
	if err != nil {
		entry.Outcome = OutcomePolicyFailure
		entry.Detail = err.Error()
		return e.record(entry)
	}
	entry.Reasoning = proposal.Reasoning

	command := strings.TrimSpace(proposal.Command)
	if command == "" {
		entry.Outcome = OutcomeNoAction
		return e.record(entry)
	}
	entry.Command = command

	res, err := e.exec.Exec(ctx, command, e.execTimeout)
	switch {
	case err == nil:
		entry.Outcome = OutcomeExecuted
		entry.ExitCode = &res.ExitCode
		entry.Detail = truncate(firstNonEmpty(res.Stdout, res.Stderr), detailLimit)
	default:
		var rejection *safety.Rejection
		switch {
		case errors.As(err, &rejection):
			entry.Outcome = OutcomeRejected
			entry.Detail = rejection.Reason
		case errors.Is(err, sandbox.ErrNotRunning):
			entry.Outcome = OutcomeNotRunning
			entry.Detail = err.Error()
		default:
			entry.Outcome = OutcomeExecFailed
			entry.Detail = err.Error()
		}
	}
	return e.record(entry)
}

func (e *Engine) pastWindow() []observer.Observation {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]observer.Observation, len(e.window))
	copy(out, e.window)
	return out
}

func (e *Engine) remember(obs observer.Observation) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.window = append(e.window, obs)
	if len(e.window) > historyWindow {
		e.window = e.window[len(e.window)-historyWindow:]
	}
}

func (e *Engine) record(entry LogEntry) LogEntry {
	if e.journal != nil {
		if err := e.journal.Append(entry); err != nil {
			e.log.Warn("append decision journal", "err", err)
		}
	}
	switch entry.Outcome {
	case OutcomeExecuted:
		e.log.Info("decision executed", "id", entry.ID, "command", entry.Command, "exit", *entry.ExitCode)
	case OutcomeNoAction:
		e.log.Debug("decision: no action", "id", entry.ID)
	default:
		e.log.Warn("decision skipped", "id", entry.ID, "command", entry.Command, "outcome", entry.Outcome, "detail", entry.Detail)
	}
	return entry
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
