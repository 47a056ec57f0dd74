// Package decision closes the loop from observations to commands: each
// observation drives at most one decision cycle, whose command (if any)
// goes through the sandbox's filtered exec path.
package decision

import (
	"context"
	"time"

	"vivarium/internal/observer"
	"vivarium/internal/sandbox"
)

// Outcomes recorded per decision cycle.
const (
	OutcomeExecuted      = "executed"
	OutcomeNoAction      = "no_action"
	OutcomeRejected      = "skipped: rejected"
	OutcomeNotRunning    = "skipped: not_running"
	OutcomeExecFailed    = "skipped: exec_failed"
	OutcomePolicyFailure = "skipped: policy_failure"
)

// LogEntry is one recorded decision cycle.
type LogEntry struct {
	ID            string    `json:"id"`
	At            time.Time `json:"at"`
	ObservationID string    `json:"observation_id"`
	Reasoning     string    `json:"reasoning,omitempty"`
	Command       string    `json:"command,omitempty"`
	Outcome       string    `json:"outcome"`
	Detail        string    `json:"detail,omitempty"`
	ExitCode      *int      `json:"exit_code,omitempty"`
}

// Proposal is a policy's suggested next step. An empty Command means no
// action this cycle.
type Proposal struct {
	Reasoning       string `json:"reasoning"`
	Command         string `json:"command"`
	ExpectedOutcome string `json:"expected_outcome,omitempty"`
	RiskLevel       string `json:"risk_level,omitempty"`
}

// Policy produces a proposal from the latest observation and a bounded
// window of prior ones. The engine, not the policy, is responsible for
// safety filtering.
//
// Production: *ModelPolicy or *RulePolicy. Testing: fake.
type Policy interface {
	Decide(ctx context.Context, latest observer.Observation, history []observer.Observation) (Proposal, error)
}

// Executor submits one command through the sandbox's filtered exec
// path.
//
// Production: *sandbox.Manager. Testing: fake.
type Executor interface {
	Exec(ctx context.Context, command string, timeout time.Duration) (sandbox.ExecResult, error)
}
