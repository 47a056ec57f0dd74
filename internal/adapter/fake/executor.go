package fake

import (
	"context"
	"sync"
	"time"

	"vivarium/internal/decision"
	"vivarium/internal/sandbox"
)

var _ decision.Executor = (*Executor)(nil)

// Executor returns a canned exec result.
type Executor struct {
	CallRecorder
	mu     sync.Mutex
	result sandbox.ExecResult

	ExecErr func(ctx context.Context, command string, timeout time.Duration) error
}

// NewExecutor creates an Executor whose commands succeed with exit 0.
func NewExecutor() *Executor {
	return &Executor{}
}

func (e *Executor) Exec(ctx context.Context, command string, timeout time.Duration) (sandbox.ExecResult, error) {
	e.record("Exec", command, timeout)
	if e.ExecErr != nil {
		if err := e.ExecErr(ctx, command, timeout); err != nil {
			return sandbox.ExecResult{}, err
		}
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.result, nil
}

// SetResult sets the result returned by Exec.
func (e *Executor) SetResult(res sandbox.ExecResult) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.result = res
}
