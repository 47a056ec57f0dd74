package decision

import (
	"context"
	"sync"

	"vivarium/internal/observer"
)

// probes are the read-only commands the rule policy rotates through.
var probes = []string{
	"uptime",
	"df -h",
	"free -m",
	"ls /tmp",
}

// RulePolicy is the model-free fallback: it rotates through a fixed set
// of read-only probes, and inspects processes when the observer reports
// error indicators on screen.
type RulePolicy struct {
	mu sync.Mutex
	n  int
}

var _ Policy = (*RulePolicy)(nil)

// NewRulePolicy returns a ready policy.
func NewRulePolicy() *RulePolicy {
	return &RulePolicy{}
}

// Decide proposes the next probe. Failed observations produce no
// action; the sandbox state is unknown, so standing by is the safe
// move.
func (p *RulePolicy) Decide(_ context.Context, latest observer.Observation, _ []observer.Observation) (Proposal, error) {
	if !latest.Success {
		return Proposal{Reasoning: "observation failed, standing by"}, nil
	}
	if latest.ErrorIndicators() {
		return Proposal{
			Reasoning:       "error indicators on screen, inspecting processes",
			Command:         "ps aux",
			ExpectedOutcome: "process list to correlate with the on-screen error",
			RiskLevel:       "low",
		}, nil
	}

	p.mu.Lock()
	probe := probes[p.n%len(probes)]
	p.n++
	p.mu.Unlock()

	return Proposal{
		Reasoning:       "routine probe of sandbox state",
		Command:         probe,
		ExpectedOutcome: "basic system state output",
		RiskLevel:       "low",
	}, nil
}
