package fake

import (
	"context"
	"sync"

	"vivarium/internal/decision"
	"vivarium/internal/observer"
)

var _ decision.Policy = (*Policy)(nil)

// Policy returns a canned proposal.
type Policy struct {
	CallRecorder
	mu       sync.Mutex
	proposal decision.Proposal

	// DecideFunc, when set, replaces the canned proposal entirely.
	DecideFunc func(ctx context.Context, latest observer.Observation, history []observer.Observation) (decision.Proposal, error)

	DecideErr func(ctx context.Context, latest observer.Observation) error
}

// NewPolicy creates a Policy that proposes no action.
func NewPolicy() *Policy {
	return &Policy{proposal: decision.Proposal{Reasoning: "standing by"}}
}

func (p *Policy) Decide(ctx context.Context, latest observer.Observation, history []observer.Observation) (decision.Proposal, error) {
	p.record("Decide", latest.ID, len(history))
	if p.DecideErr != nil {
		if err := p.DecideErr(ctx, latest); err != nil {
			return decision.Proposal{}, err
		}
	}
	if p.DecideFunc != nil {
		return p.DecideFunc(ctx, latest, history)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.proposal, nil
}

// SetProposal sets the proposal returned by Decide.
func (p *Policy) SetProposal(prop decision.Proposal) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.proposal = prop
}
