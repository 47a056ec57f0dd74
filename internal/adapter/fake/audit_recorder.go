package fake

import (
	"context"
	"sync"

	"vivarium/internal/sandbox"
)

var _ sandbox.AuditRecorder = (*AuditRecorder)(nil)

// AuditRecorder keeps audit events in memory.
type AuditRecorder struct {
	CallRecorder
	mu     sync.Mutex
	events []sandbox.AuditEvent

	RecordErr func(ctx context.Context, ev sandbox.AuditEvent) error
}

// NewAuditRecorder creates an empty AuditRecorder.
func NewAuditRecorder() *AuditRecorder {
	return &AuditRecorder{}
}

func (a *AuditRecorder) Record(ctx context.Context, ev sandbox.AuditEvent) error {
	a.record("Record", ev.Type, ev.Success)
	if a.RecordErr != nil {
		if err := a.RecordErr(ctx, ev); err != nil {
			return err
		}
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, ev)
	return nil
}

// Events returns all recorded events.
func (a *AuditRecorder) Events() []sandbox.AuditEvent {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]sandbox.AuditEvent, len(a.events))
	copy(out, a.events)
	return out
}
