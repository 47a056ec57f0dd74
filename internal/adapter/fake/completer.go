package fake

import (
	"context"
	"sync"

	"vivarium/internal/decision"
)

var _ decision.Completer = (*Completer)(nil)

// Completer returns a canned chat completion.
type Completer struct {
	CallRecorder
	mu    sync.Mutex
	reply string

	CompleteErr func(ctx context.Context, system, user string) error
}

// NewCompleter creates a Completer whose reply proposes no action.
func NewCompleter() *Completer {
	return &Completer{reply: `{"reasoning": "nothing to do", "command": ""}`}
}

func (c *Completer) Complete(ctx context.Context, system, user string) (string, error) {
	c.record("Complete", system, user)
	if c.CompleteErr != nil {
		if err := c.CompleteErr(ctx, system, user); err != nil {
			return "", err
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reply, nil
}

// SetReply sets the text returned by Complete.
func (c *Completer) SetReply(reply string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reply = reply
}
