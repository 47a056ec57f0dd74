package decision

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"vivarium/internal/observer"
)

const decisionSystemPrompt = `You are a cautious decision engine for a sandboxed AI agent. Each cycle you may propose at most one shell command to run inside the sandbox. Commands must be safe, read-mostly, and aimed at exploring or unblocking the agent. Never propose anything destructive, privileged, or irreversible. If nothing useful can be done this cycle, propose no command.`

const decisionReplyFormat = `Reply with JSON only, no prose around it:
{
  "reasoning": "why this step",
  "command": "the command to run, or empty string for no action",
  "expected_outcome": "what the command should show",
  "risk_level": "low, medium or high"
}`

// Completer is the text-completion capability the model policy decides
// with.
//
// Production: *vision.Client. Testing: fake.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// ModelPolicy asks a language model for the next command.
type ModelPolicy struct {
	client Completer
}

var _ Policy = (*ModelPolicy)(nil)

// NewModelPolicy returns a policy backed by the given completion
// capability.
func NewModelPolicy(client Completer) *ModelPolicy {
	return &ModelPolicy{client: client}
}

// Decide builds a prompt from the observation window and parses the
// model's JSON reply into a proposal.
func (p *ModelPolicy) Decide(ctx context.Context, latest observer.Observation, history []observer.Observation) (Proposal, error) {
	text, err := p.client.Complete(ctx, decisionSystemPrompt, buildPrompt(latest, history))
	if err != nil {
		return Proposal{}, fmt.Errorf("complete decision prompt: %w", err)
	}
	proposal, err := parseProposal(text)
	if err != nil {
		return Proposal{}, err
	}
	return proposal, nil
}

func buildPrompt(latest observer.Observation, history []observer.Observation) string {
	var b strings.Builder
	b.WriteString("Recent sandbox observations, oldest first:\n")

	// Only the tail of the window; older context adds noise, not signal.
	if len(history) > 3 {
		history = history[len(history)-3:]
	}
	for _, obs := range history {
		b.WriteString(observationLine(obs))
	}
	b.WriteString("Latest observation:\n")
	b.WriteString(observationLine(latest))

	b.WriteString("\nDecide the next command for the sandbox.\n")
	b.WriteString(decisionReplyFormat)
	return b.String()
}

func observationLine(obs observer.Observation) string {
	stamp := obs.At.Format("15:04:05")
	if !obs.Success {
		return fmt.Sprintf("- %s: observation failed: %s\n", stamp, obs.Error)
	}
	if activity, ok := obs.Summary["activity"]; ok {
		line := fmt.Sprintf("- %s: %s", stamp, activity)
		if errs, ok := obs.Summary["errors"]; ok && obs.ErrorIndicators() {
			line += fmt.Sprintf(" (errors: %s)", errs)
		}
		return line + "\n"
	}
	return fmt.Sprintf("- %s: %s\n", stamp, firstLine(obs.Analysis))
}

// parseProposal tolerates code fences and surrounding prose; it decodes
// the first JSON object in the reply.
func parseProposal(text string) (Proposal, error) {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end <= start {
		return Proposal{}, fmt.Errorf("decision reply carried no JSON object: %.120q", text)
	}
	var proposal Proposal
	if err := json.Unmarshal([]byte(text[start:end+1]), &proposal); err != nil {
		return Proposal{}, fmt.Errorf("decode decision reply: %w: %.120q", err, text)
	}
	return proposal, nil
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > 120 {
		s = s[:120]
	}
	return s
}
