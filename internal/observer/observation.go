// Package observer watches the sandbox desktop: on a fixed interval it
// captures a snapshot, has a vision model describe it, and records the
// result. One Observation is recorded per cycle whether or not the
// cycle succeeded.
package observer

import (
	"strings"
	"time"
)

// analysisPrompt is the fixed prompt sent with every snapshot. The
// structured lines it demands are what parseSummary scans for.
const analysisPrompt = `You are watching the desktop of a sandboxed AI agent. Report what the screen shows.
Respond with exactly four lines:
ACTIVITY: what the agent appears to be doing
WINDOWS: visible applications and windows
TEXT: notable on-screen text
ERRORS: error messages or abnormal states, or "none"`

// Observation is one recorded observer cycle. Failed cycles carry the
// error text and no analysis.
type Observation struct {
	ID       string            `json:"id"`
	At       time.Time         `json:"at"`
	Snapshot string            `json:"snapshot,omitempty"`
	Analysis string            `json:"analysis,omitempty"`
	Summary  map[string]string `json:"summary,omitempty"`
	Model    string            `json:"model,omitempty"`
	Success  bool              `json:"success"`
	Error    string            `json:"error,omitempty"`
}

// summaryFields are the prompt's line prefixes, mapped to summary keys.
var summaryFields = map[string]string{
	"ACTIVITY:": "activity",
	"WINDOWS:":  "windows",
	"TEXT:":     "text",
	"ERRORS:":   "errors",
}

// parseSummary extracts the prompt's structured lines from the raw
// analysis text. Lines the model decorated or reordered still match;
// anything unrecognized is simply absent from the summary.
func parseSummary(text string) map[string]string {
	summary := make(map[string]string)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "*-# ")
		for prefix, key := range summaryFields {
			if rest, ok := strings.CutPrefix(line, prefix); ok {
				summary[key] = strings.TrimSpace(strings.Trim(rest, "*"))
				break
			}
		}
	}
	if len(summary) == 0 {
		return nil
	}
	return summary
}

// ErrorIndicators reports whether the observation's summary flagged
// anything in its ERRORS field.
func (o Observation) ErrorIndicators() bool {
	errs, ok := o.Summary["errors"]
	if !ok {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(strings.TrimRight(errs, "."))) {
	case "", "none", "no errors", "n/a":
		return false
	default:
		return true
	}
}
