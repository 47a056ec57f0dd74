package ui

import (
	"errors"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

const (
	envNoInteraction = "NO_INTERACTION"
	envCI            = "CI"
	envTerm          = "TERM"
)

// ErrCancelled is returned when the user aborts an interactive prompt.
var ErrCancelled = errors.New("cancelled")

// ErrNoInteraction reports that an interactive prompt was needed in a
// non-interactive terminal. Hint names the flag that bypasses it.
type ErrNoInteraction struct {
	Hint string
}

func (e *ErrNoInteraction) Error() string {
	if e.Hint != "" {
		return "interactive terminal required (" + e.Hint + ")"
	}
	return "interactive terminal required"
}

// RequireInteraction returns *ErrNoInteraction when the terminal is not
// interactive.
func RequireInteraction(bypassHint string) error {
	if IsInteractive() {
		return nil
	}
	return &ErrNoInteraction{Hint: bypassHint}
}

// interactive resolves once, on first use, and pins the lipgloss color
// profile to match so styled output stays consistent for the process.
var interactive = sync.OnceValue(func() bool {
	on := detectInteractiveMode()
	if on {
		lipgloss.SetColorProfile(termenv.ColorProfile())
	} else {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
	return on
})

// IsInteractive reports whether prompts and animations may be shown.
func IsInteractive() bool {
	return interactive()
}

func IsNoInteraction() bool {
	return !IsInteractive()
}

// detectInteractiveMode checks the conventional opt-outs, then falls
// back to asking whether stderr is a terminal. NO_INTERACTION and CI
// disable interaction, as does TERM=dumb.
func detectInteractiveMode() bool {
	if envTruthy(envNoInteraction) || envTruthy(envCI) {
		return false
	}
	if strings.EqualFold(strings.TrimSpace(os.Getenv(envTerm)), "dumb") {
		return false
	}
	return stderrIsTerminal()
}

func stderrIsTerminal() bool {
	info, err := os.Stderr.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}

func envTruthy(key string) bool {
	v := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	switch v {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
