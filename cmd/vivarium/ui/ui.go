package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// Palette, named for intent rather than hue. Everything renders fine on
// a dark terminal; lipgloss degrades gracefully elsewhere.
var (
	accent  = lipgloss.Color("42")
	good    = lipgloss.Color("78")
	bad     = lipgloss.Color("203")
	caution = lipgloss.Color("215")
	dim     = lipgloss.Color("245")
	faint   = lipgloss.Color("238")
)

// Styles other ui files and commands compose from.
var (
	AccentStyle  = lipgloss.NewStyle().Foreground(accent)
	SuccessStyle = lipgloss.NewStyle().Foreground(good)
	ErrorStyle   = lipgloss.NewStyle().Foreground(bad)
	WarnStyle    = lipgloss.NewStyle().Foreground(caution)
	MutedStyle   = lipgloss.NewStyle().Foreground(dim)
	FaintStyle   = lipgloss.NewStyle().Foreground(faint)
	BoldStyle    = lipgloss.NewStyle().Bold(true)
	LabelStyle   = lipgloss.NewStyle().Foreground(dim)
)

func Accent(s string) string  { return AccentStyle.Render(s) }
func Bold(s string) string    { return BoldStyle.Render(s) }
func Muted(s string) string   { return MutedStyle.Render(s) }
func Success(s string) string { return SuccessStyle.Render(s) }

// StateBadge colors a sandbox lifecycle state.
func StateBadge(state string) string {
	switch state {
	case "running":
		return SuccessStyle.Render(state)
	case "errored":
		return ErrorStyle.Render(state)
	case "building":
		return WarnStyle.Render(state)
	case "stopped":
		return MutedStyle.Render(state)
	case "absent":
		return FaintStyle.Render(state)
	default:
		return state
	}
}

// OutcomeBadge colors a decision outcome. Skipped outcomes carry a
// reason suffix, so match on the prefix.
func OutcomeBadge(outcome string) string {
	switch {
	case outcome == "executed":
		return SuccessStyle.Render(outcome)
	case outcome == "no_action":
		return MutedStyle.Render(outcome)
	case strings.HasPrefix(outcome, "skipped"):
		return WarnStyle.Render(outcome)
	default:
		return outcome
	}
}

// One-line status messages, no trailing newline.

func SuccessMsg(format string, a ...any) string {
	return SuccessStyle.Render("✓") + " " + fmt.Sprintf(format, a...)
}

func WarnMsg(format string, a ...any) string {
	return WarnStyle.Render("!") + " " + fmt.Sprintf(format, a...)
}

func ErrorMsg(format string, a ...any) string {
	return ErrorStyle.Render("✗") + " " + fmt.Sprintf(format, a...)
}

func InfoMsg(format string, a ...any) string {
	return AccentStyle.Render("•") + " " + fmt.Sprintf(format, a...)
}

// Pair is one row of a KeyValues block. Construct with KV.
type Pair struct {
	key   string
	value string
}

func KV(key, value string) Pair {
	return Pair{key: key, value: value}
}

// KeyValues renders pairs as aligned "key: value" lines, one per pair,
// with a trailing newline.
func KeyValues(indent string, pairs ...Pair) string {
	width := 0
	for _, p := range pairs {
		if len(p.key) > width {
			width = len(p.key)
		}
	}

	var sb strings.Builder
	for _, p := range pairs {
		pad := strings.Repeat(" ", width-len(p.key))
		sb.WriteString(indent)
		sb.WriteString(LabelStyle.Render(p.key + ":"))
		sb.WriteString(pad + " ")
		sb.WriteString(p.value)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Table renders rows under a bold header with rounded borders.
func Table(headers []string, rows [][]string) string {
	header := lipgloss.NewStyle().
		Foreground(accent).
		Bold(true).
		Padding(0, 1)
	cell := lipgloss.NewStyle().Padding(0, 1)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(FaintStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		}).
		Headers(headers...).
		Rows(rows...)

	return t.String()
}
