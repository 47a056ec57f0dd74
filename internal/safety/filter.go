// Package safety gates every command before it may reach the sandbox exec
// path. The filter is pure: it never touches the engine, so a rejection is
// always terminal for that command.
package safety

import (
	"fmt"
	"path"
	"strings"

	shellwords "github.com/mattn/go-shellwords"
)

// maxCommandLength bounds raw command text. Longer commands are rejected
// before any parsing happens.
const maxCommandLength = 1000

// metacharacters that would hand control to a shell. Commands run as an
// argument vector, never as shell text, so none of these have a
// legitimate use here.
const shellMetacharacters = ";&|`$()<>"

// Rejection is returned for a command the filter refuses to pass on.
type Rejection struct {
	Command string
	Reason  string
}

func (e *Rejection) Error() string {
	return fmt.Sprintf("command rejected: %s", e.Reason)
}

// Filter applies the deny policy to proposed commands.
type Filter struct {
	parser *shellwords.Parser
}

// NewFilter returns a Filter with environment expansion and backtick
// execution disabled; the command string is data.
func NewFilter() *Filter {
	return &Filter{parser: shellwords.NewParser()}
}

// Check validates a command. It returns nil or a *Rejection; rejected
// commands are never retried.
func (f *Filter) Check(command string) error {
	raw := strings.TrimSpace(command)
	if raw == "" {
		return &Rejection{Command: command, Reason: "empty command"}
	}
	if len(raw) > maxCommandLength {
		return &Rejection{Command: command, Reason: fmt.Sprintf("command exceeds %d characters", maxCommandLength)}
	}
	if isForkBomb(raw) {
		return &Rejection{Command: command, Reason: "fork bomb"}
	}
	if idx := strings.IndexAny(raw, shellMetacharacters); idx >= 0 {
		return &Rejection{Command: command, Reason: fmt.Sprintf("shell metacharacter %q", raw[idx])}
	}
	if strings.Contains(raw, "..") {
		return &Rejection{Command: command, Reason: "parent directory traversal"}
	}

	argv, err := f.parser.Parse(raw)
	if err != nil {
		return &Rejection{Command: command, Reason: "unparsable command: " + err.Error()}
	}
	if len(argv) == 0 {
		return &Rejection{Command: command, Reason: "empty command"}
	}

	if reason := denyReason(argv); reason != "" {
		return &Rejection{Command: command, Reason: reason}
	}
	return nil
}

// Parse tokenizes a command into its argument vector using the same
// rules Check applies.
func (f *Filter) Parse(command string) ([]string, error) {
	argv, err := f.parser.Parse(strings.TrimSpace(command))
	if err != nil {
		return nil, fmt.Errorf("tokenize command: %w", err)
	}
	if len(argv) == 0 {
		return nil, fmt.Errorf("empty command")
	}
	return argv, nil
}

func denyReason(argv []string) string {
	prog := path.Base(argv[0])
	switch {
	case prog == "sudo" || prog == "su" || prog == "doas":
		return "privilege escalation"
	case strings.HasPrefix(prog, "mkfs") || prog == "fdisk" || prog == "parted" || prog == "dd" || prog == "wipefs":
		return "filesystem or device destruction"
	case prog == "shutdown" || prog == "reboot" || prog == "halt" || prog == "poweroff":
		return "power control"
	case prog == "mount" || prog == "umount":
		return "mount manipulation"
	case prog == "killall" || prog == "pkill":
		return "mass process kill"
	}
	if isShellInvocation(prog, argv[1:]) {
		return "nested shell execution"
	}
	if prog == "rm" && isRootDeletion(argv[1:]) {
		return "recursive deletion of a root path"
	}
	return ""
}

func isForkBomb(raw string) bool {
	compact := strings.Map(func(r rune) rune {
		if r == ' ' || r == '\t' {
			return -1
		}
		return r
	}, raw)
	return strings.Contains(compact, ":(){")
}

func isShellInvocation(prog string, args []string) bool {
	switch prog {
	case "sh", "bash", "dash", "zsh", "ash":
	default:
		return false
	}
	for _, arg := range args {
		if arg == "-c" {
			return true
		}
	}
	return false
}

// isRootDeletion reports whether rm arguments combine recursive+force
// flags with a root-level target like / or /etc.
func isRootDeletion(args []string) bool {
	recursive, force := false, false
	rooted := false
	for _, arg := range args {
		switch {
		case arg == "--recursive":
			recursive = true
		case arg == "--force":
			force = true
		case strings.HasPrefix(arg, "-") && len(arg) > 1 && arg[1] != '-':
			if strings.ContainsAny(arg, "rR") {
				recursive = true
			}
			if strings.Contains(arg, "f") {
				force = true
			}
		case isRootPath(arg):
			rooted = true
		}
	}
	return recursive && force && rooted
}

func isRootPath(arg string) bool {
	cleaned := strings.TrimRight(strings.TrimSpace(arg), "*")
	if !strings.HasPrefix(cleaned, "/") {
		return false
	}
	// "/" and single-component absolute paths like /etc count as root
	// level; anything deeper does not.
	return strings.Count(path.Clean(cleaned), "/") == 1
}
