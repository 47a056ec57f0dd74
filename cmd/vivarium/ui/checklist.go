package ui

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
)

// Checklist renders telemetry snapshots as a live terminal checklist.
// Pending steps print dimmed, the running step animates, finished steps
// keep a check or a cross.
type Checklist struct {
	mu      sync.Mutex
	steps   []stepState
	printed int
	frame   int
	stop    chan struct{}
	once    sync.Once
}

func NewChecklist() *Checklist {
	return &Checklist{stop: make(chan struct{})}
}

// OnSnapshot replaces the checklist contents with the snapshot's steps.
// The first snapshot starts the animation loop.
func (c *Checklist) OnSnapshot(snap stepSnapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()

	start := c.steps == nil
	c.steps = snap.Steps
	c.repaint()
	if start {
		go c.animate()
	}
}

// Close stops the animation loop.
func (c *Checklist) Close() {
	c.once.Do(func() { close(c.stop) })
}

func (c *Checklist) animate() {
	tick := time.NewTicker(spinner.MiniDot.FPS)
	defer tick.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-tick.C:
			c.mu.Lock()
			c.frame++
			c.repaint()
			c.mu.Unlock()
		}
	}
}

// repaint rewrites the whole block in place with one write. Caller
// holds c.mu.
func (c *Checklist) repaint() {
	if len(c.steps) == 0 && c.printed == 0 {
		return
	}

	var b strings.Builder
	if c.printed > 0 {
		fmt.Fprintf(&b, "\033[%dF", c.printed)
	}
	for _, s := range c.steps {
		b.WriteString("  " + c.line(s) + "\033[K\n")
	}
	for i := len(c.steps); i < c.printed; i++ {
		b.WriteString("\033[K\n")
	}
	_, _ = os.Stderr.WriteString(b.String())
	c.printed = len(c.steps)
}

func (c *Checklist) line(s stepState) string {
	switch s.Status {
	case stepRunning:
		frames := spinner.MiniDot.Frames
		line := Accent(frames[c.frame%len(frames)]) + " " + s.Title
		if s.Message != "" {
			line += " " + Muted(s.Message)
		}
		return line
	case stepDone:
		return Success("✓") + " " + s.Title
	case stepFailed:
		line := ErrorStyle.Render("✗ " + s.Title)
		if s.Message != "" {
			line += " " + Muted(s.Message)
		}
		return line
	default:
		return Muted("· " + s.Title)
	}
}
