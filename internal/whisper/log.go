// Package whisper periodically writes a random vocabulary word to a
// fixed sandbox-visible file, for the agent inside to discover on its
// own.
package whisper

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"
)

// ErrLogPersistence marks a failed write of the injection log.
var ErrLogPersistence = errors.New("injection log write failed")

// DefaultLogCap bounds the injection log; oldest entries fall off
// first.
const DefaultLogCap = 1000

// Entry records one injection attempt. Skipped holds the reason when no
// write was attempted.
type Entry struct {
	At      time.Time `json:"at"`
	Word    string    `json:"word,omitempty"`
	Success bool      `json:"success"`
	Skipped string    `json:"skipped,omitempty"`
	Error   string    `json:"error,omitempty"`
}

// Log is the capped injection history, persisted as one JSON array.
type Log struct {
	mu      sync.Mutex
	path    string
	cap     int
	entries []Entry
}

// OpenLog loads the injection log from path, or starts empty when the
// file does not exist. Cap values below 1 fall back to DefaultLogCap.
func OpenLog(path string, cap int) (*Log, error) {
	if cap < 1 {
		cap = DefaultLogCap
	}
	l := &Log{path: path, cap: cap}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return l, nil
		}
		return nil, fmt.Errorf("read injection log %q: %w", path, err)
	}
	if err := json.Unmarshal(data, &l.entries); err != nil {
		return nil, fmt.Errorf("decode injection log %q: %w", path, err)
	}
	if len(l.entries) > l.cap {
		l.entries = l.entries[len(l.entries)-l.cap:]
	}
	return l, nil
}

// Append records an entry, evicting the oldest once the cap is
// exceeded, and persists the log before returning.
func (l *Log) Append(entry Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	next := append(slices.Clone(l.entries), entry)
	if len(next) > l.cap {
		next = next[len(next)-l.cap:]
	}
	if err := l.persist(next); err != nil {
		return err
	}
	l.entries = next
	return nil
}

// Recent returns up to n entries, oldest first.
func (l *Log) Recent(n int) []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	if n <= 0 || n > len(l.entries) {
		n = len(l.entries)
	}
	out := make([]Entry, n)
	copy(out, l.entries[len(l.entries)-n:])
	return out
}

// Len reports the number of retained entries.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

func (l *Log) persist(entries []Entry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal injection log: %w", err)
	}

	dir := filepath.Dir(l.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: create directory %q: %v", ErrLogPersistence, dir, err)
	}
	tmp := l.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("%w: write temp file %q: %v", ErrLogPersistence, tmp, err)
	}
	if err := os.Rename(tmp, l.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("%w: replace %q: %v", ErrLogPersistence, l.path, err)
	}
	return nil
}
