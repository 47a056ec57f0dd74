package whisper

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// DefaultInterval is 30m: rare enough that each word has time to be
// noticed before the next one lands.
const DefaultInterval = 30 * time.Minute

// SkipEmptyVocabulary is the Skipped reason when there is nothing to
// inject.
const SkipEmptyVocabulary = "empty_vocabulary"

// Vocabulary supplies the words the injector draws from.
//
// Production: *vocab.Store. Testing: fake.
type Vocabulary interface {
	PickRandom() (string, bool)
}

// Injector writes one random word to the whisper file per tick.
type Injector struct {
	vocab    Vocabulary
	path     string
	journal  *Log
	log      *slog.Logger
	interval time.Duration
}

// InjectorOption configures an Injector.
type InjectorOption func(*Injector)

// WithInterval overrides the injection interval.
func WithInterval(d time.Duration) InjectorOption {
	return func(inj *Injector) {
		if d > 0 {
			inj.interval = d
		}
	}
}

// WithLogger overrides the default logger.
func WithLogger(log *slog.Logger) InjectorOption {
	return func(inj *Injector) { inj.log = log.With("component", "whisper") }
}

// NewInjector wires an injector that writes to path and records every
// attempt in journal.
func NewInjector(vocab Vocabulary, path string, journal *Log, opts ...InjectorOption) *Injector {
	inj := &Injector{
		vocab:    vocab,
		path:     path,
		journal:  journal,
		log:      slog.With("component", "whisper"),
		interval: DefaultInterval,
	}
	for _, opt := range opts {
		opt(inj)
	}
	return inj
}

// Path returns the whisper file location.
func (inj *Injector) Path() string {
	return inj.path
}

// Run injects on the configured interval until ctx is cancelled. The
// first injection happens one full interval after start.
func (inj *Injector) Run(ctx context.Context) {
	inj.log.Info("starting", "interval", inj.interval, "path", inj.path)

	ticker := time.NewTicker(inj.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			inj.log.Info("stopped")
			return
		case <-ticker.C:
		}

		if _, err := inj.InjectNow(); err != nil {
			inj.log.Warn("injection failed", "err", err)
		}
	}
}

// InjectNow performs one injection immediately, regardless of the
// schedule. An empty vocabulary is recorded as a skipped entry and
// leaves the whisper file untouched.
func (inj *Injector) InjectNow() (Entry, error) {
	entry := Entry{At: time.Now().UTC()}

	word, ok := inj.vocab.PickRandom()
	if !ok {
		entry.Skipped = SkipEmptyVocabulary
		inj.log.Debug("injection skipped", "reason", SkipEmptyVocabulary)
		return entry, inj.journal.Append(entry)
	}
	entry.Word = word

	if err := inj.write(word); err != nil {
		entry.Error = err.Error()
		if logErr := inj.journal.Append(entry); logErr != nil {
			inj.log.Warn("append injection log", "err", logErr)
		}
		return entry, err
	}
	entry.Success = true
	inj.log.Info("word injected", "word", word)
	return entry, inj.journal.Append(entry)
}

// write replaces the whisper file content atomically; the agent inside
// the sandbox never sees a half-written word.
func (inj *Injector) write(word string) error {
	dir := filepath.Dir(inj.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create whisper directory %q: %w", dir, err)
	}
	tmp := inj.path + ".tmp"
	if err := os.WriteFile(tmp, []byte(word), 0o644); err != nil {
		return fmt.Errorf("write temp whisper file %q: %w", tmp, err)
	}
	if err := os.Rename(tmp, inj.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace whisper file %q: %w", inj.path, err)
	}
	return nil
}
