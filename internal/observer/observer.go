package observer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"vivarium/internal/jsonl"
)

const (
	// DefaultInterval is 30s: frequent enough to follow desktop activity
	// without flooding the vision API.
	DefaultInterval = 30 * time.Second
	// DefaultBackoff is 5s: after a failed cycle the next attempt comes
	// quickly instead of waiting out the full interval.
	DefaultBackoff = 5 * time.Second
	// DefaultHistoryCap bounds the in-memory observation window.
	DefaultHistoryCap = 50
)

// Observer runs the capture → analyze → record cycle.
type Observer struct {
	snap     Snapshotter
	analyzer Analyzer
	journal  *jsonl.Writer
	history  *history
	log      *slog.Logger

	interval time.Duration
	backoff  time.Duration
	sink     chan<- Observation
}

// Option configures an Observer.
type Option func(*Observer)

// WithInterval overrides the cycle interval.
func WithInterval(d time.Duration) Option {
	return func(o *Observer) {
		if d > 0 {
			o.interval = d
		}
	}
}

// WithBackoff overrides the post-failure delay.
func WithBackoff(d time.Duration) Option {
	return func(o *Observer) {
		if d > 0 {
			o.backoff = d
		}
	}
}

// WithHistoryCap overrides the in-memory history size.
func WithHistoryCap(n int) Option {
	return func(o *Observer) {
		if n > 0 {
			o.history = newHistory(n)
		}
	}
}

// WithSink forwards every recorded observation to ch. Run blocks on the
// send, which is what couples decision cycles one-to-one to
// observations.
func WithSink(ch chan<- Observation) Option {
	return func(o *Observer) { o.sink = ch }
}

// WithLogger overrides the default logger.
func WithLogger(log *slog.Logger) Option {
	return func(o *Observer) { o.log = log.With("component", "observer") }
}

// NewObserver wires an observer over its capture and analysis
// capabilities. The journal receives every observation, append-only.
func NewObserver(snap Snapshotter, analyzer Analyzer, journal *jsonl.Writer, opts ...Option) *Observer {
	o := &Observer{
		snap:     snap,
		analyzer: analyzer,
		journal:  journal,
		history:  newHistory(DefaultHistoryCap),
		log:      slog.With("component", "observer"),
		interval: DefaultInterval,
		backoff:  DefaultBackoff,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run cycles until ctx is cancelled. The first cycle fires immediately;
// after a failed cycle the next one comes after the short backoff
// rather than the full interval.
func (o *Observer) Run(ctx context.Context) {
	o.log.Info("starting", "interval", o.interval)

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			o.log.Info("stopped")
			return
		case <-timer.C:
		}

		obs := o.Observe(ctx)
		if ctx.Err() != nil {
			o.log.Info("stopped")
			return
		}
		if o.sink != nil {
			select {
			case o.sink <- obs:
			case <-ctx.Done():
				o.log.Info("stopped")
				return
			}
		}

		if obs.Success {
			timer.Reset(o.interval)
		} else {
			timer.Reset(o.backoff)
		}
	}
}

// Observe performs one capture → analyze → record cycle and returns the
// recorded observation. Failures are recorded too, with Success false.
func (o *Observer) Observe(ctx context.Context) Observation {
	obs := Observation{
		ID:    uuid.NewString(),
		At:    time.Now().UTC(),
		Model: o.analyzer.Model(),
	}

	path, img, err := o.snap.Snapshot(ctx)
	if err != nil {
		return o.fail(obs, fmt.Errorf("capture snapshot: %w", err))
	}
	obs.Snapshot = path

	text, err := o.analyzer.AnalyzeImage(ctx, img, analysisPrompt)
	if err != nil {
		return o.fail(obs, err)
	}
	obs.Analysis = text
	obs.Summary = parseSummary(text)
	obs.Success = true

	o.record(obs)
	o.log.Debug("observation recorded", "id", obs.ID, "snapshot", obs.Snapshot)
	return obs
}

// Recent returns up to n past observations from memory, oldest first.
func (o *Observer) Recent(n int) []Observation {
	return o.history.recent(n)
}

func (o *Observer) fail(obs Observation, err error) Observation {
	obs.Success = false
	obs.Error = err.Error()
	o.record(obs)
	o.log.Warn("observation failed", "id", obs.ID, "err", err)
	return obs
}

func (o *Observer) record(obs Observation) {
	o.history.push(obs)
	if o.journal == nil {
		return
	}
	if err := o.journal.Append(obs); err != nil {
		o.log.Warn("append observation journal", "err", err)
	}
}
