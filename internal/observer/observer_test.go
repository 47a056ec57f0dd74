package observer_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"vivarium/internal/adapter/fake"
	"vivarium/internal/jsonl"
	"vivarium/internal/observer"
)

func TestObserveRecordsSuccessfulCycle(t *testing.T) {
	journalPath := filepath.Join(t.TempDir(), "observations.jsonl")
	snap := fake.NewSnapshotter()
	analyzer := fake.NewAnalyzer()
	obs := observer.NewObserver(snap, analyzer, jsonl.NewWriter(journalPath))

	got := obs.Observe(t.Context())
	if !got.Success {
		t.Fatalf("observation failed: %s", got.Error)
	}
	if got.ID == "" {
		t.Error("observation must carry an ID")
	}
	if got.Snapshot != "/tmp/screenshot.png" {
		t.Errorf("Snapshot = %q, want the capture path", got.Snapshot)
	}
	if got.Model != "fake-vision" {
		t.Errorf("Model = %q, want fake-vision", got.Model)
	}
	if got.Summary["activity"] != "idle desktop" {
		t.Errorf("activity = %q, want idle desktop", got.Summary["activity"])
	}

	records, err := jsonl.Tail[observer.Observation](journalPath, 0)
	if err != nil {
		t.Fatalf("Tail: %v", err)
	}
	if len(records) != 1 || records[0].ID != got.ID {
		t.Fatalf("journal = %+v, want the recorded observation", records)
	}
}

func TestObserveCaptureFailureIsRecorded(t *testing.T) {
	journalPath := filepath.Join(t.TempDir(), "observations.jsonl")
	snap := fake.NewSnapshotter()
	snap.SnapshotErr = func(context.Context) error {
		return errors.New("container is not running")
	}
	analyzer := fake.NewAnalyzer()
	obs := observer.NewObserver(snap, analyzer, jsonl.NewWriter(journalPath))

	got := obs.Observe(t.Context())
	if got.Success {
		t.Fatal("expected a failed observation")
	}
	if got.Error == "" {
		t.Fatal("failed observation must carry the error text")
	}
	if got.Analysis != "" {
		t.Errorf("Analysis = %q, want empty on capture failure", got.Analysis)
	}
	if analyzer.Count("AnalyzeImage") != 0 {
		t.Error("analysis must not run when capture fails")
	}

	records, err := jsonl.Tail[observer.Observation](journalPath, 0)
	if err != nil {
		t.Fatalf("Tail: %v", err)
	}
	if len(records) != 1 || records[0].Success {
		t.Fatalf("journal = %+v, want one failed observation", records)
	}
}

func TestObserveAnalysisFailureKeepsSnapshotPath(t *testing.T) {
	snap := fake.NewSnapshotter()
	analyzer := fake.NewAnalyzer()
	analyzer.AnalyzeImageErr = func(context.Context, []byte, string) error {
		return errors.New("api: 429 too many requests")
	}
	obs := observer.NewObserver(snap, analyzer, nil)

	got := obs.Observe(t.Context())
	if got.Success {
		t.Fatal("expected a failed observation")
	}
	if got.Snapshot == "" {
		t.Error("snapshot path should survive an analysis failure")
	}
}

func TestRecentReturnsBoundedHistoryOldestFirst(t *testing.T) {
	snap := fake.NewSnapshotter()
	analyzer := fake.NewAnalyzer()
	obs := observer.NewObserver(snap, analyzer, nil, observer.WithHistoryCap(2))

	first := obs.Observe(t.Context())
	second := obs.Observe(t.Context())
	third := obs.Observe(t.Context())

	recent := obs.Recent(0)
	if len(recent) != 2 {
		t.Fatalf("Recent() = %d observations, want cap of 2", len(recent))
	}
	if recent[0].ID != second.ID || recent[1].ID != third.ID {
		t.Fatalf("Recent() = %v, want the two newest oldest-first", []string{recent[0].ID, recent[1].ID})
	}
	if recent[0].ID == first.ID {
		t.Fatal("oldest observation should have been evicted")
	}
}

func TestRunDeliversObservationsToSink(t *testing.T) {
	snap := fake.NewSnapshotter()
	analyzer := fake.NewAnalyzer()
	sink := make(chan observer.Observation)
	obs := observer.NewObserver(snap, analyzer, nil,
		observer.WithInterval(5*time.Millisecond),
		observer.WithSink(sink),
	)

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan struct{})
	go func() {
		obs.Run(ctx)
		close(done)
	}()

	var first, second observer.Observation
	select {
	case first = <-sink:
	case <-time.After(2 * time.Second):
		t.Fatal("no observation arrived on the sink")
	}
	select {
	case second = <-sink:
	case <-time.After(2 * time.Second):
		t.Fatal("second observation never arrived")
	}
	if first.ID == second.ID {
		t.Error("each cycle must produce a distinct observation")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancellation")
	}
}

func TestRunKeepsGoingAfterFailedCycles(t *testing.T) {
	snap := fake.NewSnapshotter()
	snap.SnapshotErr = func(context.Context) error {
		return errors.New("transient capture failure")
	}
	analyzer := fake.NewAnalyzer()
	sink := make(chan observer.Observation)
	obs := observer.NewObserver(snap, analyzer, nil,
		observer.WithInterval(time.Minute), // only the failure backoff can re-arm this fast
		observer.WithBackoff(5*time.Millisecond),
		observer.WithSink(sink),
	)

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()
	go obs.Run(ctx)

	for i := range 3 {
		select {
		case got := <-sink:
			if got.Success {
				t.Fatalf("cycle %d unexpectedly succeeded", i)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("cycle %d never arrived; failures must re-arm via backoff", i)
		}
	}
}
