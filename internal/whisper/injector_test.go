package whisper_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"vivarium/internal/adapter/fake"
	"vivarium/internal/whisper"
)

func newTestInjector(t *testing.T, vocab whisper.Vocabulary) (*whisper.Injector, *whisper.Log, string) {
	t.Helper()
	dir := t.TempDir()
	journal, err := whisper.OpenLog(filepath.Join(dir, "injections.json"), 10)
	if err != nil {
		t.Fatalf("OpenLog: %v", err)
	}
	path := filepath.Join(dir, "whisper.txt")
	return whisper.NewInjector(vocab, path, journal), journal, path
}

func TestInjectNowWritesWordAndLogsIt(t *testing.T) {
	inj, journal, path := newTestInjector(t, fake.NewVocabulary("emergence"))

	entry, err := inj.InjectNow()
	if err != nil {
		t.Fatalf("InjectNow: %v", err)
	}
	if !entry.Success || entry.Word != "emergence" {
		t.Fatalf("entry = %+v, want successful emergence injection", entry)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read whisper file: %v", err)
	}
	if string(content) != "emergence" {
		t.Fatalf("whisper file = %q, want %q", content, "emergence")
	}

	logged := journal.Recent(0)
	if len(logged) != 1 || logged[0].Word != "emergence" || !logged[0].Success {
		t.Fatalf("journal = %+v, want one successful entry", logged)
	}
}

func TestInjectNowReplacesPreviousWord(t *testing.T) {
	inj, _, path := newTestInjector(t, fake.NewVocabulary("first", "second"))

	if _, err := inj.InjectNow(); err != nil {
		t.Fatalf("first InjectNow: %v", err)
	}
	if _, err := inj.InjectNow(); err != nil {
		t.Fatalf("second InjectNow: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read whisper file: %v", err)
	}
	if string(content) != "second" {
		t.Fatalf("whisper file = %q, want the replacement word", content)
	}

	// The atomic temp file must not linger.
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file still present: %v", err)
	}
}

func TestInjectNowEmptyVocabularySkips(t *testing.T) {
	inj, journal, path := newTestInjector(t, fake.NewVocabulary())

	entry, err := inj.InjectNow()
	if err != nil {
		t.Fatalf("InjectNow: %v", err)
	}
	if entry.Success {
		t.Fatal("empty vocabulary must not count as a successful injection")
	}
	if entry.Skipped != whisper.SkipEmptyVocabulary {
		t.Fatalf("Skipped = %q, want %q", entry.Skipped, whisper.SkipEmptyVocabulary)
	}

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("whisper file must not be written on a skipped injection")
	}

	logged := journal.Recent(0)
	if len(logged) != 1 || logged[0].Skipped != whisper.SkipEmptyVocabulary {
		t.Fatalf("journal = %+v, want one skipped entry", logged)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	vocab := fake.NewVocabulary("word")
	inj, _, _ := newTestInjector(t, vocab)

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan struct{})
	go func() {
		inj.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancellation")
	}
}

func TestRunWaitsFullIntervalBeforeFirstInjection(t *testing.T) {
	vocab := fake.NewVocabulary("word")
	inj, journal, _ := newTestInjector(t, vocab)

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan struct{})
	go func() {
		inj.Run(ctx) // default 30m interval; nothing may fire in this test
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	if got := vocab.Count("PickRandom"); got != 0 {
		t.Fatalf("PickRandom called %d times before the first tick, want 0", got)
	}
	if journal.Len() != 0 {
		t.Fatalf("journal has %d entries before the first tick, want 0", journal.Len())
	}
}
