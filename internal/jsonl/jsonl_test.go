package jsonl

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
)

type record struct {
	Seq  int    `json:"seq"`
	Word string `json:"word"`
}

func TestAppendAndTailRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.jsonl")
	w := NewWriter(path)

	for i, word := range []string{"emergence", "recursion", "murmuration"} {
		if err := w.Append(record{Seq: i, Word: word}); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	got, err := Tail[record](path, 0)
	if err != nil {
		t.Fatalf("tail: %v", err)
	}
	want := []record{{0, "emergence"}, {1, "recursion"}, {2, "murmuration"}}
	if len(got) != len(want) {
		t.Fatalf("records = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("records[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestAppendCreatesParentDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "logs", "log.jsonl")
	w := NewWriter(path)

	if err := w.Append(record{Seq: 1, Word: "nested"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("stat log: %v", err)
	}
}

func TestTailReturnsLastN(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.jsonl")
	w := NewWriter(path)

	for i := 0; i < 5; i++ {
		if err := w.Append(record{Seq: i}); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	got, err := Tail[record](path, 2)
	if err != nil {
		t.Fatalf("tail: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("records = %d, want 2", len(got))
	}
	if got[0].Seq != 3 || got[1].Seq != 4 {
		t.Errorf("tail = %+v, want seq 3 then 4", got)
	}
}

func TestTailMissingFile(t *testing.T) {
	got, err := Tail[record](filepath.Join(t.TempDir(), "absent.jsonl"), 10)
	if err != nil {
		t.Fatalf("tail: %v", err)
	}
	if got != nil {
		t.Errorf("records = %+v, want nil", got)
	}
}

func TestTailSkipsUndecodableLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.jsonl")
	content := `{"seq":1,"word":"ok"}
not json at all

{"seq":2,"word":"also ok"}
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	got, err := Tail[record](path, 0)
	if err != nil {
		t.Fatalf("tail: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("records = %d, want the 2 decodable lines", len(got))
	}
	if got[0].Seq != 1 || got[1].Seq != 2 {
		t.Errorf("records = %+v", got)
	}
}

func TestConcurrentAppendsDoNotInterleave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.jsonl")
	w := NewWriter(path)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 10; i++ {
				if err := w.Append(record{Seq: g*10 + i, Word: "concurrent"}); err != nil {
					t.Errorf("append: %v", err)
				}
			}
		}(g)
	}
	wg.Wait()

	got, err := Tail[record](path, 0)
	if err != nil {
		t.Fatalf("tail: %v", err)
	}
	if len(got) != 80 {
		t.Fatalf("records = %d, want 80 whole lines", len(got))
	}
	for _, rec := range got {
		if rec.Word != "concurrent" {
			t.Errorf("record %+v corrupted", rec)
		}
	}
}
