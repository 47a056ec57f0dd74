package vocab

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func testStorePath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "vocabulary.json")
}

func TestOpenMissingFileStartsEmpty(t *testing.T) {
	store, err := Open(testStorePath(t))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if store.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", store.Len())
	}
}

func TestOpenCorruptFileFails(t *testing.T) {
	path := testStorePath(t)
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(path); err == nil {
		t.Fatal("expected error for corrupt vocabulary file")
	}
}

func TestAddPersistsBeforeAcknowledging(t *testing.T) {
	path := testStorePath(t)
	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	for _, w := range []string{"emergence", "recursion", "murmuration"} {
		if err := store.Add(w); err != nil {
			t.Fatalf("Add(%q): %v", w, err)
		}
	}

	// A fresh Open must see everything, in insertion order.
	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got := reopened.List()
	want := []string{"emergence", "recursion", "murmuration"}
	if len(got) != len(want) {
		t.Fatalf("List() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("List()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestAddDeduplicates(t *testing.T) {
	store, err := Open(testStorePath(t))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if err := store.Add("entropy"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := store.Add("entropy"); err != nil {
		t.Fatalf("duplicate Add: %v", err)
	}
	if store.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", store.Len())
	}

	// Dedupe is case-sensitive.
	if err := store.Add("Entropy"); err != nil {
		t.Fatalf("Add(Entropy): %v", err)
	}
	if store.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", store.Len())
	}
}

func TestAddRejectsEmptyWord(t *testing.T) {
	store, err := Open(testStorePath(t))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := store.Add("   "); err == nil {
		t.Fatal("expected error for blank word")
	}
}

func TestRemoveAbsentWordIsNoOp(t *testing.T) {
	path := testStorePath(t)
	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := store.Add("keep"); err != nil {
		t.Fatalf("Add: %v", err)
	}

	if err := store.Remove("never-added"); err != nil {
		t.Fatalf("Remove of absent word: %v", err)
	}
	if err := store.Remove("keep"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if store.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", store.Len())
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if reopened.Len() != 0 {
		t.Fatalf("reopened Len() = %d, want 0", reopened.Len())
	}
}

func TestClearEmptiesStoreAndFile(t *testing.T) {
	path := testStorePath(t)
	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	for _, w := range []string{"a", "b", "c"} {
		if err := store.Add(w); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}

	if err := store.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if store.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", store.Len())
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if reopened.Len() != 0 {
		t.Fatalf("reopened Len() = %d, want 0", reopened.Len())
	}
}

func TestPickRandomEmpty(t *testing.T) {
	store, err := Open(testStorePath(t))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, ok := store.PickRandom(); ok {
		t.Fatal("PickRandom on empty store should report ok=false")
	}
}

func TestPickRandomReturnsStoredWord(t *testing.T) {
	store, err := Open(testStorePath(t))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	words := map[string]bool{"alpha": true, "beta": true, "gamma": true}
	for w := range words {
		if err := store.Add(w); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}

	for range 20 {
		word, ok := store.PickRandom()
		if !ok {
			t.Fatal("PickRandom reported ok=false on a populated store")
		}
		if !words[word] {
			t.Fatalf("PickRandom returned %q, not a stored word", word)
		}
	}
}

func TestPersistenceFailureRollsBack(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced for root")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "vocabulary.json")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := store.Add("first"); err != nil {
		t.Fatalf("Add: %v", err)
	}

	// Make the directory unwritable so the temp-file write fails.
	if err := os.Chmod(dir, 0o555); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chmod(dir, 0o755) })

	err = store.Add("second")
	if !errors.Is(err, ErrPersistence) {
		t.Fatalf("Add = %v, want ErrPersistence", err)
	}
	if store.Len() != 1 {
		t.Fatalf("Len() = %d, want 1 (in-memory state must roll back)", store.Len())
	}
}
