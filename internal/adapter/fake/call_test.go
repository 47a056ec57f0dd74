package fake

import (
	"sync"
	"testing"
)

func TestCallRecorderFiltersAndCounts(t *testing.T) {
	var r CallRecorder
	r.record("Exec", "uptime", 1)
	r.record("Stats")
	r.record("Exec", "df -h")

	if got := r.Count(""); got != 3 {
		t.Fatalf("total count = %d, want 3", got)
	}
	if got := r.Count("Exec"); got != 2 {
		t.Errorf("Exec count = %d, want 2", got)
	}
	if got := r.Count("Status"); got != 0 {
		t.Errorf("Status count = %d, want 0", got)
	}

	execs := r.Calls("Exec")
	if len(execs) != 2 {
		t.Fatalf("Exec calls = %d, want 2", len(execs))
	}
	if execs[0].Args[0] != "uptime" || execs[1].Args[0] != "df -h" {
		t.Errorf("Exec args out of order: %v, %v", execs[0].Args, execs[1].Args)
	}
}

func TestCallRecorderCallsReturnsCopy(t *testing.T) {
	var r CallRecorder
	r.record("Snapshot")

	got := r.Calls("")
	got[0].Method = "mutated"

	if r.Calls("")[0].Method != "Snapshot" {
		t.Error("mutating the returned slice changed the recorder")
	}
}

func TestCallRecorderReset(t *testing.T) {
	var r CallRecorder
	r.record("Exec")
	r.record("Stats")
	r.Reset()

	if got := r.Count(""); got != 0 {
		t.Errorf("count after reset = %d, want 0", got)
	}
}

func TestCallRecorderConcurrentRecord(t *testing.T) {
	var (
		r  CallRecorder
		wg sync.WaitGroup
	)
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				r.record("Exec")
			}
		}()
	}
	wg.Wait()

	if got := r.Count("Exec"); got != 1000 {
		t.Errorf("concurrent count = %d, want 1000", got)
	}
}
