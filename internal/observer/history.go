package observer

import "sync"

// history is a bounded in-memory window of past observations. Oldest
// entries are evicted once the cap is reached.
type history struct {
	mu    sync.Mutex
	cap   int
	items []Observation
}

func newHistory(cap int) *history {
	return &history{cap: cap}
}

func (h *history) push(obs Observation) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.items = append(h.items, obs)
	if len(h.items) > h.cap {
		h.items = h.items[len(h.items)-h.cap:]
	}
}

// recent returns up to n observations, oldest first.
func (h *history) recent(n int) []Observation {
	h.mu.Lock()
	defer h.mu.Unlock()
	if n <= 0 || n > len(h.items) {
		n = len(h.items)
	}
	out := make([]Observation, n)
	copy(out, h.items[len(h.items)-n:])
	return out
}
