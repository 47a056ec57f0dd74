package fake

import (
	"slices"
	"sync"
)

// Call is one recorded invocation: the method name and the arguments
// the fake received.
type Call struct {
	Method string
	Args   []any
}

// CallRecorder collects invocations so tests can assert on what a fake
// saw. The zero value is ready; fakes embed it.
type CallRecorder struct {
	mu    sync.Mutex
	calls []Call
}

func (r *CallRecorder) record(method string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, Call{Method: method, Args: args})
}

// Calls returns the invocations of method, in order. An empty method
// selects everything.
func (r *CallRecorder) Calls(method string) []Call {
	r.mu.Lock()
	defer r.mu.Unlock()

	if method == "" {
		return slices.Clone(r.calls)
	}
	var out []Call
	for _, c := range r.calls {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

// Count reports how many times method was invoked; "" counts them all.
func (r *CallRecorder) Count(method string) int {
	return len(r.Calls(method))
}

// Reset drops everything recorded so far.
func (r *CallRecorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
}
