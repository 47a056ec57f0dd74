//go:build debug

// Package check provides assertions for invariants that should hold by
// construction, such as required wiring being present before a
// component runs. Assertions compile to no-ops unless the debug build
// tag is set.
package check

import "fmt"

// Assert panics when cond is false. Active only in debug builds.
func Assert(cond bool, format string, args ...any) {
	if !cond {
		panic("assertion failed: " + fmt.Sprintf(format, args...))
	}
}
