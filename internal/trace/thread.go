// Package trace drives the tracing session: enumerating a target
// process's threads, re-executing obstack as a tracer child that attaches
// to each one in turn, and collecting the captured backtraces back in the
// parent.
package trace

import "fmt"

// Thread is one captured thread backtrace.
type Thread struct {
	Tid     int
	Name    string
	Addrs   []uint64
	Stopped bool
}

// Key renders a stable string identifying this thread's stack, used to
// group identical stacks in aggregated output.
func (t Thread) Key() string {
	s := ""
	for i, a := range t.Addrs {
		if i > 0 {
			s += " "
		}
		s += fmt.Sprintf("%x", a)
	}
	return s
}
