// Package present renders captured backtraces as text, either one block
// per thread or grouped by identical stack, with optional ANSI coloring
// of the frame-number column.
package present

import (
	"fmt"

	"golang.org/x/term"
)

// Colorizer decides how (or whether) to highlight a piece of output text.
// Terminal color is treated as an external, swappable concern: obstack
// only ever asks for "highlight this frame number."
type Colorizer interface {
	Highlight(s string) string
}

// NoColor returns text unchanged, used when output isn't a terminal or
// when color is otherwise undesirable.
type NoColor struct{}

func (NoColor) Highlight(s string) string { return s }

// ANSIYellow wraps text in the yellow ANSI escape, matching the frame
// number highlighting the original tool applied when writing to a tty.
type ANSIYellow struct{}

func (ANSIYellow) Highlight(s string) string { return fmt.Sprintf("\x1b[33m%s\x1b[0m", s) }

// NewColorizer picks ANSIYellow when fd is a terminal, NoColor otherwise.
func NewColorizer(fd int) Colorizer {
	if term.IsTerminal(fd) {
		return ANSIYellow{}
	}
	return NoColor{}
}
