//go:build linux

// Package unwind walks a traced thread's call stack. It is the Go-native
// replacement for the remote-unwinder library obstack has always treated
// as an external, swappable collaborator: Unwinder is kept narrow enough
// that a real libunwind binding could implement it without any change to
// the tracing driver.
package unwind

import (
	"golang.org/x/sys/unix"

	"github.com/oceanbase/obstack/internal/ptrace"
)

// MaxFrames bounds how many return addresses a single walk collects,
// matching the historical per-thread frame cap.
const MaxFrames = 256

// Tracee is the narrow register/memory-read surface Unwind needs from a
// ptrace-attached thread, satisfied by *ptrace.Tracee.
type Tracee interface {
	Regs() (unix.PtraceRegs, error)
	PeekWord(addr uint64) (uint64, error)
}

// Unwinder yields a thread's instruction pointer followed by its call
// chain's return addresses, innermost frame first.
type Unwinder interface {
	Unwind(t Tracee) ([]uint64, error)
}

// FramePointer walks the stack by following the frame-pointer chain:
// *bp holds the caller's saved frame pointer, *(bp+8) holds the return
// address, standard on amd64/arm64 for code built with frame pointers
// retained (the default for Go binaries and increasingly common
// elsewhere).
type FramePointer struct{}

// Unwind returns the thread's current IP followed by every return address
// reachable by following the frame-pointer chain, stopping at MaxFrames,
// an unreadable frame pointer, or a frame pointer that doesn't advance.
func (FramePointer) Unwind(t Tracee) ([]uint64, error) {
	regs, err := t.Regs()
	if err != nil {
		return nil, err
	}

	addrs := make([]uint64, 0, MaxFrames)
	addrs = append(addrs, ptrace.IP(regs))

	bp := ptrace.FramePointer(regs)
	for len(addrs) < MaxFrames {
		if bp == 0 || bp%8 != 0 {
			break
		}
		retAddr, err := t.PeekWord(bp + 8)
		if err != nil {
			break
		}
		if retAddr == 0 {
			break
		}
		addrs = append(addrs, retAddr)

		nextBP, err := t.PeekWord(bp)
		if err != nil || nextBP <= bp {
			break
		}
		bp = nextBP
	}

	return addrs, nil
}
