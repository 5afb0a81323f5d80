//go:build linux

// Package ptrace provides thin, OS-thread-aware wrappers over the ptrace
// syscalls obstack needs: attach, detach, register read, and word-sized
// remote memory peeks. Every exported function must run on the OS thread
// that performed the matching Attach, since Linux ptrace state is
// per-thread, not per-process; callers are expected to have called
// runtime.LockOSThread before using a Tracee.
package ptrace

import (
	"fmt"
	"time"

	"golang.org/x/sys/unix"
)

// Tracee is one ptrace-attached thread.
type Tracee struct {
	Tid int
}

// Attach issues PTRACE_ATTACH for tid and waits for it to stop, retrying
// the wait briefly since the SIGSTOP obstack's attach generates can take a
// moment to be delivered.
func Attach(tid int) (*Tracee, error) {
	if err := unix.PtraceAttach(tid); err != nil {
		return nil, fmt.Errorf("PTRACE_ATTACH tid %d: %w", tid, err)
	}

	var status unix.WaitStatus
	var err error
	for i := 0; i < 10; i++ {
		_, err = unix.Wait4(tid, &status, unix.WALL, nil)
		if err == nil && status.Stopped() {
			return &Tracee{Tid: tid}, nil
		}
		time.Sleep(50 * time.Microsecond)
	}
	_ = unix.PtraceDetach(tid)
	if err == nil {
		err = fmt.Errorf("tid %d did not stop after attach", tid)
	}
	return nil, err
}

// Detach issues PTRACE_DETACH, letting the thread resume normally.
func (t *Tracee) Detach() error {
	if err := unix.PtraceDetach(t.Tid); err != nil {
		return fmt.Errorf("PTRACE_DETACH tid %d: %w", t.Tid, err)
	}
	return nil
}

// Regs returns the tracee's current general-purpose registers.
func (t *Tracee) Regs() (unix.PtraceRegs, error) {
	var regs unix.PtraceRegs
	if err := unix.PtraceGetRegs(t.Tid, &regs); err != nil {
		return regs, fmt.Errorf("PTRACE_GETREGS tid %d: %w", t.Tid, err)
	}
	return regs, nil
}

// PeekWord reads one machine word from the tracee's address space at addr.
func (t *Tracee) PeekWord(addr uint64) (uint64, error) {
	var buf [8]byte
	n, err := unix.PtracePeekData(t.Tid, uintptr(addr), buf[:])
	if err != nil {
		return 0, fmt.Errorf("PTRACE_PEEKDATA tid %d addr %#x: %w", t.Tid, addr, err)
	}
	if n != len(buf) {
		return 0, fmt.Errorf("PTRACE_PEEKDATA tid %d addr %#x: short read", t.Tid, addr)
	}
	return decodeWord(buf[:]), nil
}
