//go:build linux && arm64

package ptrace

import (
	"golang.org/x/sys/unix"

	"github.com/oceanbase/obstack/internal/arch"
)

var hostArch = arch.ARM64

// IP returns the instruction pointer recorded in regs.
func IP(regs unix.PtraceRegs) uint64 { return regs.Pc }

// FramePointer returns the frame-pointer register recorded in regs.
// The AArch64 procedure call standard keeps the frame pointer in x29.
func FramePointer(regs unix.PtraceRegs) uint64 { return regs.Regs[29] }
