//go:build linux && amd64

package ptrace

import (
	"golang.org/x/sys/unix"

	"github.com/oceanbase/obstack/internal/arch"
)

var hostArch = arch.AMD64

// IP returns the instruction pointer recorded in regs.
func IP(regs unix.PtraceRegs) uint64 { return regs.Rip }

// FramePointer returns the frame-pointer register recorded in regs.
func FramePointer(regs unix.PtraceRegs) uint64 { return regs.Rbp }
