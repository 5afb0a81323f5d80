//go:build linux && arm64

package unwind

import "golang.org/x/sys/unix"

func setArchRegs(regs *unix.PtraceRegs, ip, bp uint64) {
	regs.Pc = ip
	regs.Regs[29] = bp
}
