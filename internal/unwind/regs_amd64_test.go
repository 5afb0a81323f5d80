//go:build linux && amd64

package unwind

import "golang.org/x/sys/unix"

func setArchRegs(regs *unix.PtraceRegs, ip, bp uint64) {
	regs.Rip = ip
	regs.Rbp = bp
}
