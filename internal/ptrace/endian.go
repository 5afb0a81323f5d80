//go:build linux

package ptrace

// decodeWord decodes a peeked machine word using hostArch, the current
// build target's pointer width and byte order, defined per-arch alongside
// the register accessors in regs_<arch>.go.
func decodeWord(buf []byte) uint64 { return hostArch.Uint64(buf) }
