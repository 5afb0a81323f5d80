// Package arch holds the architecture-specific constants obstack's remote
// memory reads depend on: pointer width and byte order.
package arch

import "encoding/binary"

// Architecture describes the machine word size and byte order obstack
// needs to decode a ptrace peek of remote memory.
type Architecture struct {
	PointerSize int
	ByteOrder   binary.ByteOrder
}

var AMD64 = Architecture{
	PointerSize: 8,
	ByteOrder:   binary.LittleEndian,
}

var ARM64 = Architecture{
	PointerSize: 8,
	ByteOrder:   binary.LittleEndian,
}

// Uint64 decodes one machine word from buf using a's byte order.
func (a Architecture) Uint64(buf []byte) uint64 {
	return a.ByteOrder.Uint64(buf[:8])
}
