//go:build linux

package unwind

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

// fakeTracee simulates a frame-pointer chain in a plain map keyed by
// address, with a fixed starting IP/BP.
type fakeTracee struct {
	ip, bp uint64
	mem    map[uint64]uint64
}

func (f *fakeTracee) Regs() (unix.PtraceRegs, error) {
	var regs unix.PtraceRegs
	setIPBP(&regs, f.ip, f.bp)
	return regs, nil
}

func (f *fakeTracee) PeekWord(addr uint64) (uint64, error) {
	v, ok := f.mem[addr]
	if !ok {
		return 0, fmt.Errorf("unmapped addr %#x", addr)
	}
	return v, nil
}

func TestFramePointerUnwindWalksChainToTermination(t *testing.T) {
	// Frame chain: bp0 -> bp1 -> 0 (terminates), two return addresses.
	f := &fakeTracee{
		ip: 0x4000,
		bp: 0x7fff0000,
		mem: map[uint64]uint64{
			0x7fff0000:     0x7fff0100, // saved caller bp
			0x7fff0000 + 8: 0x4100,     // return addr
			0x7fff0100:     0,          // end of chain
			0x7fff0100 + 8: 0x4200,
		},
	}

	frames, err := FramePointer{}.Unwind(f)
	require.NoError(t, err)
	assert.Equal(t, []uint64{0x4000, 0x4100, 0x4200}, frames)
}

func TestFramePointerUnwindStopsOnUnreadableFramePointer(t *testing.T) {
	f := &fakeTracee{ip: 0x4000, bp: 0xdead, mem: map[uint64]uint64{}}
	frames, err := FramePointer{}.Unwind(f)
	require.NoError(t, err)
	assert.Equal(t, []uint64{0x4000}, frames)
}

func TestFramePointerUnwindRespectsMaxFrames(t *testing.T) {
	mem := make(map[uint64]uint64)
	const n = MaxFrames + 50
	for i := 0; i < n; i++ {
		bp := uint64(0x1000 + i*16)
		next := uint64(0x1000 + (i+1)*16)
		mem[bp] = next
		mem[bp+8] = uint64(0x9000 + i)
	}
	f := &fakeTracee{ip: 0x4000, bp: 0x1000, mem: mem}

	frames, err := FramePointer{}.Unwind(f)
	require.NoError(t, err)
	assert.Len(t, frames, MaxFrames)
}

func setIPBP(regs *unix.PtraceRegs, ip, bp uint64) {
	setArchRegs(regs, ip, bp)
}
