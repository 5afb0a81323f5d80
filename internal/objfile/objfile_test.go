package objfile

import (
	"debug/dwarf"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsPositionIndependentTrueWhenVaddrZero(t *testing.T) {
	f := &File{PTLoads: []PTLoad{
		{Start: 0, End: 0x1000, IsExec: false, PreferredVaddr: 0x0},
		{Start: 0x1000, End: 0x2000, IsExec: true, PreferredVaddr: 0x0},
	}}
	assert.True(t, f.IsPositionIndependent())
}

func TestIsPositionIndependentFalseForFixedLoadAddr(t *testing.T) {
	f := &File{PTLoads: []PTLoad{
		{Start: 0x400000, End: 0x401000, IsExec: true, PreferredVaddr: 0x400000},
	}}
	assert.False(t, f.IsPositionIndependent())
}

func TestIsPositionIndependentFalseWithNoExecSegment(t *testing.T) {
	f := &File{}
	assert.False(t, f.IsPositionIndependent())
}

func TestFileOffsetFormula(t *testing.T) {
	pt := PTLoad{PreferredVaddr: 0x1000}
	// region mapped starting at 0x7f0000000000, preferred vaddr 0x1000:
	// an absolute address of region start + 0x50 should map to file
	// offset 0x1000 + 0x50.
	got := FileOffset(0x7f0000000050, 0x7f0000000000, pt)
	assert.Equal(t, uint64(0x1050), got)
}

func TestHighPCAbsoluteEncoding(t *testing.T) {
	entry := &dwarf.Entry{
		Field: []dwarf.Field{{Attr: dwarf.AttrHighpc, Val: uint64(0x2000)}},
	}
	high, ok := highPC(entry, 0x1000)
	assert.True(t, ok)
	assert.Equal(t, uint64(0x2000), high)
}

func TestHighPCOffsetEncoding(t *testing.T) {
	entry := &dwarf.Entry{
		Field: []dwarf.Field{{Attr: dwarf.AttrHighpc, Val: int64(0x100)}},
	}
	high, ok := highPC(entry, 0x1000)
	assert.True(t, ok)
	assert.Equal(t, uint64(0x1100), high)
}

func TestLineForAddrWithNoDwarfData(t *testing.T) {
	f := &File{}
	_, _, ok := f.LineForAddr(0x1000)
	assert.False(t, ok)
}
