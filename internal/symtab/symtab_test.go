package symtab

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTable(entries ...Entry) *Table {
	return &Table{entries: entries}
}

func TestLookupReturnsNearestAtOrBelow(t *testing.T) {
	tbl := newTable(
		Entry{Addr: 0x1000, Size: 0x10, Name: "foo"},
		Entry{Addr: 0x2000, Size: 0x10, Name: "bar"},
	)

	e, ok := tbl.Lookup(0x2005)
	require.True(t, ok)
	assert.Equal(t, "bar", e.Name)
}

func TestLookupHasNoUpperBoundCheck(t *testing.T) {
	// Address is far past foo's recorded size but still before the next
	// symbol: must still resolve to foo, matching the preserved quirk of
	// never checking against the following symbol or the recorded size.
	tbl := newTable(
		Entry{Addr: 0x1000, Size: 0x4, Name: "foo"},
		Entry{Addr: 0x2000, Size: 0x10, Name: "bar"},
	)

	e, ok := tbl.Lookup(0x1fff)
	require.True(t, ok)
	assert.Equal(t, "foo", e.Name)
}

func TestLookupBeforeFirstSymbolMisses(t *testing.T) {
	tbl := newTable(Entry{Addr: 0x1000, Name: "foo"})
	_, ok := tbl.Lookup(0x0fff)
	assert.False(t, ok)
}

func TestLookupEmptyTable(t *testing.T) {
	tbl := &Table{}
	_, ok := tbl.Lookup(0x1000)
	assert.False(t, ok)
}

func TestHasAnyPrefixDropsCompilerSymbols(t *testing.T) {
	assert.True(t, hasAnyPrefix("__tcf_0", droppedPrefixes))
	assert.True(t, hasAnyPrefix("__tz_0", droppedPrefixes))
	assert.False(t, hasAnyPrefix("main.main", droppedPrefixes))
}
