package location

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/oceanbase/obstack/internal/objfile"
	"github.com/oceanbase/obstack/internal/procfs"
)

func TestHasLineRejectsSentinelValues(t *testing.T) {
	assert.False(t, Location{File: "", Line: 5}.HasLine())
	assert.False(t, Location{File: "0", Line: 5}.HasLine())
	assert.False(t, Location{File: "(null)", Line: 5}.HasLine())
	assert.False(t, Location{File: "a.c", Line: 0}.HasLine())
	assert.True(t, Location{File: "a.c", Line: 5}.HasLine())
}

func TestKeyRoundTripsDistinctStacks(t *testing.T) {
	a := Key([]uint64{0x1000, 0x2000})
	b := Key([]uint64{0x1000, 0x2001})
	assert.NotEqual(t, a, b)
	assert.Equal(t, Key([]uint64{0x1000, 0x2000}), a)
}

func TestRegionIndexFindsContainingRegion(t *testing.T) {
	c := &Cache{regions: []procfs.Region{
		{Path: "/bin/a", Start: 0x1000, End: 0x2000},
		{Path: "/bin/b", Start: 0x5000, End: 0x6000},
	}}
	assert.Equal(t, 1, c.regionIndex(0x5500))
	assert.Equal(t, -1, c.regionIndex(0x3000))
}

func TestPtloadForPicksContainingSegment(t *testing.T) {
	obj := &objfile.File{PTLoads: []objfile.PTLoad{
		{Start: 0, End: 0x1000},
		{Start: 0x1000, End: 0x3000},
	}}
	region := procfs.Region{Start: 0x400000, End: 0x404000}

	pt, ok := ptloadFor(obj, 0x400500, region)
	assert.True(t, ok)
	assert.Equal(t, uint64(0), pt.Start)

	pt, ok = ptloadFor(obj, 0x402000, region)
	assert.True(t, ok)
	assert.Equal(t, uint64(0x1000), pt.Start)
}
