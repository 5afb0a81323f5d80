package procfs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMapsLine(t *testing.T) {
	start, end, exec, dev, inode, path, ok := parseMapsLine(
		"00400000-00452000 r-xp 00000000 08:02 173521                            /usr/bin/obstack")
	require.True(t, ok)
	assert.Equal(t, uint64(0x00400000), start)
	assert.Equal(t, uint64(0x00452000), end)
	assert.True(t, exec)
	assert.NotZero(t, dev)
	assert.Equal(t, uint64(173521), inode)
	assert.Equal(t, "/usr/bin/obstack", path)
}

func TestParseMapsLineAnonymous(t *testing.T) {
	_, _, _, dev, inode, path, ok := parseMapsLine("7f1234560000-7f1234580000 rw-p 00000000 00:00 0")
	require.True(t, ok)
	assert.Empty(t, path)
	assert.Zero(t, dev)
	assert.Zero(t, inode)
}

func TestParseMapsLineRejectsMalformed(t *testing.T) {
	_, _, _, _, _, _, ok := parseMapsLine("garbage")
	assert.False(t, ok)
}

func TestReadMapsOfPid1ReturnsResultOrMapsError(t *testing.T) {
	// ReadMaps itself needs a real /proc/<pid>/maps file, so this only
	// smoke-tests it against pid 1; the segment-coalescing loop is not
	// exercised by any test in this file.
	_, err := ReadMaps(1)
	// pid 1 may be inaccessible in a sandboxed test environment; only
	// assert we get either a clean result or a permission-flavored error,
	// never a parse panic.
	if err != nil {
		assert.Contains(t, err.Error(), "maps")
	}
}
