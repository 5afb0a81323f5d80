//go:build linux

package trace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThreadKeyMatchesForIdenticalStacks(t *testing.T) {
	a := Thread{Addrs: []uint64{0x1000, 0x2000}}
	b := Thread{Addrs: []uint64{0x1000, 0x2000}}
	c := Thread{Addrs: []uint64{0x1000, 0x2001}}

	assert.Equal(t, a.Key(), b.Key())
	assert.NotEqual(t, a.Key(), c.Key())
}

func TestParseChildArgsRoundTrip(t *testing.T) {
	args, err := ParseChildArgs(1234, 3, "/tmp/shm", "10,11,12")
	require.NoError(t, err)
	assert.Equal(t, []int{10, 11, 12}, args.Tids)
	assert.Equal(t, 1234, args.Pid)
}

func TestParseChildArgsRejectsMalformedTid(t *testing.T) {
	_, err := ParseChildArgs(1234, 1, "/tmp/shm", "10,bogus")
	assert.Error(t, err)
}

func TestParseChildArgsEmptyTidsIsValid(t *testing.T) {
	args, err := ParseChildArgs(1234, 0, "/tmp/shm", "")
	require.NoError(t, err)
	assert.Empty(t, args.Tids)
}
