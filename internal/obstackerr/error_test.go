package obstackerr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExitCodeUnwrapsWrappedError(t *testing.T) {
	base := New(EntryNotExist, "pid %d not found", 1234)
	wrapped := errors.New("during attach")
	full := Wrap(Timeout, wrapped, "waiting on tid %d", 5)

	assert.Equal(t, EntryNotExist.ExitCode(), ExitCode(base))
	assert.Equal(t, Timeout.ExitCode(), ExitCode(full))
}

func TestExitCodeDefaultsForPlainError(t *testing.T) {
	assert.Equal(t, UnexpectedError.ExitCode(), ExitCode(errors.New("boom")))
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("ESRCH")
	err := Wrap(KillFailed, cause, "tid %d", 7)
	require.ErrorIs(t, err, cause)
}

func TestKindStringIsStable(t *testing.T) {
	assert.Equal(t, "entry does not exist", EntryNotExist.String())
}
