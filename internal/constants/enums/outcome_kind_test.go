package enums

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOutcomeKind(t *testing.T) {
	k, err := ParseOutcomeKind("io_failed")
	require.NoError(t, err)
	assert.Equal(t, OutcomeKindIoFailed, k)
	assert.Equal(t, "io_failed", k.String())

	_, err = ParseOutcomeKind("exploded")
	assert.Error(t, err)
}

func TestOutcomeKind_ExitCode(t *testing.T) {
	assert.Equal(t, 78, OutcomeKindConfigInvalid.ExitCode())
	assert.Equal(t, 126, OutcomeKindSpawnFailed.ExitCode())
	assert.Equal(t, 74, OutcomeKindIoFailed.ExitCode())
	assert.Equal(t, 70, OutcomeKindWaitFailed.ExitCode())
	assert.Equal(t, 1, OutcomeKindChildNonZero.ExitCode())
}
