package counter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tallyd/tallyd/tallyerr"
)

func TestCASCounter_TryIncExhaustsRetryBudget(t *testing.T) {
	c := NewCASCounter(WithRetryLimit(3))

	// Advance the value between every read and swap so each attempt conflicts.
	conflicts := 0
	c.preSwap = func() {
		conflicts++
		c.value.Add(1)
	}

	v, err := c.TryInc()
	require.Error(t, err)
	assert.ErrorIs(t, err, tallyerr.ErrRetryBudget)
	assert.Equal(t, int64(0), v)
	assert.Equal(t, 3, conflicts, "every configured attempt was made")
	assert.Equal(t, int64(3), c.Get(), "only the interfering writes landed")
}

func TestCASCounter_IncRetriesThroughConflicts(t *testing.T) {
	c := NewCASCounter()

	// Conflict on the first two attempts, then let the swap through.
	remaining := 2
	c.preSwap = func() {
		if remaining > 0 {
			remaining--
			c.value.Add(1)
		}
	}

	v := c.Inc()
	assert.Equal(t, int64(3), v, "retry loop is invisible: caller sees the eventual result")
	assert.Equal(t, int64(3), c.Get())
}

func TestWithRetryLimit_RejectsNonPositive(t *testing.T) {
	assert.Panics(t, func() { WithRetryLimit(0) })
	assert.Panics(t, func() { WithRetryLimit(-1) })
}
