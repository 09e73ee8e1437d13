package counter

import (
	"fmt"
	"sync/atomic"

	"github.com/tallyd/tallyd/tallyerr"
)

// CASOption is a function type for CASCounter options.
type CASOption = func(*CASCounter)

// CASCounter performs the read-modify-write optimistically: it reads the
// current value, computes the candidate, and commits it with a single
// hardware-atomic compare-and-swap that succeeds only if no other writer got
// in between. On conflict the whole sequence is retried. No caller ever
// blocks waiting for another to release anything.
type CASCounter struct {
	value      atomic.Int64
	maxRetries int

	// preSwap runs between the read and the swap attempt.
	// Injectable so tests can manufacture deterministic conflicts.
	preSwap func()
}

// NewCASCounter creates a CASCounter starting at zero.
func NewCASCounter(opts ...CASOption) *CASCounter {
	c := &CASCounter{}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// WithRetryLimit caps the number of compare-and-swap attempts made by TryInc.
// Inc is unaffected and always retries to completion. A non-positive n panics.
func WithRetryLimit(n int) CASOption {
	if n <= 0 {
		panic(fmt.Sprintf("WithRetryLimit: limit must be positive, got %d", n))
	}
	return func(c *CASCounter) {
		c.maxRetries = n
	}
}

// Inc advances the counter by one and returns the new value, retrying on
// conflict until it succeeds. The retry loop is expected control flow and is
// invisible to the caller.
func (c *CASCounter) Inc() int64 {
	for {
		before := c.value.Load()
		after := before + 1
		if c.preSwap != nil {
			c.preSwap()
		}
		if c.value.CompareAndSwap(before, after) {
			return after
		}
	}
}

// TryInc is like Inc but honors the retry limit configured with
// WithRetryLimit. When the limit is exhausted it returns
// tallyerr.ErrRetryBudget and the counter is left unchanged by this call.
// Without a configured limit TryInc behaves exactly like Inc.
func (c *CASCounter) TryInc() (int64, error) {
	if c.maxRetries == 0 {
		return c.Inc(), nil
	}

	for attempt := 0; attempt < c.maxRetries; attempt++ {
		before := c.value.Load()
		after := before + 1
		if c.preSwap != nil {
			c.preSwap()
		}
		if c.value.CompareAndSwap(before, after) {
			return after, nil
		}
	}

	return 0, tallyerr.New().
		WithSubsys("counter").
		WithOp("TryInc").
		WithKind(tallyerr.ErrRetryBudget).
		WithMessage(fmt.Sprintf("no successful swap in %d attempts", c.maxRetries))
}

// Get returns the current value.
func (c *CASCounter) Get() int64 {
	return c.value.Load()
}

// Reset sets the counter back to zero.
func (c *CASCounter) Reset() {
	c.value.Store(0)
}
