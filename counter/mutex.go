package counter

import "sync"

// MutexOption is a function type for MutexCounter options.
type MutexOption = func(*MutexCounter)

// MutexCounter guards the read-modify-write with mutual exclusion: only one
// caller executes the critical section at a time, all others block until it is
// vacated. The lock is released on every exit path, including a panic inside
// the critical section, so an abnormal failure cannot lock out other callers.
//
// Wake order among blocked callers is OS-determined by default. With
// WithFairWakeup the guard is a FIFO ticket lock instead, trading extra
// bookkeeping for strict arrival-order fairness.
type MutexCounter struct {
	mu    sync.Locker
	value int64

	// apply computes the next value inside the critical section.
	// Injectable so tests can fail the critical section on purpose.
	apply func(int64) int64
}

// NewMutexCounter creates a MutexCounter starting at zero.
func NewMutexCounter(opts ...MutexOption) *MutexCounter {
	c := &MutexCounter{
		mu:    &sync.Mutex{},
		apply: func(v int64) int64 { return v + 1 },
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// WithFairWakeup makes blocked callers acquire the critical section in FIFO
// arrival order instead of the default OS-determined order.
func WithFairWakeup() MutexOption {
	return func(c *MutexCounter) {
		c.mu = &ticketLock{}
	}
}

// Inc executes the read-modify-write under the lock and returns the new value.
func (c *MutexCounter) Inc() int64 {
	c.mu.Lock()
	defer c.mu.Unlock() // released even if apply panics

	c.value = c.apply(c.value)
	return c.value
}

// Get returns the current value. Taking the lock orders the read after any
// in-flight write, so a completed Inc on another goroutine is never invisible
// through a stale cached copy.
func (c *MutexCounter) Get() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.value
}

// Reset sets the counter back to zero.
func (c *MutexCounter) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.value = 0
}
