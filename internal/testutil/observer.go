package testutil

import (
	"sync"

	"github.com/tallyd/tallyd/counter"
)

// CollectObserver collects every observation it receives. Safe for
// concurrent use.
type CollectObserver struct {
	mu  sync.Mutex
	obs []counter.Observation
}

func (c *CollectObserver) Observe(o counter.Observation) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.obs = append(c.obs, o)
}

// Snapshot returns a copy of everything observed so far.
func (c *CollectObserver) Snapshot() []counter.Observation {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]counter.Observation, len(c.obs))
	copy(out, c.obs)
	return out
}

// Len returns how many observations were received.
func (c *CollectObserver) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.obs)
}
