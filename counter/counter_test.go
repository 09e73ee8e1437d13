package counter_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tallyd/tallyd/counter"
)

func variants() map[string]func() counter.Counter {
	return map[string]func() counter.Counter{
		"unsafe":     func() counter.Counter { return counter.NewUnsafeCounter() },
		"mutex":      func() counter.Counter { return counter.NewMutexCounter() },
		"mutex fair": func() counter.Counter { return counter.NewMutexCounter(counter.WithFairWakeup()) },
		"cas":        func() counter.Counter { return counter.NewCASCounter() },
	}
}

func TestCounter_SequentialContract(t *testing.T) {
	for name, build := range variants() {
		t.Run(name, func(t *testing.T) {
			c := build()

			assert.Equal(t, int64(0), c.Get(), "fresh counter starts at zero")
			assert.Equal(t, int64(1), c.Inc())
			assert.Equal(t, int64(2), c.Inc())
			assert.Equal(t, int64(3), c.Inc())
			assert.Equal(t, int64(3), c.Get())

			c.Reset()
			assert.Equal(t, int64(0), c.Get())
			assert.Equal(t, int64(1), c.Inc(), "counting restarts after reset")
		})
	}
}

func TestCounter_ReadIsIdempotent(t *testing.T) {
	for name, build := range variants() {
		t.Run(name, func(t *testing.T) {
			c := build()
			c.Inc()
			c.Inc()

			first := c.Get()
			second := c.Get()
			assert.Equal(t, first, second, "two reads with no intervening increment must agree")
		})
	}
}
