package testutil

import "sync/atomic"

// MockCounter returns canned values.
type MockCounter struct {
	Value    int64
	IncValue int64
}

func (m *MockCounter) Inc() int64 {
	return m.IncValue
}

func (m *MockCounter) Get() int64 {
	return m.Value
}

func (m *MockCounter) Reset() {
	m.Value = 0
}

// BlockingCounter blocks every Inc until Gate is closed. Used to drive the
// harness into its timeout path.
type BlockingCounter struct {
	Gate chan struct{}

	value atomic.Int64
}

func NewBlockingCounter() *BlockingCounter {
	return &BlockingCounter{Gate: make(chan struct{})}
}

func (c *BlockingCounter) Inc() int64 {
	<-c.Gate
	return c.value.Add(1)
}

func (c *BlockingCounter) Get() int64 {
	return c.value.Load()
}

func (c *BlockingCounter) Reset() {
	c.value.Store(0)
}
