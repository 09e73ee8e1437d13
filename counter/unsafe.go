package counter

// UnsafeCounter performs read, compute and write as three independent steps
// with no coordination. It exists so the failure mode is demonstrable: two
// goroutines interleaving between the read and the write both observe the same
// prior value, both write back prior+1, and one increment is lost.
//
// Accessing an UnsafeCounter from multiple goroutines is a data race and will
// be flagged by the Go race detector. That is the point. Do not use it for
// anything but demonstrations.
type UnsafeCounter struct {
	value int64
}

// NewUnsafeCounter creates an UnsafeCounter starting at zero.
func NewUnsafeCounter() *UnsafeCounter {
	return &UnsafeCounter{}
}

// Inc performs an uncoordinated read-modify-write and returns the value it wrote.
func (c *UnsafeCounter) Inc() int64 {
	v := c.value // read
	v = v + 1    // compute
	c.value = v  // write
	return v
}

// Get returns the current value as seen by the calling goroutine.
func (c *UnsafeCounter) Get() int64 {
	return c.value
}

// Reset sets the counter back to zero.
func (c *UnsafeCounter) Reset() {
	c.value = 0
}
