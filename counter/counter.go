// Package counter implements the shared counter at the center of the module:
// one deliberately unsynchronized variant that exhibits lost updates under
// contention, and two safe variants (mutual exclusion and optimistic
// compare-and-swap) that guarantee every completed increment is reflected in
// the final value.
package counter

// Counter is the interface for a shared integer counter.
//
// Inc performs the read-modify-write and returns the resulting value.
// Whether that composite is indivisible depends on the implementation:
// MutexCounter and CASCounter guarantee it, UnsafeCounter does not.
type Counter interface {
	// Inc advances the counter by one and returns the new value.
	Inc() int64
	// Get returns the current value.
	Get() int64
	// Reset sets the counter back to zero. Intended for reuse between runs,
	// not for calling concurrently with Inc.
	Reset()
}
