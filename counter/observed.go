package counter

import "time"

// ObservedOption is a function type for Observed options.
type ObservedOption = func(*observedCounter)

type observedCounter struct {
	inner    Counter
	observer Observer

	worker int
	now    func() time.Time
}

// Observed wraps a Counter so that every increment additionally emits one
// Observation to obs. The wrapper never touches the inner counter's
// synchronization: each Inc produces exactly one new value, so the value the
// call read beforehand is the returned value minus one, for every variant.
//
// Keeping observation in a wrapper rather than inside the variants keeps the
// core's correctness independent of any reporting backend.
//
// Panics if c or obs is nil.
func Observed(c Counter, obs Observer, opts ...ObservedOption) Counter {
	if c == nil {
		panic("Observed: counter is nil")
	}
	if obs == nil {
		panic("Observed: observer is nil")
	}

	o := &observedCounter{
		inner:    c,
		observer: obs,
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

// WithWorkerID tags every emitted Observation with the given execution
// context identifier.
func WithWorkerID(id int) ObservedOption {
	return func(o *observedCounter) {
		o.worker = id
	}
}

// WithClock overrides the timestamp source. Useful for tests.
func WithClock(now func() time.Time) ObservedOption {
	return func(o *observedCounter) {
		if now != nil {
			o.now = now
		}
	}
}

func (o *observedCounter) Inc() int64 {
	after := o.inner.Inc()
	o.observer.Observe(Observation{
		Worker: o.worker,
		Before: after - 1,
		After:  after,
		At:     o.now(),
	})
	return after
}

func (o *observedCounter) Get() int64 {
	return o.inner.Get()
}

func (o *observedCounter) Reset() {
	o.inner.Reset()
}
