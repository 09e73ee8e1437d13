package counter

import "time"

// Observation records what a single increment saw: the value immediately
// before and the value it produced. Under a safe counter the After values of a
// run are exactly {1..total}, each appearing once; a duplicated After is
// evidence of a lost update.
type Observation struct {
	// Worker identifies the issuing execution context. Zero when the caller
	// did not tag the wrapper with WithWorkerID.
	Worker int
	Before int64
	After  int64
	At     time.Time
}

// Observer receives one Observation per completed increment. Implementations
// are called from the incrementing goroutine, outside any critical section,
// and must be safe for concurrent use.
type Observer interface {
	Observe(Observation)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(Observation)

// Observe calls f(o).
func (f ObserverFunc) Observe(o Observation) {
	f(o)
}

// MultiObserver fans each Observation out to every given observer in order.
// Nil entries are skipped.
func MultiObserver(obs ...Observer) Observer {
	return ObserverFunc(func(o Observation) {
		for _, ob := range obs {
			if ob != nil {
				ob.Observe(o)
			}
		}
	})
}
