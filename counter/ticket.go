package counter

import (
	"runtime"
	"sync/atomic"
	"time"
)

// ticketLock is a FIFO lock built from two monotonic counters: Lock takes the
// next ticket and waits until serving reaches it, Unlock admits the next
// ticket holder. Arrival order is acquisition order, unlike sync.Mutex which
// permits barging.
//
// Waiters yield to the scheduler first and fall back to short sleeps, so a
// long wait does not burn a CPU spinning.
type ticketLock struct {
	next    atomic.Uint64
	serving atomic.Uint64
}

func (l *ticketLock) Lock() {
	ticket := l.next.Add(1) - 1
	for spins := 0; l.serving.Load() != ticket; spins++ {
		if spins < 64 {
			runtime.Gosched()
		} else {
			time.Sleep(time.Microsecond)
		}
	}
}

func (l *ticketLock) Unlock() {
	l.serving.Add(1)
}
