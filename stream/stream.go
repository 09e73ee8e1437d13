// Package stream serves observation records to websocket subscribers as they
// happen. It is the optional side channel around the counter core: a
// Broadcaster implements counter.Observer and pushes one text line per
// increment to every connected client. A slow client loses lines rather than
// slowing down the run.
package stream

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tallyd/tallyd/counter"
	"github.com/tallyd/tallyd/obslog"
	"github.com/tallyd/tallyd/tallyerr"
)

const subsys = "stream"

// Logger is an interface for logging.
type Logger interface {
	Debugf(format string, args ...any)
	Errorf(format string, args ...any)
}

// Option is a function type for Broadcaster options.
type Option = func(*Broadcaster)

// Broadcaster fans observation records out to websocket subscribers.
type Broadcaster struct {
	queueSize    int
	writeTimeout time.Duration
	logger       Logger
	upgrader     websocket.Upgrader

	mu     sync.Mutex
	subs   map[*subscriber]struct{}
	closed bool

	closeOnce sync.Once
}

type subscriber struct {
	out  chan []byte
	done chan struct{}
	once sync.Once
}

func (s *subscriber) stop() {
	s.once.Do(func() { close(s.done) })
}

// NewBroadcaster creates a Broadcaster with no subscribers.
//
// By default:
//   - Each subscriber gets a buffered queue of 1000 lines.
//   - The per-message write timeout is 300 milliseconds.
//
// Options can be passed to override defaults.
func NewBroadcaster(opts ...Option) *Broadcaster {
	b := &Broadcaster{
		queueSize:    1000,
		writeTimeout: 300 * time.Millisecond,
		subs:         make(map[*subscriber]struct{}),
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// WithLogger sets the logger for the broadcaster.
func WithLogger(l Logger) Option {
	return func(b *Broadcaster) {
		b.logger = l
	}
}

// WithQueueSize sets the per-subscriber queue size.
// If n is not positive, it defaults to 1000.
func WithQueueSize(n int) Option {
	return func(b *Broadcaster) {
		if n <= 0 {
			n = 1000
		}
		b.queueSize = n
	}
}

// WithWriteTimeout sets the per-message write timeout.
// The default is 300 milliseconds.
func WithWriteTimeout(d time.Duration) Option {
	return func(b *Broadcaster) {
		b.writeTimeout = d
	}
}

// Observe queues one text line for every current subscriber. It never blocks:
// a subscriber whose queue is full drops the line.
func (b *Broadcaster) Observe(o counter.Observation) {
	line := []byte(obslog.FormatLine(o))

	b.mu.Lock()
	defer b.mu.Unlock()

	for sub := range b.subs {
		select {
		case sub.out <- line:
		default:
			b.errorf("subscriber queue full, line dropped")
		}
	}
}

// Subscribers returns the number of currently connected subscribers.
func (b *Broadcaster) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.subs)
}

// ServeHTTP upgrades the request to a websocket and streams observation lines
// until the client disconnects or the broadcaster closes.
func (b *Broadcaster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		b.errorf("upgrade failed: %v", err)
		return
	}

	sub := &subscriber{
		out:  make(chan []byte, b.queueSize),
		done: make(chan struct{}),
	}

	if !b.add(sub) {
		_ = conn.Close()
		return
	}
	b.debugf("subscriber connected from %s", r.RemoteAddr)

	go b.discardReads(conn, sub)
	b.writeLoop(conn, sub)

	b.remove(sub)
	_ = conn.Close()
	b.debugf("subscriber from %s gone", r.RemoteAddr)
}

// Close disconnects all subscribers. Safe to call multiple times. Observe
// calls after Close are no-ops.
func (b *Broadcaster) Close() error {
	b.closeOnce.Do(func() {
		b.mu.Lock()
		b.closed = true
		subs := make([]*subscriber, 0, len(b.subs))
		for sub := range b.subs {
			subs = append(subs, sub)
		}
		b.mu.Unlock()

		for _, sub := range subs {
			sub.stop()
		}
	})
	return nil
}

func (b *Broadcaster) add(sub *subscriber) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return false
	}
	b.subs[sub] = struct{}{}
	return true
}

func (b *Broadcaster) remove(sub *subscriber) {
	sub.stop()

	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.subs, sub)
}

func (b *Broadcaster) writeLoop(conn *websocket.Conn, sub *subscriber) {
	for {
		select {
		case line := <-sub.out:
			if err := b.writeLine(conn, line); err != nil {
				b.errorf("write failed: %v", err)
				return
			}
		case <-sub.done:
			deadline := time.Now().Add(b.writeTimeout)
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
			return
		}
	}
}

func (b *Broadcaster) writeLine(conn *websocket.Conn, line []byte) error {
	if err := conn.SetWriteDeadline(time.Now().Add(b.writeTimeout)); err != nil {
		return tallyerr.New().
			WithSubsys(subsys).
			WithOp("writeLine").
			WithKind(tallyerr.ErrWSWrite).
			WithCause(err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, line); err != nil {
		return tallyerr.New().
			WithSubsys(subsys).
			WithOp("writeLine").
			WithKind(tallyerr.ErrWSWrite).
			WithCause(err)
	}
	return nil
}

// discardReads drains the client side of the connection so control frames are
// processed, and stops the subscriber when the client goes away.
func (b *Broadcaster) discardReads(conn *websocket.Conn, sub *subscriber) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			sub.stop()
			return
		}
	}
}

func (b *Broadcaster) debugf(format string, args ...any) {
	if b.logger != nil {
		b.logger.Debugf(format, args...)
	}
}

func (b *Broadcaster) errorf(format string, args ...any) {
	if b.logger != nil {
		b.logger.Errorf(format, args...)
	}
}
