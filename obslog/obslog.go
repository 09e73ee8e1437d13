// Package obslog encodes and decodes observation records: a line-oriented text
// format meant for log files and human eyes, and a fixed-width binary format
// for compact capture of high-volume runs. The text format is the contract the
// detector consumes.
package obslog

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/tallyd/tallyd/counter"
	"github.com/tallyd/tallyd/tallyerr"
)

// ErrNoRecord is the cause attached to ParseLine errors for lines that carry
// no observation record at all, as opposed to malformed ones. Match it with
// errors.Is to skip foreign lines in mixed logs.
var ErrNoRecord = errors.New("no observation record in line")

// beforeMarker anchors parsing so records survive being embedded in other
// tools' log prefixes.
const (
	beforeMarker = "Before count:"
	afterMarker  = "After count:"
	workerMarker = "worker="
)

// FormatLine renders one observation as a log line:
//
//	2026-01-02T15:04:05.999999999Z worker=3 Before count: 41 After count: 42
func FormatLine(o counter.Observation) string {
	return fmt.Sprintf("%s %s%d %s %d %s %d",
		o.At.UTC().Format(time.RFC3339Nano),
		workerMarker, o.Worker,
		beforeMarker, o.Before,
		afterMarker, o.After,
	)
}

// ParseLine decodes one observation from a log line. The line may carry
// arbitrary leading text before the worker tag; parsing anchors on the
// "Before count:" marker. Returns tallyerr.ErrParse when the line holds no
// observation record.
func ParseLine(line string) (counter.Observation, error) {
	var o counter.Observation

	idx := strings.Index(line, beforeMarker)
	if idx < 0 {
		return o, parseErr("ParseLine", "line carries no record", ErrNoRecord)
	}

	head := line[:idx]
	tail := line[idx+len(beforeMarker):]

	aidx := strings.Index(tail, afterMarker)
	if aidx < 0 {
		return o, parseErr("ParseLine", "missing after marker", nil)
	}

	before, err := strconv.ParseInt(strings.TrimSpace(tail[:aidx]), 10, 64)
	if err != nil {
		return o, parseErr("ParseLine", "bad before value", err)
	}

	after, err := strconv.ParseInt(strings.TrimSpace(tail[aidx+len(afterMarker):]), 10, 64)
	if err != nil {
		return o, parseErr("ParseLine", "bad after value", err)
	}

	o.Before = before
	o.After = after

	// Worker tag and timestamp are optional context; a record without them is
	// still a usable (before, after) pair.
	if widx := strings.Index(head, workerMarker); widx >= 0 {
		rest := head[widx+len(workerMarker):]
		if spc := strings.IndexByte(rest, ' '); spc >= 0 {
			rest = rest[:spc]
		}
		if w, err := strconv.Atoi(strings.TrimSpace(rest)); err == nil {
			o.Worker = w
		}
	}
	if fields := strings.Fields(head); len(fields) > 0 {
		if ts, err := time.Parse(time.RFC3339Nano, fields[0]); err == nil {
			o.At = ts
		}
	}

	return o, nil
}

func parseErr(op, msg string, cause error) error {
	e := tallyerr.New().
		WithSubsys("obslog").
		WithOp(op).
		WithKind(tallyerr.ErrParse).
		WithMessage(msg)
	if cause != nil {
		e = e.WithCause(cause)
	}
	return e
}

// Writer is a counter.Observer that appends one text line per observation to
// an io.Writer. Writes are serialized, so a single Writer can be shared by
// any number of workers without interleaving lines.
type Writer struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriter creates a Writer emitting to w. Panics if w is nil.
func NewWriter(w io.Writer) *Writer {
	if w == nil {
		panic("NewWriter: writer is nil")
	}
	return &Writer{w: w}
}

// Observe writes o as one line. Write errors are dropped: the observation
// side channel must never fail an increment.
func (w *Writer) Observe(o counter.Observation) {
	line := FormatLine(o) + "\n"

	w.mu.Lock()
	defer w.mu.Unlock()

	_, _ = io.WriteString(w.w, line)
}
