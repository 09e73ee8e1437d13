package obslog

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/tchajed/marshal"

	"github.com/tallyd/tallyd/counter"
	"github.com/tallyd/tallyd/tallyerr"
)

// binRecordSize is the fixed encoded size of one observation:
// worker, before, after, unix-nano timestamp, 8 bytes each.
const binRecordSize = 32

// AppendBinary appends the fixed-width binary encoding of o to enc and
// returns the extended buffer.
func AppendBinary(enc []byte, o counter.Observation) []byte {
	enc = marshal.WriteInt(enc, uint64(o.Worker))
	enc = marshal.WriteInt(enc, uint64(o.Before))
	enc = marshal.WriteInt(enc, uint64(o.After))
	enc = marshal.WriteInt(enc, uint64(o.At.UnixNano()))
	return enc
}

// DecodeAll decodes a buffer of concatenated binary records. A buffer whose
// length is not a multiple of the record size yields tallyerr.ErrParse.
func DecodeAll(enc []byte) ([]counter.Observation, error) {
	if len(enc)%binRecordSize != 0 {
		return nil, tallyerr.New().
			WithSubsys("obslog").
			WithOp("DecodeAll").
			WithKind(tallyerr.ErrParse).
			WithMessage(fmt.Sprintf("truncated input: %d bytes is not a whole number of %d-byte records", len(enc), binRecordSize))
	}

	obs := make([]counter.Observation, 0, len(enc)/binRecordSize)
	for len(enc) > 0 {
		var worker, before, after, at uint64
		worker, enc = marshal.ReadInt(enc)
		before, enc = marshal.ReadInt(enc)
		after, enc = marshal.ReadInt(enc)
		at, enc = marshal.ReadInt(enc)

		obs = append(obs, counter.Observation{
			Worker: int(worker),
			Before: int64(before),
			After:  int64(after),
			At:     time.Unix(0, int64(at)).UTC(),
		})
	}
	return obs, nil
}

// BinaryWriter is a counter.Observer that appends binary records to an
// io.Writer. Like Writer, it serializes writes and drops write errors.
type BinaryWriter struct {
	mu sync.Mutex
	w  io.Writer
}

// NewBinaryWriter creates a BinaryWriter emitting to w. Panics if w is nil.
func NewBinaryWriter(w io.Writer) *BinaryWriter {
	if w == nil {
		panic("NewBinaryWriter: writer is nil")
	}
	return &BinaryWriter{w: w}
}

// Observe writes the binary encoding of o.
func (w *BinaryWriter) Observe(o counter.Observation) {
	enc := AppendBinary(make([]byte, 0, binRecordSize), o)

	w.mu.Lock()
	defer w.mu.Unlock()

	_, _ = w.w.Write(enc)
}
