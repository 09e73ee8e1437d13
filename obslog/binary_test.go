package obslog_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tallyd/tallyd/counter"
	"github.com/tallyd/tallyd/obslog"
	"github.com/tallyd/tallyd/tallyerr"
)

func TestBinary_RoundTrip(t *testing.T) {
	at := time.Date(2026, 8, 29, 12, 0, 0, 42, time.UTC)
	in := []counter.Observation{
		{Worker: 1, Before: 0, After: 1, At: at},
		{Worker: 2, Before: 1, After: 2, At: at.Add(time.Millisecond)},
		{Worker: 1, Before: 1, After: 2, At: at.Add(2 * time.Millisecond)}, // a duplicate survives encoding
	}

	var enc []byte
	for _, o := range in {
		enc = obslog.AppendBinary(enc, o)
	}

	out, err := obslog.DecodeAll(enc)
	require.NoError(t, err)
	require.Len(t, out, len(in))
	for i := range in {
		assert.Equal(t, in[i].Worker, out[i].Worker, "record %d", i)
		assert.Equal(t, in[i].Before, out[i].Before, "record %d", i)
		assert.Equal(t, in[i].After, out[i].After, "record %d", i)
		assert.True(t, in[i].At.Equal(out[i].At), "record %d timestamp", i)
	}
}

func TestDecodeAll_Truncated(t *testing.T) {
	enc := obslog.AppendBinary(nil, counter.Observation{After: 1, At: time.Now()})

	_, err := obslog.DecodeAll(enc[:len(enc)-1])
	require.Error(t, err)
	assert.ErrorIs(t, err, tallyerr.ErrParse)
}

func TestDecodeAll_Empty(t *testing.T) {
	out, err := obslog.DecodeAll(nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestBinaryWriter_Observe(t *testing.T) {
	var buf bytes.Buffer
	w := obslog.NewBinaryWriter(&buf)

	w.Observe(counter.Observation{Worker: 5, Before: 9, After: 10, At: time.Now()})
	w.Observe(counter.Observation{Worker: 5, Before: 10, After: 11, At: time.Now()})

	out, err := obslog.DecodeAll(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, int64(10), out[0].After)
	assert.Equal(t, int64(11), out[1].After)
}

func TestNewBinaryWriter_NilWriter(t *testing.T) {
	assert.Panics(t, func() { obslog.NewBinaryWriter(nil) })
}
