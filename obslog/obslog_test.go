package obslog_test

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tallyd/tallyd/counter"
	"github.com/tallyd/tallyd/obslog"
	"github.com/tallyd/tallyd/tallyerr"
)

func TestFormatLine(t *testing.T) {
	o := counter.Observation{
		Worker: 3,
		Before: 41,
		After:  42,
		At:     time.Date(2026, 8, 29, 12, 30, 15, 500000000, time.UTC),
	}

	assert.Equal(t,
		"2026-08-29T12:30:15.5Z worker=3 Before count: 41 After count: 42",
		obslog.FormatLine(o))
}

func TestParseLine(t *testing.T) {
	t.Run("own format round trips", func(t *testing.T) {
		in := counter.Observation{
			Worker: 12,
			Before: 984,
			After:  985,
			At:     time.Date(2026, 8, 29, 9, 0, 0, 123456789, time.UTC),
		}

		out, err := obslog.ParseLine(obslog.FormatLine(in))
		require.NoError(t, err)
		assert.Equal(t, in.Worker, out.Worker)
		assert.Equal(t, in.Before, out.Before)
		assert.Equal(t, in.After, out.After)
		assert.True(t, in.At.Equal(out.At), "timestamp survives the round trip")
	})

	t.Run("record embedded in foreign log prefix", func(t *testing.T) {
		line := "INFO vote-service thread-7: Before count: 984 After count: 985"

		o, err := obslog.ParseLine(line)
		require.NoError(t, err)
		assert.Equal(t, int64(984), o.Before)
		assert.Equal(t, int64(985), o.After)
		assert.Zero(t, o.Worker)
		assert.True(t, o.At.IsZero())
	})

	t.Run("no record", func(t *testing.T) {
		_, err := obslog.ParseLine("starting run with 100 workers")
		require.Error(t, err)
		assert.ErrorIs(t, err, obslog.ErrNoRecord)
		assert.ErrorIs(t, err, tallyerr.ErrParse)
	})

	t.Run("malformed after value", func(t *testing.T) {
		_, err := obslog.ParseLine("worker=1 Before count: 5 After count: six")
		require.Error(t, err)
		assert.ErrorIs(t, err, tallyerr.ErrParse)
		assert.NotErrorIs(t, err, obslog.ErrNoRecord)
	})

	t.Run("missing after marker", func(t *testing.T) {
		_, err := obslog.ParseLine("worker=1 Before count: 5")
		require.Error(t, err)
		assert.ErrorIs(t, err, tallyerr.ErrParse)
	})
}

func TestWriter_SerializesConcurrentObservers(t *testing.T) {
	const (
		workers = 4
		each    = 50
	)

	var buf bytes.Buffer
	w := obslog.NewWriter(&buf)

	var wg sync.WaitGroup
	for worker := 1; worker <= workers; worker++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for i := 0; i < each; i++ {
				w.Observe(counter.Observation{
					Worker: worker,
					Before: int64(i),
					After:  int64(i + 1),
					At:     time.Now(),
				})
			}
		}(worker)
	}
	wg.Wait()

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, workers*each, "no torn or interleaved lines")
	for _, line := range lines {
		_, err := obslog.ParseLine(line)
		require.NoError(t, err, "line %q", line)
	}
}

func TestNewWriter_NilWriter(t *testing.T) {
	assert.Panics(t, func() { obslog.NewWriter(nil) })
}
