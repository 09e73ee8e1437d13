// Package detector analyzes observation records offline and flags evidence of
// lost updates: two increments that produced the same resulting value. It
// consumes the text log lines written by obslog (or already-decoded
// observations) and never touches the live counter.
package detector

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/shopspring/decimal"

	"github.com/tallyd/tallyd/counter"
	"github.com/tallyd/tallyd/obslog"
	"github.com/tallyd/tallyd/tallyerr"
)

// Report summarizes one scan over a set of observation records.
type Report struct {
	// Total is the number of records analyzed.
	Total int
	// Max is the highest After value seen.
	Max int64
	// Duplicates maps each After value produced by more than one increment to
	// the number of times it appeared.
	Duplicates map[int64]int
	// Missing lists values in [1, Max] that no increment produced, ascending.
	Missing []int64
}

// LostUpdates reports whether the scan found any duplicated After value.
func (r *Report) LostUpdates() bool {
	return len(r.Duplicates) > 0
}

// DuplicateRate returns the share of records whose After value was also
// produced by another increment, as a percentage with exact arithmetic.
func (r *Report) DuplicateRate() decimal.Decimal {
	if r.Total == 0 {
		return decimal.Zero
	}

	var dup int64
	for _, n := range r.Duplicates {
		dup += int64(n)
	}

	return decimal.NewFromInt(dup).
		Div(decimal.NewFromInt(int64(r.Total))).
		Mul(decimal.NewFromInt(100))
}

// Analyze builds a Report from already-decoded observations.
func Analyze(obs []counter.Observation) *Report {
	r := &Report{
		Total:      len(obs),
		Duplicates: make(map[int64]int),
	}

	seen := make(map[int64]int, len(obs))
	for _, o := range obs {
		seen[o.After]++
		if o.After > r.Max {
			r.Max = o.After
		}
	}

	for after, n := range seen {
		if n > 1 {
			r.Duplicates[after] = n
		}
	}
	for v := int64(1); v <= r.Max; v++ {
		if seen[v] == 0 {
			r.Missing = append(r.Missing, v)
		}
	}

	return r
}

// Scan reads a text log and analyzes every observation record in it. Lines
// that carry no record (other tools' output, blank lines) are skipped; a line
// that looks like a record but fails to decode aborts the scan.
func Scan(r io.Reader) (*Report, error) {
	var obs []counter.Observation

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		o, err := obslog.ParseLine(sc.Text())
		if err != nil {
			if errors.Is(err, obslog.ErrNoRecord) {
				continue
			}
			return nil, err
		}
		obs = append(obs, o)
	}
	if err := sc.Err(); err != nil {
		return nil, tallyerr.New().
			WithSubsys("detector").
			WithOp("Scan").
			WithKind(tallyerr.ErrParse).
			WithMessage("reading log").
			WithCause(err)
	}

	return Analyze(obs), nil
}

// ScanBinary analyzes a buffer of binary observation records.
func ScanBinary(enc []byte) (*Report, error) {
	obs, err := obslog.DecodeAll(enc)
	if err != nil {
		return nil, err
	}
	return Analyze(obs), nil
}

// VerifySequence checks the safe-counter invariant over a complete run: the
// After values must be exactly {1..len(obs)}, each appearing once. Returns
// tallyerr.ErrInvariant describing the first defect found.
func VerifySequence(obs []counter.Observation) error {
	r := Analyze(obs)

	if len(r.Duplicates) > 0 {
		return invariantErr(fmt.Sprintf("%d after values were produced by more than one increment", len(r.Duplicates)))
	}
	if len(r.Missing) > 0 {
		return invariantErr(fmt.Sprintf("%d values in [1, %d] were never produced", len(r.Missing), r.Max))
	}
	if r.Max != int64(r.Total) {
		return invariantErr(fmt.Sprintf("max after %d does not match %d recorded increments", r.Max, r.Total))
	}

	return nil
}

func invariantErr(msg string) error {
	return tallyerr.New().
		WithSubsys("detector").
		WithOp("VerifySequence").
		WithKind(tallyerr.ErrInvariant).
		WithMessage(msg)
}
