// Package harness manufactures contention on purpose: it points N workers at
// one shared counter, M increments each, and reports whether the final value
// matches N×M. It is the driver behind every correctness scenario in this
// module — the safe variants must survive it exactly, the unsafe variant is
// expected to fail it.
package harness

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tallyd/tallyd/counter"
	"github.com/tallyd/tallyd/tallyerr"
)

const (
	subsys         = "harness"
	defaultTimeout = 30 * time.Second
)

// Config describes one contention run.
type Config struct {
	// Workers is the number of concurrent goroutines. Must be positive.
	Workers int
	// IncrementsPerWorker is how many increments each worker performs.
	// Must be positive.
	IncrementsPerWorker int
	// Timeout bounds the wait for worker completion. Exceeding it is a
	// harness failure, not a counter failure. Defaults to 30s.
	Timeout time.Duration
	// Observer, when set, receives one Observation per increment, tagged with
	// the issuing worker's id (1-based).
	Observer counter.Observer
}

// Result is the outcome of a completed run.
type Result struct {
	// RunID ties the result to any observation log captured during the run.
	RunID uuid.UUID
	// Final is the counter value read after all workers finished.
	Final int64
	// Expected is Workers × IncrementsPerWorker.
	Expected int64
	// Elapsed is the wall time from first spawn to last completion.
	Elapsed time.Duration
}

// Lost returns how many increments the final value fails to account for.
func (r *Result) Lost() int64 {
	return r.Expected - r.Final
}

// LossRate returns lost increments as a percentage of expected, with exact
// arithmetic so report output is stable.
func (r *Result) LossRate() decimal.Decimal {
	if r.Expected == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(r.Lost()).
		Div(decimal.NewFromInt(r.Expected)).
		Mul(decimal.NewFromInt(100))
}

// Verify returns tallyerr.ErrInvariant when the final value differs from the
// expected total. The defect is surfaced, never corrected.
func (r *Result) Verify() error {
	if r.Final == r.Expected {
		return nil
	}
	return tallyerr.New().
		WithSubsys(subsys).
		WithOp("Verify").
		WithKind(tallyerr.ErrInvariant).
		WithMessage(fmt.Sprintf("expected %d, got %d (lost %d)", r.Expected, r.Final, r.Lost()))
}

// Run resets c to zero, spawns cfg.Workers goroutines each performing
// cfg.IncrementsPerWorker increments with no coordination beyond what c
// itself provides, waits for completion bounded by cfg.Timeout and ctx, and
// returns the final read value.
//
// A timeout or context cancellation yields tallyerr.ErrTimeout; the counter
// may still be internally consistent, the harness merely failed to observe
// termination in time. Workers left running after a timeout hold nothing but
// the counter and finish on their own.
func Run(ctx context.Context, c counter.Counter, cfg Config) (*Result, error) {
	if err := validate(c, cfg); err != nil {
		return nil, err
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	c.Reset()

	var wg sync.WaitGroup
	start := time.Now()

	for w := 1; w <= cfg.Workers; w++ {
		target := c
		if cfg.Observer != nil {
			target = counter.Observed(c, cfg.Observer, counter.WithWorkerID(w))
		}

		wg.Add(1)
		go func(target counter.Counter) {
			defer wg.Done()
			for i := 0; i < cfg.IncrementsPerWorker; i++ {
				target.Inc()
			}
		}(target)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	timer := time.NewTimer(cfg.Timeout)
	defer timer.Stop()

	select {
	case <-done:
	case <-ctx.Done():
		return nil, timeoutErr("run canceled", ctx.Err())
	case <-timer.C:
		return nil, timeoutErr(fmt.Sprintf("workers still running after %s", cfg.Timeout), nil)
	}

	return &Result{
		RunID:    uuid.New(),
		Final:    c.Get(),
		Expected: int64(cfg.Workers) * int64(cfg.IncrementsPerWorker),
		Elapsed:  time.Since(start),
	}, nil
}

func validate(c counter.Counter, cfg Config) error {
	switch {
	case c == nil:
		return validationErr("counter is nil")
	case cfg.Workers <= 0:
		return validationErr(fmt.Sprintf("workers must be positive, got %d", cfg.Workers))
	case cfg.IncrementsPerWorker <= 0:
		return validationErr(fmt.Sprintf("increments per worker must be positive, got %d", cfg.IncrementsPerWorker))
	}
	return nil
}

func validationErr(msg string) error {
	return tallyerr.New().
		WithSubsys(subsys).
		WithOp("Run").
		WithKind(tallyerr.ErrValidation).
		WithMessage(msg)
}

func timeoutErr(msg string, cause error) error {
	e := tallyerr.New().
		WithSubsys(subsys).
		WithOp("Run").
		WithKind(tallyerr.ErrTimeout).
		WithMessage(msg)
	if cause != nil {
		e = e.WithCause(cause)
	}
	return e
}
