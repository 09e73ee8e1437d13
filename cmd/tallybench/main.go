// Command tallybench drives contention against a chosen counter variant and
// reports the outcome of each trial. It can capture observation records to a
// text or binary log, stream them live over a websocket, and expose an fgprof
// profiling endpoint for digging into contention costs.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/felixge/fgprof"

	"github.com/tallyd/tallyd/counter"
	"github.com/tallyd/tallyd/harness"
	"github.com/tallyd/tallyd/obslog"
	"github.com/tallyd/tallyd/stream"
)

var (
	variant    = flag.String("variant", "mutex", "counter variant: unsafe, mutex or cas")
	workers    = flag.Int("workers", 100, "number of concurrent workers")
	increments = flag.Int("increments", 1000, "increments per worker")
	trials     = flag.Int("trials", 1, "number of runs")
	timeout    = flag.Duration("timeout", 30*time.Second, "per-run completion timeout")
	fair       = flag.Bool("fair", false, "FIFO wake order (mutex variant only)")
	logPath    = flag.String("log", "", "append text observation records to this file")
	binPath    = flag.String("binlog", "", "append binary observation records to this file")
	listen     = flag.String("listen", "", "serve live observations at /observations and profiles at /debug/fgprof on this address")
)

func main() {
	flag.Parse()

	c, err := buildCounter(*variant, *fair)
	if err != nil {
		log.Fatal(err)
	}

	observers, cleanup, err := buildObservers()
	if err != nil {
		log.Fatal(err)
	}
	defer cleanup()

	cfg := harness.Config{
		Workers:             *workers,
		IncrementsPerWorker: *increments,
		Timeout:             *timeout,
	}
	if len(observers) > 0 {
		cfg.Observer = counter.MultiObserver(observers...)
	}

	violated := false
	for trial := 1; trial <= *trials; trial++ {
		res, err := harness.Run(context.Background(), c, cfg)
		if err != nil {
			log.Fatalf("trial %d: %v", trial, err)
		}

		fmt.Printf("trial %d: final=%d expected=%d lost=%d loss=%s%% elapsed=%s run=%s\n",
			trial, res.Final, res.Expected, res.Lost(),
			res.LossRate().StringFixed(3), res.Elapsed, res.RunID)

		if verr := res.Verify(); verr != nil {
			violated = true
			log.Printf("trial %d: %v", trial, verr)
		}
	}

	// For the unsafe variant the shortfall is the demonstration, not a failure.
	if violated && *variant != "unsafe" {
		os.Exit(1)
	}
}

func buildCounter(variant string, fair bool) (counter.Counter, error) {
	switch variant {
	case "unsafe":
		return counter.NewUnsafeCounter(), nil
	case "mutex":
		if fair {
			return counter.NewMutexCounter(counter.WithFairWakeup()), nil
		}
		return counter.NewMutexCounter(), nil
	case "cas":
		return counter.NewCASCounter(), nil
	default:
		return nil, fmt.Errorf("unknown variant %q (want unsafe, mutex or cas)", variant)
	}
}

func buildObservers() ([]counter.Observer, func(), error) {
	var observers []counter.Observer
	var closers []func()

	cleanup := func() {
		for _, c := range closers {
			c()
		}
	}

	if *logPath != "" {
		f, err := os.OpenFile(*logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		closers = append(closers, func() { _ = f.Close() })
		observers = append(observers, obslog.NewWriter(f))
	}

	if *binPath != "" {
		f, err := os.OpenFile(*binPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		closers = append(closers, func() { _ = f.Close() })
		observers = append(observers, obslog.NewBinaryWriter(f))
	}

	if *listen != "" {
		b := stream.NewBroadcaster()
		closers = append(closers, func() { _ = b.Close() })
		observers = append(observers, b)

		mux := http.NewServeMux()
		mux.Handle("/observations", b)
		mux.Handle("/debug/fgprof", fgprof.Handler())
		go func() {
			if err := http.ListenAndServe(*listen, mux); err != nil {
				log.Printf("listen on %s: %v", *listen, err)
			}
		}()
		log.Printf("serving observations on ws://%s/observations", *listen)
	}

	return observers, cleanup, nil
}
