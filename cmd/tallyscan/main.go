// Command tallyscan analyzes a captured observation log and reports lost
// updates: "after" values produced by more than one increment, and values
// that were skipped entirely. Exits non-zero when lost updates are found.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"sort"

	"github.com/tallyd/tallyd/detector"
)

var (
	in     = flag.String("in", "", "observation log to analyze (required)")
	binary = flag.Bool("binary", false, "input is the binary record format")
)

func main() {
	flag.Parse()

	if *in == "" {
		flag.Usage()
		os.Exit(2)
	}

	report, err := scan(*in, *binary)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("records:   %d\n", report.Total)
	fmt.Printf("max after: %d\n", report.Max)

	if !report.LostUpdates() && len(report.Missing) == 0 {
		fmt.Println("no lost updates detected")
		return
	}

	if len(report.Duplicates) > 0 {
		fmt.Printf("duplicated after values (%d, rate %s%%):\n",
			len(report.Duplicates), report.DuplicateRate().StringFixed(3))
		for _, after := range sortedKeys(report.Duplicates) {
			fmt.Printf("  %d produced by %d increments\n", after, report.Duplicates[after])
		}
	}
	if len(report.Missing) > 0 {
		fmt.Printf("values never produced: %d (first %v)\n",
			len(report.Missing), head(report.Missing, 10))
	}

	os.Exit(1)
}

func scan(path string, bin bool) (*detector.Report, error) {
	if bin {
		enc, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return detector.ScanBinary(enc)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return detector.Scan(f)
}

func sortedKeys(m map[int64]int) []int64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func head(vals []int64, n int) []int64 {
	if len(vals) <= n {
		return vals
	}
	return vals[:n]
}
