//go:build race

package testutil

// RaceEnabled reports whether the binary was built with the Go race detector.
// Tests that race on purpose must skip when it is set, otherwise the detector
// fails them by design.
const RaceEnabled = true
