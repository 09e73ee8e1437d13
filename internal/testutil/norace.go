//go:build !race

package testutil

// RaceEnabled reports whether the binary was built with the Go race detector.
const RaceEnabled = false
