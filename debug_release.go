//go:build !debug

package main

// debugLog is a no-op in release builds; the compiler drops the calls.
func debugLog(format string, args ...interface{}) {
}
