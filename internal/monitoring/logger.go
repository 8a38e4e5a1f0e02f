// Package monitoring holds the package-level diagnostic loggers used across
// the pipeline.
package monitoring

import (
	"log"
	"os"
)

// Logf is the package-level diagnostic logger. It defaults to log.Printf but
// may be replaced by SetLogger. Tests or production code can redirect or mute
// it.
var Logf func(format string, v ...interface{}) = log.Printf

// Debugf logs chunk-level diagnostics. It is a no-op unless ACTIMETRY_DEBUG
// is set in the environment or SetDebugLogger installs a sink.
var Debugf func(format string, v ...interface{}) = discard

func init() {
	if os.Getenv("ACTIMETRY_DEBUG") != "" {
		Debugf = log.Printf
	}
}

func discard(string, ...interface{}) {}

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = discard
		return
	}
	Logf = f
}

// SetDebugLogger replaces the debug logger. Passing nil silences it.
func SetDebugLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Debugf = discard
		return
	}
	Debugf = f
}
