// Package debug provides conditional debug logging.
//
// Debug logging is enabled by setting the FOLDERTREE_DEBUG environment
// variable or with SetEnabled (the --debug flag). Messages go through the
// standard logger so they land in the same log file as everything else.
// When disabled, every function returns immediately.
//
// Usage:
//
//	defer debug.LogTiming("update cache", time.Now())
//	debug.Log("reloaded %d nodes", n)
package debug

import (
	"log"
	"os"
	"time"

	"github.com/davecgh/go-spew/spew"
)

var enabled = os.Getenv("FOLDERTREE_DEBUG") != ""

// dumper keeps dumps readable: no pointer addresses, sorted map keys
var dumper = spew.ConfigState{
	Indent:                  "  ",
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
	MaxDepth:                6,
}

// Enabled returns whether debug logging is enabled.
func Enabled() bool {
	return enabled
}

// SetEnabled allows programmatic control of debug logging.
func SetEnabled(e bool) {
	enabled = e
}

// Log writes a debug message if debug logging is enabled.
func Log(format string, args ...any) {
	if !enabled {
		return
	}
	log.Printf("[debug] "+format, args...)
}

// LogIf writes a debug message only if the condition is true.
func LogIf(cond bool, format string, args ...any) {
	if !enabled || !cond {
		return
	}
	log.Printf("[debug] "+format, args...)
}

// LogTiming logs how long has passed since start. Meant for defer.
func LogTiming(name string, start time.Time) {
	if !enabled {
		return
	}
	log.Printf("[debug] %s took %v", name, time.Since(start))
}

// Dump logs a structural dump of v.
func Dump(name string, v any) {
	if !enabled {
		return
	}
	log.Printf("[debug] %s:\n%s", name, Sdump(v))
}

// Sdump returns the structural dump of v regardless of the enabled state.
func Sdump(v any) string {
	return dumper.Sdump(v)
}
