// Package logger prints pipeline diagnostics to stderr when the
// --verbose flag is set. Output is line-oriented and unstructured on
// purpose: it narrates the query pipeline for a human watching a run,
// not for log aggregation.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
)

type level string

const (
	levelDebug level = "DEBUG"
	levelInfo  level = "INFO"
	levelWarn  level = "WARN"
)

var verbose atomic.Bool

// writerMu guards sink so concurrent emits never interleave partial lines.
var (
	writerMu sync.Mutex
	sink     io.Writer = os.Stderr
)

// SetVerbose enables or disables diagnostic output.
func SetVerbose(v bool) {
	verbose.Store(v)
}

// IsVerbose reports whether diagnostic output is enabled.
func IsVerbose() bool {
	return verbose.Load()
}

// SetOutput redirects diagnostic output, primarily for tests.
// Defaults to os.Stderr.
func SetOutput(w io.Writer) {
	writerMu.Lock()
	defer writerMu.Unlock()
	sink = w
}

func emit(lv level, format string, args ...any) {
	if !verbose.Load() {
		return
	}
	writerMu.Lock()
	defer writerMu.Unlock()
	fmt.Fprintf(sink, "[%s] %s\n", lv, fmt.Sprintf(format, args...))
}

// Debug narrates fine-grained pipeline steps.
func Debug(format string, args ...any) {
	emit(levelDebug, format, args...)
}

// Info reports pipeline milestones.
func Info(format string, args ...any) {
	emit(levelInfo, format, args...)
}

// Warn reports recoverable problems, such as a retried provider call or
// a best-effort persistence failure.
func Warn(format string, args ...any) {
	emit(levelWarn, format, args...)
}

// Section prints a visual divider before a pipeline phase.
func Section(name string) {
	if !verbose.Load() {
		return
	}
	writerMu.Lock()
	defer writerMu.Unlock()
	fmt.Fprintf(sink, "\n=== %s ===\n", name)
}
