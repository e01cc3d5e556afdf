// Package logger provides levelled stderr logging for the docquery CLI.
//
// Debug, Info, Warn and Section narrate the ingestion and retrieval
// pipeline and print only when verbose mode is enabled via the --verbose
// flag. Error always prints: a failed embed or index write must surface
// in quiet runs too. With timestamps enabled, every line carries the
// elapsed time since process start, which makes slow pipeline stages easy
// to spot.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

var (
	mu         sync.RWMutex
	verbose    bool
	timestamps bool
	output     io.Writer = os.Stderr
	start                = time.Now()
)

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetTimestamps enables or disables the elapsed-time prefix.
func SetTimestamps(v bool) {
	mu.Lock()
	defer mu.Unlock()
	timestamps = v
}

// SetOutput sets the output writer for logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// write prints one levelled line. Callers hold at least the read lock.
func write(level, format string, args ...any) {
	prefix := "[" + level + "] "
	if timestamps {
		prefix = fmt.Sprintf("%9s %s", time.Since(start).Truncate(time.Millisecond), prefix)
	}
	fmt.Fprintf(output, prefix+format+"\n", args...)
}

// Debug prints a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		write("DEBUG", format, args...)
	}
}

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}

// Info prints an informational message if verbose mode is enabled.
func Info(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		write("INFO", format, args...)
	}
}

// Warn prints a warning message if verbose mode is enabled.
func Warn(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		write("WARN", format, args...)
	}
}

// Error prints an error message regardless of verbose mode.
func Error(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	write("ERROR", format, args...)
}
