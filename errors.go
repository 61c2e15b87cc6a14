// FILE: lixenwraith/logfile/errors.go
package logfile

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// Error kinds. Returned errors wrap one of these so callers can use errors.Is.
var (
	// ErrTransientIO marks a failed filesystem operation that was skipped
	ErrTransientIO = errors.New("transient I/O failure")
	// ErrConfiguration marks a malformed configuration value
	ErrConfiguration = errors.New("invalid configuration")
	// ErrCapacityExceeded marks a record lost to a full ingestion queue
	ErrCapacityExceeded = errors.New("ingestion queue full")
	// ErrShutdownTimeout is returned when shutdown had to interrupt running work
	ErrShutdownTimeout = errors.New("shutdown timed out")
	// ErrNotStarted is returned by operations that need a running logger
	ErrNotStarted = errors.New("logger not started")
	// ErrActiveFile is returned when an operation targets the file being written
	ErrActiveFile = errors.New("file is active")

	// errRecordFormat marks a single record whose values could not be rendered
	errRecordFormat = errors.New("record could not be formatted")
)

// ErrorHandler receives failures that cannot be returned to a caller.
// Operation names the subsystem step, e.g. "rotate", "compress", "retention".
type ErrorHandler func(operation string, err error)

const errPrefix = "logfile: "

// fmtErrorf wrapper
func fmtErrorf(format string, args ...any) error {
	if !strings.HasPrefix(format, errPrefix) {
		format = errPrefix + format
	}
	return fmt.Errorf(format, args...)
}

// combineErrors helper
func combineErrors(err1, err2 error) error {
	if err1 == nil {
		return err2
	}
	if err2 == nil {
		return err1
	}
	return errors.Join(err1, err2)
}

// ioError wraps a filesystem failure as transient
func ioError(op, path string, err error) error {
	return fmtErrorf("%s '%s': %w: %w", op, path, ErrTransientIO, err)
}

// reportError delivers a failure to the error handler, or to stderr when none is set
func (l *Logger) reportError(operation string, err error) {
	if err == nil {
		return
	}
	if h := l.errorHandler; h != nil {
		func() {
			defer func() {
				if r := recover(); r != nil {
					l.internalLog("error handler panicked on %s: %v\n", operation, r)
				}
			}()
			h(operation, err)
		}()
		return
	}
	l.internalLog("%s: %v\n", operation, err)
}

// internalLog handles writing internal logger diagnostics to stderr, if enabled.
func (l *Logger) internalLog(format string, args ...any) {
	if !l.internalErrorsToStderr.Load() {
		return
	}

	if !strings.HasPrefix(format, errPrefix) {
		format = errPrefix + format
	}

	fmt.Fprintf(os.Stderr, format, args...)
}
