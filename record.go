// FILE: lixenwraith/logfile/record.go
package logfile

import (
	"fmt"
	"time"
)

// Record is one log entry. It is immutable once handed to Write.
type Record struct {
	Time     time.Time
	Level    int64
	Category string
	Message  string
	Err      error
	Origin   string // Calling function
	Fields   []any  // Alternating key, value

	// Drops this record reports; restored to the counter if it is lost too
	unreportedDrops uint64
}

// Write enqueues rec for persistence. It never blocks longer than the
// configured overflow policy allows, never returns an error and never panics.
// A zero Time is set from the logger clock and an empty Origin from the caller.
// Level filtering does not apply.
func (l *Logger) Write(rec Record) {
	if rec.Time.IsZero() {
		rec.Time = l.clock.Now()
	}
	if rec.Origin == "" {
		rec.Origin = callerOrigin(1)
	}
	rec.unreportedDrops = 0
	l.sendRecord(rec)
}

// sendRecord handles safe sending to the active channel
func (l *Logger) sendRecord(rec Record) {
	defer func() {
		if r := recover(); r != nil { // Catch panic on send to closed channel
			l.handleFailedSend(rec)
		}
	}()

	if !l.state.Started.Load() || l.state.ShutdownCalled.Load() {
		l.handleFailedSend(rec)
		return
	}

	ch := l.getCurrentLogChannel()

	select {
	case ch <- rec:
	default:
		if l.getSettings().overflowPolicy != OverflowBlock || !l.sendBlocking(ch, rec) {
			l.handleFailedSend(rec)
			return
		}
	}

	if rec.unreportedDrops == 0 {
		l.reportDrops()
	}
}

// sendBlocking waits up to the block timeout for queue space
func (l *Logger) sendBlocking(ch chan Record, rec Record) bool {
	timer := time.NewTimer(l.getSettings().blockTimeout)
	defer timer.Stop()

	select {
	case ch <- rec:
		return true
	case <-timer.C:
		return false
	}
}

// reportDrops enqueues a record carrying the number of records lost since the last report
func (l *Logger) reportDrops() {
	droppedCount := l.state.DroppedLogs.Swap(0)
	if droppedCount == 0 {
		return
	}

	l.reportError("enqueue", fmtErrorf("%w: %d records dropped", ErrCapacityExceeded, droppedCount))

	dropRecord := Record{
		Time:            l.clock.Now(),
		Level:           LevelError,
		Category:        CategoryGeneral,
		Message:         "Logs were dropped",
		Origin:          "logfile",
		Fields:          []any{"dropped_count", droppedCount},
		unreportedDrops: droppedCount,
	}
	// The count is restored if this fails
	l.sendRecord(dropRecord)
}

// handleFailedSend restores or increments drop counter
func (l *Logger) handleFailedSend(rec Record) {
	if rec.unreportedDrops > 0 {
		// Restore the report's count; it was already included in the total
		l.state.DroppedLogs.Add(rec.unreportedDrops)
		return
	}
	l.countDropped(1)
}

// Log writes a record with explicit level, category and error.
// Fields are alternating keys and values.
func (l *Logger) Log(level int64, category, msg string, err error, fields ...any) {
	l.log(level, category, msg, err, fields)
}

// Debug logs a message at debug level
func (l *Logger) Debug(args ...any) {
	l.logArgs(LevelDebug, args)
}

// Info logs a message at info level
func (l *Logger) Info(args ...any) {
	l.logArgs(LevelInfo, args)
}

// Warn logs a message at warning level
func (l *Logger) Warn(args ...any) {
	l.logArgs(LevelWarn, args)
}

// Error logs a message at error level. An error argument becomes the record error.
func (l *Logger) Error(args ...any) {
	l.logArgs(LevelError, args)
}

// logArgs treats a leading string as the message and the rest as key/value fields
func (l *Logger) logArgs(level int64, args []any) {
	var msg string
	var err error

	if len(args) > 0 {
		switch first := args[0].(type) {
		case string:
			msg, args = first, args[1:]
		case error:
			err, args = first, args[1:]
			msg = first.Error()
		}
	}
	// A trailing unpaired error is the record error
	if err == nil && len(args)%2 == 1 {
		if e, ok := args[len(args)-1].(error); ok {
			err, args = e, args[:len(args)-1]
		}
	}
	if msg == "" && len(args) > 0 && len(args)%2 == 1 {
		msg, args = fmt.Sprint(args...), nil
	}

	l.logSkip(level, CategoryGeneral, msg, err, args, 1)
}

func (l *Logger) log(level int64, category, msg string, err error, fields []any) {
	l.logSkip(level, category, msg, err, fields, 1)
}

// logSkip applies level filtering and captures the origin skip frames above its caller
func (l *Logger) logSkip(level int64, category, msg string, err error, fields []any, skip int) {
	if !l.state.IsInitialized.Load() {
		return
	}
	if level < l.getSettings().level {
		return
	}

	l.sendRecord(Record{
		Time:     l.clock.Now(),
		Level:    level,
		Category: category,
		Message:  msg,
		Err:      err,
		Origin:   callerOrigin(skip + 2),
		Fields:   fields,
	})
}
