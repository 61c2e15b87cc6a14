// FILE: lixenwraith/logfile/state.go
package logfile

import (
	"io"
	"sync"
	"sync/atomic"
)

// State encapsulates the runtime state of the logger
type State struct {
	IsInitialized  atomic.Bool
	Started        atomic.Bool
	ShutdownCalled atomic.Bool
	WriterExited   atomic.Bool // Tracks if the writer goroutine is running or has exited

	flushRequestChan chan chan error // Channel to request a flush
	flushMutex       sync.Mutex      // Protect concurrent Flush calls

	CurrentPath atomic.Value // stores string, published before the file is created
	CurrentSize atomic.Int64 // Size of the current log file

	ActiveLogChannel atomic.Value // stores chan Record
	ConsoleWriter    atomic.Value // stores *sink

	DroppedLogs      atomic.Uint64 // Drops not yet reported in the log
	TotalDroppedLogs atomic.Uint64 // Drops over the logger lifetime

	// Statistics
	HeartbeatSequence  atomic.Uint64
	LoggerStartTime    atomic.Value // stores time.Time
	TotalLogsProcessed atomic.Uint64
	TotalRotations     atomic.Uint64
	TotalCompressions  atomic.Uint64
	TotalDeletions     atomic.Uint64
	TotalWriteErrors   atomic.Uint64
}

// sink is a wrapper around an io.Writer, atomic value type change workaround
type sink struct {
	w io.Writer
}

// Stats is a point-in-time view of the logger counters
type Stats struct {
	Processed     uint64 // Records written to the file
	Dropped       uint64 // Records lost to a full queue, shutdown or write failure
	Rotations     uint64
	Compressions  uint64
	Deletions     uint64
	WriteErrors   uint64
	CurrentFile   string
	CurrentSize   int64
	QueueLength   int
	QueueCapacity int
}

// Stats returns the current counters
func (l *Logger) Stats() Stats {
	ch := l.getCurrentLogChannel()
	return Stats{
		Processed:     l.state.TotalLogsProcessed.Load(),
		Dropped:       l.state.TotalDroppedLogs.Load(),
		Rotations:     l.state.TotalRotations.Load(),
		Compressions:  l.state.TotalCompressions.Load(),
		Deletions:     l.state.TotalDeletions.Load(),
		WriteErrors:   l.state.TotalWriteErrors.Load(),
		CurrentFile:   l.CurrentFile(),
		CurrentSize:   l.state.CurrentSize.Load(),
		QueueLength:   len(ch),
		QueueCapacity: cap(ch),
	}
}

// CurrentFile returns the path of the file being written, or "" when none is open
func (l *Logger) CurrentFile() string {
	p, _ := l.state.CurrentPath.Load().(string)
	return p
}

// getCurrentLogChannel safely retrieves the current log channel
func (l *Logger) getCurrentLogChannel() chan Record {
	return l.state.ActiveLogChannel.Load().(chan Record)
}

// countDropped records n lost records
func (l *Logger) countDropped(n uint64) {
	if n == 0 {
		return
	}
	l.state.DroppedLogs.Add(n)
	l.state.TotalDroppedLogs.Add(n)
}
