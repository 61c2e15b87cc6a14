// FILE: lixenwraith/logfile/rotation.go
package logfile

import (
	"bufio"
	"os"
	"path/filepath"
	"time"
)

// RotationTrigger is the outcome of a rotation evaluation
type RotationTrigger int

const (
	TriggerNone RotationTrigger = iota
	TriggerSizeExceeded
	TriggerDateChanged
)

func (t RotationTrigger) String() string {
	switch t {
	case TriggerSizeExceeded:
		return "size"
	case TriggerDateChanged:
		return "date"
	default:
		return "none"
	}
}

// writeBufferSize is the buffered writer capacity in front of the active file
const writeBufferSize = 64 * 1024

// activeFile is the open output stream. Only the writer goroutine touches it.
type activeFile struct {
	path string
	file *os.File
	w    *bufio.Writer
	size int64
	date time.Time // Calendar day embedded in the name
	seq  int
}

// evaluateRotation decides whether the active file must be replaced.
// A date change takes precedence over the size threshold.
func evaluateRotation(f *activeFile, maxSize int64, now time.Time) RotationTrigger {
	if f == nil {
		return TriggerNone
	}
	if !sameDay(f.date, now) {
		return TriggerDateChanged
	}
	if maxSize > 0 && f.size >= maxSize {
		return TriggerSizeExceeded
	}
	return TriggerNone
}

// openInitial opens the file to resume for today: the highest existing
// sequence, or the next free one when that was already compressed
func (w *batchWriter) openInitial(now time.Time) error {
	date := dateOf(now)
	files, err := listLogFiles(w.fs, w.s.directory, w.s.name, w.s.extension)
	if err != nil {
		// Nothing on disk to resume
		if !isNotExist(err) {
			w.l.reportError("scan", err)
		}
		files = nil
	}
	return w.open(date, resumeSequence(files, date))
}

// open creates or reopens the file for date and seq and makes it active
func (w *batchWriter) open(date time.Time, seq int) error {
	if err := w.fs.MkdirAll(w.s.directory, 0755); err != nil {
		return ioError("create log directory", w.s.directory, err)
	}

	path := filepath.Join(w.s.directory, formatFileName(w.s.name, date, seq, w.s.extension))

	flags := os.O_CREATE | os.O_WRONLY | os.O_APPEND
	if w.s.overwrite {
		flags |= os.O_TRUNC
	}

	// Published before creation so a scheduler that lists the file also sees it as active
	w.l.state.CurrentPath.Store(path)

	var file *os.File
	err := retryFileOperation(func() error {
		var openErr error
		file, openErr = w.fs.OpenFile(path, flags, 0644)
		return openErr
	}, 3, minWaitTime)
	if err != nil {
		w.l.state.CurrentPath.Store("")
		return ioError("open log file", path, err)
	}

	var size int64
	if fi, statErr := file.Stat(); statErr == nil {
		size = fi.Size()
	}

	w.active = &activeFile{
		path: path,
		file: file,
		w:    bufio.NewWriterSize(file, writeBufferSize),
		size: size,
		date: date,
		seq:  seq,
	}
	w.l.state.CurrentSize.Store(size)
	return nil
}

// closeActive flushes, syncs and closes the active file
func (w *batchWriter) closeActive() error {
	f := w.active
	if f == nil {
		return nil
	}
	w.active = nil

	var err error
	if flushErr := f.w.Flush(); flushErr != nil {
		w.discardBuffered(f, 0)
		err = combineErrors(err, ioError("flush", f.path, flushErr))
	}
	w.unflushed = w.unflushed[:0]
	if syncErr := f.file.Sync(); syncErr != nil {
		err = combineErrors(err, ioError("sync", f.path, syncErr))
	}
	if closeErr := f.file.Close(); closeErr != nil {
		err = combineErrors(err, ioError("close", f.path, closeErr))
	}
	return err
}

// rotate closes the active file and opens the next one. Same day continues
// the sequence, a new day restarts it; sequences taken by archives are skipped.
func (w *batchWriter) rotate(trigger RotationTrigger, now time.Time) {
	old := w.active
	if old == nil {
		return
	}

	if err := w.closeActive(); err != nil {
		w.l.reportError("rotate", err)
	}

	files, err := listLogFiles(w.fs, w.s.directory, w.s.name, w.s.extension)
	if err != nil {
		w.l.reportError("rotate", err)
	}

	date := dateOf(now)
	after := 0
	if trigger == TriggerSizeExceeded && sameDay(old.date, date) {
		after = old.seq
	}
	seq := nextSequence(files, date, after)

	if err := w.open(date, seq); err != nil {
		w.l.reportError("rotate", err)
	}

	w.l.state.TotalRotations.Add(1)
	w.l.emit(EventRotated, old.path)
}

// rotateIfNeeded evaluates the rotation policy against the clock
func (w *batchWriter) rotateIfNeeded() {
	now := w.l.clock.Now()
	if trigger := evaluateRotation(w.active, w.s.maxSize, now); trigger != TriggerNone {
		w.rotate(trigger, now)
	}
}
