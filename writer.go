// FILE: lixenwraith/logfile/writer.go
package logfile

import (
	"errors"
	"time"
)

// batchWriter owns the active file. All of its methods run on the writer goroutine,
// except openInitial which runs in Start before the goroutine exists.
type batchWriter struct {
	l      *Logger
	s      *settings
	fs     FileSystem
	ser    *serializer
	active *activeFile
	batch  []Record

	// Lines accepted by the buffered writer since the last successful flush
	unflushed []bufferedLine
}

// bufferedLine is the size of one appended line and whether it was counted as processed
type bufferedLine struct {
	size    int
	counted bool
}

func newBatchWriter(l *Logger, s *settings) *batchWriter {
	return &batchWriter{
		l:     l,
		s:     s,
		fs:    l.fs,
		ser:   newSerializer(s.format, s.flags, s.timestampFormat),
		batch: make([]Record, 0, s.batchSize),
	}
}

// timerSet holds all timers used in processRecords
type timerSet struct {
	flushTicker     *time.Ticker
	heartbeatTicker *time.Ticker
	heartbeatChan   <-chan time.Time
}

func (l *Logger) setupWriterTimers(s *settings) *timerSet {
	timers := &timerSet{
		flushTicker: time.NewTicker(s.flushInterval),
	}
	if s.heartbeatLevel > 0 {
		timers.heartbeatTicker = time.NewTicker(s.heartbeatInterval)
		timers.heartbeatChan = timers.heartbeatTicker.C
	}
	return timers
}

func (t *timerSet) stop() {
	t.flushTicker.Stop()
	if t.heartbeatTicker != nil {
		t.heartbeatTicker.Stop()
	}
}

// processRecords is the writer loop. It exits after the channel is closed and
// drained, or when the logger context is cancelled.
func (l *Logger) processRecords(ch <-chan Record, w *batchWriter, done chan<- struct{}) {
	defer close(done)
	defer l.state.WriterExited.Store(true)

	timers := l.setupWriterTimers(w.s)
	defer timers.stop()

	defer func() {
		if err := w.closeActive(); err != nil {
			l.reportError("close", err)
		}
		l.state.CurrentPath.Store("")
	}()

	if w.s.heartbeatLevel > 0 {
		l.handleHeartbeat(w)
	}

	for {
		select {
		case rec, ok := <-ch:
			if !ok {
				return
			}
			closed := w.collect(ch, rec)
			w.writeBatch()
			if closed {
				return
			}

		case <-timers.flushTicker.C:
			// Date rollover and size are evaluated even when idle
			w.rotateIfNeeded()
			l.throttle.DeleteExpired()

		case confirmChan := <-l.state.flushRequestChan:
			closed := w.drain(ch)
			confirmChan <- w.flush(true)
			if closed {
				return
			}

		case <-timers.heartbeatChan:
			l.handleHeartbeat(w)

		case <-l.ctx.Done():
			// Forced shutdown abandons whatever is still queued
			if n := len(ch); n > 0 {
				l.countDropped(uint64(n))
				l.reportError("shutdown", fmtErrorf("%d queued records abandoned", n))
			}
			return
		}
	}
}

// collect gathers first plus up to batchSize-1 records without blocking and
// reports whether the channel was found closed
func (w *batchWriter) collect(ch <-chan Record, first Record) bool {
	w.batch = append(w.batch[:0], first)
	for len(w.batch) < w.s.batchSize {
		select {
		case rec, ok := <-ch:
			if !ok {
				return true
			}
			w.batch = append(w.batch, rec)
		default:
			return false
		}
	}
	return false
}

// drain writes the records queued when a flush was requested, so a Flush
// covers every record enqueued before it. Reports whether the channel closed.
func (w *batchWriter) drain(ch <-chan Record) bool {
	for pending := len(ch); pending > 0; {
		select {
		case rec, ok := <-ch:
			if !ok {
				return true
			}
			closed := w.collect(ch, rec)
			pending -= len(w.batch)
			w.writeBatch()
			if closed {
				return true
			}
		default:
			return false
		}
	}
	return false
}

// writeBatch appends the collected records and flushes once. A failed write
// drops the rest of the batch; a record that cannot be formatted drops only itself.
func (w *batchWriter) writeBatch() {
	for i := range w.batch {
		err := w.writeRecord(&w.batch[i], true)
		if err == nil {
			continue
		}
		if errors.Is(err, errRecordFormat) {
			w.l.countDropped(1)
			w.l.reportError("format", err)
			continue
		}
		w.l.state.TotalWriteErrors.Add(1)
		// The failed record and everything after it are lost
		w.l.countDropped(uint64(len(w.batch) - i))
		w.l.reportError("write", err)
		break
	}

	// Release references held by the batch
	clear(w.batch)
	w.batch = w.batch[:0]

	if err := w.flush(false); err != nil {
		w.l.state.TotalWriteErrors.Add(1)
		w.l.reportError("flush", err)
	}
}

// writeRecord formats and appends one record, rotating afterwards if the
// record crossed the size threshold. Counted records add to the processed total.
func (w *batchWriter) writeRecord(rec *Record, counted bool) error {
	line, err := w.serialize(rec)
	if err != nil {
		return err
	}

	if w.active == nil {
		if err := w.openInitial(w.l.clock.Now()); err != nil {
			return err
		}
	}
	// A new day or a resumed oversized file is replaced before the append
	w.rotateIfNeeded()
	if w.active == nil {
		return fmtErrorf("no active log file after rotation")
	}

	n, err := w.active.w.Write(line)
	w.active.size += int64(n)
	w.l.state.CurrentSize.Store(w.active.size)
	if err != nil {
		path := w.active.path
		w.discardBuffered(w.active, n)
		return ioError("write", path, err)
	}

	w.unflushed = append(w.unflushed, bufferedLine{size: len(line), counted: counted})
	if counted {
		w.l.state.TotalLogsProcessed.Add(1)
	}

	if sink, ok := w.l.state.ConsoleWriter.Load().(*sink); ok {
		_, _ = sink.w.Write(line)
	}

	w.rotateIfNeeded()
	return nil
}

// flush pushes buffered bytes to the file, optionally syncing to disk
func (w *batchWriter) flush(sync bool) error {
	if w.active == nil {
		return nil
	}
	if err := w.active.w.Flush(); err != nil {
		path := w.active.path
		w.discardBuffered(w.active, 0)
		return ioError("flush", path, err)
	}
	w.unflushed = w.unflushed[:0]
	if sync {
		if err := w.active.file.Sync(); err != nil {
			return ioError("sync", w.active.path, err)
		}
	}
	return nil
}

// serialize formats rec. A panic raised by a caller-supplied value, such as a
// String method, is returned as an error so the writer keeps running.
func (w *batchWriter) serialize(rec *Record) (line []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			line = nil
			err = fmtErrorf("%w: %v", errRecordFormat, r)
		}
	}()
	return w.ser.serialize(rec), nil
}

// discardBuffered clears a buffered writer left in its sticky error state.
// Lines still in the buffer never reach the file, so the records they belong
// to move from processed to dropped. tail is the part of the buffer holding
// the failing record, which the caller accounts for.
func (w *batchWriter) discardBuffered(f *activeFile, tail int) {
	buffered := f.w.Buffered()
	lost := buffered - tail

	var dropped uint64
	for i := len(w.unflushed) - 1; i >= 0 && lost > 0; i-- {
		lost -= w.unflushed[i].size
		if w.unflushed[i].counted {
			dropped++
		}
	}
	w.unflushed = w.unflushed[:0]

	if dropped > 0 {
		w.l.state.TotalLogsProcessed.Add(^(dropped - 1))
		w.l.countDropped(dropped)
	}

	f.size -= int64(buffered)
	if f == w.active {
		w.l.state.CurrentSize.Store(f.size)
	}
	f.w.Reset(f.file)
}

// writeDirect persists a record generated by the writer itself, such as heartbeats
func (w *batchWriter) writeDirect(rec Record) {
	if err := w.writeRecord(&rec, false); err != nil {
		w.l.state.TotalWriteErrors.Add(1)
		w.l.reportError("write", err)
		return
	}
	if err := w.flush(false); err != nil {
		w.l.reportError("flush", err)
	}
}
