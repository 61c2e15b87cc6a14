// FILE: lixenwraith/logfile/logger.go
package logfile

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/patrickmn/go-cache"
)

// forcedStopGrace bounds the wait for workers after a timed-out shutdown cancels them
const forcedStopGrace = 250 * time.Millisecond

// Logger is the core struct that encapsulates all logger functionality
type Logger struct {
	currentConfig atomic.Pointer[Config]
	settings      atomic.Pointer[settings]
	state         State
	initMu        sync.Mutex

	clock                  Clock
	ownClock               *cachedClock // Non-nil when the logger owns its clock
	fs                     FileSystem
	errorHandler           ErrorHandler
	internalErrorsToStderr atomic.Bool
	notifier               notifier
	throttle               *cache.Cache

	// Valid between Start and Shutdown
	ctx        context.Context
	cancel     context.CancelFunc
	writerDone chan struct{}
	scheduler  *scheduler

	compressMu sync.Mutex // Serializes compression passes
	sweepMu    sync.Mutex // Serializes retention passes
}

// Option customizes a Logger at construction
type Option func(*Logger)

// WithClock replaces the cached wall clock
func WithClock(c Clock) Option {
	return func(l *Logger) {
		if c != nil {
			l.clock = c
		}
	}
}

// WithFileSystem replaces the os-backed filesystem
func WithFileSystem(fs FileSystem) Option {
	return func(l *Logger) {
		if fs != nil {
			l.fs = fs
		}
	}
}

// WithErrorHandler routes background failures to h instead of stderr
func WithErrorHandler(h ErrorHandler) Option {
	return func(l *Logger) {
		l.errorHandler = h
	}
}

// NewLogger creates a new Logger instance with default settings.
// ApplyConfig and Start must be called before records are persisted.
func NewLogger(opts ...Option) *Logger {
	l := &Logger{
		fs:       OSFileSystem{},
		throttle: cache.New(cache.NoExpiration, 0),
	}

	for _, opt := range opts {
		opt(l)
	}
	if l.clock == nil {
		l.ownClock = newCachedClock()
		l.clock = l.ownClock
	}

	cfg := DefaultConfig()
	s, _ := cfg.resolve()
	l.currentConfig.Store(cfg)
	l.settings.Store(s)
	l.internalErrorsToStderr.Store(cfg.InternalErrorsToStderr)

	l.state.WriterExited.Store(true)
	l.state.CurrentPath.Store("")
	l.state.LoggerStartTime.Store(time.Time{})
	l.state.ConsoleWriter.Store(&sink{w: io.Discard})

	// Create a closed channel initially to prevent nil pointer issues
	initialChan := make(chan Record)
	close(initialChan)
	l.state.ActiveLogChannel.Store(initialChan)

	l.state.flushRequestChan = make(chan chan error, 1)

	l.notifier.onPanic = func(h EventHandler, e Event, r any) {
		l.reportError("event_handler", fmtErrorf("handler %T panicked on %s event for '%s': %v", h, e.Kind, e.Path, r))
	}

	return l
}

// ApplyConfig applies a configuration to a logger that has not been started.
// Malformed values fall back to their defaults and are reported through the
// error handler; only a nil config, a running logger or an unusable directory
// produce an error.
func (l *Logger) ApplyConfig(cfg *Config) error {
	if cfg == nil {
		return fmtErrorf("%w: configuration cannot be nil", ErrConfiguration)
	}

	l.initMu.Lock()
	defer l.initMu.Unlock()

	if l.state.Started.Load() {
		return fmtErrorf("cannot reconfigure a running logger")
	}
	if l.state.ShutdownCalled.Load() {
		return fmtErrorf("logger already shut down")
	}

	cfg = cfg.Clone()
	l.internalErrorsToStderr.Store(cfg.InternalErrorsToStderr)

	s, warnings := cfg.resolve()
	for _, w := range warnings {
		l.reportError("config", fmtErrorf("%w: %s", ErrConfiguration, w))
	}

	if err := l.fs.MkdirAll(s.directory, 0755); err != nil {
		return ioError("create log directory", s.directory, err)
	}

	l.currentConfig.Store(cfg)
	l.settings.Store(s)

	if s.enableConsole {
		var w io.Writer = os.Stdout
		if s.consoleTarget == "stderr" {
			w = os.Stderr
		}
		l.state.ConsoleWriter.Store(&sink{w: w})
	} else {
		l.state.ConsoleWriter.Store(&sink{w: io.Discard})
	}

	l.state.IsInitialized.Store(true)
	return nil
}

// GetConfig returns a copy of current configuration
func (l *Logger) GetConfig() *Config {
	return l.currentConfig.Load().Clone()
}

// getSettings returns the resolved snapshot
func (l *Logger) getSettings() *settings {
	return l.settings.Load()
}

// Enabled reports whether records at level pass the configured minimum
func (l *Logger) Enabled(level int64) bool {
	return level >= l.getSettings().level
}

// Start opens the active file and starts the writer and the background
// schedules. It fails if ApplyConfig was never called or after Shutdown.
func (l *Logger) Start() error {
	l.initMu.Lock()
	defer l.initMu.Unlock()

	if !l.state.IsInitialized.Load() {
		return fmtErrorf("logger not initialized, call ApplyConfig first")
	}
	if l.state.ShutdownCalled.Load() {
		return fmtErrorf("logger already shut down")
	}
	if !l.state.Started.CompareAndSwap(false, true) {
		return nil
	}

	s := l.getSettings()
	l.ctx, l.cancel = context.WithCancel(context.Background())
	l.state.LoggerStartTime.Store(l.clock.Now())

	w := newBatchWriter(l, s)
	if err := w.openInitial(l.clock.Now()); err != nil {
		// The writer retries on the first batch
		l.reportError("open", err)
	}

	logChannel := make(chan Record, s.queueCapacity)
	l.state.ActiveLogChannel.Store(logChannel)

	l.writerDone = make(chan struct{})
	l.state.WriterExited.Store(false)
	go l.processRecords(logChannel, w, l.writerDone)

	if s.retentionOnStart && s.retentionDays > 0 {
		if _, err := l.sweepPass(l.ctx); err != nil {
			l.reportError("retention", err)
		}
	}

	l.scheduler = newScheduler(l)
	l.scheduler.start(s)

	return nil
}

// Shutdown stops intake, drains every queued record to disk, closes the
// active file and stops the background schedules, waiting at most timeout
// (default shutdown_timeout_ms). When the wait expires, running work is
// cancelled and ErrShutdownTimeout is returned. Only the first call acts.
func (l *Logger) Shutdown(timeout ...time.Duration) error {
	if !l.state.ShutdownCalled.CompareAndSwap(false, true) {
		return nil
	}

	l.initMu.Lock()
	defer l.initMu.Unlock()

	if !l.state.Started.Load() {
		l.stopClock()
		return nil
	}

	effectiveTimeout := l.getSettings().shutdownTimeout
	if len(timeout) > 0 && timeout[0] > 0 {
		effectiveTimeout = timeout[0]
	}
	timer := time.NewTimer(effectiveTimeout)
	defer timer.Stop()

	// Stop accepting, then close the live channel so the writer drains it
	ch := l.getCurrentLogChannel()
	closedChan := make(chan Record)
	close(closedChan)
	l.state.ActiveLogChannel.Store(closedChan)
	close(ch)

	schedDone := l.scheduler.stop()

	var finalErr error
	writerDone, schedStopped := l.writerDone, schedDone
	for writerDone != nil || schedStopped != nil {
		select {
		case <-writerDone:
			writerDone = nil
		case <-schedStopped:
			schedStopped = nil
		case <-timer.C:
			// Forced interruption
			l.cancel()
			finalErr = fmtErrorf("%w after %v", ErrShutdownTimeout, effectiveTimeout)
			grace := time.NewTimer(forcedStopGrace)
			for writerDone != nil || schedStopped != nil {
				select {
				case <-writerDone:
					writerDone = nil
				case <-schedStopped:
					schedStopped = nil
				case <-grace.C:
					writerDone, schedStopped = nil, nil
				}
			}
			grace.Stop()
		}
	}

	l.cancel()
	l.state.Started.Store(false)
	l.stopClock()

	return finalErr
}

// stopClock releases the cached clock owned by the logger
func (l *Logger) stopClock() {
	if l.ownClock != nil {
		l.ownClock.stop()
	}
}

// Flush writes buffered records to the active file and syncs it, waiting for
// the writer to confirm or timeout to expire
func (l *Logger) Flush(timeout time.Duration) error {
	l.state.flushMutex.Lock()
	defer l.state.flushMutex.Unlock()

	if !l.state.Started.Load() || l.state.ShutdownCalled.Load() {
		return fmtErrorf("%w: logger not started or already shut down", ErrNotStarted)
	}

	confirmChan := make(chan error, 1)

	select {
	case l.state.flushRequestChan <- confirmChan:
	case <-time.After(timeout):
		return fmtErrorf("failed to send flush request to writer within %v", timeout)
	}

	select {
	case err := <-confirmChan:
		return err
	case <-time.After(timeout):
		return fmtErrorf("timeout waiting for flush confirmation (%v)", timeout)
	}
}

// Throttle reports whether an event identified by id may be logged now, allowing
// at most one per interval. Typical use is suppressing repeated identical errors.
func (l *Logger) Throttle(id string, interval time.Duration) bool {
	if interval <= 0 {
		return true
	}
	return l.throttle.Add(id, struct{}{}, interval) == nil
}

// DeleteLogFile removes one of this logger's files by base name. The active
// file is refused.
func (l *Logger) DeleteLogFile(name string) error {
	if !l.state.IsInitialized.Load() {
		return fmtErrorf("%w: logger not initialized", ErrNotStarted)
	}
	s := l.getSettings()

	info, ok := parseFileName(name, s.name, s.extension)
	if !ok || name != filepath.Base(name) {
		return fmtErrorf("'%s' is not a log file of this logger", name)
	}
	path := filepath.Join(s.directory, info.Name)
	if path == l.CurrentFile() {
		return fmtErrorf("%w: '%s'", ErrActiveFile, path)
	}

	if err := retryFileOperation(func() error { return l.fs.Remove(path) }, 3, minWaitTime); err != nil {
		if isNotExist(err) {
			return fmtErrorf("log file '%s' does not exist: %w", path, err)
		}
		return ioError("remove", path, err)
	}

	l.state.TotalDeletions.Add(1)
	l.emit(EventDeleted, path)
	return nil
}

// CompressNow runs one compression pass and returns the number of files compressed
func (l *Logger) CompressNow(ctx context.Context) (int, error) {
	if !l.state.IsInitialized.Load() {
		return 0, fmtErrorf("%w: logger not initialized", ErrNotStarted)
	}
	return l.compressPass(ctx)
}

// SweepNow runs one retention pass and returns the number of files deleted
func (l *Logger) SweepNow(ctx context.Context) (int, error) {
	if !l.state.IsInitialized.Load() {
		return 0, fmtErrorf("%w: logger not initialized", ErrNotStarted)
	}
	return l.sweepPass(ctx)
}

// ListLogFiles returns this logger's files currently in the directory
func (l *Logger) ListLogFiles() ([]FileInfo, error) {
	s := l.getSettings()
	files, err := listLogFiles(l.fs, s.directory, s.name, s.extension)
	if err != nil && errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	return files, err
}
