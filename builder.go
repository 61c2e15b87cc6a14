// FILE: lixenwraith/logfile/builder.go
package logfile

// Builder provides a fluent API for building a configured Logger.
// Errors are accumulated and returned by Build.
type Builder struct {
	cfg  *Config
	opts []Option
	err  error
}

// NewBuilder creates a new builder with default values.
func NewBuilder() *Builder {
	return &Builder{
		cfg: DefaultConfig(),
	}
}

// Build creates a new Logger with the accumulated configuration.
// The logger still has to be started.
func (b *Builder) Build() (*Logger, error) {
	if b.err != nil {
		return nil, b.err
	}

	logger := NewLogger(b.opts...)

	if err := logger.ApplyConfig(b.cfg); err != nil {
		return nil, err
	}

	return logger, nil
}

// Level sets the minimum record level.
func (b *Builder) Level(level int64) *Builder {
	b.cfg.Level = level
	return b
}

// LevelString sets the minimum record level from a name.
func (b *Builder) LevelString(level string) *Builder {
	if b.err != nil {
		return b
	}
	levelVal, err := Level(level)
	if err != nil {
		b.err = err
		return b
	}
	b.cfg.Level = levelVal
	return b
}

// Name sets the file name prefix.
func (b *Builder) Name(name string) *Builder {
	b.cfg.Name = name
	return b
}

// Directory sets the log directory.
func (b *Builder) Directory(dir string) *Builder {
	b.cfg.Directory = dir
	return b
}

// Extension sets the file extension, without dot.
func (b *Builder) Extension(ext string) *Builder {
	b.cfg.Extension = ext
	return b
}

// Format sets the output format.
func (b *Builder) Format(format string) *Builder {
	b.cfg.Format = format
	return b
}

// MaxSize sets the rotation threshold, e.g. "10MB".
func (b *Builder) MaxSize(size string) *Builder {
	b.cfg.MaxSize = size
	return b
}

func (b *Builder) Overwrite(overwrite bool) *Builder {
	b.cfg.Overwrite = overwrite
	return b
}

// RetentionDays sets the retention window; zero disables deletion.
func (b *Builder) RetentionDays(days int64) *Builder {
	b.cfg.RetentionDays = days
	return b
}

func (b *Builder) RetentionCheckHrs(hrs float64) *Builder {
	b.cfg.RetentionCheckHrs = hrs
	return b
}

func (b *Builder) RetentionOnStart(enable bool) *Builder {
	b.cfg.RetentionOnStart = enable
	return b
}

// Compression sets the compression period and archive format.
func (b *Builder) Compression(unit string, value int64, format string) *Builder {
	b.cfg.CompressionUnit = unit
	b.cfg.CompressionValue = value
	b.cfg.CompressionFormat = format
	return b
}

// QueueCapacity sets the ingestion queue capacity.
func (b *Builder) QueueCapacity(capacity int64) *Builder {
	b.cfg.QueueCapacity = capacity
	return b
}

func (b *Builder) BatchSize(size int64) *Builder {
	b.cfg.BatchSize = size
	return b
}

func (b *Builder) FlushIntervalMs(ms int64) *Builder {
	b.cfg.FlushIntervalMs = ms
	return b
}

// OverflowPolicy sets what happens to records arriving at a full queue.
func (b *Builder) OverflowPolicy(policy string) *Builder {
	b.cfg.OverflowPolicy = policy
	return b
}

func (b *Builder) ShutdownTimeoutMs(ms int64) *Builder {
	b.cfg.ShutdownTimeoutMs = ms
	return b
}

// HeartbeatLevel sets the heartbeat monitoring level.
func (b *Builder) HeartbeatLevel(level int64) *Builder {
	b.cfg.HeartbeatLevel = level
	return b
}

func (b *Builder) HeartbeatIntervalS(interval int64) *Builder {
	b.cfg.HeartbeatIntervalS = interval
	return b
}

// EnableConsole mirrors records to stdout or stderr.
func (b *Builder) EnableConsole(enable bool) *Builder {
	b.cfg.EnableConsole = enable
	return b
}

func (b *Builder) InternalErrorsToStderr(enable bool) *Builder {
	b.cfg.InternalErrorsToStderr = enable
	return b
}

// Override applies "key=value" strings on top of the values set so far.
func (b *Builder) Override(overrides ...string) *Builder {
	if b.err != nil {
		return b
	}
	b.err = applyOverrideStrings(b.cfg, overrides...)
	return b
}

// ErrorHandler sets the side channel for failures that cannot be returned.
func (b *Builder) ErrorHandler(h ErrorHandler) *Builder {
	b.opts = append(b.opts, WithErrorHandler(h))
	return b
}

// Clock replaces the wall clock, mainly for tests.
func (b *Builder) Clock(c Clock) *Builder {
	b.opts = append(b.opts, WithClock(c))
	return b
}

// FileSystem replaces the filesystem implementation.
func (b *Builder) FileSystem(fs FileSystem) *Builder {
	b.opts = append(b.opts, WithFileSystem(fs))
	return b
}

// Example usage:
// logger, err := logfile.NewBuilder().
//
//	Directory("/var/log/app").
//	Name("api").
//	MaxSize("50MB").
//	Compression(logfile.UnitDay, 1, logfile.CompressionZstd).
//	Build()
//
// if err == nil {
//
//	 _ = logger.Start()
//	 defer logger.Shutdown()
//	 logger.Info("Logger initialized successfully")
//
// }
