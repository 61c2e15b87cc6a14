// FILE: lixenwraith/logfile/compat/zap.go
package compat

import (
	"errors"
	"sort"
	"time"

	"go.uber.org/zap/zapcore"

	"github.com/lixenwraith/logfile"
)

var _ zapcore.Core = (*ZapCore)(nil)

// ZapCore is a zapcore.Core that persists zap entries through a logfile.Logger.
// Logger name becomes the record category, the caller function the origin.
type ZapCore struct {
	logger   *logfile.Logger
	category string
	fields   []zapcore.Field
}

// NewZapCore creates a core writing under category; empty means GENERAL
func NewZapCore(logger *logfile.Logger, category string) *ZapCore {
	if category == "" {
		category = logfile.CategoryGeneral
	}
	return &ZapCore{logger: logger, category: category}
}

// ZapLevel maps a zap level onto the logfile level scale
func ZapLevel(level zapcore.Level) int64 {
	switch {
	case level <= zapcore.DebugLevel:
		return logfile.LevelDebug
	case level == zapcore.InfoLevel:
		return logfile.LevelInfo
	case level == zapcore.WarnLevel:
		return logfile.LevelWarn
	default:
		return logfile.LevelError
	}
}

func (c *ZapCore) Enabled(level zapcore.Level) bool {
	return c.logger.Enabled(ZapLevel(level))
}

func (c *ZapCore) With(fields []zapcore.Field) zapcore.Core {
	clone := *c
	clone.fields = make([]zapcore.Field, 0, len(c.fields)+len(fields))
	clone.fields = append(clone.fields, c.fields...)
	clone.fields = append(clone.fields, fields...)
	return &clone
}

func (c *ZapCore) Check(entry zapcore.Entry, checked *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(entry.Level) {
		return checked.AddCore(entry, c)
	}
	return checked
}

func (c *ZapCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	enc := zapcore.NewMapObjectEncoder()
	for _, f := range c.fields {
		f.AddTo(enc)
	}
	for _, f := range fields {
		f.AddTo(enc)
	}

	var recErr error
	if msg, ok := enc.Fields["error"].(string); ok {
		recErr = errors.New(msg)
		delete(enc.Fields, "error")
	}

	keys := make([]string, 0, len(enc.Fields))
	for k := range enc.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	kv := make([]any, 0, 2*len(keys)+2)
	for _, k := range keys {
		kv = append(kv, k, enc.Fields[k])
	}
	if entry.Stack != "" {
		kv = append(kv, "stack", entry.Stack)
	}

	category := c.category
	if entry.LoggerName != "" {
		category = entry.LoggerName
	}
	origin := "zap"
	if entry.Caller.Defined && entry.Caller.Function != "" {
		origin = entry.Caller.Function
	}

	c.logger.Write(logfile.Record{
		Time:     entry.Time,
		Level:    ZapLevel(entry.Level),
		Category: category,
		Message:  entry.Message,
		Err:      recErr,
		Origin:   origin,
		Fields:   kv,
	})
	return nil
}

// Sync flushes the logger; a logger that is not running has nothing to sync
func (c *ZapCore) Sync() error {
	if err := c.logger.Flush(time.Second); err != nil && !errors.Is(err, logfile.ErrNotStarted) {
		return err
	}
	return nil
}
