// FILE: lixenwraith/logfile/compat/fasthttp.go
package compat

import (
	"fmt"
	"strings"

	"github.com/valyala/fasthttp"

	"github.com/lixenwraith/logfile"
)

var _ fasthttp.Logger = (*FastHTTPAdapter)(nil)

// FastHTTPAdapter routes fasthttp server logs into a logfile.Logger under the WEB category
type FastHTTPAdapter struct {
	logger        *logfile.Logger
	defaultLevel  int64
	levelDetector func(string) int64 // Detects level from message content; 0 keeps the default
}

// NewFastHTTPAdapter creates a new fasthttp-compatible logger adapter
func NewFastHTTPAdapter(logger *logfile.Logger, opts ...FastHTTPOption) *FastHTTPAdapter {
	adapter := &FastHTTPAdapter{
		logger:        logger,
		defaultLevel:  logfile.LevelInfo,
		levelDetector: DetectLogLevel,
	}

	for _, opt := range opts {
		opt(adapter)
	}

	return adapter
}

// FastHTTPOption allows customizing adapter behavior
type FastHTTPOption func(*FastHTTPAdapter)

// WithDefaultLevel sets the level used when detection finds nothing
func WithDefaultLevel(level int64) FastHTTPOption {
	return func(a *FastHTTPAdapter) {
		a.defaultLevel = level
	}
}

// WithLevelDetector replaces the content-based level detector; nil disables detection
func WithLevelDetector(detector func(string) int64) FastHTTPOption {
	return func(a *FastHTTPAdapter) {
		a.levelDetector = detector
	}
}

// Printf implements fasthttp.Logger
func (a *FastHTTPAdapter) Printf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)

	level := a.defaultLevel
	if a.levelDetector != nil {
		if detected := a.levelDetector(msg); detected != 0 {
			level = detected
		}
	}

	if !a.logger.Enabled(level) {
		return
	}
	a.logger.Log(level, logfile.CategoryWeb, msg, nil, "source", "fasthttp")
}

// DetectLogLevel guesses a level from keywords in msg. It returns 0 (info) when nothing matches.
func DetectLogLevel(msg string) int64 {
	msgLower := strings.ToLower(msg)

	switch {
	case strings.Contains(msgLower, "error"),
		strings.Contains(msgLower, "failed"),
		strings.Contains(msgLower, "fatal"),
		strings.Contains(msgLower, "panic"):
		return logfile.LevelError
	case strings.Contains(msgLower, "warn"),
		strings.Contains(msgLower, "deprecated"):
		return logfile.LevelWarn
	case strings.Contains(msgLower, "debug"),
		strings.Contains(msgLower, "trace"):
		return logfile.LevelDebug
	default:
		return logfile.LevelInfo
	}
}
