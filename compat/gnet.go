// FILE: lixenwraith/logfile/compat/gnet.go
package compat

import (
	"fmt"
	"os"
	"time"

	"github.com/panjf2000/gnet/v2/pkg/logging"

	"github.com/lixenwraith/logfile"
)

var _ logging.Logger = (*GnetAdapter)(nil)

// GnetAdapter routes gnet engine logs into a logfile.Logger under the NETWORK category
type GnetAdapter struct {
	logger       *logfile.Logger
	fatalHandler func(msg string) // Customizable fatal behavior
}

// NewGnetAdapter creates a new gnet-compatible logger adapter
func NewGnetAdapter(logger *logfile.Logger, opts ...GnetOption) *GnetAdapter {
	adapter := &GnetAdapter{
		logger: logger,
		fatalHandler: func(msg string) {
			os.Exit(1) // Matches gnet expectations
		},
	}

	for _, opt := range opts {
		opt(adapter)
	}

	return adapter
}

// GnetOption allows customizing adapter behavior
type GnetOption func(*GnetAdapter)

// WithFatalHandler sets a custom fatal handler
func WithFatalHandler(handler func(string)) GnetOption {
	return func(a *GnetAdapter) {
		a.fatalHandler = handler
	}
}

func (a *GnetAdapter) Debugf(format string, args ...any) {
	a.logf(logfile.LevelDebug, format, args)
}

func (a *GnetAdapter) Infof(format string, args ...any) {
	a.logf(logfile.LevelInfo, format, args)
}

func (a *GnetAdapter) Warnf(format string, args ...any) {
	a.logf(logfile.LevelWarn, format, args)
}

func (a *GnetAdapter) Errorf(format string, args ...any) {
	a.logf(logfile.LevelError, format, args)
}

// Fatalf logs at error level, flushes, and triggers the fatal handler
func (a *GnetAdapter) Fatalf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	a.logger.Log(logfile.LevelError, logfile.CategoryNetwork, msg, nil, "source", "gnet", "fatal", true)

	_ = a.logger.Flush(100 * time.Millisecond)

	if a.fatalHandler != nil {
		a.fatalHandler(msg)
	}
}

func (a *GnetAdapter) logf(level int64, format string, args []any) {
	if !a.logger.Enabled(level) {
		return
	}
	a.logger.Log(level, logfile.CategoryNetwork, fmt.Sprintf(format, args...), nil, "source", "gnet")
}
