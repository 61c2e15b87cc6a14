// FILE: lixenwraith/logfile/compat/builder.go
package compat

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/lixenwraith/logfile"
)

// Builder creates gnet, fasthttp and zap adapters sharing one logger.
// It uses an existing *logfile.Logger or creates and starts one from a *logfile.Config.
type Builder struct {
	logger *logfile.Logger
	logCfg *logfile.Config
	err    error
}

// NewBuilder creates a new adapter builder
func NewBuilder() *Builder {
	return &Builder{}
}

// WithLogger specifies an existing logger; WithConfig is then ignored
func (b *Builder) WithLogger(l *logfile.Logger) *Builder {
	if l == nil {
		b.err = fmt.Errorf("logfile/compat: provided logger cannot be nil")
		return b
	}
	b.logger = l
	return b
}

// WithConfig provides a configuration for a new logger instance
func (b *Builder) WithConfig(cfg *logfile.Config) *Builder {
	b.logCfg = cfg
	return b
}

// getLogger resolves the logger to be used, creating and starting one if necessary
func (b *Builder) getLogger() (*logfile.Logger, error) {
	if b.err != nil {
		return nil, b.err
	}

	if b.logger != nil {
		return b.logger, nil
	}

	l := logfile.NewLogger()
	cfg := b.logCfg
	if cfg == nil {
		cfg = logfile.DefaultConfig()
	}

	if err := l.ApplyConfig(cfg); err != nil {
		return nil, err
	}
	if err := l.Start(); err != nil {
		return nil, err
	}

	// Subsequent builds share this logger
	b.logger = l
	return l, nil
}

// BuildGnet creates a gnet adapter
func (b *Builder) BuildGnet(opts ...GnetOption) (*GnetAdapter, error) {
	l, err := b.getLogger()
	if err != nil {
		return nil, err
	}
	return NewGnetAdapter(l, opts...), nil
}

// BuildFastHTTP creates a fasthttp adapter
func (b *Builder) BuildFastHTTP(opts ...FastHTTPOption) (*FastHTTPAdapter, error) {
	l, err := b.getLogger()
	if err != nil {
		return nil, err
	}
	return NewFastHTTPAdapter(l, opts...), nil
}

// BuildZap creates a *zap.Logger backed by a ZapCore
func (b *Builder) BuildZap(category string, opts ...zap.Option) (*zap.Logger, error) {
	l, err := b.getLogger()
	if err != nil {
		return nil, err
	}
	return zap.New(NewZapCore(l, category), opts...), nil
}

// GetLogger returns the underlying logger, creating it if needed
func (b *Builder) GetLogger() (*logfile.Logger, error) {
	return b.getLogger()
}

// --- Example Usage ---
//
//	appLogger, err := logfile.NewBuilder().
//		Directory("/var/log/app").
//		LevelString("debug").
//		Build()
//	if err != nil { /* handle error */ }
//	_ = appLogger.Start()
//	defer appLogger.Shutdown()
//
//	builder := compat.NewBuilder().WithLogger(appLogger)
//
//	gnetLogger, _ := builder.BuildGnet()
//	go gnet.Run(events, "tcp://:9000", gnet.WithLogger(gnetLogger))
//
//	fasthttpLogger, _ := builder.BuildFastHTTP()
//	server := &fasthttp.Server{Handler: handler, Logger: fasthttpLogger}
//
//	zapLogger, _ := builder.BuildZap(logfile.CategoryDB, zap.AddCaller())
//	zapLogger.Info("connected", zap.String("dsn", "postgres://..."))
