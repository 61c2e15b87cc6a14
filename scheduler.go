// FILE: lixenwraith/logfile/scheduler.go
package logfile

import (
	"context"

	"github.com/robfig/cron/v3"
)

// scheduler runs compression and retention on independent cron instances
type scheduler struct {
	l           *Logger
	compression *cron.Cron
	retention   *cron.Cron
}

// cronLogger routes cron diagnostics to the error side channel
type cronLogger struct {
	l    *Logger
	name string
}

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	// Skipped runs are expected when a pass outlasts its period
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.l.reportError(c.name, fmtErrorf("%s %v: %w", msg, keysAndValues, err))
}

func newScheduler(l *Logger) *scheduler {
	return &scheduler{l: l}
}

func newCron(l *Logger, name string) *cron.Cron {
	logger := cronLogger{l: l, name: name}
	return cron.New(cron.WithChain(
		cron.Recover(logger),
		cron.SkipIfStillRunning(logger),
	))
}

// start registers the enabled jobs and starts their crons
func (s *scheduler) start(set *settings) {
	if set.compressionFormat != CompressionNone {
		s.compression = newCron(s.l, "compress")
		s.compression.Schedule(cron.Every(set.compressionPeriod), cron.FuncJob(s.runCompression))
		s.compression.Start()
	}

	if set.retentionDays > 0 {
		s.retention = newCron(s.l, "retention")
		s.retention.Schedule(cron.Every(set.retentionInterval), cron.FuncJob(s.runRetention))
		s.retention.Start()
	}
}

func (s *scheduler) runCompression() {
	if _, err := s.l.compressPass(s.l.ctx); err != nil && s.l.ctx.Err() == nil {
		s.l.reportError("compress", err)
	}
}

func (s *scheduler) runRetention() {
	if _, err := s.l.sweepPass(s.l.ctx); err != nil && s.l.ctx.Err() == nil {
		s.l.reportError("retention", err)
	}
}

// stop prevents further runs and returns a channel closed once running jobs finished
func (s *scheduler) stop() <-chan struct{} {
	done := make(chan struct{})

	var waits []context.Context
	for _, c := range []*cron.Cron{s.compression, s.retention} {
		if c != nil {
			waits = append(waits, c.Stop())
		}
	}

	go func() {
		defer close(done)
		for _, ctx := range waits {
			<-ctx.Done()
		}
	}()
	return done
}
