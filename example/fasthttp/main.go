// FILE: example/fasthttp/main.go
package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"go.uber.org/zap"

	"github.com/lixenwraith/logfile"
	"github.com/lixenwraith/logfile/compat"
	"github.com/lixenwraith/logfile/metrics"
)

func main() {
	// Create and configure logger
	logger := logfile.NewLogger()
	err := logger.ApplyOverride(
		"directory=./logs/fasthttp",
		"name=web",
		"level=0",
		"format=txt",
		"queue_capacity=2048",
		"retention_days=14",
	)
	if err != nil {
		panic(err)
	}
	if err := logger.Start(); err != nil {
		panic(err)
	}
	defer logger.Shutdown()

	builder := compat.NewBuilder().WithLogger(logger)

	// Create fasthttp adapter with custom level detection
	fasthttpAdapter, err := builder.BuildFastHTTP(
		compat.WithDefaultLevel(logfile.LevelInfo),
		compat.WithLevelDetector(customLevelDetector),
	)
	if err != nil {
		panic(err)
	}

	// Application code logs through zap into the same files
	appLog, err := builder.BuildZap(logfile.CategoryWeb, zap.AddCaller())
	if err != nil {
		panic(err)
	}
	defer appLog.Sync()

	reg := prometheus.NewRegistry()
	if _, err := metrics.Register(reg, logger, "web"); err != nil {
		panic(err)
	}
	metricsHandler := fasthttpadaptor.NewFastHTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	// Configure fasthttp server
	server := &fasthttp.Server{
		Handler: func(ctx *fasthttp.RequestCtx) {
			if string(ctx.Path()) == "/metrics" {
				metricsHandler(ctx)
				return
			}
			requestHandler(ctx, appLog)
		},
		Logger: fasthttpAdapter,

		// Other server settings
		Name:              "MyServer",
		Concurrency:       fasthttp.DefaultConcurrency,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		TCPKeepalive:      true,
		ReduceMemoryUsage: true,
	}

	// Start server
	fmt.Println("Starting server on :8080")
	if err := server.ListenAndServe(":8080"); err != nil {
		appLog.Error("server stopped", zap.Error(err))
	}
}

func requestHandler(ctx *fasthttp.RequestCtx, appLog *zap.Logger) {
	ctx.SetContentType("text/plain")
	fmt.Fprintf(ctx, "Hello, world! Path: %s\n", ctx.Path())
	appLog.Debug("request",
		zap.ByteString("path", ctx.Path()),
		zap.Duration("elapsed", time.Since(ctx.Time())),
	)
}

func customLevelDetector(msg string) int64 {
	// fasthttp connection-level messages
	if strings.Contains(msg, "connection cannot be served") {
		return logfile.LevelWarn
	}
	if strings.Contains(msg, "error when serving connection") {
		return logfile.LevelError
	}

	return compat.DetectLogLevel(msg)
}
