// FILE: example/gnet/main.go
package main

import (
	"fmt"
	"os"

	"github.com/panjf2000/gnet/v2"

	"github.com/lixenwraith/logfile"
	"github.com/lixenwraith/logfile/compat"
)

// Example gnet event handler
type echoServer struct {
	gnet.BuiltinEventEngine
	logger *logfile.Logger
}

func (es *echoServer) OnOpen(c gnet.Conn) ([]byte, gnet.Action) {
	es.logger.Log(logfile.LevelDebug, logfile.CategoryNetwork, "connection opened", nil, "remote", c.RemoteAddr().String())
	return nil, gnet.None
}

func (es *echoServer) OnTraffic(c gnet.Conn) gnet.Action {
	buf, _ := c.Next(-1)
	c.Write(buf)
	return gnet.None
}

func main() {
	logger, err := logfile.NewBuilder().
		Directory("./logs/gnet").
		Name("gnet").
		LevelString("debug").
		Format("json").
		MaxSize("50MB").
		Compression(logfile.UnitDay, 1, logfile.CompressionZstd).
		Build()
	if err != nil {
		panic(err)
	}
	if err := logger.Start(); err != nil {
		panic(err)
	}
	defer logger.Shutdown()

	logger.AddEventHandler(&logfile.EventHandlerFuncs{
		Rotated: func(e logfile.Event) { fmt.Fprintf(os.Stderr, "rotated %s\n", e.Path) },
	})

	gnetAdapter, err := compat.NewBuilder().WithLogger(logger).BuildGnet(
		compat.WithFatalHandler(func(msg string) {
			// Let the deferred Shutdown drain before exiting
			fmt.Fprintln(os.Stderr, "gnet fatal:", msg)
		}),
	)
	if err != nil {
		panic(err)
	}

	// Configure gnet server with the logger
	err = gnet.Run(
		&echoServer{logger: logger},
		"tcp://127.0.0.1:9000",
		gnet.WithMulticore(true),
		gnet.WithLogger(gnetAdapter),
		gnet.WithReusePort(true),
	)
	if err != nil {
		logger.Error("gnet stopped", err)
	}
}
