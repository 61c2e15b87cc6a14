// FILE: lixenwraith/logfile/cmd/logfile/stress.go
package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/lixenwraith/logfile"
	"github.com/lixenwraith/logfile/metrics"
)

type stressOptions struct {
	workers         int
	bursts          int
	recordsPerBurst int
	maxMessageSize  int
	metricsAddr     string
	shutdown        time.Duration
}

var levels = []int64{
	logfile.LevelDebug,
	logfile.LevelInfo,
	logfile.LevelWarn,
	logfile.LevelError,
}

func newStressCommand(flags *globalFlags) *cobra.Command {
	opts := &stressOptions{}

	cmd := &cobra.Command{
		Use:   "stress",
		Short: "Write bursts of random records from many goroutines",
		Long: "Generates load against the configured logger to exercise rotation, overflow\n" +
			"handling and the background schedules. Use --set max_size=1MB for frequent rotation.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStress(cmd, flags, opts)
		},
	}

	f := cmd.Flags()
	f.IntVarP(&opts.workers, "workers", "w", 100, "concurrent writers")
	f.IntVarP(&opts.bursts, "bursts", "b", 100, "number of bursts")
	f.IntVar(&opts.recordsPerBurst, "records", 500, "records per burst")
	f.IntVar(&opts.maxMessageSize, "max-message", 1000, "maximum message size in bytes")
	f.StringVar(&opts.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while running")
	f.DurationVar(&opts.shutdown, "shutdown-timeout", 10*time.Second, "maximum time to drain on exit")

	return cmd
}

func generateRandomMessage(rng *rand.Rand, size int) string {
	const chars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789 "
	var sb strings.Builder
	sb.Grow(size)
	for i := 0; i < size; i++ {
		sb.WriteByte(chars[rng.Intn(len(chars))])
	}
	return sb.String()
}

// logBurst writes one burst of records at random levels
func logBurst(logger *logfile.Logger, rng *rand.Rand, burstID int, opts *stressOptions) {
	for i := 0; i < opts.recordsPerBurst; i++ {
		level := levels[rng.Intn(len(levels))]
		msg := generateRandomMessage(rng, rng.Intn(opts.maxMessageSize)+10)
		logger.Log(level, logfile.CategoryPerformance, msg, nil,
			"bst", burstID,
			"seq", i,
			"rnd", rng.Int63(),
		)
	}
}

func runStress(cmd *cobra.Command, flags *globalFlags, opts *stressOptions) error {
	logger, err := flags.newLogger()
	if err != nil {
		return err
	}

	var rotations atomic.Int64
	logger.AddEventHandler(&logfile.EventHandlerFuncs{
		Rotated: func(logfile.Event) { rotations.Add(1) },
	})

	if err := logger.Start(); err != nil {
		return err
	}

	if opts.metricsAddr != "" {
		reg := prometheus.NewRegistry()
		if _, err := metrics.Register(reg, logger, logger.GetConfig().Name); err != nil {
			return err
		}
		srv := &http.Server{
			Addr:              opts.metricsAddr,
			Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				fmt.Fprintf(os.Stderr, "metrics server: %v\n", err)
			}
		}()
		defer srv.Shutdown(context.Background())
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Writing to %s\n", logger.CurrentFile())
	fmt.Fprintf(out, "Starting: %d workers, %d bursts, %d records/burst\n",
		opts.workers, opts.bursts, opts.recordsPerBurst)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	burstChan := make(chan int, opts.workers)
	var wg sync.WaitGroup
	var completed atomic.Int64

	for i := 0; i < opts.workers; i++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			for burstID := range burstChan {
				logBurst(logger, rng, burstID, opts)
				if n := completed.Add(1); n%10 == 0 || int(n) == opts.bursts {
					fmt.Fprintf(out, "\rProgress: %d/%d bursts", n, opts.bursts)
				}
			}
		}(time.Now().UnixNano() + int64(i))
	}

	startTime := time.Now()
submit:
	for i := 1; i <= opts.bursts; i++ {
		select {
		case burstChan <- i:
		case <-ctx.Done():
			fmt.Fprintln(out, "\nInterrupted, halting burst submission")
			break submit
		}
	}
	close(burstChan)
	wg.Wait()
	duration := time.Since(startTime)

	fmt.Fprintf(out, "\nCompleted %d/%d bursts in %v\n", completed.Load(), opts.bursts, duration.Round(time.Millisecond))
	if secs := duration.Seconds(); secs > 0 {
		fmt.Fprintf(out, "Approximate records/sec: %.0f\n", float64(completed.Load()*int64(opts.recordsPerBurst))/secs)
	}

	shutdownErr := logger.Shutdown(opts.shutdown)

	s := logger.Stats()
	fmt.Fprintf(out, "Written: %d  Dropped: %d  Rotations: %d  Compressions: %d  Deletions: %d  Write errors: %d\n",
		s.Processed, s.Dropped, rotations.Load(), s.Compressions, s.Deletions, s.WriteErrors)

	return shutdownErr
}
