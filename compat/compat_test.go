package compat

import (
	"bufio"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lixenwraith/logfile"
)

// createTestCompatBuilder creates a standard setup for compatibility adapter tests
func createTestCompatBuilder(t *testing.T) (*Builder, *logfile.Logger, string) {
	t.Helper()
	tmpDir := t.TempDir()
	appLogger, err := logfile.NewBuilder().
		Directory(tmpDir).
		Name("compat").
		Format("json").
		LevelString("debug").
		FlushIntervalMs(10).
		Build()
	require.NoError(t, err)

	require.NoError(t, appLogger.Start())

	builder := NewBuilder().WithLogger(appLogger)
	return builder, appLogger, tmpDir
}

type jsonLine struct {
	Level    string         `json:"level"`
	Category string         `json:"category"`
	Message  string         `json:"message"`
	Fields   map[string]any `json:"fields"`
	Error    string         `json:"error"`
}

// readLogLines reads and decodes the active log file
func readLogLines(logger *logfile.Logger) ([]jsonLine, error) {
	if err := logger.Flush(time.Second); err != nil {
		return nil, err
	}

	f, err := os.Open(logger.CurrentFile())
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []jsonLine
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var line jsonLine
		if err := json.Unmarshal(scanner.Bytes(), &line); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, scanner.Err()
}

// waitForLines polls until n lines are persisted in dir
func waitForLines(t *testing.T, logger *logfile.Logger, dir string, n int) []jsonLine {
	t.Helper()
	require.Equal(t, dir, filepath.Dir(logger.CurrentFile()))

	var lines []jsonLine
	require.Eventually(t, func() bool {
		var err error
		lines, err = readLogLines(logger)
		return err == nil && len(lines) >= n
	}, 2*time.Second, 10*time.Millisecond)
	return lines
}

func TestCompatBuilder(t *testing.T) {
	t.Run("with existing logger", func(t *testing.T) {
		builder, logger, _ := createTestCompatBuilder(t)
		defer logger.Shutdown()

		gnetAdapter, err := builder.BuildGnet()
		require.NoError(t, err)
		assert.Equal(t, logger, gnetAdapter.logger)
	})

	t.Run("with config starts the logger", func(t *testing.T) {
		logCfg := logfile.DefaultConfig()
		logCfg.Directory = t.TempDir()

		builder := NewBuilder().WithConfig(logCfg)
		fasthttpAdapter, err := builder.BuildFastHTTP()
		require.NoError(t, err)
		assert.NotNil(t, fasthttpAdapter)

		logger, err := builder.GetLogger()
		require.NoError(t, err)
		defer logger.Shutdown()

		assert.NotEmpty(t, logger.CurrentFile())
		assert.Same(t, logger, fasthttpAdapter.logger)
	})

	t.Run("nil logger", func(t *testing.T) {
		_, err := NewBuilder().WithLogger(nil).BuildGnet()
		assert.Error(t, err)
	})
}

func TestGnetAdapter(t *testing.T) {
	builder, logger, tmpDir := createTestCompatBuilder(t)
	defer logger.Shutdown()

	var fatalMsg string
	adapter, err := builder.BuildGnet(WithFatalHandler(func(msg string) {
		fatalMsg = msg
	}))
	require.NoError(t, err)

	adapter.Debugf("gnet debug id=%d", 1)
	adapter.Infof("gnet info id=%d", 2)
	adapter.Warnf("gnet warn id=%d", 3)
	adapter.Errorf("gnet error id=%d", 4)
	adapter.Fatalf("gnet fatal id=%d", 5)

	lines := waitForLines(t, logger, tmpDir, 5)

	expected := []struct{ level, msg string }{
		{"DEBUG", "gnet debug id=1"},
		{"INFO", "gnet info id=2"},
		{"WARN", "gnet warn id=3"},
		{"ERROR", "gnet error id=4"},
		{"ERROR", "gnet fatal id=5"},
	}
	for i, exp := range expected {
		assert.Equal(t, exp.level, lines[i].Level)
		assert.Equal(t, exp.msg, lines[i].Message)
		assert.Equal(t, logfile.CategoryNetwork, lines[i].Category)
		assert.Equal(t, "gnet", lines[i].Fields["source"])
	}
	assert.Equal(t, true, lines[4].Fields["fatal"])
	assert.Equal(t, "gnet fatal id=5", fatalMsg)
}

func TestFastHTTPAdapter(t *testing.T) {
	builder, logger, tmpDir := createTestCompatBuilder(t)
	defer logger.Shutdown()

	adapter, err := builder.BuildFastHTTP()
	require.NoError(t, err)

	adapter.Printf("request served in %dms", 3)
	adapter.Printf("connection failed: %s", "reset")
	adapter.Printf("deprecated header %q", "X-Old")
	adapter.Printf("debug: parsing body")

	lines := waitForLines(t, logger, tmpDir, 4)

	assert.Equal(t, []string{"INFO", "ERROR", "WARN", "DEBUG"},
		[]string{lines[0].Level, lines[1].Level, lines[2].Level, lines[3].Level})
	for _, line := range lines[:4] {
		assert.Equal(t, logfile.CategoryWeb, line.Category)
		assert.Equal(t, "fasthttp", line.Fields["source"])
	}
}

func TestFastHTTPAdapterOptions(t *testing.T) {
	builder, logger, tmpDir := createTestCompatBuilder(t)
	defer logger.Shutdown()

	adapter, err := builder.BuildFastHTTP(
		WithDefaultLevel(logfile.LevelWarn),
		WithLevelDetector(nil),
	)
	require.NoError(t, err)

	adapter.Printf("fatal looking message")

	lines := waitForLines(t, logger, tmpDir, 1)
	assert.Equal(t, "WARN", lines[0].Level)
}

func TestDetectLogLevel(t *testing.T) {
	tests := []struct {
		msg  string
		want int64
	}{
		{"server started", logfile.LevelInfo},
		{"Error reading body", logfile.LevelError},
		{"panic recovered", logfile.LevelError},
		{"WARNING: slow", logfile.LevelWarn},
		{"trace id 42", logfile.LevelDebug},
	}
	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectLogLevel(tt.msg))
		})
	}
}

func TestZapCore(t *testing.T) {
	builder, logger, tmpDir := createTestCompatBuilder(t)
	defer logger.Shutdown()

	zl, err := builder.BuildZap(logfile.CategoryDB)
	require.NoError(t, err)

	zl.With(zap.String("pool", "main")).Info("connected", zap.Int("conns", 4))
	zl.Named("MIGRATE").Warn("slow migration", zap.Duration("took", 2*time.Second))
	zl.Error("query failed", zap.Error(errors.New("deadlock")))
	require.NoError(t, zl.Sync())

	lines := waitForLines(t, logger, tmpDir, 3)

	assert.Equal(t, "INFO", lines[0].Level)
	assert.Equal(t, logfile.CategoryDB, lines[0].Category)
	assert.Equal(t, "connected", lines[0].Message)
	assert.Equal(t, "main", lines[0].Fields["pool"])
	assert.EqualValues(t, 4, lines[0].Fields["conns"])

	assert.Equal(t, "WARN", lines[1].Level)
	assert.Equal(t, "MIGRATE", lines[1].Category)

	assert.Equal(t, "ERROR", lines[2].Level)
	assert.Equal(t, "deadlock", lines[2].Error)
}

func TestZapCoreLevelFiltering(t *testing.T) {
	logger, err := logfile.NewBuilder().Directory(t.TempDir()).Level(logfile.LevelWarn).Build()
	require.NoError(t, err)

	core := NewZapCore(logger, "")
	assert.False(t, core.Enabled(zap.InfoLevel))
	assert.True(t, core.Enabled(zap.WarnLevel))
	assert.True(t, core.Enabled(zap.DPanicLevel))

	// Not started: Sync has nothing to flush
	assert.NoError(t, core.Sync())
	require.NoError(t, logger.Shutdown())
}
