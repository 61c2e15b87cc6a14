// FILE: lixenwraith/logfile/processor_test.go
package logfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rotationConfig renders each record as exactly 30 bytes against a 100-byte limit
func rotationConfig(t *testing.T) *Config {
	t.Helper()
	cfg := testConfig(t)
	cfg.ShowTimestamp = false
	cfg.ShowLevel = false
	cfg.MaxSize = "100"
	cfg.CompressionFormat = CompressionNone
	return cfg
}

// record30 serializes to "(x) " + 25 characters + "\n"
func record30(i int) Record {
	return Record{Origin: "x", Message: fmt.Sprintf("%s%d", strings.Repeat("a", 24), i%10)}
}

func dayFile(dir string, day time.Time, seq int) string {
	return filepath.Join(dir, formatFileName("app", day, seq, "log"))
}

// TestSizeRotation checks that the record crossing the threshold stays in the
// old file and the next record opens a fresh one
func TestSizeRotation(t *testing.T) {
	clock := newFakeClock(testDay)
	cfg := rotationConfig(t)
	logger := newTestLogger(t, cfg, WithClock(clock))
	events := &eventRecorder{}
	logger.AddEventHandler(events)

	for i := 0; i < 4; i++ {
		logger.Write(record30(i))
	}
	require.NoError(t, logger.Flush(time.Second))

	first := dayFile(cfg.Directory, testDay, 1)
	second := dayFile(cfg.Directory, testDay, 2)
	assert.Equal(t, second, logger.CurrentFile())
	assert.Zero(t, logger.Stats().CurrentSize)

	logger.Write(record30(4))
	require.NoError(t, logger.Flush(time.Second))

	info, err := os.Stat(first)
	require.NoError(t, err)
	assert.Equal(t, int64(120), info.Size())
	assert.Len(t, readLines(t, first), 4)

	info, err = os.Stat(second)
	require.NoError(t, err)
	assert.Equal(t, int64(30), info.Size())
	assert.Len(t, readLines(t, second), 1)

	assert.Equal(t, []Event{{Kind: EventRotated, Path: first, Time: testDay}}, events.all())
	assert.Equal(t, uint64(1), logger.Stats().Rotations)
}

// TestOneRotationPerCrossing checks rotation counts against the number of threshold crossings
func TestOneRotationPerCrossing(t *testing.T) {
	clock := newFakeClock(testDay)
	cfg := rotationConfig(t)
	logger := newTestLogger(t, cfg, WithClock(clock))

	for i := 0; i < 20; i++ {
		logger.Write(record30(i))
	}
	require.NoError(t, logger.Shutdown())

	// Every fourth record crosses 100 bytes
	assert.Equal(t, uint64(5), logger.Stats().Rotations)
	for seq := 1; seq <= 5; seq++ {
		assert.Len(t, readLines(t, dayFile(cfg.Directory, testDay, seq)), 4, "seq %d", seq)
	}
	// Opened by the last rotation and left empty
	info, err := os.Stat(dayFile(cfg.Directory, testDay, 6))
	require.NoError(t, err)
	assert.Zero(t, info.Size())
}

func TestEvaluateRotation(t *testing.T) {
	day1 := testDay
	day2 := testDay.AddDate(0, 0, 1)

	tests := []struct {
		name string
		file *activeFile
		now  time.Time
		want RotationTrigger
	}{
		{"no file", nil, day1, TriggerNone},
		{"below limit", &activeFile{date: dateOf(day1), size: 99}, day1, TriggerNone},
		{"at limit", &activeFile{date: dateOf(day1), size: 100}, day1, TriggerSizeExceeded},
		{"new day", &activeFile{date: dateOf(day1), size: 1}, day2, TriggerDateChanged},
		{"date wins over size", &activeFile{date: dateOf(day1), size: 500}, day2, TriggerDateChanged},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, evaluateRotation(tt.file, 100, tt.now))
		})
	}
	assert.Equal(t, "date", TriggerDateChanged.String())
}

// TestDateRotation checks that a day change restarts the sequence, skipping archived numbers
func TestDateRotation(t *testing.T) {
	day1 := time.Date(2025, time.March, 10, 23, 59, 0, 0, time.Local)
	day2 := day1.Add(2 * time.Minute)

	clock := newFakeClock(day1)
	cfg := rotationConfig(t)
	require.NoError(t, os.WriteFile(dayFile(cfg.Directory, day2, 1)+".gz", []byte("archived"), 0644))

	logger := newTestLogger(t, cfg, WithClock(clock))
	events := &eventRecorder{}
	logger.AddEventHandler(events)

	for i := 0; i < 6; i++ {
		logger.Write(record30(i))
	}
	require.NoError(t, logger.Flush(time.Second))
	require.Equal(t, dayFile(cfg.Directory, day1, 2), logger.CurrentFile())

	clock.Set(day2)
	logger.Write(Record{Time: day2, Origin: "x", Message: "after midnight"})
	require.NoError(t, logger.Flush(time.Second))

	expected := dayFile(cfg.Directory, day2, 2)
	assert.Equal(t, expected, logger.CurrentFile())
	assert.Equal(t, []string{"(x) after midnight"}, readLines(t, expected))
	assert.Len(t, readLines(t, dayFile(cfg.Directory, day1, 2)), 2)

	rotated := events.paths(EventRotated)
	assert.Equal(t, []string{dayFile(cfg.Directory, day1, 1), dayFile(cfg.Directory, day1, 2)}, rotated)
}

// TestDateRotationWhileIdle checks the flush tick rotates without new records
func TestDateRotationWhileIdle(t *testing.T) {
	clock := newFakeClock(testDay)
	cfg := rotationConfig(t)
	logger := newTestLogger(t, cfg, WithClock(clock))

	next := testDay.AddDate(0, 0, 1)
	clock.Set(next)

	expected := dayFile(cfg.Directory, next, 1)
	assert.Eventually(t, func() bool {
		return logger.CurrentFile() == expected
	}, 2*time.Second, 10*time.Millisecond)
}

func TestResumeOnStart(t *testing.T) {
	t.Run("highest uncompressed sequence", func(t *testing.T) {
		cfg := rotationConfig(t)
		require.NoError(t, os.WriteFile(dayFile(cfg.Directory, testDay, 1), []byte("(x) one\n"), 0644))
		require.NoError(t, os.WriteFile(dayFile(cfg.Directory, testDay, 2), []byte("(x) two\n"), 0644))

		logger := newTestLogger(t, cfg, WithClock(newFakeClock(testDay)))
		logger.Write(Record{Origin: "x", Message: "three"})
		require.NoError(t, logger.Shutdown())

		assert.Equal(t, []string{"(x) two", "(x) three"}, readLines(t, dayFile(cfg.Directory, testDay, 2)))
	})

	t.Run("compressed highest moves on", func(t *testing.T) {
		cfg := rotationConfig(t)
		require.NoError(t, os.WriteFile(dayFile(cfg.Directory, testDay, 1)+".zst", nil, 0644))

		logger := newTestLogger(t, cfg, WithClock(newFakeClock(testDay)))
		assert.Equal(t, dayFile(cfg.Directory, testDay, 2), logger.CurrentFile())
	})

	t.Run("oversized file rotates before the first append", func(t *testing.T) {
		cfg := rotationConfig(t)
		require.NoError(t, os.WriteFile(dayFile(cfg.Directory, testDay, 1), []byte(strings.Repeat("z", 150)), 0644))

		logger := newTestLogger(t, cfg, WithClock(newFakeClock(testDay)))
		logger.Write(record30(0))
		require.NoError(t, logger.Flush(time.Second))

		assert.Equal(t, dayFile(cfg.Directory, testDay, 2), logger.CurrentFile())
		assert.Len(t, readLines(t, dayFile(cfg.Directory, testDay, 2)), 1)
	})

	t.Run("overwrite truncates", func(t *testing.T) {
		cfg := rotationConfig(t)
		cfg.Overwrite = true
		require.NoError(t, os.WriteFile(dayFile(cfg.Directory, testDay, 1), []byte("(x) stale\n"), 0644))

		logger := newTestLogger(t, cfg, WithClock(newFakeClock(testDay)))
		logger.Write(Record{Origin: "x", Message: "fresh"})
		require.NoError(t, logger.Shutdown())

		assert.Equal(t, []string{"(x) fresh"}, readLines(t, dayFile(cfg.Directory, testDay, 1)))
	})
}

// TestLoggerHeartbeat verifies that heartbeat records are written with their statistics
func TestLoggerHeartbeat(t *testing.T) {
	cfg := testConfig(t)
	cfg.Format = "json"
	cfg.HeartbeatLevel = 2
	cfg.HeartbeatIntervalS = 3600
	logger := newTestLogger(t, cfg)

	// The first heartbeat is written when the writer starts
	require.NoError(t, logger.Flush(time.Second))
	lines := readLines(t, logger.CurrentFile())
	require.Len(t, lines, 2)

	var proc, disk struct {
		Level    string         `json:"level"`
		Category string         `json:"category"`
		Message  string         `json:"message"`
		Fields   map[string]any `json:"fields"`
	}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &proc))
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &disk))

	assert.Equal(t, "PROC", proc.Level)
	assert.Equal(t, CategoryPerformance, proc.Category)
	assert.Equal(t, "heartbeat", proc.Message)
	assert.Equal(t, "proc", proc.Fields["type"])
	assert.Contains(t, proc.Fields, "uptime_hours")
	assert.Contains(t, proc.Fields, "processed_logs")
	assert.Contains(t, proc.Fields, "num_goroutine")

	assert.Equal(t, "DISK", disk.Level)
	assert.Equal(t, "disk", disk.Fields["type"])
	assert.EqualValues(t, 1, disk.Fields["log_file_count"])
	assert.EqualValues(t, 0, disk.Fields["archive_count"])

	// Heartbeats are not counted as processed records
	assert.Zero(t, logger.Stats().Processed)
}

// failingFS refuses to open log files
type failingFS struct {
	OSFileSystem
}

var errDiskGone = errors.New("disk gone")

func (failingFS) OpenFile(name string, flag int, perm os.FileMode) (*os.File, error) {
	return nil, errDiskGone
}

// TestWriteFailureDropsRecords checks that records which cannot be written are counted, not retried
func TestWriteFailureDropsRecords(t *testing.T) {
	rec := &errorRecorder{}
	cfg := testConfig(t)
	logger := newTestLogger(t, cfg, WithFileSystem(failingFS{}), WithErrorHandler(rec.handle))

	assert.Empty(t, logger.CurrentFile())
	require.NotEmpty(t, rec.get("open"))
	assert.ErrorIs(t, rec.get("open")[0], ErrTransientIO)
	assert.ErrorIs(t, rec.get("open")[0], errDiskGone)

	for i := 0; i < 3; i++ {
		logger.Info("lost", "i", i)
	}
	require.NoError(t, logger.Flush(time.Second))

	stats := logger.Stats()
	assert.Zero(t, stats.Processed)
	assert.GreaterOrEqual(t, stats.Dropped, uint64(3))
	assert.GreaterOrEqual(t, stats.WriteErrors, uint64(1))
	require.NotEmpty(t, rec.get("write"))
	assert.ErrorIs(t, rec.get("write")[0], ErrTransientIO)
}

func TestConsoleMirror(t *testing.T) {
	cfg := testConfig(t)
	cfg.EnableConsole = true
	cfg.ConsoleTarget = "stderr"
	logger := NewLogger()
	require.NoError(t, logger.ApplyConfig(cfg))
	defer logger.Shutdown()

	s, ok := logger.state.ConsoleWriter.Load().(*sink)
	require.True(t, ok)
	assert.Equal(t, os.Stderr, s.w)
}

// panicStringer fails while being formatted
type panicStringer struct{}

func (panicStringer) String() string { panic("boom") }

// TestUnformattableRecordIsDropped checks that a value failing to render costs
// only its own record and the writer keeps going
func TestUnformattableRecordIsDropped(t *testing.T) {
	rec := &errorRecorder{}
	cfg := testConfig(t)
	cfg.ShowTimestamp = false
	logger := newTestLogger(t, cfg, WithErrorHandler(rec.handle))

	var nilStr *nilStringer
	logger.Info("typed nil", "v", nilStr)
	logger.Info("panics", "v", panicStringer{})
	require.NoError(t, logger.Flush(time.Second))

	logger.Info("after")
	require.NoError(t, logger.Flush(time.Second))

	lines := readLines(t, logger.CurrentFile())
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "typed nil v=<nil>")
	// The drop report follows whichever record was sent after the drop was counted
	rest := strings.Join(lines[1:], "\n")
	assert.Contains(t, rest, "after")
	assert.Contains(t, rest, "Logs were dropped")
	assert.Contains(t, rest, "dropped_count=1")

	assert.False(t, logger.state.WriterExited.Load())
	stats := logger.Stats()
	assert.Equal(t, uint64(3), stats.Processed)
	assert.Equal(t, uint64(1), stats.Dropped)

	errs := rec.get("format")
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], errRecordFormat)
	assert.Contains(t, errs[0].Error(), "boom")
}

// readOnlyFS opens log files without write access, so buffered lines fail on flush
type readOnlyFS struct {
	OSFileSystem
}

func (readOnlyFS) OpenFile(name string, flag int, perm os.FileMode) (*os.File, error) {
	return os.OpenFile(name, os.O_RDONLY|os.O_CREATE, perm)
}

// TestFlushFailureCountsBufferedRecords checks that lines lost from the buffer
// are reported as dropped rather than processed
func TestFlushFailureCountsBufferedRecords(t *testing.T) {
	rec := &errorRecorder{}
	cfg := testConfig(t)
	logger := newTestLogger(t, cfg, WithFileSystem(readOnlyFS{}), WithErrorHandler(rec.handle))
	require.NotEmpty(t, logger.CurrentFile())

	for i := 0; i < 5; i++ {
		logger.Info("buffered", "i", i)
	}
	_ = logger.Flush(time.Second)

	stats := logger.Stats()
	assert.Zero(t, stats.Processed)
	assert.GreaterOrEqual(t, stats.Dropped, uint64(5))
	assert.GreaterOrEqual(t, stats.WriteErrors, uint64(1))
	assert.Zero(t, stats.CurrentSize)

	require.NotEmpty(t, rec.get("flush"))
	assert.ErrorIs(t, rec.get("flush")[0], ErrTransientIO)
}
