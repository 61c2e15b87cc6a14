// FILE: lixenwraith/logfile/integration_test.go
package logfile

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestFullLifecycle drives writes across two days, then compresses and expires the results
func TestFullLifecycle(t *testing.T) {
	tmpDir := t.TempDir()
	clock := newFakeClock(time.Date(2025, time.March, 10, 9, 0, 0, 0, time.Local))
	rec := &errorRecorder{}

	logger, err := NewBuilder().
		Directory(tmpDir).
		Name("svc").
		LevelString("debug").
		Format("json").
		MaxSize("2KB").
		Compression(UnitDay, 1, CompressionZstd).
		RetentionDays(1).
		RetentionOnStart(false).
		FlushIntervalMs(10).
		InternalErrorsToStderr(false).
		Clock(clock).
		ErrorHandler(rec.handle).
		Build()
	require.NoError(t, err)
	require.NoError(t, logger.Start())

	events := &eventRecorder{}
	logger.AddEventHandler(events)

	const perDay = 200
	var wg sync.WaitGroup
	writeDay := func(day int) {
		for w := 0; w < 4; w++ {
			wg.Add(1)
			go func(w int) {
				defer wg.Done()
				for i := 0; i < perDay/4; i++ {
					logger.Log(LevelInfo, CategoryGeneral, "entry", nil, "day", day, "w", w, "i", i)
				}
			}(w)
		}
		wg.Wait()
		require.NoError(t, logger.Flush(time.Second))
	}

	writeDay(1)
	clock.Advance(24 * time.Hour)
	writeDay(2)

	rotated := events.paths(EventRotated)
	require.NotEmpty(t, rotated)

	n, err := logger.CompressNow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, len(rotated), n, "every closed file is compressed once")

	// Day one falls out of the window
	clock.Advance(24 * time.Hour)
	deleted, err := logger.SweepNow(context.Background())
	require.NoError(t, err)
	assert.Positive(t, deleted)

	require.NoError(t, logger.Shutdown(2*time.Second))

	files, err := listLogFiles(OSFileSystem{}, tmpDir, "svc", "log")
	require.NoError(t, err)

	// Remaining files hold exactly day two, in order per writer. The idle
	// rollover to the third day may have opened an empty file.
	counts := make(map[string]int)
	for _, f := range files {
		require.Contains(t, []string{"2025-03-11", "2025-03-12"}, f.Date.Format(fileDateLayout), f.Name)

		var data []byte
		if f.Compressed {
			data = decompress(t, f.Path, f.Suffix)
		} else {
			data, err = os.ReadFile(f.Path)
			require.NoError(t, err)
		}

		scanner := bufio.NewScanner(bytes.NewReader(data))
		for scanner.Scan() {
			var line struct {
				Message string `json:"message"`
				Fields  struct {
					Day int `json:"day"`
					W   int `json:"w"`
					I   int `json:"i"`
				} `json:"fields"`
			}
			require.NoError(t, json.Unmarshal(scanner.Bytes(), &line))
			require.Equal(t, "entry", line.Message)
			require.Equal(t, 2, line.Fields.Day)

			key := fmt.Sprint(line.Fields.W)
			require.Equal(t, counts[key], line.Fields.I, "writer %s out of order", key)
			counts[key]++
		}
	}
	for w := 0; w < 4; w++ {
		assert.Equal(t, perDay/4, counts[fmt.Sprint(w)])
	}

	stats := logger.Stats()
	assert.Equal(t, uint64(2*perDay), stats.Processed)
	assert.Zero(t, stats.Dropped)
	assert.Equal(t, uint64(n), stats.Compressions)
	assert.Equal(t, uint64(deleted), stats.Deletions)
	assert.Empty(t, rec.get("compress"))
	assert.Empty(t, rec.get("retention"))
}
