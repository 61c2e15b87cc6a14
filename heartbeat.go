// FILE: lixenwraith/logfile/heartbeat.go
package logfile

import (
	"fmt"
	"runtime"
	"time"
)

// handleHeartbeat writes the heartbeat records enabled by heartbeat_level
func (l *Logger) handleHeartbeat(w *batchWriter) {
	if w.s.heartbeatLevel >= 1 {
		w.writeDirect(l.procHeartbeat())
	}
	if w.s.heartbeatLevel >= 2 {
		w.writeDirect(l.diskHeartbeat(w))
	}
}

// procHeartbeat builds the process/logger statistics record
func (l *Logger) procHeartbeat() Record {
	sequence := l.state.HeartbeatSequence.Add(1)

	var uptimeHours float64
	if startTime, ok := l.state.LoggerStartTime.Load().(time.Time); ok && !startTime.IsZero() {
		uptimeHours = l.clock.Now().Sub(startTime).Hours()
	}

	// Interval drops are consumed by the heartbeat; the total keeps the lifetime count
	droppedInInterval := l.state.DroppedLogs.Swap(0)

	fields := []any{
		"type", "proc",
		"sequence", sequence,
		"uptime_hours", fmt.Sprintf("%.2f", uptimeHours),
		"processed_logs", l.state.TotalLogsProcessed.Load(),
		"total_dropped_logs", l.state.TotalDroppedLogs.Load(),
		"num_goroutine", runtime.NumGoroutine(),
	}
	if droppedInInterval > 0 {
		fields = append(fields, "dropped_since_last", droppedInInterval)
	}

	return l.heartbeatRecord(LevelProc, fields)
}

// diskHeartbeat builds the file statistics record
func (l *Logger) diskHeartbeat(w *batchWriter) Record {
	totalSizeMB := float64(-1)
	fileCount, archiveCount := -1, -1

	files, err := listLogFiles(w.fs, w.s.directory, w.s.name, w.s.extension)
	if err == nil {
		var total int64
		fileCount, archiveCount = 0, 0
		for _, f := range files {
			if f.Compressed {
				archiveCount++
			} else {
				fileCount++
			}
			if fi, statErr := w.fs.Stat(f.Path); statErr == nil {
				total += fi.Size()
			}
		}
		totalSizeMB = float64(total) / float64(sizeMB)
	} else {
		l.internalLog("warning - heartbeat failed to list log files: %v\n", err)
	}

	fields := []any{
		"type", "disk",
		"sequence", l.state.HeartbeatSequence.Load(),
		"rotated_files", l.state.TotalRotations.Load(),
		"compressed_files", l.state.TotalCompressions.Load(),
		"deleted_files", l.state.TotalDeletions.Load(),
		"total_log_size_mb", fmt.Sprintf("%.2f", totalSizeMB),
		"log_file_count", fileCount,
		"archive_count", archiveCount,
		"current_file_size_mb", fmt.Sprintf("%.2f", float64(l.state.CurrentSize.Load())/float64(sizeMB)),
	}

	return l.heartbeatRecord(LevelDisk, fields)
}

func (l *Logger) heartbeatRecord(level int64, fields []any) Record {
	return Record{
		Time:     l.clock.Now(),
		Level:    level,
		Category: CategoryPerformance,
		Message:  "heartbeat",
		Origin:   "logfile",
		Fields:   fields,
	}
}
