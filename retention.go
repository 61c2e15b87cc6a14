// FILE: lixenwraith/logfile/retention.go
package logfile

import (
	"context"
	"time"
)

// retentionCutoff returns the first calendar day still inside the window
func retentionCutoff(now time.Time, retentionDays int64) time.Time {
	return dateOf(now).AddDate(0, 0, -int(retentionDays))
}

// expiredFiles selects files dated strictly before the cutoff, excluding the active path
func expiredFiles(files []FileInfo, cutoff time.Time, activePath string) []FileInfo {
	var expired []FileInfo
	for _, f := range files {
		if f.Path == activePath {
			continue
		}
		if f.Date.Before(cutoff) {
			expired = append(expired, f)
		}
	}
	return expired
}

// sweepPass deletes files whose embedded date fell out of the retention
// window, including archives a crashed compression left behind, and returns
// the number deleted. Names that do not parse are never touched.
func (l *Logger) sweepPass(ctx context.Context) (int, error) {
	l.sweepMu.Lock()
	defer l.sweepMu.Unlock()

	s := l.getSettings()
	if s.retentionDays <= 0 {
		return 0, nil
	}

	names, err := readDirNames(l.fs, s.directory)
	if err != nil {
		return 0, err
	}
	files := scanLogFiles(s.directory, names, s.name, s.extension)

	// Temporaries are orphans only while no compression pass is writing them
	if l.compressMu.TryLock() {
		defer l.compressMu.Unlock()
		files = append(files, scanTempArchives(s.directory, names, s.name, s.extension)...)
	}

	cutoff := retentionCutoff(l.clock.Now(), s.retentionDays)
	deleted := 0
	for _, f := range expiredFiles(files, cutoff, l.CurrentFile()) {
		if err := ctx.Err(); err != nil {
			return deleted, err
		}

		err := retryFileOperation(func() error { return l.fs.Remove(f.Path) }, 3, minWaitTime)
		if err != nil {
			if !isNotExist(err) {
				l.reportError("retention", ioError("remove", f.Path, err))
			}
			continue
		}

		deleted++
		l.state.TotalDeletions.Add(1)
		l.emit(EventDeleted, f.Path)
	}

	return deleted, nil
}
