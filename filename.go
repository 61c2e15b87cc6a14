// FILE: lixenwraith/logfile/filename.go
package logfile

import (
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

// FileInfo describes one log file of this logger found in the directory.
// It is recomputed from a listing on every pass and never cached.
type FileInfo struct {
	Name       string    // Base file name
	Path       string    // Directory joined with Name
	Date       time.Time // Calendar day embedded in the name, local midnight
	Seq        int       // Per-day sequence, starting at 1
	Compressed bool
	Suffix     string // Archive suffix without dot ("gz", "zst"), empty when uncompressed
}

// formatFileName builds "{name}-{yyyy-MM-dd}-{seq}.{ext}"
func formatFileName(name string, date time.Time, seq int, ext string) string {
	base := fmt.Sprintf("%s-%s-%d", name, date.Format(fileDateLayout), seq)
	if ext == "" {
		return base
	}
	return base + "." + ext
}

// archiveName appends the archive suffix to a log file name
func archiveName(fileName, suffix string) string {
	return fileName + "." + suffix
}

// archiveSuffixes lists every suffix the parser recognizes as compressed
var archiveSuffixes = []string{CompressionGzip, CompressionZstd}

// parseFileName recognizes names produced by formatFileName, optionally
// followed by an archive suffix. Temporary files and foreign names are rejected.
func parseFileName(fileName, name, ext string) (FileInfo, bool) {
	info := FileInfo{Name: fileName}

	if strings.HasSuffix(fileName, tmpSuffix) {
		return info, false
	}

	rest := fileName
	for _, suffix := range archiveSuffixes {
		if strings.HasSuffix(rest, "."+suffix) {
			rest = strings.TrimSuffix(rest, "."+suffix)
			info.Compressed = true
			info.Suffix = suffix
			break
		}
	}

	prefix := name + "-"
	if !strings.HasPrefix(rest, prefix) {
		return info, false
	}
	rest = rest[len(prefix):]

	if ext != "" {
		if !strings.HasSuffix(rest, "."+ext) {
			return info, false
		}
		rest = strings.TrimSuffix(rest, "."+ext)
	}

	// rest is now "yyyy-MM-dd-seq"
	if len(rest) < len(fileDateLayout)+2 || rest[len(fileDateLayout)] != '-' {
		return info, false
	}
	date, err := time.ParseInLocation(fileDateLayout, rest[:len(fileDateLayout)], time.Local)
	if err != nil {
		return info, false
	}
	seqStr := rest[len(fileDateLayout)+1:]
	for _, r := range seqStr {
		if r < '0' || r > '9' {
			return info, false
		}
	}
	seq, err := strconv.Atoi(seqStr)
	if err != nil || seq < firstSequence {
		return info, false
	}

	info.Date = date
	info.Seq = seq
	return info, true
}

// scanLogFiles filters a directory listing down to this logger's files,
// ordered by date then sequence, uncompressed before compressed.
func scanLogFiles(dir string, names []string, name, ext string) []FileInfo {
	var files []FileInfo
	for _, n := range names {
		info, ok := parseFileName(n, name, ext)
		if !ok {
			continue
		}
		info.Path = filepath.Join(dir, n)
		files = append(files, info)
	}

	sort.Slice(files, func(i, j int) bool {
		a, b := files[i], files[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.Seq != b.Seq {
			return a.Seq < b.Seq
		}
		if a.Compressed != b.Compressed {
			return !a.Compressed
		}
		return a.Name < b.Name
	})
	return files
}

// scanTempArchives finds archives an interrupted compression pass left
// half-written, dated like the file they were compressing
func scanTempArchives(dir string, names []string, name, ext string) []FileInfo {
	var files []FileInfo
	for _, n := range names {
		if !strings.HasSuffix(n, tmpSuffix) {
			continue
		}
		info, ok := parseFileName(strings.TrimSuffix(n, tmpSuffix), name, ext)
		if !ok || !info.Compressed {
			continue
		}
		info.Name = n
		info.Path = filepath.Join(dir, n)
		files = append(files, info)
	}
	return files
}

// readDirNames lists the regular entries of dir
func readDirNames(fsys FileSystem, dir string) ([]string, error) {
	entries, err := fsys.ReadDir(dir)
	if err != nil {
		return nil, ioError("read directory", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		names = append(names, e.Name())
	}
	return names, nil
}

// listLogFiles reads the directory and scans it
func listLogFiles(fsys FileSystem, dir, name, ext string) ([]FileInfo, error) {
	names, err := readDirNames(fsys, dir)
	if err != nil {
		return nil, err
	}
	return scanLogFiles(dir, names, name, ext), nil
}

// nextSequence returns the smallest sequence above after for date that does
// not collide with an existing archive
func nextSequence(files []FileInfo, date time.Time, after int) int {
	archived := make(map[int]bool)
	for _, f := range files {
		if f.Compressed && sameDay(date, f.Date) {
			archived[f.Seq] = true
		}
	}
	seq := after + 1
	if seq < firstSequence {
		seq = firstSequence
	}
	for archived[seq] {
		seq++
	}
	return seq
}

// resumeSequence picks the sequence to open at startup for date: the highest
// existing one when it is still uncompressed, otherwise the next free one
func resumeSequence(files []FileInfo, date time.Time) int {
	highest := 0
	highestCompressed := false
	for _, f := range files {
		if !sameDay(date, f.Date) {
			continue
		}
		if f.Seq > highest {
			highest = f.Seq
			highestCompressed = f.Compressed
		} else if f.Seq == highest && f.Compressed {
			highestCompressed = true
		}
	}
	if highest == 0 {
		return firstSequence
	}
	if !highestCompressed {
		return highest
	}
	return nextSequence(files, date, highest)
}
