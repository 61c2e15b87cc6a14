// FILE: lixenwraith/logfile/utility.go
package logfile

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// ParseSize converts size strings like "100MB", "1GB" to bytes.
// Plain numbers are bytes. Units are case-insensitive and 1024-based.
func ParseSize(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmtErrorf("%w: empty size string", ErrConfiguration)
	}

	if val, err := strconv.ParseInt(s, 10, 64); err == nil {
		if val < 0 {
			return 0, fmtErrorf("%w: negative size %q", ErrConfiguration, s)
		}
		return val, nil
	}

	upper := strings.ToUpper(s)

	var multiplier int64
	var numStr string

	switch {
	case strings.HasSuffix(upper, "KB"):
		multiplier, numStr = sizeKB, upper[:len(upper)-2]
	case strings.HasSuffix(upper, "MB"):
		multiplier, numStr = sizeMB, upper[:len(upper)-2]
	case strings.HasSuffix(upper, "GB"):
		multiplier, numStr = sizeGB, upper[:len(upper)-2]
	case strings.HasSuffix(upper, "TB"):
		multiplier, numStr = sizeTB, upper[:len(upper)-2]
	case strings.HasSuffix(upper, "B"):
		multiplier, numStr = 1, upper[:len(upper)-1]
	case strings.HasSuffix(upper, "K"):
		multiplier, numStr = sizeKB, upper[:len(upper)-1]
	case strings.HasSuffix(upper, "M"):
		multiplier, numStr = sizeMB, upper[:len(upper)-1]
	case strings.HasSuffix(upper, "G"):
		multiplier, numStr = sizeGB, upper[:len(upper)-1]
	case strings.HasSuffix(upper, "T"):
		multiplier, numStr = sizeTB, upper[:len(upper)-1]
	default:
		return 0, fmtErrorf("%w: unknown size suffix in %q (supported: B, KB/K, MB/M, GB/G, TB/T)", ErrConfiguration, s)
	}

	numStr = strings.TrimSpace(numStr)
	val, err := strconv.ParseInt(numStr, 10, 64)
	if err != nil || val < 0 {
		return 0, fmtErrorf("%w: invalid size number %q", ErrConfiguration, s)
	}
	if val > 0 && multiplier > 0 && val > (1<<63-1)/multiplier {
		return 0, fmtErrorf("%w: size %q overflows", ErrConfiguration, s)
	}

	return val * multiplier, nil
}

// ParseCompressionPeriod converts a unit and multiplier into a duration.
// A month counts as 30 days.
func ParseCompressionPeriod(unit string, value int64) (time.Duration, error) {
	if value <= 0 {
		return 0, fmtErrorf("%w: compression_value must be positive: %d", ErrConfiguration, value)
	}

	var base time.Duration
	switch strings.ToLower(strings.TrimSpace(unit)) {
	case UnitDay:
		base = day
	case UnitWeek:
		base = 7 * day
	case UnitMonth:
		base = daysPerMonth * day
	default:
		return 0, fmtErrorf("%w: invalid compression_unit '%s' (use day, week or month)", ErrConfiguration, unit)
	}

	return base * time.Duration(value), nil
}

// parseKeyValue splits a "key=value" string.
func parseKeyValue(arg string) (string, string, error) {
	parts := strings.SplitN(strings.TrimSpace(arg), "=", 2)
	if len(parts) != 2 {
		return "", "", fmtErrorf("%w: invalid format in override string '%s', expected key=value", ErrConfiguration, arg)
	}
	key := strings.TrimSpace(parts[0])
	value := strings.TrimSpace(parts[1])
	if key == "" {
		return "", "", fmtErrorf("%w: key cannot be empty in override string '%s'", ErrConfiguration, arg)
	}
	return key, value, nil
}

// Level converts level string to numeric constant.
func Level(levelStr string) (int64, error) {
	switch strings.ToLower(strings.TrimSpace(levelStr)) {
	case "trace":
		return LevelTrace, nil
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	case "proc":
		return LevelProc, nil
	case "disk":
		return LevelDisk, nil
	default:
		return 0, fmtErrorf("invalid level string: '%s' (use trace, debug, info, warn, error, proc, disk)", levelStr)
	}
}

// levelName returns the display name of a level
func levelName(level int64) string {
	switch level {
	case LevelTrace:
		return "TRACE"
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelProc:
		return "PROC"
	case LevelDisk:
		return "DISK"
	default:
		return fmt.Sprintf("LEVEL(%d)", level)
	}
}

// callerOrigin returns the short name of the function skip frames above its caller.
// Anonymous functions are reported as "(anonymous in pkg.Func)".
func callerOrigin(skip int) string {
	pc := make([]uintptr, 1)
	// +2 skips runtime.Callers and callerOrigin itself
	if runtime.Callers(skip+2, pc) == 0 {
		return "(unknown)"
	}
	frame, _ := runtime.CallersFrames(pc).Next()
	if frame.Function == "" {
		return "(unknown)"
	}

	funcName := filepath.Base(frame.Function)
	parts := strings.Split(funcName, ".")
	lastPart := parts[len(parts)-1]
	if len(parts) > 1 && strings.HasPrefix(lastPart, "func") && len(lastPart) > 4 {
		isAnonymous := true
		for _, r := range lastPart[4:] {
			if !unicode.IsDigit(r) {
				isAnonymous = false
				break
			}
		}
		if isAnonymous {
			return fmt.Sprintf("(anonymous in %s)", strings.Join(parts[:len(parts)-1], "."))
		}
	}
	return lastPart
}
