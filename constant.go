// FILE: lixenwraith/logfile/constant.go
package logfile

import (
	"time"
)

// Log level constants
const (
	LevelTrace int64 = -8
	LevelDebug int64 = -4
	LevelInfo  int64 = 0
	LevelWarn  int64 = 4
	LevelError int64 = 8
)

// Heartbeat log levels
const (
	LevelProc int64 = 12
	LevelDisk int64 = 16
)

// Record categories
const (
	CategoryGeneral     = "GENERAL"
	CategoryDB          = "DB"
	CategoryWeb         = "WEB"
	CategoryNetwork     = "NETWORK"
	CategorySecurity    = "SECURITY"
	CategoryPerformance = "PERFORMANCE"
)

// Record flags for controlling output structure
const (
	FlagShowTimestamp int64 = 0b001
	FlagShowLevel     int64 = 0b010
	FlagDefault             = FlagShowTimestamp | FlagShowLevel
)

// Overflow policies for a full ingestion queue
const (
	OverflowDrop  = "drop"
	OverflowBlock = "block"
)

// Compression formats and their archive suffixes
const (
	CompressionGzip = "gz"
	CompressionZstd = "zst"
	CompressionNone = "none"

	tmpSuffix = ".tmp"
)

// Compression period units
const (
	UnitDay   = "day"
	UnitWeek  = "week"
	UnitMonth = "month"
)

// Filenames
const (
	// Date layout embedded in every log file name
	fileDateLayout = "2006-01-02"
	// First sequence index of a calendar day
	firstSequence = 1
)

// Sizes
const (
	sizeKB int64 = 1024
	sizeMB       = 1024 * sizeKB
	sizeGB       = 1024 * sizeMB
	sizeTB       = 1024 * sizeGB
)

// Timers
const (
	// Minimum wait time used throughout the package
	minWaitTime = 10 * time.Millisecond
	// Days in a compression "month"
	daysPerMonth = 30
	// Day length used for period arithmetic
	day = 24 * time.Hour
)
