// FILE: lixenwraith/logfile/config.go
package logfile

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/lixenwraith/config"
)

// Config holds all logger configuration values
type Config struct {
	// Basic settings
	Level     int64  `toml:"level"`
	Name      string `toml:"name"` // File name prefix
	Directory string `toml:"directory"`
	Extension string `toml:"extension"`
	Format    string `toml:"format"` // "txt" or "json"

	// Formatting
	ShowTimestamp   bool   `toml:"show_timestamp"`
	ShowLevel       bool   `toml:"show_level"`
	TimestampFormat string `toml:"timestamp_format"`

	// Rotation
	MaxSize   string `toml:"max_size"`  // Human-readable, e.g. "10MB"
	Overwrite bool   `toml:"overwrite"` // Truncate an existing target file instead of appending

	// Retention
	RetentionDays     int64   `toml:"retention_days"`      // 0 or less disables the sweeper
	RetentionCheckHrs float64 `toml:"retention_check_hrs"` // Sweeper period
	RetentionOnStart  bool    `toml:"retention_on_start"`  // Run one sweep when the logger starts

	// Compression
	CompressionUnit   string `toml:"compression_unit"`   // "day", "week" or "month"
	CompressionValue  int64  `toml:"compression_value"`  // Multiplier for the unit
	CompressionFormat string `toml:"compression_format"` // "gz", "zst" or "none"

	// Ingestion
	QueueCapacity   int64  `toml:"queue_capacity"`
	BatchSize       int64  `toml:"batch_size"`
	FlushIntervalMs int64  `toml:"flush_interval_ms"`
	OverflowPolicy  string `toml:"overflow_policy"`  // "drop" or "block"
	BlockTimeoutMs  int64  `toml:"block_timeout_ms"` // Max wait for the "block" policy

	// Lifecycle
	ShutdownTimeoutMs int64 `toml:"shutdown_timeout_ms"`

	// Heartbeat configuration
	HeartbeatLevel     int64 `toml:"heartbeat_level"` // 0=disabled, 1=proc, 2=proc+disk
	HeartbeatIntervalS int64 `toml:"heartbeat_interval_s"`

	// Console mirror
	EnableConsole bool   `toml:"enable_console"`
	ConsoleTarget string `toml:"console_target"` // "stdout" or "stderr"

	// Internal error handling
	InternalErrorsToStderr bool `toml:"internal_errors_to_stderr"`
}

// defaultConfig is the single source for all configurable default values
var defaultConfig = Config{
	// Basic settings
	Level:     LevelInfo,
	Name:      "app",
	Directory: "./logs",
	Extension: "log",
	Format:    "txt",

	// Formatting
	ShowTimestamp:   true,
	ShowLevel:       true,
	TimestampFormat: "2006-01-02 15:04:05.000",

	// Rotation
	MaxSize:   "10MB",
	Overwrite: false,

	// Retention
	RetentionDays:     365,
	RetentionCheckHrs: 24,
	RetentionOnStart:  true,

	// Compression
	CompressionUnit:   UnitWeek,
	CompressionValue:  1,
	CompressionFormat: CompressionGzip,

	// Ingestion
	QueueCapacity:   10000,
	BatchSize:       100,
	FlushIntervalMs: 1000,
	OverflowPolicy:  OverflowDrop,
	BlockTimeoutMs:  100,

	// Lifecycle
	ShutdownTimeoutMs: 5000,

	// Heartbeat settings
	HeartbeatLevel:     0,
	HeartbeatIntervalS: 60,

	// Console settings
	EnableConsole: false,
	ConsoleTarget: "stdout",

	// Internal error handling
	InternalErrorsToStderr: true,
}

// DefaultConfig returns a copy of the default configuration
func DefaultConfig() *Config {
	copiedConfig := defaultConfig
	return &copiedConfig
}

// NewConfigFromFile loads configuration from the [logfile] table of a TOML file.
// A missing file yields the defaults.
func NewConfigFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	loader := config.New()

	if err := loader.RegisterStruct("logfile.", *cfg); err != nil {
		return nil, fmt.Errorf("failed to register config struct: %w", err)
	}

	if err := loader.Load(path, nil); err != nil && !errors.Is(err, config.ErrConfigNotFound) {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}

	if err := extractConfig(loader, "logfile.", cfg); err != nil {
		return nil, fmt.Errorf("failed to extract config values: %w", err)
	}

	return cfg, nil
}

// NewConfigFromDefaults creates a Config with default values and applies overrides
func NewConfigFromDefaults(overrides map[string]any) (*Config, error) {
	cfg := DefaultConfig()

	if err := applyOverrides(cfg, overrides); err != nil {
		return nil, fmt.Errorf("failed to apply overrides: %w", err)
	}

	return cfg, nil
}

// extractConfig copies values found by the loader into cfg, keyed by toml tag
func extractConfig(loader *config.Config, prefix string, cfg *Config) error {
	v := reflect.ValueOf(cfg).Elem()
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tomlTag := field.Tag.Get("toml")
		if tomlTag == "" {
			continue
		}

		val, found := loader.Get(prefix + tomlTag)
		if !found {
			continue
		}

		if err := setFieldValue(v.Field(i), val); err != nil {
			return fmt.Errorf("failed to set field %s: %w", field.Name, err)
		}
	}

	return nil
}

// applyOverrides applies a map of overrides to the Config struct
func applyOverrides(cfg *Config, overrides map[string]any) error {
	fieldMap := configFields(cfg)

	for key, value := range overrides {
		fieldValue, exists := fieldMap[key]
		if !exists {
			return fmt.Errorf("unknown config key: %s", key)
		}

		if err := setFieldValue(fieldValue, value); err != nil {
			return fmt.Errorf("failed to set %s: %w", key, err)
		}
	}

	return nil
}

// configFields maps toml tags to addressable field values
func configFields(cfg *Config) map[string]reflect.Value {
	v := reflect.ValueOf(cfg).Elem()
	t := v.Type()

	fieldMap := make(map[string]reflect.Value, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		if tomlTag := t.Field(i).Tag.Get("toml"); tomlTag != "" {
			fieldMap[tomlTag] = v.Field(i)
		}
	}
	return fieldMap
}

// setFieldValue sets a reflect.Value with proper type conversion
func setFieldValue(field reflect.Value, value any) error {
	switch field.Kind() {
	case reflect.String:
		strVal, ok := value.(string)
		if !ok {
			return fmt.Errorf("expected string, got %T", value)
		}
		field.SetString(strVal)

	case reflect.Int64:
		switch v := value.(type) {
		case int64:
			field.SetInt(v)
		case int:
			field.SetInt(int64(v))
		case float64:
			// TOML decoders may hand back whole numbers as floats
			if v != float64(int64(v)) {
				return fmt.Errorf("expected integer, got %v", v)
			}
			field.SetInt(int64(v))
		default:
			return fmt.Errorf("expected int64, got %T", value)
		}

	case reflect.Float64:
		switch v := value.(type) {
		case float64:
			field.SetFloat(v)
		case int64:
			field.SetFloat(float64(v))
		case int:
			field.SetFloat(float64(v))
		default:
			return fmt.Errorf("expected float64, got %T", value)
		}

	case reflect.Bool:
		boolVal, ok := value.(bool)
		if !ok {
			return fmt.Errorf("expected bool, got %T", value)
		}
		field.SetBool(boolVal)

	default:
		return fmt.Errorf("unsupported field type: %v", field.Kind())
	}

	return nil
}

// Validate reports every value that would be replaced by its default when the
// configuration is applied. ApplyConfig itself never fails on these.
func (c *Config) Validate() error {
	var errs []error
	for _, p := range c.problems() {
		errs = append(errs, fmt.Errorf("%w: %s", ErrConfiguration, p))
	}
	return errors.Join(errs...)
}

// problems lists human-readable configuration issues
func (c *Config) problems() []string {
	var p []string

	if strings.TrimSpace(c.Name) == "" || strings.ContainsAny(c.Name, `/\`) {
		p = append(p, fmt.Sprintf("invalid name: '%s'", c.Name))
	}
	if strings.HasPrefix(c.Extension, ".") {
		p = append(p, fmt.Sprintf("extension should not start with dot: %s", c.Extension))
	}
	if c.Format != "txt" && c.Format != "json" {
		p = append(p, fmt.Sprintf("invalid format: '%s' (use txt or json)", c.Format))
	}
	if strings.TrimSpace(c.TimestampFormat) == "" {
		p = append(p, "timestamp_format cannot be empty")
	}
	if size, err := ParseSize(c.MaxSize); err != nil || size <= 0 {
		p = append(p, fmt.Sprintf("invalid max_size: '%s'", c.MaxSize))
	}
	if c.RetentionCheckHrs <= 0 {
		p = append(p, fmt.Sprintf("retention_check_hrs must be positive: %v", c.RetentionCheckHrs))
	}
	if c.CompressionFormat != CompressionNone {
		if _, err := ParseCompressionPeriod(c.CompressionUnit, c.CompressionValue); err != nil {
			p = append(p, err.Error())
		}
	}
	if c.CompressionFormat != CompressionGzip && c.CompressionFormat != CompressionZstd && c.CompressionFormat != CompressionNone {
		p = append(p, fmt.Sprintf("invalid compression_format: '%s' (use gz, zst or none)", c.CompressionFormat))
	}
	if c.QueueCapacity <= 0 {
		p = append(p, fmt.Sprintf("queue_capacity must be positive: %d", c.QueueCapacity))
	}
	if c.BatchSize <= 0 {
		p = append(p, fmt.Sprintf("batch_size must be positive: %d", c.BatchSize))
	}
	if c.FlushIntervalMs <= 0 {
		p = append(p, fmt.Sprintf("flush_interval_ms must be positive: %d", c.FlushIntervalMs))
	}
	if c.OverflowPolicy != OverflowDrop && c.OverflowPolicy != OverflowBlock {
		p = append(p, fmt.Sprintf("invalid overflow_policy: '%s' (use drop or block)", c.OverflowPolicy))
	}
	if c.BlockTimeoutMs <= 0 {
		p = append(p, fmt.Sprintf("block_timeout_ms must be positive: %d", c.BlockTimeoutMs))
	}
	if c.ShutdownTimeoutMs <= 0 {
		p = append(p, fmt.Sprintf("shutdown_timeout_ms must be positive: %d", c.ShutdownTimeoutMs))
	}
	if c.HeartbeatLevel < 0 || c.HeartbeatLevel > 2 {
		p = append(p, fmt.Sprintf("heartbeat_level must be between 0 and 2: %d", c.HeartbeatLevel))
	}
	if c.HeartbeatLevel > 0 && c.HeartbeatIntervalS <= 0 {
		p = append(p, fmt.Sprintf("heartbeat_interval_s must be positive when heartbeat is enabled: %d", c.HeartbeatIntervalS))
	}
	if c.ConsoleTarget != "stdout" && c.ConsoleTarget != "stderr" {
		p = append(p, fmt.Sprintf("invalid console_target: '%s' (use stdout or stderr)", c.ConsoleTarget))
	}

	return p
}

// Clone creates a deep copy of the configuration
func (c *Config) Clone() *Config {
	copiedConfig := *c
	return &copiedConfig
}

// settings is the immutable, fully resolved snapshot the workers read.
// Every field holds a usable value; malformed inputs have been replaced by defaults.
type settings struct {
	level           int64
	name            string
	directory       string
	extension       string
	format          string
	flags           int64
	timestampFormat string

	maxSize   int64
	overwrite bool

	retentionDays     int64
	retentionInterval time.Duration
	retentionOnStart  bool

	compressionFormat string
	compressionPeriod time.Duration

	queueCapacity   int
	batchSize       int
	flushInterval   time.Duration
	overflowPolicy  string
	blockTimeout    time.Duration
	shutdownTimeout time.Duration

	heartbeatLevel    int64
	heartbeatInterval time.Duration

	enableConsole bool
	consoleTarget string
}

// resolve converts a Config into settings, substituting the documented default
// for every malformed value. Each substitution is returned as a warning.
func (c *Config) resolve() (*settings, []string) {
	d := &defaultConfig
	var warnings []string
	warn := func(format string, args ...any) {
		warnings = append(warnings, fmt.Sprintf(format, args...))
	}

	s := &settings{
		level:             c.Level,
		name:              c.Name,
		directory:         c.Directory,
		extension:         strings.TrimPrefix(c.Extension, "."),
		format:            c.Format,
		timestampFormat:   c.TimestampFormat,
		overwrite:         c.Overwrite,
		retentionDays:     c.RetentionDays,
		retentionOnStart:  c.RetentionOnStart,
		compressionFormat: c.CompressionFormat,
		overflowPolicy:    c.OverflowPolicy,
		heartbeatLevel:    c.HeartbeatLevel,
		enableConsole:     c.EnableConsole,
		consoleTarget:     c.ConsoleTarget,
	}

	if c.ShowTimestamp {
		s.flags |= FlagShowTimestamp
	}
	if c.ShowLevel {
		s.flags |= FlagShowLevel
	}

	if strings.TrimSpace(s.name) == "" || strings.ContainsAny(s.name, `/\`) {
		warn("invalid name '%s', using '%s'", c.Name, d.Name)
		s.name = d.Name
	}
	if strings.TrimSpace(s.directory) == "" {
		warn("empty directory, using '%s'", d.Directory)
		s.directory = d.Directory
	}
	if s.format != "txt" && s.format != "json" {
		warn("invalid format '%s', using '%s'", c.Format, d.Format)
		s.format = d.Format
	}
	if strings.TrimSpace(s.timestampFormat) == "" {
		s.timestampFormat = d.TimestampFormat
	}

	size, err := ParseSize(c.MaxSize)
	if err != nil || size <= 0 {
		warn("invalid max_size '%s', using '%s'", c.MaxSize, d.MaxSize)
		size, _ = ParseSize(d.MaxSize)
	}
	s.maxSize = size

	s.retentionInterval = time.Duration(c.RetentionCheckHrs * float64(time.Hour))
	if s.retentionInterval <= 0 {
		warn("invalid retention_check_hrs %v, using %v", c.RetentionCheckHrs, d.RetentionCheckHrs)
		s.retentionInterval = time.Duration(d.RetentionCheckHrs * float64(time.Hour))
	}

	switch s.compressionFormat {
	case CompressionGzip, CompressionZstd, CompressionNone:
	default:
		warn("invalid compression_format '%s', using '%s'", c.CompressionFormat, d.CompressionFormat)
		s.compressionFormat = d.CompressionFormat
	}
	period, err := ParseCompressionPeriod(c.CompressionUnit, c.CompressionValue)
	if err != nil {
		if s.compressionFormat != CompressionNone {
			warn("%v, using %d %s", err, d.CompressionValue, d.CompressionUnit)
		}
		period, _ = ParseCompressionPeriod(d.CompressionUnit, d.CompressionValue)
	}
	s.compressionPeriod = period

	s.queueCapacity = int(positiveOr(c.QueueCapacity, d.QueueCapacity, "queue_capacity", warn))
	s.batchSize = int(positiveOr(c.BatchSize, d.BatchSize, "batch_size", warn))
	s.flushInterval = time.Duration(positiveOr(c.FlushIntervalMs, d.FlushIntervalMs, "flush_interval_ms", warn)) * time.Millisecond
	s.blockTimeout = time.Duration(positiveOr(c.BlockTimeoutMs, d.BlockTimeoutMs, "block_timeout_ms", warn)) * time.Millisecond
	s.shutdownTimeout = time.Duration(positiveOr(c.ShutdownTimeoutMs, d.ShutdownTimeoutMs, "shutdown_timeout_ms", warn)) * time.Millisecond

	if s.overflowPolicy != OverflowDrop && s.overflowPolicy != OverflowBlock {
		warn("invalid overflow_policy '%s', using '%s'", c.OverflowPolicy, d.OverflowPolicy)
		s.overflowPolicy = d.OverflowPolicy
	}

	if s.heartbeatLevel < 0 || s.heartbeatLevel > 2 {
		warn("invalid heartbeat_level %d, heartbeat disabled", c.HeartbeatLevel)
		s.heartbeatLevel = 0
	}
	hbInterval := c.HeartbeatIntervalS
	if hbInterval <= 0 {
		hbInterval = d.HeartbeatIntervalS
	}
	s.heartbeatInterval = time.Duration(hbInterval) * time.Second

	if s.consoleTarget != "stdout" && s.consoleTarget != "stderr" {
		warn("invalid console_target '%s', using '%s'", c.ConsoleTarget, d.ConsoleTarget)
		s.consoleTarget = d.ConsoleTarget
	}

	return s, warnings
}

// positiveOr returns v when positive, otherwise def with a warning
func positiveOr(v, def int64, key string, warn func(string, ...any)) int64 {
	if v > 0 {
		return v
	}
	warn("%s must be positive (got %d), using %d", key, v, def)
	return def
}
