// FILE: lixenwraith/logfile/override.go
package logfile

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// ApplyOverride applies "key=value" overrides to a clone of the logger's
// current configuration, then applies the result.
//
// Example:
//
//	logger := logfile.NewLogger()
//	err := logger.ApplyOverride(
//	    "directory=/var/log/app",
//	    "max_size=50MB",
//	    "compression_format=zst",
//	)
func (l *Logger) ApplyOverride(overrides ...string) error {
	cfg := l.GetConfig()

	if err := applyOverrideStrings(cfg, overrides...); err != nil {
		return err
	}

	return l.ApplyConfig(cfg)
}

// ApplyOverride applies "key=value" overrides to c in place, collecting every
// failure. No logger or directory is involved.
func (c *Config) ApplyOverride(overrides ...string) error {
	return applyOverrideStrings(c, overrides...)
}

// applyOverrideStrings parses each override into cfg, collecting every failure
func applyOverrideStrings(cfg *Config, overrides ...string) error {
	var errs []error

	for _, override := range overrides {
		key, value, err := parseKeyValue(override)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		if err := applyConfigField(cfg, key, value); err != nil {
			errs = append(errs, err)
		}
	}

	return combineConfigErrors(errs)
}

// combineConfigErrors combines multiple configuration errors into a single error.
func combineConfigErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}

	var sb strings.Builder
	sb.WriteString("multiple configuration errors:")
	for i, err := range errs {
		sb.WriteString(fmt.Sprintf("\n  %d. %s", i+1, strings.TrimPrefix(err.Error(), errPrefix)))
	}
	return fmtErrorf("%w: %s", ErrConfiguration, sb.String())
}

// applyConfigField applies a single key-value override to a Config.
// Values are parsed according to the target field's kind.
func applyConfigField(cfg *Config, key, value string) error {
	// Accept both numeric and named levels
	if key == "level" {
		if numVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			cfg.Level = numVal
			return nil
		}
		levelVal, err := Level(value)
		if err != nil {
			return fmtErrorf("%w: invalid level value '%s'", ErrConfiguration, value)
		}
		cfg.Level = levelVal
		return nil
	}

	field, ok := configFields(cfg)[key]
	if !ok {
		return fmtErrorf("%w: unknown config key '%s'", ErrConfiguration, key)
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int64:
		intVal, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmtErrorf("%w: invalid integer value for %s '%s'", ErrConfiguration, key, value)
		}
		field.SetInt(intVal)
	case reflect.Float64:
		floatVal, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmtErrorf("%w: invalid float value for %s '%s'", ErrConfiguration, key, value)
		}
		field.SetFloat(floatVal)
	case reflect.Bool:
		boolVal, err := strconv.ParseBool(value)
		if err != nil {
			return fmtErrorf("%w: invalid boolean value for %s '%s'", ErrConfiguration, key, value)
		}
		field.SetBool(boolVal)
	default:
		return fmtErrorf("unsupported field type for %s: %v", key, field.Kind())
	}

	return nil
}
