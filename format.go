// FILE: lixenwraith/logfile/format.go
package logfile

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/davecgh/go-spew/spew"

	"github.com/lixenwraith/logfile/sanitizer"
)

// dumper renders composite field values in a compact, deterministic form
var dumper = &spew.ConfigState{
	Indent:                  " ",
	MaxDepth:                10,
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

// serializer renders records into a reusable buffer. Owned by the writer goroutine.
type serializer struct {
	buf             []byte
	format          string
	flags           int64
	timestampFormat string
}

func newSerializer(format string, flags int64, timestampFormat string) *serializer {
	return &serializer{
		buf:             make([]byte, 0, 4096),
		format:          format,
		flags:           flags,
		timestampFormat: timestampFormat,
	}
}

func (s *serializer) reset() {
	s.buf = s.buf[:0]
}

// serialize renders rec as one newline-terminated line. The returned slice is
// valid until the next call.
func (s *serializer) serialize(rec *Record) []byte {
	s.reset()
	if s.format == "json" {
		return s.serializeJSON(rec)
	}
	return s.serializeTxt(rec)
}

// serializeTxt: time LEVEL [CATEGORY] (origin) message key=value ... error="..."
func (s *serializer) serializeTxt(rec *Record) []byte {
	needsSpace := false
	space := func() {
		if needsSpace {
			s.buf = append(s.buf, ' ')
		}
		needsSpace = true
	}

	if s.flags&FlagShowTimestamp != 0 {
		space()
		s.buf = rec.Time.AppendFormat(s.buf, s.timestampFormat)
	}

	if s.flags&FlagShowLevel != 0 {
		space()
		s.buf = append(s.buf, levelName(rec.Level)...)
	}

	if rec.Category != "" {
		space()
		s.buf = append(s.buf, '[')
		s.writeTxtString(rec.Category)
		s.buf = append(s.buf, ']')
	}

	if rec.Origin != "" {
		space()
		s.buf = append(s.buf, '(')
		s.writeTxtString(rec.Origin)
		s.buf = append(s.buf, ')')
	}

	if rec.Message != "" {
		space()
		s.writeTxtString(rec.Message)
	}

	for i := 0; i < len(rec.Fields); i += 2 {
		space()
		s.writeTxtString(fieldKey(rec.Fields, i))
		s.buf = append(s.buf, '=')
		if i+1 < len(rec.Fields) {
			s.writeTxtValue(rec.Fields[i+1])
		} else {
			s.buf = append(s.buf, "<missing>"...)
		}
	}

	if rec.Err != nil {
		space()
		s.buf = append(s.buf, "error="...)
		s.buf = strconv.AppendQuote(s.buf, errorText(rec.Err))
	}

	s.buf = append(s.buf, '\n')
	return s.buf
}

// serializeJSON renders a single JSON object per line
func (s *serializer) serializeJSON(rec *Record) []byte {
	s.buf = append(s.buf, '{')
	needsComma := false
	key := func(k string) {
		if needsComma {
			s.buf = append(s.buf, ',')
		}
		needsComma = true
		s.buf = append(s.buf, '"')
		s.writeString(k)
		s.buf = append(s.buf, '"', ':')
	}

	if s.flags&FlagShowTimestamp != 0 {
		key("time")
		s.buf = append(s.buf, '"')
		s.buf = rec.Time.AppendFormat(s.buf, s.timestampFormat)
		s.buf = append(s.buf, '"')
	}

	if s.flags&FlagShowLevel != 0 {
		key("level")
		s.buf = append(s.buf, '"')
		s.buf = append(s.buf, levelName(rec.Level)...)
		s.buf = append(s.buf, '"')
	}

	if rec.Category != "" {
		key("category")
		s.writeJSONValue(rec.Category)
	}

	if rec.Origin != "" {
		key("origin")
		s.writeJSONValue(rec.Origin)
	}

	key("message")
	s.writeJSONValue(rec.Message)

	if len(rec.Fields) > 0 {
		key("fields")
		s.buf = append(s.buf, '{')
		for i := 0; i < len(rec.Fields); i += 2 {
			if i > 0 {
				s.buf = append(s.buf, ',')
			}
			s.writeJSONValue(fieldKey(rec.Fields, i))
			s.buf = append(s.buf, ':')
			if i+1 < len(rec.Fields) {
				s.writeJSONValue(rec.Fields[i+1])
			} else {
				s.buf = append(s.buf, "null"...)
			}
		}
		s.buf = append(s.buf, '}')
	}

	if rec.Err != nil {
		key("error")
		s.writeJSONValue(errorText(rec.Err))
	}

	s.buf = append(s.buf, '}', '\n')
	return s.buf
}

// fieldKey renders the key at index i of a key/value list
func fieldKey(fields []any, i int) string {
	if k, ok := fields[i].(string); ok {
		return k
	}
	return fmt.Sprint(fields[i])
}

// writeTxtString writes a message with non-printables hex-encoded so one record stays one line
func (s *serializer) writeTxtString(str string) {
	s.buf = sanitizer.Append(s.buf, str, sanitizer.HexEncode)
}

// writeTxtValue writes a field value for the txt format
func (s *serializer) writeTxtValue(v any) {
	switch val := v.(type) {
	case string:
		if needsQuoting(val) {
			s.buf = strconv.AppendQuote(s.buf, val)
		} else {
			s.writeTxtString(val)
		}
	case int:
		s.buf = strconv.AppendInt(s.buf, int64(val), 10)
	case int64:
		s.buf = strconv.AppendInt(s.buf, val, 10)
	case int32:
		s.buf = strconv.AppendInt(s.buf, int64(val), 10)
	case uint:
		s.buf = strconv.AppendUint(s.buf, uint64(val), 10)
	case uint64:
		s.buf = strconv.AppendUint(s.buf, val, 10)
	case uint32:
		s.buf = strconv.AppendUint(s.buf, uint64(val), 10)
	case float32:
		s.buf = strconv.AppendFloat(s.buf, float64(val), 'f', -1, 32)
	case float64:
		s.buf = strconv.AppendFloat(s.buf, val, 'f', -1, 64)
	case bool:
		s.buf = strconv.AppendBool(s.buf, val)
	case nil:
		s.buf = append(s.buf, "nil"...)
	case time.Time:
		s.buf = val.AppendFormat(s.buf, s.timestampFormat)
	case time.Duration:
		s.buf = append(s.buf, val.String()...)
	case error:
		if isNilValue(val) {
			s.buf = append(s.buf, "<nil>"...)
			return
		}
		s.buf = strconv.AppendQuote(s.buf, val.Error())
	case fmt.Stringer:
		if isNilValue(val) {
			s.buf = append(s.buf, "<nil>"...)
			return
		}
		s.writeTxtValue(val.String())
	case []byte:
		s.buf = hex.AppendEncode(s.buf, val)
	default:
		s.buf = append(s.buf, dumpValue(val)...)
	}
}

// writeJSONValue writes a field value as a JSON literal
func (s *serializer) writeJSONValue(v any) {
	switch val := v.(type) {
	case string:
		s.buf = append(s.buf, '"')
		s.writeString(val)
		s.buf = append(s.buf, '"')
	case int:
		s.buf = strconv.AppendInt(s.buf, int64(val), 10)
	case int64:
		s.buf = strconv.AppendInt(s.buf, val, 10)
	case int32:
		s.buf = strconv.AppendInt(s.buf, int64(val), 10)
	case uint:
		s.buf = strconv.AppendUint(s.buf, uint64(val), 10)
	case uint64:
		s.buf = strconv.AppendUint(s.buf, val, 10)
	case uint32:
		s.buf = strconv.AppendUint(s.buf, uint64(val), 10)
	case float32:
		s.appendJSONFloat(float64(val), 32)
	case float64:
		s.appendJSONFloat(val, 64)
	case bool:
		s.buf = strconv.AppendBool(s.buf, val)
	case nil:
		s.buf = append(s.buf, "null"...)
	case time.Time:
		s.buf = append(s.buf, '"')
		s.buf = val.AppendFormat(s.buf, s.timestampFormat)
		s.buf = append(s.buf, '"')
	case time.Duration:
		s.writeJSONValue(val.String())
	case error:
		if isNilValue(val) {
			s.buf = append(s.buf, "null"...)
			return
		}
		s.writeJSONValue(val.Error())
	case fmt.Stringer:
		if isNilValue(val) {
			s.buf = append(s.buf, "null"...)
			return
		}
		s.writeJSONValue(val.String())
	case []byte:
		s.buf = append(s.buf, '"')
		s.buf = hex.AppendEncode(s.buf, val)
		s.buf = append(s.buf, '"')
	default:
		s.writeJSONValue(dumpValue(val))
	}
}

// appendJSONFloat writes NaN and infinities as strings, JSON has no literal for them
func (s *serializer) appendJSONFloat(f float64, bitSize int) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		s.buf = append(s.buf, '"')
		s.buf = strconv.AppendFloat(s.buf, f, 'f', -1, bitSize)
		s.buf = append(s.buf, '"')
		return
	}
	s.buf = strconv.AppendFloat(s.buf, f, 'f', -1, bitSize)
}

// writeString appends str with JSON escaping
func (s *serializer) writeString(str string) {
	s.buf = sanitizer.Append(s.buf, str, sanitizer.JSONEscape)
}

// isNilValue reports a typed nil held in an interface, such as a nil *T
// implementing error or fmt.Stringer
func isNilValue(v any) bool {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface, reflect.UnsafePointer:
		return rv.IsNil()
	}
	return false
}

// errorText is err.Error() guarded against typed nils
func errorText(err error) string {
	if isNilValue(err) {
		return "<nil>"
	}
	return err.Error()
}

// needsQuoting reports whether a txt value would be ambiguous unquoted
func needsQuoting(str string) bool {
	if str == "" {
		return true
	}
	for _, r := range str {
		if r <= ' ' || r == '=' || r == '"' || r == utf8.RuneError {
			return true
		}
	}
	return false
}

// dumpValue renders structs, maps, slices and pointers on one line
func dumpValue(v any) string {
	var b bytes.Buffer
	dumper.Fdump(&b, v)
	out := bytes.TrimSpace(b.Bytes())
	out = bytes.ReplaceAll(out, []byte("\n"), []byte(" "))
	return string(out)
}
