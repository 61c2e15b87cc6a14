// FILE: lixenwraith/logfile/sanitizer/sanitizer.go
// Package sanitizer makes arbitrary strings safe to embed in a single log line.
package sanitizer

import (
	"strconv"
	"unicode/utf8"
)

// Mode selects how unsafe runes are rewritten
type Mode int

const (
	// None copies the input unchanged
	None Mode = iota
	// HexEncode replaces non-printable runes with their UTF-8 bytes as "<xx>"
	HexEncode
	// Strip removes non-printable runes
	Strip
	// JSONEscape escapes quotes, backslashes and control characters for a JSON string body
	JSONEscape
)

const hexDigits = "0123456789abcdef"

// Append writes s to dst rewritten according to mode and returns the extended buffer
func Append(dst []byte, s string, mode Mode) []byte {
	if mode == None {
		return append(dst, s...)
	}
	if mode == JSONEscape {
		return appendJSON(dst, s)
	}

	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			// Invalid byte
			if mode == HexEncode {
				dst = appendHex(dst, s[i:i+1])
			}
			i++
			continue
		}
		if strconv.IsPrint(r) {
			dst = append(dst, s[i:i+size]...)
		} else if mode == HexEncode {
			dst = appendHex(dst, s[i:i+size])
		}
		i += size
	}
	return dst
}

// String is Append for callers that need a string
func String(s string, mode Mode) string {
	return string(Append(make([]byte, 0, len(s)), s, mode))
}

func appendHex(dst []byte, b string) []byte {
	dst = append(dst, '<')
	for i := 0; i < len(b); i++ {
		dst = append(dst, hexDigits[b[i]>>4], hexDigits[b[i]&0xF])
	}
	return append(dst, '>')
}

// appendJSON escapes s for use between JSON quotes. Invalid UTF-8 becomes U+FFFD.
func appendJSON(dst []byte, s string) []byte {
	for i := 0; i < len(s); {
		c := s[i]
		if c >= ' ' && c != '"' && c != '\\' && c < utf8.RuneSelf {
			dst = append(dst, c)
			i++
			continue
		}
		if c >= utf8.RuneSelf {
			r, size := utf8.DecodeRuneInString(s[i:])
			if r == utf8.RuneError && size == 1 {
				dst = append(dst, `�`...)
			} else {
				dst = append(dst, s[i:i+size]...)
			}
			i += size
			continue
		}
		switch c {
		case '\\', '"':
			dst = append(dst, '\\', c)
		case '\n':
			dst = append(dst, '\\', 'n')
		case '\r':
			dst = append(dst, '\\', 'r')
		case '\t':
			dst = append(dst, '\\', 't')
		case '\b':
			dst = append(dst, '\\', 'b')
		case '\f':
			dst = append(dst, '\\', 'f')
		default:
			dst = append(dst, '\\', 'u', '0', '0', hexDigits[c>>4], hexDigits[c&0xF])
		}
		i++
	}
	return dst
}
