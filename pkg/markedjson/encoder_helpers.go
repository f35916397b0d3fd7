package markedjson

import (
	"fmt"
	"math"
	"strconv"
	"unicode/utf8"

	"github.com/shapestone/shape-markedjson/pkg/mark"
)

const hexDigits = "0123456789abcdef"

// appendQuoted appends s as a double-quoted scalar. Characters the reader
// would reject are written as \u escapes; invalid UTF-8 becomes U+FFFD.
func appendQuoted(buf []byte, s string) []byte {
	buf = append(buf, '"')
	start := 0
	for i := 0; i < len(s); {
		c := s[i]
		if c >= 0x20 && c < 0x7F && c != '"' && c != '\\' {
			i++
			continue
		}
		var esc byte
		switch c {
		case '"':
			esc = '"'
		case '\\':
			esc = '\\'
		case '\n':
			esc = 'n'
		case '\r':
			esc = 'r'
		case '\t':
			esc = 't'
		case '\b':
			esc = 'b'
		case '\f':
			esc = 'f'
		}
		if esc != 0 {
			buf = append(buf, s[start:i]...)
			buf = append(buf, '\\', esc)
			i++
			start = i
			continue
		}

		r, size := utf8.DecodeRuneInString(s[i:])
		switch {
		case r == utf8.RuneError && size == 1:
			buf = append(buf, s[start:i]...)
			buf = append(buf, "\ufffd"...)
		case !mark.IsPrintable(r):
			buf = append(buf, s[start:i]...)
			buf = append(buf, '\\', 'u',
				hexDigits[r>>12&0xF], hexDigits[r>>8&0xF], hexDigits[r>>4&0xF], hexDigits[r&0xF])
		default:
			i += size
			continue
		}
		i += size
		start = i
	}
	buf = append(buf, s[start:]...)
	return append(buf, '"')
}

// appendFloat appends f so that it resolves back to a float: a fraction is
// added when the shortest form has neither a dot nor an exponent.
func appendFloat(buf []byte, f float64, bits int) ([]byte, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return buf, fmt.Errorf("markedjson: unsupported value %v", f)
	}
	start := len(buf)
	buf = strconv.AppendFloat(buf, f, 'g', -1, bits)
	for _, c := range buf[start:] {
		if c == '.' || c == 'e' {
			return buf, nil
		}
	}
	return append(buf, '.', '0'), nil
}
