// Package reader turns a raw byte stream into a checked character stream.
//
// The whole stream is read and validated once, up front, then handed to a
// shape-core tokenizer stream which owns the cursor and the line and column
// bookkeeping. Invalid UTF-8 and characters outside the printable set are
// rejected with a positioned error. Past the last character the reader
// yields the sentinel 0, so callers never need a separate end-of-input path.
package reader

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/shapestone/shape-core/pkg/tokenizer"

	"github.com/shapestone/shape-markedjson/pkg/mark"
)

// End is returned by Peek past the end of the input.
const End rune = 0

const bom = '\uFEFF'

// runStops ends a run of literal characters inside a double-quoted scalar,
// together with the quote and backslash found by FindEscapeOrQuote.
const runStops = " \t\n"

// Reader is a character stream with line and column bookkeeping.
type Reader struct {
	name   string
	stream tokenizer.Stream
	bytes  tokenizer.ByteStream // nil when the stream has no byte access

	// buffer holds the decoded input for mark snippets.
	buffer []rune
}

// New reads all of r and decodes it. name is used in marks.
func New(name string, r io.Reader) (*Reader, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	return FromBytes(name, raw)
}

// FromBytes decodes raw. A leading byte order mark is skipped.
func FromBytes(name string, raw []byte) (*Reader, error) {
	buffer := make([]rune, 0, len(raw))
	for i := 0; i < len(raw); {
		r, size := utf8.DecodeRune(raw[i:])
		if r == utf8.RuneError && size <= 1 {
			// The tokenizer stream would turn the byte into U+FFFD, so the
			// decoded prefix is used to place the mark.
			rd := newReader(name, buffer)
			rd.Forward(len(buffer))
			m := rd.Mark()
			return nil, mark.NewError(mark.KindReader,
				"while decoding the input", nil,
				fmt.Sprintf("'utf-8' codec can't decode byte #x%02x: %s", raw[i], decodeReason(raw[i:])),
				&m)
		}
		if !(i == 0 && r == bom) {
			buffer = append(buffer, r)
		}
		i += size
	}

	rd := newReader(name, buffer)
	text := string(buffer)
	if loc := mark.NonPrintable.FindStringIndex(text); loc != nil {
		bad, _ := utf8.DecodeRuneInString(text[loc[0]:])
		rd.Forward(utf8.RuneCountInString(text[:loc[0]]))
		m := rd.Mark()
		return nil, mark.NewError(mark.KindReader,
			"while reading the input", nil,
			fmt.Sprintf("unacceptable character #x%04x: special characters are not allowed", bad),
			&m)
	}
	return rd, nil
}

func newReader(name string, buffer []rune) *Reader {
	stream := tokenizer.NewStream(string(buffer))
	bs, _ := stream.(tokenizer.ByteStream)
	return &Reader{name: name, stream: stream, bytes: bs, buffer: buffer}
}

// decodeReason mirrors the wording of common UTF-8 decoders.
func decodeReason(b []byte) string {
	switch c := b[0]; {
	case c&0xC0 == 0x80:
		return "invalid start byte"
	case c >= 0xF8:
		return "invalid start byte"
	case !utf8.FullRune(b):
		return "unexpected end of data"
	default:
		return "invalid continuation byte"
	}
}

// Name returns the source name.
func (rd *Reader) Name() string {
	return rd.name
}

// Peek returns the character i positions ahead, or End.
func (rd *Reader) Peek(i int) rune {
	if i == 0 {
		r, _ := rd.stream.PeekChar()
		return r
	}
	ahead := rd.stream.Clone()
	for ; i > 0; i-- {
		if _, ok := ahead.NextChar(); !ok {
			return End
		}
	}
	r, _ := ahead.PeekChar()
	return r
}

// Prefix returns up to n characters from the current position.
func (rd *Reader) Prefix(n int) string {
	var b strings.Builder
	ahead := rd.stream.Clone()
	for ; n > 0; n-- {
		r, ok := ahead.NextChar()
		if !ok {
			break
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Take consumes up to n characters and returns them.
func (rd *Reader) Take(n int) string {
	var b strings.Builder
	for ; n > 0; n-- {
		r, ok := rd.stream.NextChar()
		if !ok {
			break
		}
		b.WriteRune(r)
	}
	return b.String()
}

// TakeWhile consumes characters as long as accept reports true.
func (rd *Reader) TakeWhile(accept func(rune) bool) string {
	var b strings.Builder
	for {
		r, ok := rd.stream.PeekChar()
		if !ok || !accept(r) {
			return b.String()
		}
		rd.stream.NextChar()
		b.WriteRune(r)
	}
}

// QuotedRun returns the number of characters before the next quote,
// backslash, blank or line break. It does not move the reader.
func (rd *Reader) QuotedRun() int {
	if rd.bytes == nil {
		n := 0
		for r := rd.Peek(0); r != End && r != '"' && r != '\\' && !strings.ContainsRune(runStops, r); r = rd.Peek(n) {
			n++
		}
		return n
	}
	rest := rd.bytes.RemainingBytes()
	if i := tokenizer.FindEscapeOrQuote(rest); i >= 0 {
		rest = rest[:i]
	}
	if i := bytes.IndexAny(rest, runStops); i >= 0 {
		rest = rest[:i]
	}
	return utf8.RuneCount(rest)
}

// Forward consumes n characters. Moving past the end is a no-op.
func (rd *Reader) Forward(n int) {
	for ; n > 0; n-- {
		if _, ok := rd.stream.NextChar(); !ok {
			return
		}
	}
}

// Line returns the current 0-based line.
func (rd *Reader) Line() int {
	return rd.stream.GetRow() - 1
}

// Mark returns the current position.
func (rd *Reader) Mark() mark.Mark {
	return mark.Mark{
		Name:   rd.name,
		Line:   rd.stream.GetRow() - 1,
		Column: rd.stream.GetColumn() - 1,
		Offset: rd.stream.GetOffset(),
		Buffer: rd.buffer,
	}
}
