package reader

import (
	"errors"
	"strings"
	"testing"

	"github.com/shapestone/shape-markedjson/pkg/mark"
)

// TestForwardTracksLines verifies line and column bookkeeping
func TestForwardTracksLines(t *testing.T) {
	rd, err := FromBytes("t", []byte("ab\ncd"))
	if err != nil {
		t.Fatalf("FromBytes() error: %v", err)
	}

	rd.Forward(4)
	m := rd.Mark()
	if m.Line != 1 || m.Column != 1 || m.Offset != 4 {
		t.Errorf("Mark() = line %d column %d offset %d, want 1/1/4", m.Line, m.Column, m.Offset)
	}
	if rd.Peek(0) != 'd' {
		t.Errorf("Peek(0) = %q, want 'd'", rd.Peek(0))
	}
	if rd.Peek(1) != End {
		t.Errorf("Peek(1) = %q, want End", rd.Peek(1))
	}

	rd.Forward(10)
	if rd.Mark().Offset != 5 {
		t.Errorf("Forward past end moved to offset %d", rd.Mark().Offset)
	}
}

// TestPrefix verifies the prefix is clipped at the end of input
func TestPrefix(t *testing.T) {
	rd, err := FromBytes("t", []byte("null"))
	if err != nil {
		t.Fatalf("FromBytes() error: %v", err)
	}
	if got := rd.Prefix(2); got != "nu" {
		t.Errorf("Prefix(2) = %q", got)
	}
	if got := rd.Prefix(10); got != "null" {
		t.Errorf("Prefix(10) = %q", got)
	}
}

// TestByteOrderMark verifies a leading BOM is dropped
func TestByteOrderMark(t *testing.T) {
	rd, err := New("t", strings.NewReader("\xef\xbb\xbf{}"))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if rd.Peek(0) != '{' {
		t.Errorf("Peek(0) = %q, want '{'", rd.Peek(0))
	}
	if rd.Name() != "t" {
		t.Errorf("Name() = %q", rd.Name())
	}
}

// TestInvalidInput verifies decoding and character errors
func TestInvalidInput(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		problem string
		line    int
		column  int
	}{
		{
			name:    "bad start byte",
			input:   "{\"a\": \xff}",
			problem: "'utf-8' codec can't decode byte #xff: invalid start byte",
			column:  6,
		},
		{
			name:    "stray continuation byte",
			input:   "[\n\x80]",
			problem: "'utf-8' codec can't decode byte #x80: invalid start byte",
			line:    1,
		},
		{
			name:    "truncated sequence",
			input:   "[\xe2\x82",
			problem: "'utf-8' codec can't decode byte #xe2: unexpected end of data",
			column:  1,
		},
		{
			name:    "control character",
			input:   "[1,\x01]",
			problem: "unacceptable character #x0001: special characters are not allowed",
			column:  3,
		},
		{
			name:    "carriage return",
			input:   "{}\r\n",
			problem: "unacceptable character #x000d: special characters are not allowed",
			column:  2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromBytes("t", []byte(tt.input))
			if err == nil {
				t.Fatal("FromBytes() expected error")
			}
			if !errors.Is(err, mark.ErrReader) {
				t.Errorf("error is not a reader error: %v", err)
			}
			var merr *mark.Error
			if !errors.As(err, &merr) {
				t.Fatalf("error type %T", err)
			}
			if merr.Problem != tt.problem {
				t.Errorf("Problem = %q, want %q", merr.Problem, tt.problem)
			}
			m := merr.Mark()
			if m.Line != tt.line || m.Column != tt.column {
				t.Errorf("mark = line %d column %d, want %d/%d", m.Line, m.Column, tt.line, tt.column)
			}
		})
	}
}

// TestQuotedRun verifies the literal run stops at quotes, escapes, blanks
// and line breaks, counting characters rather than bytes
func TestQuotedRun(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"abc\"", 3},
		{"ab\\n\"", 2},
		{"h\u00e9llo world\"", 5},
		{"x\ty", 1},
		{"one\ntwo", 3},
		{"\u4e16\u754c", 2},
		{"", 0},
		{"\"", 0},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			rd, err := FromBytes("t", []byte(tt.input))
			if err != nil {
				t.Fatalf("FromBytes() error: %v", err)
			}
			if got := rd.QuotedRun(); got != tt.want {
				t.Errorf("QuotedRun() = %d, want %d", got, tt.want)
			}
			if rd.Mark().Offset != 0 {
				t.Error("QuotedRun() moved the reader")
			}
		})
	}
}

// TestTake verifies consuming reads advance marks by characters
func TestTake(t *testing.T) {
	rd, err := FromBytes("t", []byte("\u00e9t\u00e9  42]"))
	if err != nil {
		t.Fatalf("FromBytes() error: %v", err)
	}

	if got := rd.Take(3); got != "\u00e9t\u00e9" {
		t.Errorf("Take(3) = %q", got)
	}
	if m := rd.Mark(); m.Column != 3 || m.Offset != 3 {
		t.Errorf("Mark() = column %d offset %d, want 3/3", m.Column, m.Offset)
	}
	if got := rd.TakeWhile(func(r rune) bool { return r == ' ' }); got != "  " {
		t.Errorf("TakeWhile(blank) = %q", got)
	}
	if got := rd.TakeWhile(func(r rune) bool { return r >= '0' && r <= '9' }); got != "42" {
		t.Errorf("TakeWhile(digit) = %q", got)
	}
	if rd.Peek(0) != ']' {
		t.Errorf("Peek(0) = %q, want ']'", rd.Peek(0))
	}
	if got := rd.Take(5); got != "]" {
		t.Errorf("Take past end = %q", got)
	}
	if rd.Peek(0) != End {
		t.Errorf("Peek(0) at end = %q", rd.Peek(0))
	}
}

// TestMarkBuffer verifies marks carry the decoded input for snippets
func TestMarkBuffer(t *testing.T) {
	rd, err := FromBytes("t", []byte("\xef\xbb\xbf[1]"))
	if err != nil {
		t.Fatalf("FromBytes() error: %v", err)
	}
	rd.Forward(1)
	m := rd.Mark()
	if string(m.Buffer) != "[1]" {
		t.Errorf("Buffer = %q, want %q", string(m.Buffer), "[1]")
	}
	if m.Column != 1 || m.Offset != 1 {
		t.Errorf("Mark() = column %d offset %d, want 1/1", m.Column, m.Offset)
	}
}
