// Package mark provides source positions that survive parsing.
//
// A Mark records the source name, line, column and character offset of a
// point in the input, together with the decoded buffer it points into. The
// buffer is shared by every Mark of one document, so a Mark can render the
// offending source line long after the parser that produced it is gone.
//
// Lines, columns and offsets are 0-based; String and Position report them
// 1-based for humans.
package mark

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shapestone/shape-core/pkg/ast"
)

// Default snippet geometry used by String.
const (
	DefaultIndent    = 4
	DefaultMaxLength = 75
)

// Mark is an immutable position in a decoded source buffer.
type Mark struct {
	Name   string
	Line   int
	Column int
	Offset int
	Buffer []rune
}

// NonPrintable matches a single character that may not appear in a source
// document. The reader rejects such characters; snippets escape them.
var NonPrintable = regexp.MustCompile(`[^\t\n\x20-\x7E\x{85}\x{A0}-\x{D7FF}\x{E000}-\x{FFFD}\x{10000}-\x{10FFFF}]`)

// Advance returns a copy of m moved n characters to the right on the same
// line. It does not account for escape sequences in quoted scalars.
func (m Mark) Advance(n int) Mark {
	m.Column += n
	m.Offset += n
	return m
}

// Position converts m to a shape-core AST position (1-based line and column).
func (m Mark) Position() ast.Position {
	return ast.NewPosition(m.Offset, m.Line+1, m.Column+1)
}

// IsZero reports whether m was never set.
func (m Mark) IsZero() bool {
	return m.Name == "" && m.Buffer == nil && m.Line == 0 && m.Column == 0 && m.Offset == 0
}

// SamePlace reports whether m and o point at the same source location.
func (m Mark) SamePlace(o Mark) bool {
	return m.Name == o.Name && m.Line == o.Line && m.Column == o.Column
}

// Snippet renders the line around m with a caret under the marked column.
// Lines longer than maxLength are cut on either side with " ... ".
// It returns "" when m has no buffer.
func (m Mark) Snippet(indent, maxLength int) string {
	if m.Buffer == nil {
		return ""
	}
	half := maxLength/2 - 1

	head := ""
	start := m.Offset
	for start > 0 && !isLineStop(m.Buffer[start-1]) {
		start--
		if m.Offset-start > half {
			head = " ... "
			start += 5
			break
		}
	}

	tail := ""
	end := m.Offset
	for end < len(m.Buffer) && !isLineStop(m.Buffer[end]) {
		end++
		if end-m.Offset > half {
			tail = " ... "
			end -= 5
			break
		}
	}

	before := transliterate(string(m.Buffer[start:m.Offset]))
	at := " "
	after := ""
	if m.Offset < len(m.Buffer) && !isLineStop(m.Buffer[m.Offset]) {
		at = transliterate(string(m.Buffer[m.Offset]))
		if end > m.Offset+1 {
			after = transliterate(string(m.Buffer[m.Offset+1 : end]))
		}
	}

	pad := strings.Repeat(" ", indent)
	var b strings.Builder
	b.WriteString(pad)
	b.WriteString(head)
	b.WriteString(before)
	b.WriteString(at)
	b.WriteString(after)
	b.WriteString(tail)
	b.WriteByte('\n')
	b.WriteString(pad)
	b.WriteString(strings.Repeat(" ", len([]rune(head))+len([]rune(before))))
	b.WriteByte('^')
	return b.String()
}

// String renders m as `  in "name", line L, column C:` followed by the snippet.
func (m Mark) String() string {
	where := fmt.Sprintf("  in %q, line %d, column %d", m.Name, m.Line+1, m.Column+1)
	if snippet := m.Snippet(DefaultIndent, DefaultMaxLength); snippet != "" {
		where += ":\n" + snippet
	}
	return where
}

func isLineStop(r rune) bool {
	return r == 0 || r == '\n'
}

// transliterate makes s safe to print on one line: tabs become ">---" and
// characters the reader would reject become <xNNNN>.
func transliterate(s string) string {
	s = strings.ReplaceAll(s, "\t", ">---")
	return NonPrintable.ReplaceAllStringFunc(s, func(c string) string {
		return fmt.Sprintf("<x%04x>", []rune(c)[0])
	})
}

// IsPrintable reports whether r may appear literally in a source document.
// It agrees with NonPrintable.
func IsPrintable(r rune) bool {
	switch {
	case r == '\t' || r == '\n' || r == 0x85:
		return true
	case r >= 0x20 && r <= 0x7E:
		return true
	case r >= 0xA0 && r <= 0xD7FF:
		return true
	case r >= 0xE000 && r <= 0xFFFD:
		return true
	case r >= 0x10000 && r <= 0x10FFFF:
		return true
	}
	return false
}
