package mark

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

// TestDiagnosticString verifies absent fields are skipped
func TestDiagnosticString(t *testing.T) {
	open := markAt(`{"a": }`, 0)
	at := markAt(`{"a": }`, 6)

	tests := []struct {
		name string
		d    Diagnostic
		want []string
	}{
		{
			name: "problem only",
			d:    Diagnostic{Problem: "found duplicate key"},
			want: []string{"found duplicate key"},
		},
		{
			name: "full",
			d: Diagnostic{
				Context:     "while parsing a flow mapping",
				ContextMark: &open,
				Problem:     "expected mapping value, but got '}'",
				ProblemMark: &at,
				Note:        "check the value",
			},
			want: []string{
				"while parsing a flow mapping",
				open.String(),
				"expected mapping value, but got '}'",
				at.String(),
				"check the value",
			},
		},
		{
			name: "context mark equal to problem mark",
			d: Diagnostic{
				Context:     "while parsing a flow node",
				ContextMark: &at,
				Problem:     "expected the node content, but found '}'",
				ProblemMark: &at,
			},
			want: []string{
				"while parsing a flow node",
				"expected the node content, but found '}'",
				at.String(),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got, want := tt.d.String(), strings.Join(tt.want, "\n"); got != want {
				t.Errorf("String() =\n%s\nwant\n%s", got, want)
			}
		})
	}
}

// TestErrorIs verifies sentinel matching through wrapping
func TestErrorIs(t *testing.T) {
	m := markAt("[1 2]", 3)
	err := fmt.Errorf("loading: %w", NewError(KindParser, "while parsing a flow sequence", nil, "expected ',' or ']', but got <scalar>", &m))

	if !errors.Is(err, ErrParser) {
		t.Error("errors.Is(err, ErrParser) = false")
	}
	if errors.Is(err, ErrScanner) {
		t.Error("errors.Is(err, ErrScanner) = true")
	}

	var merr *Error
	if !errors.As(err, &merr) {
		t.Fatal("errors.As failed")
	}
	if merr.Mark() == nil || merr.Mark().Column != 3 {
		t.Errorf("Mark() = %+v, want column 3", merr.Mark())
	}
	if merr.Kind.String() != "parser" {
		t.Errorf("Kind = %s", merr.Kind)
	}
}

// TestNewErrorCopiesMarks verifies later changes to the caller's mark do not leak
func TestNewErrorCopiesMarks(t *testing.T) {
	m := markAt("[1 2]", 3)
	err := NewError(KindScanner, "", nil, "problem", &m)
	m.Column = 99
	if err.ProblemMark.Column != 3 {
		t.Errorf("ProblemMark.Column = %d, want 3", err.ProblemMark.Column)
	}
}
