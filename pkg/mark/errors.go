package mark

import (
	"errors"
	"strings"
)

// Diagnostic describes one problem found in a source document.
//
// Context and ContextMark locate the construct being processed (for example
// the opening bracket of a mapping); Problem and ProblemMark locate the
// offending character. Empty strings and nil marks are treated as absent.
type Diagnostic struct {
	Context     string
	ContextMark *Mark
	Problem     string
	ProblemMark *Mark
	Note        string
}

// String joins the present fields with newlines, rendering every Mark with
// its source snippet. The context mark is skipped when it points at the same
// place as the problem mark.
func (d Diagnostic) String() string {
	var lines []string
	if d.Context != "" {
		lines = append(lines, d.Context)
	}
	if d.ContextMark != nil &&
		(d.Problem == "" || d.ProblemMark == nil || !d.ContextMark.SamePlace(*d.ProblemMark)) {
		lines = append(lines, d.ContextMark.String())
	}
	if d.Problem != "" {
		lines = append(lines, d.Problem)
	}
	if d.ProblemMark != nil {
		lines = append(lines, d.ProblemMark.String())
	}
	if d.Note != "" {
		lines = append(lines, d.Note)
	}
	return strings.Join(lines, "\n")
}

// Kind classifies fatal errors by the pipeline stage that raised them.
type Kind int

const (
	KindReader Kind = iota + 1
	KindScanner
	KindParser
	KindComposer
	KindConstructor
)

func (k Kind) String() string {
	switch k {
	case KindReader:
		return "reader"
	case KindScanner:
		return "scanner"
	case KindParser:
		return "parser"
	case KindComposer:
		return "composer"
	case KindConstructor:
		return "constructor"
	default:
		return "unknown"
	}
}

// Sentinel errors matched by errors.Is against an *Error of the same Kind.
var (
	ErrReader      = errors.New("reader error")
	ErrScanner     = errors.New("scanner error")
	ErrParser      = errors.New("parser error")
	ErrComposer    = errors.New("composer error")
	ErrConstructor = errors.New("constructor error")
)

var sentinels = map[Kind]error{
	KindReader:      ErrReader,
	KindScanner:     ErrScanner,
	KindParser:      ErrParser,
	KindComposer:    ErrComposer,
	KindConstructor: ErrConstructor,
}

// Error is a fatal, positioned error. It aborts the current document.
type Error struct {
	Kind Kind
	Diagnostic
}

// NewError builds an *Error. Marks are copied so the caller may reuse them.
func NewError(kind Kind, context string, contextMark *Mark, problem string, problemMark *Mark) *Error {
	return &Error{Kind: kind, Diagnostic: Diagnostic{
		Context:     context,
		ContextMark: clone(contextMark),
		Problem:     problem,
		ProblemMark: clone(problemMark),
	}}
}

func (e *Error) Error() string {
	return e.Diagnostic.String()
}

// Is reports whether target is the sentinel for e.Kind.
func (e *Error) Is(target error) bool {
	return sentinels[e.Kind] == target
}

// Mark returns the most precise mark attached to e, or nil.
func (e *Error) Mark() *Mark {
	if e.ProblemMark != nil {
		return e.ProblemMark
	}
	return e.ContextMark
}

func clone(m *Mark) *Mark {
	if m == nil {
		return nil
	}
	c := *m
	return &c
}
