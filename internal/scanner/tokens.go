// Package scanner tokenizes a JSON-shaped flow document.
package scanner

import "github.com/shapestone/shape-markedjson/pkg/mark"

// Kind identifies a token. The string form is what error messages show.
type Kind int

const (
	// Stream delimiters
	StreamStart Kind = iota + 1 // emitted before anything else
	StreamEnd                   // emitted once at the end of input

	// Flow collection indicators
	FlowSequenceStart // [
	FlowSequenceEnd   // ]
	FlowMappingStart  // {
	FlowMappingEnd    // }
	FlowEntry         // ,

	// Mapping indicators
	Key   // synthetic, inserted before a simple key once ':' is seen
	Value // :

	// Content
	Scalar // quoted string or plain number/bool/null lexeme
)

var kindNames = map[Kind]string{
	StreamStart:       "<stream start>",
	StreamEnd:         "<stream end>",
	FlowSequenceStart: "'['",
	FlowSequenceEnd:   "']'",
	FlowMappingStart:  "'{'",
	FlowMappingEnd:    "'}'",
	FlowEntry:         "','",
	Key:               "'?'",
	Value:             "':'",
	Scalar:            "<scalar>",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "<unknown>"
}

// Token is one lexical unit with its source span.
type Token struct {
	Kind  Kind
	Start mark.Mark
	End   mark.Mark

	// Scalar only.
	Value string
	Plain bool
	Style rune // '"' for double-quoted scalars, 0 for plain ones
}
