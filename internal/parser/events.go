package parser

import (
	"github.com/shapestone/shape-markedjson/internal/resolver"
	"github.com/shapestone/shape-markedjson/pkg/mark"
)

// EventKind identifies a parse event.
type EventKind int

const (
	StreamStartEvent EventKind = iota + 1
	StreamEndEvent
	DocumentStartEvent
	DocumentEndEvent
	ScalarEvent
	SequenceStartEvent
	SequenceEndEvent
	MappingStartEvent
	MappingEndEvent
)

var eventNames = map[EventKind]string{
	StreamStartEvent:   "StreamStart",
	StreamEndEvent:     "StreamEnd",
	DocumentStartEvent: "DocumentStart",
	DocumentEndEvent:   "DocumentEnd",
	ScalarEvent:        "Scalar",
	SequenceStartEvent: "SequenceStart",
	SequenceEndEvent:   "SequenceEnd",
	MappingStartEvent:  "MappingStart",
	MappingEndEvent:    "MappingEnd",
}

func (k EventKind) String() string {
	if name, ok := eventNames[k]; ok {
		return name
	}
	return "Unknown"
}

// Event is one step of the parse.
type Event struct {
	Kind  EventKind
	Start mark.Mark
	End   mark.Mark

	// Tag is left unresolved by the parser; the composer fills it in.
	Tag resolver.Tag

	// Scalar only.
	Value          string
	ImplicitPlain  bool // plain scalar, resolved by content
	ImplicitQuoted bool // quoted scalar, always a string
	Style          rune

	// Collections are always flow style in this language, the flag is kept
	// for consumers that render events back.
	FlowStyle bool
}
