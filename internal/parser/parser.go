// Package parser turns scanner tokens into a stream of parse events.
//
// The grammar is the flow subset of YAML that JSON documents use:
//
//	stream   = STREAM-START node? STREAM-END ;
//	node     = SCALAR | sequence | mapping ;
//	sequence = "[" ( node ( "," node )* ","? )? "]" ;
//	mapping  = "{" ( entry ( "," entry )* ","? )? "}" ;
//	entry    = KEY node ":" node ;
//
// Nesting is tracked with an explicit resume stack instead of recursion, so
// the parser itself uses no call stack per level. The composer and the
// constructor still recurse once per level and rely on goroutine stack
// growth for deep documents. A trailing comma is
// reported through the sink and tolerated; everything else that breaks the
// grammar is a fatal *mark.Error.
package parser

import (
	"fmt"

	"github.com/shapestone/shape-markedjson/internal/scanner"
	"github.com/shapestone/shape-markedjson/pkg/mark"
)

// state names the production that runs when the next event is requested.
type state int

const (
	stateStreamStart state = iota
	stateImplicitDocumentStart
	stateDocumentStart
	stateDocumentEnd
	stateNode
	stateFlowSequenceFirstEntry
	stateFlowSequenceEntry
	stateFlowMappingFirstKey
	stateFlowMappingKey
	stateFlowMappingValue
	stateEnd
)

// Parser produces events from a Scanner on demand.
type Parser struct {
	sc   *scanner.Scanner
	sink mark.Sink

	current *Event
	state   state
	states  []state     // states to resume once the current node is done
	marks   []mark.Mark // opening bracket of every open collection
}

// New returns a Parser reading tokens from sc. Recoverable problems go to
// sink; a nil sink discards them.
func New(sc *scanner.Scanner, sink mark.Sink) *Parser {
	if sink == nil {
		sink = mark.Discard
	}
	return &Parser{sc: sc, sink: sink, state: stateStreamStart}
}

// Check reports whether the next event is one of kinds. With no kinds it
// reports whether any event is left.
func (p *Parser) Check(kinds ...EventKind) (bool, error) {
	ev, err := p.Peek()
	if err != nil || ev == nil {
		return false, err
	}
	if len(kinds) == 0 {
		return true, nil
	}
	for _, k := range kinds {
		if ev.Kind == k {
			return true, nil
		}
	}
	return false, nil
}

// Peek returns the next event without consuming it, or nil after StreamEnd.
func (p *Parser) Peek() (*Event, error) {
	if p.current == nil && p.state != stateEnd {
		ev, err := p.step()
		if err != nil {
			return nil, err
		}
		p.current = ev
	}
	return p.current, nil
}

// Next consumes and returns the next event, or nil after StreamEnd.
func (p *Parser) Next() (*Event, error) {
	ev, err := p.Peek()
	if err != nil {
		return nil, err
	}
	p.current = nil
	return ev, nil
}

func (p *Parser) step() (*Event, error) {
	switch p.state {
	case stateStreamStart:
		return p.parseStreamStart()
	case stateImplicitDocumentStart:
		return p.parseImplicitDocumentStart()
	case stateDocumentStart:
		return p.parseDocumentStart()
	case stateDocumentEnd:
		return p.parseDocumentEnd()
	case stateNode:
		return p.parseNode()
	case stateFlowSequenceFirstEntry:
		return p.parseFlowSequenceFirstEntry()
	case stateFlowSequenceEntry:
		return p.parseFlowSequenceEntry(false)
	case stateFlowMappingFirstKey:
		return p.parseFlowMappingFirstKey()
	case stateFlowMappingKey:
		return p.parseFlowMappingKey(false)
	case stateFlowMappingValue:
		return p.parseFlowMappingValue()
	}
	return nil, nil
}

// Token helpers. The scanner always ends with StreamEnd before running dry,
// so peeking past it means the parser itself is broken.

func (p *Parser) peekToken() (scanner.Token, error) {
	tok, ok, err := p.sc.Peek()
	if err != nil {
		return scanner.Token{}, err
	}
	if !ok {
		return scanner.Token{}, fmt.Errorf("parser: token requested after %s", scanner.StreamEnd)
	}
	return tok, nil
}

func (p *Parser) nextToken() (scanner.Token, error) {
	tok, ok, err := p.sc.Next()
	if err != nil {
		return scanner.Token{}, err
	}
	if !ok {
		return scanner.Token{}, fmt.Errorf("parser: token requested after %s", scanner.StreamEnd)
	}
	return tok, nil
}

func (p *Parser) checkToken(kinds ...scanner.Kind) (bool, error) {
	return p.sc.Check(kinds...)
}

func (p *Parser) push(s state) {
	p.states = append(p.states, s)
}

func (p *Parser) pop() state {
	s := p.states[len(p.states)-1]
	p.states = p.states[:len(p.states)-1]
	return s
}

func (p *Parser) openMark() *mark.Mark {
	m := p.marks[len(p.marks)-1]
	return &m
}

// errorAt builds a fatal parser error pointing at tok, with the innermost
// open bracket as context.
func (p *Parser) errorAt(context, format string, tok scanner.Token) error {
	return mark.NewError(mark.KindParser, context, p.openMark(),
		fmt.Sprintf(format, tok.Kind), &tok.Start)
}

// Stream and document productions.

func (p *Parser) parseStreamStart() (*Event, error) {
	tok, err := p.nextToken()
	if err != nil {
		return nil, err
	}
	p.state = stateImplicitDocumentStart
	return &Event{Kind: StreamStartEvent, Start: tok.Start, End: tok.End}, nil
}

func (p *Parser) parseImplicitDocumentStart() (*Event, error) {
	end, err := p.checkToken(scanner.StreamEnd)
	if err != nil {
		return nil, err
	}
	if end {
		return p.parseDocumentStart()
	}
	tok, err := p.peekToken()
	if err != nil {
		return nil, err
	}
	p.push(stateDocumentEnd)
	p.state = stateNode
	return &Event{Kind: DocumentStartEvent, Start: tok.Start, End: tok.Start}, nil
}

// parseDocumentStart only ever sees the end of the stream: a document is
// implicit and there is at most one.
func (p *Parser) parseDocumentStart() (*Event, error) {
	tok, err := p.peekToken()
	if err != nil {
		return nil, err
	}
	if tok.Kind != scanner.StreamEnd {
		return nil, mark.NewError(mark.KindParser, "", nil,
			fmt.Sprintf("expected '%s', but found %s", scanner.StreamEnd, tok.Kind), &tok.Start)
	}
	if _, err := p.nextToken(); err != nil {
		return nil, err
	}
	p.state = stateEnd
	return &Event{Kind: StreamEndEvent, Start: tok.Start, End: tok.End}, nil
}

func (p *Parser) parseDocumentEnd() (*Event, error) {
	tok, err := p.peekToken()
	if err != nil {
		return nil, err
	}
	p.state = stateDocumentStart
	return &Event{Kind: DocumentEndEvent, Start: tok.Start, End: tok.Start}, nil
}

// Node productions.

func (p *Parser) parseNode() (*Event, error) {
	tok, err := p.peekToken()
	if err != nil {
		return nil, err
	}
	start := tok.Start

	switch tok.Kind {
	case scanner.Scalar:
		if _, err := p.nextToken(); err != nil {
			return nil, err
		}
		p.state = p.pop()
		return &Event{
			Kind:           ScalarEvent,
			Start:          start,
			End:            tok.End,
			Value:          tok.Value,
			ImplicitPlain:  tok.Plain,
			ImplicitQuoted: !tok.Plain,
			Style:          tok.Style,
		}, nil
	case scanner.FlowSequenceStart:
		p.state = stateFlowSequenceFirstEntry
		return &Event{Kind: SequenceStartEvent, Start: start, End: tok.End, FlowStyle: true}, nil
	case scanner.FlowMappingStart:
		p.state = stateFlowMappingFirstKey
		return &Event{Kind: MappingStartEvent, Start: start, End: tok.End, FlowStyle: true}, nil
	}

	return nil, mark.NewError(mark.KindParser,
		"while parsing a flow node", &start,
		fmt.Sprintf("expected the node content, but found %s", tok.Kind), &tok.Start)
}

// Sequence productions.

func (p *Parser) parseFlowSequenceFirstEntry() (*Event, error) {
	tok, err := p.nextToken()
	if err != nil {
		return nil, err
	}
	p.marks = append(p.marks, tok.Start)
	return p.parseFlowSequenceEntry(true)
}

func (p *Parser) parseFlowSequenceEntry(first bool) (*Event, error) {
	const context = "while parsing a flow sequence"

	tok, err := p.peekToken()
	if err != nil {
		return nil, err
	}
	if tok.Kind != scanner.FlowSequenceEnd {
		if !first {
			if tok.Kind != scanner.FlowEntry {
				return nil, p.errorAt(context, "expected ',' or ']', but got %s", tok)
			}
			if _, err := p.nextToken(); err != nil {
				return nil, err
			}
			if tok, err = p.peekToken(); err != nil {
				return nil, err
			}
			if tok.Kind == scanner.FlowSequenceEnd {
				p.sink(mark.Diagnostic{
					Context:     context,
					ContextMark: p.openMark(),
					Problem:     fmt.Sprintf("expected sequence value, but got %s", tok.Kind),
					ProblemMark: &tok.Start,
				})
			}
		}
		if tok.Kind != scanner.FlowSequenceEnd {
			p.push(stateFlowSequenceEntry)
			return p.parseNode()
		}
	}

	if _, err := p.nextToken(); err != nil {
		return nil, err
	}
	p.state = p.pop()
	p.marks = p.marks[:len(p.marks)-1]
	return &Event{Kind: SequenceEndEvent, Start: tok.Start, End: tok.End}, nil
}

// Mapping productions.

func (p *Parser) parseFlowMappingFirstKey() (*Event, error) {
	tok, err := p.nextToken()
	if err != nil {
		return nil, err
	}
	p.marks = append(p.marks, tok.Start)
	return p.parseFlowMappingKey(true)
}

func (p *Parser) parseFlowMappingKey(first bool) (*Event, error) {
	const context = "while parsing a flow mapping"

	tok, err := p.peekToken()
	if err != nil {
		return nil, err
	}
	if tok.Kind != scanner.FlowMappingEnd {
		if !first {
			if tok.Kind != scanner.FlowEntry {
				return nil, p.errorAt(context, "expected ',' or '}', but got %s", tok)
			}
			if _, err := p.nextToken(); err != nil {
				return nil, err
			}
			if tok, err = p.peekToken(); err != nil {
				return nil, err
			}
			if tok.Kind == scanner.FlowMappingEnd {
				p.sink(mark.Diagnostic{
					Context:     context,
					ContextMark: p.openMark(),
					Problem:     fmt.Sprintf("expected mapping key, but got %s", tok.Kind),
					ProblemMark: &tok.Start,
				})
			}
		}

		switch tok.Kind {
		case scanner.FlowMappingEnd:
		case scanner.Key:
			if _, err := p.nextToken(); err != nil {
				return nil, err
			}
			if tok, err = p.peekToken(); err != nil {
				return nil, err
			}
			switch tok.Kind {
			case scanner.Value, scanner.FlowEntry, scanner.FlowMappingEnd:
				return nil, p.errorAt(context, "expected value, but got %s", tok)
			}
			p.push(stateFlowMappingValue)
			return p.parseNode()
		default:
			return nil, p.missingKey(context, tok)
		}
	}

	if _, err := p.nextToken(); err != nil {
		return nil, err
	}
	p.state = p.pop()
	p.marks = p.marks[:len(p.marks)-1]
	return &Event{Kind: MappingEndEvent, Start: tok.Start, End: tok.End}, nil
}

// missingKey explains why no key was found at tok. A ':' or ',' in key
// position, or a node directly followed by ':', means the key itself is
// wrong; otherwise the node was never followed by a ':' on its line.
func (p *Parser) missingKey(context string, tok scanner.Token) error {
	expectKey := tok.Kind == scanner.Value || tok.Kind == scanner.FlowEntry
	if !expectKey {
		if _, err := p.nextToken(); err != nil {
			return err
		}
		next, err := p.peekToken()
		if err != nil {
			return err
		}
		if next.Kind != scanner.Value {
			return p.errorAt(context, "expected ':', but got %s", next)
		}
	}
	return p.errorAt(context, "expected string key, but got %s", tok)
}

func (p *Parser) parseFlowMappingValue() (*Event, error) {
	tok, err := p.peekToken()
	if err != nil {
		return nil, err
	}
	if tok.Kind == scanner.Value {
		if _, err := p.nextToken(); err != nil {
			return nil, err
		}
		if tok, err = p.peekToken(); err != nil {
			return nil, err
		}
		if tok.Kind != scanner.FlowEntry && tok.Kind != scanner.FlowMappingEnd {
			p.push(stateFlowMappingKey)
			return p.parseNode()
		}
	}
	return nil, p.errorAt("while parsing a flow mapping", "expected mapping value, but got %s", tok)
}
