// Package composer builds a node tree from parse events.
//
// Tags the parser left unresolved are assigned by the resolver while
// composing, so every node in the tree has a concrete tag.
package composer

import (
	"fmt"

	"github.com/shapestone/shape-markedjson/internal/parser"
	"github.com/shapestone/shape-markedjson/internal/resolver"
	"github.com/shapestone/shape-markedjson/pkg/mark"
)

// Composer turns the events of one parser into nodes.
type Composer struct {
	p *parser.Parser
	r *resolver.Resolver
}

// New returns a Composer over p resolving tags with r.
func New(p *parser.Parser, r *resolver.Resolver) *Composer {
	return &Composer{p: p, r: r}
}

// Single composes the only document of the stream. It returns nil for an
// empty stream.
func (c *Composer) Single() (*Node, error) {
	// Drop StreamStart.
	if _, err := c.next(); err != nil {
		return nil, err
	}

	var document *Node
	end, err := c.p.Check(parser.StreamEndEvent)
	if err != nil {
		return nil, err
	}
	if !end {
		if document, err = c.composeDocument(); err != nil {
			return nil, err
		}
	}

	if end, err = c.p.Check(parser.StreamEndEvent); err != nil {
		return nil, err
	}
	if !end {
		ev, err := c.next()
		if err != nil {
			return nil, err
		}
		var context *mark.Mark
		if document != nil {
			context = &document.Start
		}
		return nil, mark.NewError(mark.KindComposer,
			"expected a single document in the stream", context,
			"but found another document", &ev.Start)
	}

	// Drop StreamEnd.
	if _, err := c.next(); err != nil {
		return nil, err
	}
	return document, nil
}

func (c *Composer) next() (*parser.Event, error) {
	ev, err := c.p.Next()
	if err != nil {
		return nil, err
	}
	if ev == nil {
		return nil, fmt.Errorf("composer: event requested after %s", parser.StreamEndEvent)
	}
	return ev, nil
}

func (c *Composer) composeDocument() (*Node, error) {
	// Drop DocumentStart.
	if _, err := c.next(); err != nil {
		return nil, err
	}
	node, err := c.composeNode()
	if err != nil {
		return nil, err
	}
	// Drop DocumentEnd.
	if _, err := c.next(); err != nil {
		return nil, err
	}
	return node, nil
}

func (c *Composer) composeNode() (*Node, error) {
	ev, err := c.p.Peek()
	if err != nil {
		return nil, err
	}
	if ev == nil {
		return nil, fmt.Errorf("composer: node requested after %s", parser.StreamEndEvent)
	}
	switch ev.Kind {
	case parser.ScalarEvent:
		return c.composeScalar()
	case parser.SequenceStartEvent:
		return c.composeSequence()
	case parser.MappingStartEvent:
		return c.composeMapping()
	}
	return nil, fmt.Errorf("composer: unexpected %s event", ev.Kind)
}

func (c *Composer) composeScalar() (*Node, error) {
	ev, err := c.next()
	if err != nil {
		return nil, err
	}
	tag := ev.Tag
	if tag == resolver.TagNone {
		tag = c.r.Resolve(resolver.ScalarNode, ev.Value, ev.ImplicitPlain, ev.Start)
	}
	return &Node{
		Kind:  ScalarNode,
		Tag:   tag,
		Start: ev.Start,
		End:   ev.End,
		Value: ev.Value,
		Style: ev.Style,
	}, nil
}

func (c *Composer) composeSequence() (*Node, error) {
	start, err := c.next()
	if err != nil {
		return nil, err
	}
	tag := start.Tag
	if tag == resolver.TagNone {
		tag = c.r.Resolve(resolver.SequenceNode, "", false, start.Start)
	}
	node := &Node{Kind: SequenceNode, Tag: tag, Start: start.Start, Children: []*Node{}}
	for {
		done, err := c.p.Check(parser.SequenceEndEvent)
		if err != nil {
			return nil, err
		}
		if done {
			break
		}
		child, err := c.composeNode()
		if err != nil {
			return nil, err
		}
		node.Children = append(node.Children, child)
	}
	end, err := c.next()
	if err != nil {
		return nil, err
	}
	node.End = end.End
	return node, nil
}

func (c *Composer) composeMapping() (*Node, error) {
	start, err := c.next()
	if err != nil {
		return nil, err
	}
	tag := start.Tag
	if tag == resolver.TagNone {
		tag = c.r.Resolve(resolver.MappingNode, "", false, start.Start)
	}
	node := &Node{Kind: MappingNode, Tag: tag, Start: start.Start, Pairs: []Pair{}}
	for {
		done, err := c.p.Check(parser.MappingEndEvent)
		if err != nil {
			return nil, err
		}
		if done {
			break
		}
		key, err := c.composeNode()
		if err != nil {
			return nil, err
		}
		val, err := c.composeNode()
		if err != nil {
			return nil, err
		}
		// Duplicate keys are kept here and judged by the constructor.
		node.Pairs = append(node.Pairs, Pair{Key: key, Value: val})
	}
	end, err := c.next()
	if err != nil {
		return nil, err
	}
	node.End = end.End
	return node, nil
}
