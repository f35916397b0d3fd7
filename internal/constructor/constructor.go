// Package constructor turns a composed node tree into marked values.
//
// Value-level problems (a key that is not a string, a duplicate key, an
// integer that does not fit in 64 bits) are reported to the sink and the
// offending entry is skipped or substituted. Only a node whose tag has no
// constructor or a malformed merge key aborts construction.
package constructor

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/shapestone/shape-markedjson/internal/composer"
	"github.com/shapestone/shape-markedjson/internal/resolver"
	"github.com/shapestone/shape-markedjson/pkg/mark"
	"github.com/shapestone/shape-markedjson/pkg/value"
)

// MergeKey is the key whose value is spliced into the enclosing mapping.
const MergeKey = "<<"

// Constructor builds values from nodes.
type Constructor struct {
	sink mark.Sink
}

// New returns a Constructor reporting to sink. A nil sink discards.
func New(sink mark.Sink) *Constructor {
	if sink == nil {
		sink = mark.Discard
	}
	return &Constructor{sink: sink}
}

// Construct builds the value tree rooted at n. A nil node yields nil.
func (c *Constructor) Construct(n *composer.Node) (*value.Value, error) {
	if n == nil {
		return nil, nil
	}
	switch n.Tag {
	case resolver.TagNull:
		return value.NewNull(n.Start), nil
	case resolver.TagBool:
		return value.NewBool(n.Value == "true", n.Start), nil
	case resolver.TagInt:
		return c.constructInt(n), nil
	case resolver.TagFloat:
		return c.constructFloat(n), nil
	case resolver.TagStr:
		if n.Kind != composer.ScalarNode {
			return nil, c.kindError(n, composer.ScalarNode)
		}
		return value.NewString(n.Value, n.Start), nil
	case resolver.TagSeq:
		return c.constructSequence(n)
	case resolver.TagMap:
		return c.constructMapping(n)
	}
	return nil, mark.NewError(mark.KindConstructor, "", nil,
		fmt.Sprintf("could not determine a constructor for the tag %q", n.Tag.String()), &n.Start)
}

func (c *Constructor) kindError(n *composer.Node, want composer.NodeKind) error {
	return mark.NewError(mark.KindConstructor, "", nil,
		fmt.Sprintf("expected a %s node, but found %s", want, n.Kind), &n.Start)
}

func (c *Constructor) constructInt(n *composer.Node) *value.Value {
	i, err := strconv.ParseInt(n.Value, 10, 64)
	if err == nil {
		return value.NewInt(i, n.Start)
	}
	f, _ := strconv.ParseFloat(n.Value, 64)
	c.sink(mark.Diagnostic{
		Context:     "While constructing an integer",
		Problem:     fmt.Sprintf("integer %s does not fit in 64 bits, using a floating-point value", n.Value),
		ProblemMark: &n.Start,
	})
	return value.NewFloat(f, n.Start)
}

func (c *Constructor) constructFloat(n *composer.Node) *value.Value {
	f, err := strconv.ParseFloat(n.Value, 64)
	if errors.Is(err, strconv.ErrRange) {
		c.sink(mark.Diagnostic{
			Context:     "While constructing a floating-point value",
			Problem:     fmt.Sprintf("floating-point value %s is out of range", n.Value),
			ProblemMark: &n.Start,
		})
	}
	return value.NewFloat(f, n.Start)
}

func (c *Constructor) constructSequence(n *composer.Node) (*value.Value, error) {
	if n.Kind != composer.SequenceNode {
		return nil, c.kindError(n, composer.SequenceNode)
	}
	items := make([]*value.Value, 0, len(n.Children))
	for _, child := range n.Children {
		item, err := c.Construct(child)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return value.NewList(items, n.Start), nil
}

// entry is a mapping pair after merge keys are flattened.
type entry struct {
	composer.Pair
	merged bool
}

func (c *Constructor) constructMapping(n *composer.Node) (*value.Value, error) {
	if n.Kind != composer.MappingNode {
		return nil, c.kindError(n, composer.MappingNode)
	}
	entries, err := flatten(n)
	if err != nil {
		return nil, err
	}

	own := make(map[string]bool)
	for _, e := range entries {
		if !e.merged && isStringScalar(e.Key) {
			own[e.Key.Value] = true
		}
	}

	mp := value.NewOrderedMap()
	for _, e := range entries {
		key, err := c.Construct(e.Key)
		if err != nil {
			return nil, err
		}
		k, err := key.AsString()
		if err != nil {
			c.sink(mark.Diagnostic{
				Context:     "Error while constructing a mapping",
				ContextMark: &n.Start,
				Problem:     "found key that is not a string",
				ProblemMark: &e.Key.Start,
			})
			continue
		}
		if e.merged && (own[k] || mp.Has(k)) {
			// Merged entries never override.
			continue
		}
		if mp.Has(k) {
			c.sink(mark.Diagnostic{
				Context:     "Error while constructing a mapping",
				ContextMark: &n.Start,
				Problem:     "found duplicate key",
				ProblemMark: &e.Key.Start,
			})
			continue
		}
		val, err := c.Construct(e.Value)
		if err != nil {
			return nil, err
		}
		mp.Insert(key, val)
	}
	return value.NewMap(mp, n.Start), nil
}

func isStringScalar(n *composer.Node) bool {
	return n.Kind == composer.ScalarNode && n.Tag == resolver.TagStr
}

func isMergeKey(n *composer.Node) bool {
	return isStringScalar(n) && n.Value == MergeKey
}

// flatten returns the effective entries of n: entries pulled in through merge
// keys first, then the mapping's own entries in source order. Merge sources
// are flattened recursively. In a list of sources the later ones come first,
// so they win over earlier ones. n itself is not modified.
func flatten(n *composer.Node) ([]entry, error) {
	var merged, own []entry
	for _, pair := range n.Pairs {
		if !isMergeKey(pair.Key) {
			own = append(own, entry{Pair: pair})
			continue
		}
		switch src := pair.Value; src.Kind {
		case composer.MappingNode:
			sub, err := flatten(src)
			if err != nil {
				return nil, err
			}
			merged = appendMerged(merged, sub)
		case composer.SequenceNode:
			subs := make([][]entry, 0, len(src.Children))
			for _, child := range src.Children {
				if child.Kind != composer.MappingNode {
					return nil, mark.NewError(mark.KindConstructor,
						"while constructing a mapping", &n.Start,
						fmt.Sprintf("expected a mapping for merging, but found %s", child.Describe()),
						&child.Start)
				}
				sub, err := flatten(child)
				if err != nil {
					return nil, err
				}
				subs = append(subs, sub)
			}
			for i := len(subs) - 1; i >= 0; i-- {
				merged = appendMerged(merged, subs[i])
			}
		default:
			return nil, mark.NewError(mark.KindConstructor,
				"while constructing a mapping", &n.Start,
				fmt.Sprintf("expected a mapping or list of mappings for merging, but found %s", src.Describe()),
				&src.Start)
		}
	}
	return append(merged, own...), nil
}

func appendMerged(dst, src []entry) []entry {
	for _, e := range src {
		e.merged = true
		dst = append(dst, e)
	}
	return dst
}
