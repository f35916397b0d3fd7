package composer

import (
	"github.com/shapestone/shape-markedjson/internal/resolver"
	"github.com/shapestone/shape-markedjson/pkg/mark"
)

// NodeKind is the shape of a Node.
type NodeKind int

const (
	ScalarNode NodeKind = iota
	SequenceNode
	MappingNode
)

func (k NodeKind) String() string {
	switch k {
	case ScalarNode:
		return "scalar"
	case SequenceNode:
		return "sequence"
	case MappingNode:
		return "mapping"
	default:
		return "unknown"
	}
}

// Node is an element of the composed document tree. Only the fields of its
// Kind are set.
type Node struct {
	Kind  NodeKind
	Tag   resolver.Tag
	Start mark.Mark
	End   mark.Mark

	// ScalarNode
	Value string
	Style rune

	// SequenceNode
	Children []*Node

	// MappingNode, in source order, duplicates included
	Pairs []Pair
}

// Pair is one key/value entry of a mapping node.
type Pair struct {
	Key   *Node
	Value *Node
}

// Describe names the node the way diagnostics refer to it.
func (n *Node) Describe() string {
	return n.Kind.String() + " node"
}
