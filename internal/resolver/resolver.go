// Package resolver assigns tags to nodes that carry none.
//
// Plain scalars are matched against a small rule set bucketed by first
// character: bool, float, int and null. A plain scalar that matches no rule
// is reported and falls back to a string. Quoted scalars are always strings.
package resolver

import (
	"fmt"
	"regexp"

	"github.com/shapestone/shape-markedjson/pkg/mark"
)

// Tag identifies the type a node resolves to. The zero Tag means unresolved.
type Tag int

const (
	TagNone Tag = iota
	TagNull
	TagBool
	TagInt
	TagFloat
	TagStr
	TagSeq
	TagMap
)

var tagURIs = map[Tag]string{
	TagNull:  "tag:yaml.org,2002:null",
	TagBool:  "tag:yaml.org,2002:bool",
	TagInt:   "tag:yaml.org,2002:int",
	TagFloat: "tag:yaml.org,2002:float",
	TagStr:   "tag:yaml.org,2002:str",
	TagSeq:   "tag:yaml.org,2002:seq",
	TagMap:   "tag:yaml.org,2002:map",
}

// String returns the core-schema URI of t.
func (t Tag) String() string {
	if uri, ok := tagURIs[t]; ok {
		return uri
	}
	return "!"
}

// NodeKind is the shape of the node being resolved.
type NodeKind int

const (
	ScalarNode NodeKind = iota
	SequenceNode
	MappingNode
)

type rule struct {
	tag     Tag
	pattern *regexp.Regexp
}

// wildcard is the bucket consulted for every first character.
const wildcard rune = -1

var rules = map[rune][]rule{}

func addRule(tag Tag, pattern string, first string) {
	r := rule{tag: tag, pattern: regexp.MustCompile(pattern)}
	if first == "" {
		rules[wildcard] = append(rules[wildcard], r)
		return
	}
	for _, ch := range first {
		rules[ch] = append(rules[ch], r)
	}
}

func init() {
	addRule(TagBool, `^(?:true|false)$`, "yYnNtTfFoO")
	// A float needs a fraction or an exponent; plain integers fall through.
	addRule(TagFloat, `^-?(?:0|[1-9][0-9]*)(?:\.[0-9]+(?:[eE][-+]?[0-9]+)?|[eE][-+]?[0-9]+)$`, "-0123456789")
	addRule(TagInt, `^(?:0|-?[1-9][0-9]*)$`, "-0123456789")
	addRule(TagNull, `^null$`, "n")
}

// Resolver resolves tags, reporting unresolvable plain scalars to a sink.
type Resolver struct {
	sink mark.Sink
}

// New returns a Resolver reporting to sink. A nil sink discards.
func New(sink mark.Sink) *Resolver {
	if sink == nil {
		sink = mark.Discard
	}
	return &Resolver{sink: sink}
}

// Resolve returns the tag for a node of the given kind. value and plain only
// matter for scalars; m locates the scalar for diagnostics.
func (r *Resolver) Resolve(kind NodeKind, value string, plain bool, m mark.Mark) Tag {
	switch kind {
	case SequenceNode:
		return TagSeq
	case MappingNode:
		return TagMap
	}
	if !plain {
		return TagStr
	}

	var candidates []rule
	if value != "" {
		candidates = append(candidates, rules[[]rune(value)[0]]...)
	}
	candidates = append(candidates, rules[wildcard]...)
	for _, c := range candidates {
		if c.pattern.MatchString(value) {
			return c.tag
		}
	}

	r.sink(mark.Diagnostic{
		Context:     "While resolving plain scalar",
		Problem:     fmt.Sprintf("expected floating-point value, integer, null or boolean, but got %q", value),
		ProblemMark: &m,
	})
	return TagStr
}
