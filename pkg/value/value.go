// Package value defines the marked value tree produced by the loader.
//
// A Value is a tagged union over the JSON-shaped kinds (null, bool, int,
// float, string, list, map). Every Value carries the Mark of the source text
// it was built from, including map keys, so callers can report problems
// against the exact character that caused them.
//
// Values do not behave like the Go types they hold; unwrap them explicitly
// with the As* accessors.
package value

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shapestone/shape-markedjson/pkg/mark"
)

// Kind identifies the variant held by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindList
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	default:
		return "unknown"
	}
}

// Value is a marked configuration value.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
	list []*Value
	m    *Map
	mark mark.Mark
}

// TypeError is returned by the As* accessors when the Value holds another kind.
type TypeError struct {
	Want Kind
	Got  Kind
	Mark mark.Mark
}

func (e *TypeError) Error() string {
	pos := e.Mark.Position()
	return fmt.Sprintf("expected %s, got %s at %s", e.Want, e.Got, pos.String())
}

// NewNull returns a null Value.
func NewNull(m mark.Mark) *Value {
	return &Value{kind: KindNull, mark: m}
}

// NewBool returns a bool Value.
func NewBool(b bool, m mark.Mark) *Value {
	return &Value{kind: KindBool, b: b, mark: m}
}

// NewInt returns an int Value.
func NewInt(i int64, m mark.Mark) *Value {
	return &Value{kind: KindInt, i: i, mark: m}
}

// NewFloat returns a float Value.
func NewFloat(f float64, m mark.Mark) *Value {
	return &Value{kind: KindFloat, f: f, mark: m}
}

// NewString returns a string Value.
func NewString(s string, m mark.Mark) *Value {
	return &Value{kind: KindString, s: s, mark: m}
}

// NewList returns a list Value holding items.
func NewList(items []*Value, m mark.Mark) *Value {
	if items == nil {
		items = []*Value{}
	}
	return &Value{kind: KindList, list: items, mark: m}
}

// NewMap returns a map Value. A nil mp is replaced by an empty Map.
func NewMap(mp *Map, m mark.Mark) *Value {
	if mp == nil {
		mp = NewOrderedMap()
	}
	return &Value{kind: KindMap, m: mp, mark: m}
}

// Kind returns the variant held by v.
func (v *Value) Kind() Kind {
	return v.kind
}

// Mark returns the source position v was built from.
func (v *Value) Mark() mark.Mark {
	return v.mark
}

// IsNull reports whether v is the null Value.
func (v *Value) IsNull() bool {
	return v.kind == KindNull
}

func (v *Value) typeError(want Kind) error {
	return &TypeError{Want: want, Got: v.kind, Mark: v.mark}
}

// AsBool returns the bool held by v.
func (v *Value) AsBool() (bool, error) {
	if v.kind != KindBool {
		return false, v.typeError(KindBool)
	}
	return v.b, nil
}

// AsInt returns the integer held by v.
func (v *Value) AsInt() (int64, error) {
	if v.kind != KindInt {
		return 0, v.typeError(KindInt)
	}
	return v.i, nil
}

// AsFloat returns the number held by v. Int values are widened.
func (v *Value) AsFloat() (float64, error) {
	switch v.kind {
	case KindFloat:
		return v.f, nil
	case KindInt:
		return float64(v.i), nil
	}
	return 0, v.typeError(KindFloat)
}

// AsString returns the string held by v.
func (v *Value) AsString() (string, error) {
	if v.kind != KindString {
		return "", v.typeError(KindString)
	}
	return v.s, nil
}

// AsList returns the items held by v. The slice is shared with v.
func (v *Value) AsList() ([]*Value, error) {
	if v.kind != KindList {
		return nil, v.typeError(KindList)
	}
	return v.list, nil
}

// AsMap returns the map held by v.
func (v *Value) AsMap() (*Map, error) {
	if v.kind != KindMap {
		return nil, v.typeError(KindMap)
	}
	return v.m, nil
}

// Equal reports whether v and o hold equal data, ignoring marks.
// Float comparison is exact; NaN is never equal.
func (v *Value) Equal(o *Value) bool {
	if v == nil || o == nil {
		return v == o
	}
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == o.b
	case KindInt:
		return v.i == o.i
	case KindFloat:
		return v.f == o.f && math.Signbit(v.f) == math.Signbit(o.f)
	case KindString:
		return v.s == o.s
	case KindList:
		if len(v.list) != len(o.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(o.list[i]) {
				return false
			}
		}
		return true
	case KindMap:
		return v.m.Equal(o.m)
	}
	return false
}

// String renders v in a compact debugging form, without marks.
func (v *Value) String() string {
	var b strings.Builder
	v.writeTo(&b)
	return b.String()
}

func (v *Value) writeTo(b *strings.Builder) {
	switch v.kind {
	case KindNull:
		b.WriteString("null")
	case KindBool:
		b.WriteString(strconv.FormatBool(v.b))
	case KindInt:
		b.WriteString(strconv.FormatInt(v.i, 10))
	case KindFloat:
		b.WriteString(strconv.FormatFloat(v.f, 'g', -1, 64))
	case KindString:
		b.WriteString(strconv.Quote(v.s))
	case KindList:
		b.WriteByte('[')
		for i, item := range v.list {
			if i > 0 {
				b.WriteString(", ")
			}
			item.writeTo(b)
		}
		b.WriteByte(']')
	case KindMap:
		b.WriteByte('{')
		for i, e := range v.m.entries {
			if i > 0 {
				b.WriteString(", ")
			}
			e.Key.writeTo(b)
			b.WriteString(": ")
			e.Value.writeTo(b)
		}
		b.WriteByte('}')
	}
}

// Partition splits a string Value around the first occurrence of sep.
// The three parts carry marks advanced to where each part starts in the
// source, counting the opening quote. If sep is absent, the result is
// (v, "", "").
func (v *Value) Partition(sep string) (before, separator, after *Value, err error) {
	s, err := v.AsString()
	if err != nil {
		return nil, nil, nil, err
	}
	i := strings.Index(s, sep)
	if i < 0 {
		return v.partitionParts(s, "", "")
	}
	return v.partitionParts(s[:i], sep, s[i+len(sep):])
}

// RPartition is Partition around the last occurrence of sep. If sep is
// absent, the result is ("", "", v).
func (v *Value) RPartition(sep string) (before, separator, after *Value, err error) {
	s, err := v.AsString()
	if err != nil {
		return nil, nil, nil, err
	}
	i := strings.LastIndex(s, sep)
	if i < 0 {
		return v.partitionParts("", "", s)
	}
	return v.partitionParts(s[:i], sep, s[i+len(sep):])
}

func (v *Value) partitionParts(parts ...string) (before, separator, after *Value, err error) {
	out := make([]*Value, 3)
	diff := 1
	for i, p := range parts {
		out[i] = NewString(p, v.mark.Advance(diff))
		diff += len([]rune(p))
	}
	return out[0], out[1], out[2], nil
}
