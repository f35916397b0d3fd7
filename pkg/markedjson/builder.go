package markedjson

import (
	"github.com/shapestone/shape-markedjson/pkg/mark"
	"github.com/shapestone/shape-markedjson/pkg/value"
)

// Document provides a fluent API for building value trees, for example to
// produce default configurations. Built values carry zero marks.
type Document struct {
	object   *ObjectBuilder
	sequence *SequenceBuilder
	root     *value.Value
	err      error
}

// NewDocument creates a new document builder.
func NewDocument() *Document {
	return &Document{}
}

// Object makes an object the root and returns its builder.
func (d *Document) Object() *ObjectBuilder {
	d.object, d.sequence, d.root = NewObject(), nil, nil
	return d.object
}

// Sequence makes a list the root and returns its builder.
func (d *Document) Sequence() *SequenceBuilder {
	d.object, d.sequence, d.root = nil, NewSequence(), nil
	return d.sequence
}

// Value makes a scalar (or any value FromInterface accepts) the root.
func (d *Document) Value(v interface{}) *Document {
	d.object, d.sequence = nil, nil
	d.root, d.err = FromInterface(v)
	return d
}

// Build returns the root value, or nil if nothing was set.
func (d *Document) Build() *value.Value {
	switch {
	case d.object != nil:
		return d.object.Build()
	case d.sequence != nil:
		return d.sequence.Build()
	}
	return d.root
}

// Err returns the first conversion error met while building.
func (d *Document) Err() error {
	switch {
	case d.object != nil:
		return d.object.Err()
	case d.sequence != nil:
		return d.sequence.Err()
	}
	return d.err
}

// ToJSON encodes the document.
func (d *Document) ToJSON() ([]byte, error) {
	if err := d.Err(); err != nil {
		return nil, err
	}
	return Marshal(d.Build())
}

// ObjectBuilder provides a fluent API for building objects. Keys keep the
// order of their first Set; setting a key again replaces its value.
type ObjectBuilder struct {
	keys   []string
	values map[string]*value.Value
	err    error
}

// NewObject creates a new object builder.
func NewObject() *ObjectBuilder {
	return &ObjectBuilder{values: make(map[string]*value.Value)}
}

func (b *ObjectBuilder) put(key string, v *value.Value) {
	if _, ok := b.values[key]; !ok {
		b.keys = append(b.keys, key)
	}
	b.values[key] = v
}

// Set adds a key-value pair.
func (b *ObjectBuilder) Set(key string, v interface{}) *ObjectBuilder {
	val, err := FromInterface(v)
	if err != nil {
		if b.err == nil {
			b.err = err
		}
		return b
	}
	b.put(key, val)
	return b
}

// SetObject adds a nested object.
func (b *ObjectBuilder) SetObject(key string, fn func(*ObjectBuilder)) *ObjectBuilder {
	nested := NewObject()
	fn(nested)
	if b.err == nil {
		b.err = nested.err
	}
	b.put(key, nested.Build())
	return b
}

// SetSequence adds a nested list.
func (b *ObjectBuilder) SetSequence(key string, fn func(*SequenceBuilder)) *ObjectBuilder {
	nested := NewSequence()
	fn(nested)
	if b.err == nil {
		b.err = nested.err
	}
	b.put(key, nested.Build())
	return b
}

// Err returns the first conversion error met while building.
func (b *ObjectBuilder) Err() error {
	return b.err
}

// Build returns the object value.
func (b *ObjectBuilder) Build() *value.Value {
	var zero mark.Mark
	mp := value.NewOrderedMap()
	for _, k := range b.keys {
		mp.Insert(value.NewString(k, zero), b.values[k])
	}
	return value.NewMap(mp, zero)
}

// SequenceBuilder provides a fluent API for building lists.
type SequenceBuilder struct {
	items []*value.Value
	err   error
}

// NewSequence creates a new list builder.
func NewSequence() *SequenceBuilder {
	return &SequenceBuilder{}
}

// Add appends a value.
func (b *SequenceBuilder) Add(v interface{}) *SequenceBuilder {
	val, err := FromInterface(v)
	if err != nil {
		if b.err == nil {
			b.err = err
		}
		return b
	}
	b.items = append(b.items, val)
	return b
}

// AddObject appends a nested object.
func (b *SequenceBuilder) AddObject(fn func(*ObjectBuilder)) *SequenceBuilder {
	nested := NewObject()
	fn(nested)
	if b.err == nil {
		b.err = nested.err
	}
	b.items = append(b.items, nested.Build())
	return b
}

// AddSequence appends a nested list.
func (b *SequenceBuilder) AddSequence(fn func(*SequenceBuilder)) *SequenceBuilder {
	nested := NewSequence()
	fn(nested)
	if b.err == nil {
		b.err = nested.err
	}
	b.items = append(b.items, nested.Build())
	return b
}

// Err returns the first conversion error met while building.
func (b *SequenceBuilder) Err() error {
	return b.err
}

// Build returns the list value.
func (b *SequenceBuilder) Build() *value.Value {
	items := make([]*value.Value, len(b.items))
	copy(items, b.items)
	return value.NewList(items, mark.Mark{})
}
