package markedjson

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/shapestone/shape-markedjson/pkg/mark"
	"github.com/shapestone/shape-markedjson/pkg/value"
)

// Unmarshaler is implemented by types that decode themselves. The value
// keeps its marks, so implementations can report positioned problems.
type Unmarshaler interface {
	UnmarshalMarkedJSON(*value.Value) error
}

// DecodeError reports a value that does not fit the Go type it is decoded
// into, at the position of that value.
type DecodeError struct {
	Problem string
	Mark    mark.Mark
}

func (e *DecodeError) Error() string {
	d := mark.Diagnostic{Context: "while decoding", Problem: e.Problem}
	if !e.Mark.IsZero() {
		d.ProblemMark = &e.Mark
	}
	return "markedjson: " + d.String()
}

// Problems lists the recoverable problems found in a document that loaded.
type Problems []mark.Diagnostic

func (p Problems) Error() string {
	parts := make([]string, len(p))
	for i, d := range p {
		parts[i] = d.String()
	}
	return fmt.Sprintf("markedjson: %d problem(s) found:\n%s", len(p), strings.Join(parts, "\n\n"))
}

type decoder struct {
	disallowUnknown bool
}

// DecodeOption configures Decode.
type DecodeOption func(*decoder)

// DisallowUnknownFields makes Decode fail on an object key that matches no
// field of the target struct.
func DisallowUnknownFields() DecodeOption {
	return func(d *decoder) {
		d.disallowUnknown = true
	}
}

// Unmarshal loads data and decodes the document into v. Syntax errors are
// returned as *mark.Error; if the document loaded with recoverable problems,
// they are returned as Problems and v is left untouched. Problems still reach
// a sink given with WithSink. An empty document leaves v untouched.
//
// Example:
//
//	type Config struct {
//	    Name string `json:"name"`
//	    Port int    `json:"port"`
//	}
//	var cfg Config
//	err := markedjson.Unmarshal([]byte(`{"name": "server", "port": 8080}`), &cfg)
func Unmarshal(data []byte, v interface{}, opts ...Option) error {
	var c mark.Collector
	root, _, err := LoadBytes(data, append(opts, withCollector(&c))...)
	if err != nil {
		return err
	}
	if c.Len() > 0 {
		return Problems(c.Diagnostics())
	}
	return Decode(root, v)
}

// Decode stores root in the value pointed to by v.
//
// Decode follows the rules of encoding/json: pointers are allocated as
// needed, null sets the target to its zero value, object keys are matched to
// struct fields by tag name or lowercased field name (exactly, then
// case-insensitively), and interface{} targets receive the ToInterface form.
// A target of type *value.Value receives the marked value itself. Numbers
// must fit the target type; a float decodes into an integer only when it is
// whole.
func Decode(root *value.Value, v interface{}, opts ...DecodeOption) error {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || v == nil {
		return errors.New("markedjson: Decode(nil)")
	}
	if rv.Kind() != reflect.Ptr {
		return errors.New("markedjson: Decode(non-pointer " + rv.Type().String() + ")")
	}
	if rv.IsNil() {
		return errors.New("markedjson: Decode(nil " + rv.Type().String() + ")")
	}
	if root == nil {
		return nil
	}

	d := &decoder{}
	for _, opt := range opts {
		opt(d)
	}
	return d.decodeValue(root, rv.Elem())
}

var unmarshalerType = reflect.TypeOf((*Unmarshaler)(nil)).Elem()

func mismatch(v *value.Value, rv reflect.Value) error {
	return &DecodeError{
		Problem: fmt.Sprintf("cannot unmarshal %s into Go value of type %s", v.Kind(), rv.Type()),
		Mark:    v.Mark(),
	}
}

func overflow(v *value.Value, rv reflect.Value) error {
	return &DecodeError{
		Problem: fmt.Sprintf("value %s overflows %s", v, rv.Type()),
		Mark:    v.Mark(),
	}
}

func (d *decoder) decodeValue(v *value.Value, rv reflect.Value) error {
	if rv.Type() == valuePtrType {
		rv.Set(reflect.ValueOf(v))
		return nil
	}
	if rv.CanAddr() && rv.Kind() != reflect.Ptr && rv.Addr().Type().Implements(unmarshalerType) {
		return rv.Addr().Interface().(Unmarshaler).UnmarshalMarkedJSON(v)
	}

	if rv.Kind() == reflect.Ptr {
		if v.IsNull() {
			rv.Set(reflect.Zero(rv.Type()))
			return nil
		}
		if rv.IsNil() {
			rv.Set(reflect.New(rv.Type().Elem()))
		}
		return d.decodeValue(v, rv.Elem())
	}

	if v.IsNull() {
		rv.Set(reflect.Zero(rv.Type()))
		return nil
	}

	if rv.Kind() == reflect.Interface && rv.NumMethod() == 0 {
		rv.Set(reflect.ValueOf(ToInterface(v)))
		return nil
	}

	switch v.Kind() {
	case value.KindBool:
		if rv.Kind() != reflect.Bool {
			return mismatch(v, rv)
		}
		b, _ := v.AsBool()
		rv.SetBool(b)
		return nil
	case value.KindString:
		if rv.Kind() != reflect.String {
			return mismatch(v, rv)
		}
		s, _ := v.AsString()
		rv.SetString(s)
		return nil
	case value.KindInt, value.KindFloat:
		return d.decodeNumber(v, rv)
	case value.KindList:
		return d.decodeList(v, rv)
	case value.KindMap:
		switch rv.Kind() {
		case reflect.Struct:
			return d.decodeStruct(v, rv)
		case reflect.Map:
			return d.decodeMap(v, rv)
		}
		return mismatch(v, rv)
	}
	return mismatch(v, rv)
}

func (d *decoder) decodeNumber(v *value.Value, rv reflect.Value) error {
	f, _ := v.AsFloat()
	i, intErr := v.AsInt()

	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if intErr != nil {
			if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
				return mismatch(v, rv)
			}
			i = int64(f)
		}
		if rv.OverflowInt(i) {
			return overflow(v, rv)
		}
		rv.SetInt(i)
		return nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		var u uint64
		if intErr == nil {
			if i < 0 {
				return overflow(v, rv)
			}
			u = uint64(i)
		} else {
			if f < 0 || f != math.Trunc(f) || f >= math.MaxUint64 {
				return mismatch(v, rv)
			}
			u = uint64(f)
		}
		if rv.OverflowUint(u) {
			return overflow(v, rv)
		}
		rv.SetUint(u)
		return nil

	case reflect.Float32, reflect.Float64:
		if rv.OverflowFloat(f) {
			return overflow(v, rv)
		}
		rv.SetFloat(f)
		return nil
	}
	return mismatch(v, rv)
}

func (d *decoder) decodeList(v *value.Value, rv reflect.Value) error {
	items, _ := v.AsList()

	switch rv.Kind() {
	case reflect.Slice:
		slice := reflect.MakeSlice(rv.Type(), len(items), len(items))
		for i, item := range items {
			if err := d.decodeValue(item, slice.Index(i)); err != nil {
				return err
			}
		}
		rv.Set(slice)
		return nil

	case reflect.Array:
		if len(items) > rv.Len() {
			return &DecodeError{
				Problem: fmt.Sprintf("list length %d exceeds target array length %d", len(items), rv.Len()),
				Mark:    v.Mark(),
			}
		}
		for i, item := range items {
			if err := d.decodeValue(item, rv.Index(i)); err != nil {
				return err
			}
		}
		return nil
	}
	return mismatch(v, rv)
}

func (d *decoder) decodeStruct(v *value.Value, rv reflect.Value) error {
	mp, _ := v.AsMap()
	fc := getFieldCache(rv.Type())

	for _, e := range mp.Entries() {
		key, _ := e.Key.AsString()
		f, ok := fc.lookup(key)
		if !ok {
			if d.disallowUnknown {
				return &DecodeError{
					Problem: fmt.Sprintf("unknown field %q in %s", key, rv.Type()),
					Mark:    e.Key.Mark(),
				}
			}
			continue
		}
		if err := d.decodeValue(e.Value, rv.Field(f.index)); err != nil {
			return err
		}
	}
	return nil
}

func (d *decoder) decodeMap(v *value.Value, rv reflect.Value) error {
	mp, _ := v.AsMap()
	mapType := rv.Type()
	if mapType.Key().Kind() != reflect.String {
		return &DecodeError{
			Problem: fmt.Sprintf("unsupported map key type %s", mapType.Key()),
			Mark:    v.Mark(),
		}
	}
	if rv.IsNil() {
		rv.Set(reflect.MakeMapWithSize(mapType, mp.Len()))
	}

	for _, e := range mp.Entries() {
		key, _ := e.Key.AsString()
		elem := reflect.New(mapType.Elem()).Elem()
		if err := d.decodeValue(e.Value, elem); err != nil {
			return err
		}
		rv.SetMapIndex(reflect.ValueOf(key).Convert(mapType.Key()), elem)
	}
	return nil
}
