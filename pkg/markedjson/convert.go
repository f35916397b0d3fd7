package markedjson

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"

	"github.com/shapestone/shape-core/pkg/ast"
	"github.com/shapestone/shape-markedjson/pkg/mark"
	"github.com/shapestone/shape-markedjson/pkg/value"
)

// ToInterface strips the marks from v and returns plain Go data.
//
// Converts:
//   - null -> nil
//   - bool, int, float, string -> bool, int64, float64, string
//   - list -> []interface{}
//   - map -> map[string]interface{}
//
// Example:
//
//	root, _, _ := markedjson.LoadString(`{"name": "Alice", "tags": ["go"]}`)
//	data := markedjson.ToInterface(root)
//	// map[string]interface{}{"name": "Alice", "tags": []interface{}{"go"}}
func ToInterface(v *value.Value) interface{} {
	if v == nil {
		return nil
	}
	switch v.Kind() {
	case value.KindBool:
		b, _ := v.AsBool()
		return b
	case value.KindInt:
		i, _ := v.AsInt()
		return i
	case value.KindFloat:
		f, _ := v.AsFloat()
		return f
	case value.KindString:
		s, _ := v.AsString()
		return s
	case value.KindList:
		items, _ := v.AsList()
		arr := make([]interface{}, len(items))
		for i, item := range items {
			arr[i] = ToInterface(item)
		}
		return arr
	case value.KindMap:
		mp, _ := v.AsMap()
		m := make(map[string]interface{}, mp.Len())
		mp.Range(func(key, val *value.Value) bool {
			k, _ := key.AsString()
			m[k] = ToInterface(val)
			return true
		})
		return m
	}
	return nil
}

// FromInterface converts plain Go data to a value tree. Every value gets a
// zero Mark. Maps are inserted in sorted key order. *value.Value inputs are
// used as they are.
//
// Converts:
//   - nil -> null
//   - bool, string -> bool, string
//   - signed and unsigned integers -> int (uint64 above the int64 range fails)
//   - float32, float64 -> float
//   - []interface{}, []string, and other slices and arrays -> list
//   - map[string]interface{} and other string-keyed maps -> map
func FromInterface(x interface{}) (*value.Value, error) {
	var zero mark.Mark

	switch val := x.(type) {
	case nil:
		return value.NewNull(zero), nil
	case *value.Value:
		if val == nil {
			return value.NewNull(zero), nil
		}
		return val, nil
	case string:
		return value.NewString(val, zero), nil
	case bool:
		return value.NewBool(val, zero), nil
	case int:
		return value.NewInt(int64(val), zero), nil
	case int64:
		return value.NewInt(val, zero), nil
	case int32:
		return value.NewInt(int64(val), zero), nil
	case int16:
		return value.NewInt(int64(val), zero), nil
	case int8:
		return value.NewInt(int64(val), zero), nil
	case float64:
		return value.NewFloat(val, zero), nil
	case float32:
		return value.NewFloat(float64(val), zero), nil
	case []interface{}:
		items := make([]*value.Value, len(val))
		for i, item := range val {
			v, err := FromInterface(item)
			if err != nil {
				return nil, fmt.Errorf("list element %d: %w", i, err)
			}
			items[i] = v
		}
		return value.NewList(items, zero), nil
	case map[string]interface{}:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		mp := value.NewOrderedMap()
		for _, k := range keys {
			v, err := FromInterface(val[k])
			if err != nil {
				return nil, fmt.Errorf("map entry %s: %w", k, err)
			}
			mp.Insert(value.NewString(k, zero), v)
		}
		return value.NewMap(mp, zero), nil
	}
	return fromReflect(reflect.ValueOf(x))
}

// fromReflect handles the kinds FromInterface has no direct case for.
func fromReflect(rv reflect.Value) (*value.Value, error) {
	var zero mark.Mark

	switch rv.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > 1<<63-1 {
			return nil, fmt.Errorf("integer %d overflows int64", u)
		}
		return value.NewInt(int64(u), zero), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return value.NewInt(rv.Int(), zero), nil
	case reflect.Float32, reflect.Float64:
		return value.NewFloat(rv.Float(), zero), nil
	case reflect.String:
		return value.NewString(rv.String(), zero), nil
	case reflect.Bool:
		return value.NewBool(rv.Bool(), zero), nil
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return value.NewNull(zero), nil
		}
		return FromInterface(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return value.NewNull(zero), nil
		}
		items := make([]*value.Value, rv.Len())
		for i := range items {
			v, err := FromInterface(rv.Index(i).Interface())
			if err != nil {
				return nil, fmt.Errorf("list element %d: %w", i, err)
			}
			items[i] = v
		}
		return value.NewList(items, zero), nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, fmt.Errorf("unsupported map key type %s", rv.Type().Key())
		}
		m := make(map[string]interface{}, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			m[iter.Key().String()] = iter.Value().Interface()
		}
		return FromInterface(m)
	}
	if !rv.IsValid() {
		return value.NewNull(zero), nil
	}
	return nil, fmt.Errorf("unsupported type: %s", rv.Type())
}

// ToAST converts v to a shape-core AST. Node positions come from the marks.
//
// Converts:
//   - scalars -> *ast.LiteralNode (nil, bool, int64, float64, string)
//   - lists -> *ast.ObjectNode with numeric string keys "0", "1", ...
//   - maps -> *ast.ObjectNode
//
// A nil v yields nil.
func ToAST(v *value.Value) ast.SchemaNode {
	if v == nil {
		return nil
	}
	pos := v.Mark().Position()
	switch v.Kind() {
	case value.KindList:
		items, _ := v.AsList()
		props := make(map[string]ast.SchemaNode, len(items))
		for i, item := range items {
			props[strconv.Itoa(i)] = ToAST(item)
		}
		return ast.NewObjectNode(props, pos)
	case value.KindMap:
		mp, _ := v.AsMap()
		props := make(map[string]ast.SchemaNode, mp.Len())
		mp.Range(func(key, val *value.Value) bool {
			k, _ := key.AsString()
			props[k] = ToAST(val)
			return true
		})
		return ast.NewObjectNode(props, pos)
	}
	return ast.NewLiteralNode(ToInterface(v), pos)
}
