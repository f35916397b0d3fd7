package markedjson

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/shapestone/shape-markedjson/pkg/value"
)

// Marshaler is implemented by types that encode themselves. The returned
// bytes are inserted verbatim and must be a valid document fragment.
type Marshaler interface {
	MarshalMarkedJSON() ([]byte, error)
}

// Marshal returns the flow-style encoding of v.
//
// *value.Value trees are written with their map keys in insertion order, so
// a loaded document round-trips to an equal tree. Other Go values follow the
// usual rules: structs and maps become objects (struct fields named by their
// "json" tag or their lowercased name, sorted; map keys sorted), slices and
// arrays become arrays, nil pointers, interfaces, maps and slices become
// null. Floats always carry a fraction or an exponent so they load back as
// floats. NaN, infinities, channels, funcs and complex numbers cannot be
// encoded.
//
// Example:
//
//	type Server struct {
//	    Host string `json:"host"`
//	    Port int    `json:"port"`
//	}
//	data, _ := markedjson.Marshal(Server{Host: "localhost", Port: 8080})
//	// {"host":"localhost","port":8080}
func Marshal(v interface{}) ([]byte, error) {
	return marshal(v, &encState{})
}

// MarshalIndent is like Marshal but puts every array element and object entry
// on its own line, starting with prefix and indented by one copy of indent per
// nesting level.
func MarshalIndent(v interface{}, prefix, indent string) ([]byte, error) {
	return marshal(v, &encState{prefix: prefix, indent: indent, pretty: true})
}

func marshal(v interface{}, st *encState) ([]byte, error) {
	bufp := bufPool.Get().(*[]byte)
	buf := (*bufp)[:0]
	defer func() {
		if cap(buf) <= 64*1024 {
			*bufp = buf[:0]
			bufPool.Put(bufp)
		}
	}()

	rv := reflect.ValueOf(v)
	var err error
	if !rv.IsValid() {
		buf = append(buf, "null"...)
	} else if buf, err = encoderForType(rv.Type())(buf, rv, st); err != nil {
		return nil, err
	}

	// Must copy since buf goes back to the pool
	out := make([]byte, len(buf))
	copy(out, buf)
	return out, nil
}

// encState carries the layout of one Marshal call through the cached,
// type-specific encoders.
type encState struct {
	prefix string
	indent string
	pretty bool
	depth  int
}

func (st *encState) newline(buf []byte) []byte {
	if !st.pretty {
		return buf
	}
	buf = append(buf, '\n')
	buf = append(buf, st.prefix...)
	for i := 0; i < st.depth; i++ {
		buf = append(buf, st.indent...)
	}
	return buf
}

func (st *encState) colon(buf []byte) []byte {
	if st.pretty {
		return append(buf, ':', ' ')
	}
	return append(buf, ':')
}

// appendCollection writes n items between open and close, one per line when
// indenting. Empty collections stay on one line.
func appendCollection(buf []byte, st *encState, open, close byte, n int, item func([]byte, int) ([]byte, error)) ([]byte, error) {
	buf = append(buf, open)
	if n == 0 {
		return append(buf, close), nil
	}
	st.depth++
	for i := 0; i < n; i++ {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = st.newline(buf)
		var err error
		if buf, err = item(buf, i); err != nil {
			st.depth--
			return buf, err
		}
	}
	st.depth--
	buf = st.newline(buf)
	return append(buf, close), nil
}

// encoderFunc appends the encoding of rv to buf.
type encoderFunc func(buf []byte, rv reflect.Value, st *encState) ([]byte, error)

// Encoder cache: copy-on-write map behind an atomic.Value, lock-free reads.
var encoderCache atomic.Value
var encoderMu sync.Mutex

func init() {
	encoderCache.Store(make(map[reflect.Type]encoderFunc))
}

var (
	marshalerType = reflect.TypeOf((*Marshaler)(nil)).Elem()
	valuePtrType  = reflect.TypeOf((*value.Value)(nil))
	mapPtrType    = reflect.TypeOf((*value.Map)(nil))
)

var bufPool = sync.Pool{
	New: func() interface{} {
		b := make([]byte, 0, 1024)
		return &b
	},
}

// encoderForType returns a cached encoder for t, building one if needed.
func encoderForType(t reflect.Type) encoderFunc {
	m := encoderCache.Load().(map[reflect.Type]encoderFunc)
	if enc, ok := m[t]; ok {
		return enc
	}

	encoderMu.Lock()
	m = encoderCache.Load().(map[reflect.Type]encoderFunc)
	if enc, ok := m[t]; ok {
		encoderMu.Unlock()
		return enc
	}

	// Placeholder for recursive types
	var wg sync.WaitGroup
	wg.Add(1)
	var realEnc encoderFunc
	placeholder := func(buf []byte, rv reflect.Value, st *encState) ([]byte, error) {
		wg.Wait()
		return realEnc(buf, rv, st)
	}
	storeEncoder(m, t, placeholder)
	encoderMu.Unlock()

	realEnc = buildEncoder(t)

	encoderMu.Lock()
	storeEncoder(encoderCache.Load().(map[reflect.Type]encoderFunc), t, realEnc)
	encoderMu.Unlock()
	wg.Done()

	return realEnc
}

// storeEncoder publishes a copy of m with t set. Callers hold encoderMu.
func storeEncoder(m map[reflect.Type]encoderFunc, t reflect.Type, enc encoderFunc) {
	next := make(map[reflect.Type]encoderFunc, len(m)+1)
	for k, v := range m {
		next[k] = v
	}
	next[t] = enc
	encoderCache.Store(next)
}

func buildEncoder(t reflect.Type) encoderFunc {
	switch t {
	case valuePtrType:
		return valueEnc
	case mapPtrType:
		return valueMapEnc
	}
	if t.Implements(marshalerType) {
		return marshalerEnc
	}
	if t.Kind() != reflect.Ptr && reflect.PointerTo(t).Implements(marshalerType) {
		return buildAddrMarshalerEnc(t)
	}
	return buildEncoderNoMarshaler(t)
}

// buildEncoderNoMarshaler builds an encoder skipping the Marshaler check.
func buildEncoderNoMarshaler(t reflect.Type) encoderFunc {
	switch t.Kind() {
	case reflect.Ptr:
		return buildPtrEncoder(t)
	case reflect.Interface:
		return interfaceEnc
	case reflect.String:
		return stringEnc
	case reflect.Bool:
		return boolEnc
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return intEnc
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return uintEnc
	case reflect.Float32:
		return float32Enc
	case reflect.Float64:
		return float64Enc
	case reflect.Struct:
		if t == valuePtrType.Elem() {
			return valueStructEnc
		}
		return buildStructEncoder(t)
	case reflect.Map:
		return buildMapEncoder(t)
	case reflect.Slice:
		return buildSliceEncoder(t)
	case reflect.Array:
		return buildArrayEncoder(t)
	default:
		return unsupportedEnc(t)
	}
}

// ================================
// Primitive Encoders
// ================================

func boolEnc(buf []byte, rv reflect.Value, st *encState) ([]byte, error) {
	return strconv.AppendBool(buf, rv.Bool()), nil
}

func intEnc(buf []byte, rv reflect.Value, st *encState) ([]byte, error) {
	return strconv.AppendInt(buf, rv.Int(), 10), nil
}

func uintEnc(buf []byte, rv reflect.Value, st *encState) ([]byte, error) {
	return strconv.AppendUint(buf, rv.Uint(), 10), nil
}

func float32Enc(buf []byte, rv reflect.Value, st *encState) ([]byte, error) {
	return appendFloat(buf, rv.Float(), 32)
}

func float64Enc(buf []byte, rv reflect.Value, st *encState) ([]byte, error) {
	return appendFloat(buf, rv.Float(), 64)
}

func stringEnc(buf []byte, rv reflect.Value, st *encState) ([]byte, error) {
	return appendQuoted(buf, rv.String()), nil
}

// ================================
// Marked Value Encoders
// ================================

func valueEnc(buf []byte, rv reflect.Value, st *encState) ([]byte, error) {
	if rv.IsNil() {
		return append(buf, "null"...), nil
	}
	return appendValue(buf, rv.Interface().(*value.Value), st)
}

func valueStructEnc(buf []byte, rv reflect.Value, st *encState) ([]byte, error) {
	v := rv.Interface().(value.Value)
	return appendValue(buf, &v, st)
}

func valueMapEnc(buf []byte, rv reflect.Value, st *encState) ([]byte, error) {
	if rv.IsNil() {
		return append(buf, "null"...), nil
	}
	return appendValueMap(buf, rv.Interface().(*value.Map), st)
}

func appendValue(buf []byte, v *value.Value, st *encState) ([]byte, error) {
	switch v.Kind() {
	case value.KindNull:
		return append(buf, "null"...), nil
	case value.KindBool:
		b, _ := v.AsBool()
		return strconv.AppendBool(buf, b), nil
	case value.KindInt:
		i, _ := v.AsInt()
		return strconv.AppendInt(buf, i, 10), nil
	case value.KindFloat:
		f, _ := v.AsFloat()
		return appendFloat(buf, f, 64)
	case value.KindString:
		s, _ := v.AsString()
		return appendQuoted(buf, s), nil
	case value.KindList:
		items, _ := v.AsList()
		return appendCollection(buf, st, '[', ']', len(items), func(buf []byte, i int) ([]byte, error) {
			return appendValue(buf, items[i], st)
		})
	case value.KindMap:
		mp, _ := v.AsMap()
		return appendValueMap(buf, mp, st)
	}
	return buf, fmt.Errorf("markedjson: unsupported value kind %s", v.Kind())
}

func appendValueMap(buf []byte, mp *value.Map, st *encState) ([]byte, error) {
	entries := mp.Entries()
	return appendCollection(buf, st, '{', '}', len(entries), func(buf []byte, i int) ([]byte, error) {
		key, _ := entries[i].Key.AsString()
		buf = appendQuoted(buf, key)
		buf = st.colon(buf)
		return appendValue(buf, entries[i].Value, st)
	})
}

// ================================
// Marshaler Interface Encoders
// ================================

func marshalerEnc(buf []byte, rv reflect.Value, st *encState) ([]byte, error) {
	if rv.Kind() == reflect.Ptr && rv.IsNil() {
		return append(buf, "null"...), nil
	}
	b, err := rv.Interface().(Marshaler).MarshalMarkedJSON()
	if err != nil {
		return buf, err
	}
	return append(buf, b...), nil
}

func buildAddrMarshalerEnc(t reflect.Type) encoderFunc {
	// Used when the value is not addressable
	fallback := buildEncoderNoMarshaler(t)
	return func(buf []byte, rv reflect.Value, st *encState) ([]byte, error) {
		if rv.CanAddr() {
			return marshalerEnc(buf, rv.Addr(), st)
		}
		return fallback(buf, rv, st)
	}
}

// ================================
// Pointer / Interface Encoders
// ================================

func buildPtrEncoder(t reflect.Type) encoderFunc {
	elemEnc := encoderForType(t.Elem())
	return func(buf []byte, rv reflect.Value, st *encState) ([]byte, error) {
		if rv.IsNil() {
			return append(buf, "null"...), nil
		}
		return elemEnc(buf, rv.Elem(), st)
	}
}

func interfaceEnc(buf []byte, rv reflect.Value, st *encState) ([]byte, error) {
	if rv.IsNil() {
		return append(buf, "null"...), nil
	}
	elem := rv.Elem()
	return encoderForType(elem.Type())(buf, elem, st)
}

// ================================
// Struct Encoder
// ================================

// structField holds pre-computed info for a single struct field.
type structField struct {
	index     int
	keyBytes  []byte // pre-encoded quoted key
	encoder   encoderFunc
	omitEmpty bool
	emptyFn   func(reflect.Value) bool
}

func buildStructEncoder(t reflect.Type) encoderFunc {
	var fields []structField
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if sf.PkgPath != "" { // unexported
			continue
		}
		info := getFieldInfo(sf)
		if info.skip {
			continue
		}
		f := structField{
			index:     i,
			keyBytes:  appendQuoted(nil, info.name),
			encoder:   encoderForType(sf.Type),
			omitEmpty: info.omitEmpty,
		}
		if info.omitEmpty {
			f.emptyFn = emptyFuncForKind(sf.Type)
		}
		fields = append(fields, f)
	}

	// Sort fields by name once at build time
	sort.Slice(fields, func(i, j int) bool {
		return string(fields[i].keyBytes) < string(fields[j].keyBytes)
	})

	return func(buf []byte, rv reflect.Value, st *encState) ([]byte, error) {
		present := make([]int, 0, len(fields))
		for i := range fields {
			if fields[i].omitEmpty && fields[i].emptyFn(rv.Field(fields[i].index)) {
				continue
			}
			present = append(present, i)
		}
		return appendCollection(buf, st, '{', '}', len(present), func(buf []byte, i int) ([]byte, error) {
			f := &fields[present[i]]
			buf = append(buf, f.keyBytes...)
			buf = st.colon(buf)
			return f.encoder(buf, rv.Field(f.index), st)
		})
	}
}

// emptyFuncForKind returns a specialized empty checker for the given type.
func emptyFuncForKind(t reflect.Type) func(reflect.Value) bool {
	switch t.Kind() {
	case reflect.Bool:
		return func(v reflect.Value) bool { return !v.Bool() }
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return func(v reflect.Value) bool { return v.Int() == 0 }
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return func(v reflect.Value) bool { return v.Uint() == 0 }
	case reflect.Float32, reflect.Float64:
		return func(v reflect.Value) bool { return v.Float() == 0 }
	case reflect.String, reflect.Slice, reflect.Map, reflect.Array:
		return func(v reflect.Value) bool { return v.Len() == 0 }
	case reflect.Ptr, reflect.Interface:
		return func(v reflect.Value) bool { return v.IsNil() }
	default:
		return func(v reflect.Value) bool { return false }
	}
}

// ================================
// Map Encoder
// ================================

// mapKV holds a key-value pair for sorted map encoding.
type mapKV struct {
	key string
	val reflect.Value
}

func buildMapEncoder(t reflect.Type) encoderFunc {
	if t.Key().Kind() != reflect.String {
		return func(buf []byte, rv reflect.Value, st *encState) ([]byte, error) {
			return buf, fmt.Errorf("markedjson: unsupported map key type %s", t.Key())
		}
	}
	valEnc := encoderForType(t.Elem())

	return func(buf []byte, rv reflect.Value, st *encState) ([]byte, error) {
		if rv.IsNil() {
			return append(buf, "null"...), nil
		}
		pairs := make([]mapKV, 0, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			pairs = append(pairs, mapKV{key: iter.Key().String(), val: iter.Value()})
		}
		sort.Slice(pairs, func(i, j int) bool {
			return pairs[i].key < pairs[j].key
		})
		return appendCollection(buf, st, '{', '}', len(pairs), func(buf []byte, i int) ([]byte, error) {
			buf = appendQuoted(buf, pairs[i].key)
			buf = st.colon(buf)
			return valEnc(buf, pairs[i].val, st)
		})
	}
}

// ================================
// Slice / Array Encoders
// ================================

func buildSliceEncoder(t reflect.Type) encoderFunc {
	arrayEnc := buildArrayEncoder(t)
	return func(buf []byte, rv reflect.Value, st *encState) ([]byte, error) {
		if rv.IsNil() {
			return append(buf, "null"...), nil
		}
		return arrayEnc(buf, rv, st)
	}
}

func buildArrayEncoder(t reflect.Type) encoderFunc {
	elemEnc := encoderForType(t.Elem())
	return func(buf []byte, rv reflect.Value, st *encState) ([]byte, error) {
		return appendCollection(buf, st, '[', ']', rv.Len(), func(buf []byte, i int) ([]byte, error) {
			return elemEnc(buf, rv.Index(i), st)
		})
	}
}

// ================================
// Error Encoder
// ================================

func unsupportedEnc(t reflect.Type) encoderFunc {
	return func(buf []byte, rv reflect.Value, st *encState) ([]byte, error) {
		return buf, fmt.Errorf("markedjson: unsupported type %s", t)
	}
}
