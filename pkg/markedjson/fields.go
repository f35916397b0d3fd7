package markedjson

import (
	"reflect"
	"strings"
	"sync"
)

// fieldInfo contains information about a struct field for encoding and decoding
type fieldInfo struct {
	name      string
	index     int
	skip      bool
	omitEmpty bool
}

// getFieldInfo extracts field information from the "json" struct tag
func getFieldInfo(field reflect.StructField) fieldInfo {
	tag := field.Tag.Get("json")

	// No tag - use lowercase field name
	if tag == "" {
		return fieldInfo{name: strings.ToLower(field.Name), index: field.Index[0]}
	}

	parts := strings.Split(tag, ",")
	name := parts[0]
	if name == "-" && len(parts) == 1 {
		return fieldInfo{skip: true, index: field.Index[0]}
	}
	if name == "" {
		name = field.Name
	}

	info := fieldInfo{name: name, index: field.Index[0]}
	for _, opt := range parts[1:] {
		if opt == "omitempty" {
			info.omitEmpty = true
		}
	}
	return info
}

// fieldCache indexes the decodable fields of one struct type by key.
type fieldCache struct {
	byName  map[string]*fieldInfo
	byLower map[string]*fieldInfo
}

// lookup prefers an exact key match and falls back to a case-insensitive one.
func (fc *fieldCache) lookup(key string) (*fieldInfo, bool) {
	if f, ok := fc.byName[key]; ok {
		return f, true
	}
	f, ok := fc.byLower[strings.ToLower(key)]
	return f, ok
}

var (
	fieldCacheMu  sync.RWMutex
	fieldCacheMap = make(map[reflect.Type]*fieldCache)
)

func getFieldCache(t reflect.Type) *fieldCache {
	fieldCacheMu.RLock()
	fc, ok := fieldCacheMap[t]
	fieldCacheMu.RUnlock()
	if ok {
		return fc
	}

	fc = buildFieldCache(t)
	fieldCacheMu.Lock()
	fieldCacheMap[t] = fc
	fieldCacheMu.Unlock()
	return fc
}

func buildFieldCache(t reflect.Type) *fieldCache {
	fc := &fieldCache{
		byName:  make(map[string]*fieldInfo),
		byLower: make(map[string]*fieldInfo),
	}
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.PkgPath != "" { // Skip unexported
			continue
		}
		info := getFieldInfo(field)
		if info.skip {
			continue
		}
		fc.byName[info.name] = &info
		if _, taken := fc.byLower[strings.ToLower(info.name)]; !taken {
			fc.byLower[strings.ToLower(info.name)] = &info
		}
	}
	return fc
}
