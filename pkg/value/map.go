package value

// Entry is one key/value pair of a Map. Key is always a string Value.
type Entry struct {
	Key   *Value
	Value *Value
}

// Map is a string-keyed map that preserves key insertion order and keeps the
// marked key Values alongside the values.
type Map struct {
	entries []Entry
	index   map[string]int
}

// NewOrderedMap returns an empty Map.
func NewOrderedMap() *Map {
	return &Map{index: make(map[string]int)}
}

// Len returns the number of entries.
func (m *Map) Len() int {
	return len(m.entries)
}

// Insert adds key -> val unless the key is already present. It reports
// whether the entry was added. key must be a string Value.
func (m *Map) Insert(key, val *Value) bool {
	k, err := key.AsString()
	if err != nil {
		return false
	}
	if _, ok := m.index[k]; ok {
		return false
	}
	m.index[k] = len(m.entries)
	m.entries = append(m.entries, Entry{Key: key, Value: val})
	return true
}

// Has reports whether key is present.
func (m *Map) Has(key string) bool {
	_, ok := m.index[key]
	return ok
}

// Get returns the value stored under key.
func (m *Map) Get(key string) (*Value, bool) {
	i, ok := m.index[key]
	if !ok {
		return nil, false
	}
	return m.entries[i].Value, true
}

// Key returns the marked key Value stored for key, so its position can be
// reported.
func (m *Map) Key(key string) (*Value, bool) {
	i, ok := m.index[key]
	if !ok {
		return nil, false
	}
	return m.entries[i].Key, true
}

// Keys returns the key strings in insertion order.
func (m *Map) Keys() []string {
	keys := make([]string, len(m.entries))
	for i, e := range m.entries {
		keys[i] = e.Key.s
	}
	return keys
}

// Entries returns a copy of the entries in insertion order.
func (m *Map) Entries() []Entry {
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

// Range calls fn for every entry in insertion order until fn returns false.
func (m *Map) Range(fn func(key, val *Value) bool) {
	for _, e := range m.entries {
		if !fn(e.Key, e.Value) {
			return
		}
	}
}

// Equal reports whether m and o hold the same keys mapped to equal values.
// Insertion order is not compared.
func (m *Map) Equal(o *Map) bool {
	if m.Len() != o.Len() {
		return false
	}
	for _, e := range m.entries {
		ov, ok := o.Get(e.Key.s)
		if !ok || !e.Value.Equal(ov) {
			return false
		}
	}
	return true
}
