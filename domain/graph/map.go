package graph

import (
	"math/big"
	"strconv"

	"github.com/evermem/memimg/domain/value"
)

// Map is an insertion-ordered mapping from arbitrary keys to values.
type Map struct {
	node
	entries []mapEntry
	index   map[any]int
}

type mapEntry struct {
	key any
	val any
}

// NewMap creates an empty detached map.
func NewMap() *Map {
	return &Map{index: make(map[any]int)}
}

// ValueKind implements value.Composite.
func (m *Map) ValueKind() value.Kind { return value.KindMap }

// Len returns the number of entries.
func (m *Map) Len() int { return len(m.entries) }

// Get returns the value stored under key.
func (m *Map) Get(key any) (any, bool) {
	i, ok := m.index[key]
	if !ok {
		return nil, false
	}
	return m.entries[i].val, true
}

// Has reports whether key is present.
func (m *Map) Has(key any) bool {
	_, ok := m.index[key]
	return ok
}

// Keys returns the keys in insertion order.
func (m *Map) Keys() []any {
	keys := make([]any, len(m.entries))
	for i, e := range m.entries {
		keys[i] = e.key
	}
	return keys
}

// Entries calls fn for each entry in insertion order until fn returns
// false.
func (m *Map) Entries(fn func(key, val any) bool) {
	for _, e := range m.entries {
		if !fn(e.key, e.val) {
			return
		}
	}
}

// Set puts a key. Existing keys keep their insertion position. The value's
// path uses the stringified key as its segment.
func (m *Map) Set(key, val any) error {
	val = m.adopt(val, childPath(m.pathOf(m), SegmentForKey(key)))
	if i, ok := m.index[key]; ok {
		m.entries[i].val = val
	} else {
		m.index[key] = len(m.entries)
		m.entries = append(m.entries, mapEntry{key: key, val: val})
	}
	return m.emit(Mutation{Op: OpMapSet, Path: m.pathOf(m), Key: key, Value: val})
}

// Delete removes a key. Removing an absent key is a no-op and emits
// nothing.
func (m *Map) Delete(key any) error {
	i, ok := m.index[key]
	if !ok {
		return nil
	}
	m.entries = append(m.entries[:i], m.entries[i+1:]...)
	delete(m.index, key)
	for k, j := range m.index {
		if j > i {
			m.index[k] = j - 1
		}
	}
	return m.emit(Mutation{Op: OpMapDelete, Path: m.pathOf(m), Key: key})
}

// Clear empties the map.
func (m *Map) Clear() error {
	m.entries = nil
	m.index = make(map[any]int)
	return m.emit(Mutation{Op: OpMapClear, Path: m.pathOf(m)})
}

// GetBySegment looks up the entry whose stringified key equals the path
// segment. Path navigation into map values goes through it.
func (m *Map) GetBySegment(segment string) (any, bool) {
	for _, e := range m.entries {
		if SegmentForKey(e.key) == segment {
			return e.val, true
		}
	}
	return nil, false
}

// KeyForSegment returns the existing key whose stringified form equals the
// segment, or the segment itself as a string key when none matches.
func (m *Map) KeyForSegment(segment string) any {
	for _, e := range m.entries {
		if SegmentForKey(e.key) == segment {
			return e.key
		}
	}
	return segment
}

// SegmentForKey is the stringified form a map key takes inside a path.
func SegmentForKey(key any) string {
	switch t := key.(type) {
	case nil:
		return "null"
	case value.Undefined:
		return "undefined"
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case *big.Int:
		return t.String()
	case *value.Symbol:
		if t.HasDescription {
			return "Symbol(" + t.Description + ")"
		}
		return "Symbol()"
	case Node:
		return "[object " + string(t.ValueKind()) + "]"
	default:
		return "[object]"
	}
}
