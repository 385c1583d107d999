package txn

import (
	"strconv"

	"github.com/evermem/memimg/domain/graph"
	"github.com/evermem/memimg/domain/paths"
)

// Array is the transaction façade over a base array. The first mutating
// call copies the base elements into the delta at the array's path; later
// calls mutate the copy.
type Array struct {
	tx   *Tx
	path paths.Path
	base *graph.Array
}

// target returns the raw value save flushes: the delta copy when one
// exists, the base array otherwise.
func (a *Array) target() *graph.Array {
	if v, ok := a.tx.lookup(a.path); ok {
		if arr, isArr := v.(*graph.Array); isArr {
			return arr
		}
	}
	return a.base
}

// materialize is the copy-on-first-write step.
func (a *Array) materialize() *graph.Array {
	if v, ok := a.tx.lookup(a.path); ok {
		if arr, isArr := v.(*graph.Array); isArr {
			return arr
		}
	}
	cp := graph.NewArray(a.base.Elems()...)
	a.tx.write(a.path, cp)
	return cp
}

// Len returns the visible length.
func (a *Array) Len() int { return a.target().Len() }

// Get reads the visible element at i, wrapped for transactional access.
func (a *Array) Get(i int) any {
	v, ok := a.target().Get(i)
	if !ok {
		return nil
	}
	return a.tx.wrapForRead(v, a.path.Child(strconv.Itoa(i)))
}

// Set writes an element into the delta copy.
func (a *Array) Set(i int, v any) error { return a.materialize().Set(i, v) }

// Push appends to the delta copy.
func (a *Array) Push(items ...any) (int, error) { return a.materialize().Push(items...) }

// Pop removes the last element of the delta copy.
func (a *Array) Pop() (any, error) { return a.materialize().Pop() }

// Shift removes the first element of the delta copy.
func (a *Array) Shift() (any, error) { return a.materialize().Shift() }

// Unshift prepends to the delta copy.
func (a *Array) Unshift(items ...any) (int, error) { return a.materialize().Unshift(items...) }

// Splice edits the delta copy in place.
func (a *Array) Splice(start, deleteCount int, items ...any) ([]any, error) {
	return a.materialize().Splice(start, deleteCount, items...)
}

// Sort orders the delta copy in place.
func (a *Array) Sort() error { return a.materialize().Sort() }

// Reverse reverses the delta copy in place.
func (a *Array) Reverse() error { return a.materialize().Reverse() }

// Fill writes v into [start, end) of the delta copy.
func (a *Array) Fill(v any, start, end *int) error { return a.materialize().Fill(v, start, end) }

// CopyWithin moves a block inside the delta copy.
func (a *Array) CopyWithin(target int, start, end *int) error {
	return a.materialize().CopyWithin(target, start, end)
}

// Map is the transaction façade over a base map, with the same
// copy-on-first-write handling as Array.
type Map struct {
	tx   *Tx
	path paths.Path
	base *graph.Map
}

func (m *Map) target() *graph.Map {
	if v, ok := m.tx.lookup(m.path); ok {
		if mp, isMap := v.(*graph.Map); isMap {
			return mp
		}
	}
	return m.base
}

func (m *Map) materialize() *graph.Map {
	if v, ok := m.tx.lookup(m.path); ok {
		if mp, isMap := v.(*graph.Map); isMap {
			return mp
		}
	}
	cp := graph.NewMap()
	m.base.Entries(func(k, val any) bool {
		_ = cp.Set(k, val)
		return true
	})
	m.tx.write(m.path, cp)
	return cp
}

// Len returns the visible entry count.
func (m *Map) Len() int { return m.target().Len() }

// Has reports visible membership.
func (m *Map) Has(key any) bool { return m.target().Has(key) }

// Get reads the visible value under key, wrapped for transactional access.
func (m *Map) Get(key any) any {
	v, ok := m.target().Get(key)
	if !ok {
		return nil
	}
	return m.tx.wrapForRead(v, m.path.Child(graph.SegmentForKey(key)))
}

// Keys returns the visible keys in insertion order.
func (m *Map) Keys() []any { return m.target().Keys() }

// Set puts a key into the delta copy.
func (m *Map) Set(key, val any) error { return m.materialize().Set(key, val) }

// Delete removes a key from the delta copy.
func (m *Map) Delete(key any) error { return m.materialize().Delete(key) }

// Clear empties the delta copy.
func (m *Map) Clear() error { return m.materialize().Clear() }

// Set is the transaction façade over a base set, with the same
// copy-on-first-write handling as Array.
type Set struct {
	tx   *Tx
	path paths.Path
	base *graph.Set
}

func (s *Set) target() *graph.Set {
	if v, ok := s.tx.lookup(s.path); ok {
		if st, isSet := v.(*graph.Set); isSet {
			return st
		}
	}
	return s.base
}

func (s *Set) materialize() *graph.Set {
	if v, ok := s.tx.lookup(s.path); ok {
		if st, isSet := v.(*graph.Set); isSet {
			return st
		}
	}
	cp := graph.NewSet(s.base.Values()...)
	s.tx.write(s.path, cp)
	return cp
}

// Len returns the visible element count.
func (s *Set) Len() int { return s.target().Len() }

// Has reports visible membership.
func (s *Set) Has(v any) bool { return s.target().Has(v) }

// Values returns the visible elements in insertion order.
func (s *Set) Values() []any { return s.target().Values() }

// Add inserts into the delta copy.
func (s *Set) Add(v any) error { return s.materialize().Add(v) }

// Delete removes from the delta copy.
func (s *Set) Delete(v any) error { return s.materialize().Delete(v) }

// Clear empties the delta copy.
func (s *Set) Clear() error { return s.materialize().Clear() }
