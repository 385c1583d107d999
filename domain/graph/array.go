package graph

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/evermem/memimg/domain/value"
)

// Array is an ordered, dense sequence.
type Array struct {
	node
	elems []any
}

// NewArray creates a detached array with the given elements.
func NewArray(elems ...any) *Array {
	return &Array{elems: append([]any(nil), elems...)}
}

// ValueKind implements value.Composite.
func (a *Array) ValueKind() value.Kind { return value.KindArray }

// Len returns the number of elements.
func (a *Array) Len() int { return len(a.elems) }

// Get returns the element at index i.
func (a *Array) Get(i int) (any, bool) {
	if i < 0 || i >= len(a.elems) {
		return nil, false
	}
	return a.elems[i], true
}

// Elems returns a copy of the element slice.
func (a *Array) Elems() []any {
	return append([]any(nil), a.elems...)
}

// Set writes the element at index i, extending the array with undefined
// slots when i is past the end. A sparse write serialises densely.
func (a *Array) Set(i int, v any) error {
	if i < 0 {
		return fmt.Errorf("array index %d out of range", i)
	}
	p := childPath(a.pathOf(a), strconv.Itoa(i))
	v = a.adopt(v, p)
	for len(a.elems) <= i {
		a.elems = append(a.elems, value.Undef)
	}
	a.elems[i] = v
	return a.emit(Mutation{Op: OpSet, Path: p, Value: v})
}

// Push appends items and returns the new length.
func (a *Array) Push(items ...any) (int, error) {
	prev := len(a.elems)
	base := a.pathOf(a)
	for i, it := range items {
		items[i] = a.adopt(it, childPath(base, strconv.Itoa(prev+i)))
	}
	a.elems = append(a.elems, items...)
	return len(a.elems), a.emit(Mutation{Op: OpArrayPush, Path: base, Items: items, ItemsAt: prev})
}

// Pop removes and returns the last element; undefined on an empty array.
func (a *Array) Pop() (any, error) {
	if len(a.elems) == 0 {
		return value.Undef, nil
	}
	last := a.elems[len(a.elems)-1]
	a.elems = a.elems[:len(a.elems)-1]
	return last, a.emit(Mutation{Op: OpArrayPop, Path: a.pathOf(a)})
}

// Shift removes and returns the first element; undefined on an empty array.
func (a *Array) Shift() (any, error) {
	if len(a.elems) == 0 {
		return value.Undef, nil
	}
	first := a.elems[0]
	a.elems = append(a.elems[:0], a.elems[1:]...)
	return first, a.emit(Mutation{Op: OpArrayShift, Path: a.pathOf(a)})
}

// Unshift prepends items and returns the new length.
func (a *Array) Unshift(items ...any) (int, error) {
	base := a.pathOf(a)
	for i, it := range items {
		items[i] = a.adopt(it, childPath(base, strconv.Itoa(i)))
	}
	a.elems = append(append([]any(nil), items...), a.elems...)
	return len(a.elems), a.emit(Mutation{Op: OpArrayUnshift, Path: base, Items: items})
}

// Splice removes deleteCount elements at start, inserts items in their
// place, and returns the removed elements. A negative deleteCount counts as
// zero; indices follow the usual sequence-method clamping.
func (a *Array) Splice(start, deleteCount int, items ...any) ([]any, error) {
	return a.splice(start, &deleteCount, items)
}

// SpliceToEnd removes every element from start on.
func (a *Array) SpliceToEnd(start int) ([]any, error) {
	return a.splice(start, nil, nil)
}

func (a *Array) splice(start int, deleteCount *int, items []any) ([]any, error) {
	n := len(a.elems)
	at := clampIndex(start, n)
	dc := n - at
	if deleteCount != nil {
		dc = *deleteCount
		if dc < 0 {
			dc = 0
		}
		if dc > n-at {
			dc = n - at
		}
	}
	base := a.pathOf(a)
	for i, it := range items {
		items[i] = a.adopt(it, childPath(base, strconv.Itoa(at+i)))
	}
	removed := append([]any(nil), a.elems[at:at+dc]...)
	tail := append([]any(nil), a.elems[at+dc:]...)
	a.elems = append(a.elems[:at], items...)
	a.elems = append(a.elems, tail...)
	return removed, a.emit(Mutation{
		Op:          OpArraySplice,
		Path:        base,
		Items:       items,
		Start:       intPtr(start),
		DeleteCount: deleteCount,
		ItemsAt:     at,
	})
}

// Sort orders the elements in place by the default string ordering, with
// undefined slots moved to the end. No comparator is captured, so replay
// reproduces the same order.
func (a *Array) Sort() error {
	sort.SliceStable(a.elems, func(i, j int) bool {
		_, iu := a.elems[i].(value.Undefined)
		_, ju := a.elems[j].(value.Undefined)
		if iu || ju {
			return !iu && ju
		}
		return defaultSortKey(a.elems[i]) < defaultSortKey(a.elems[j])
	})
	return a.emit(Mutation{Op: OpArraySort, Path: a.pathOf(a)})
}

// Reverse reverses the elements in place.
func (a *Array) Reverse() error {
	for i, j := 0, len(a.elems)-1; i < j; i, j = i+1, j-1 {
		a.elems[i], a.elems[j] = a.elems[j], a.elems[i]
	}
	return a.emit(Mutation{Op: OpArrayReverse, Path: a.pathOf(a)})
}

// Fill writes v into [start, end). Nil bounds default to the full range.
func (a *Array) Fill(v any, start, end *int) error {
	base := a.pathOf(a)
	from, to := spanBounds(start, end, len(a.elems))
	v = a.adopt(v, base)
	for i := from; i < to; i++ {
		a.elems[i] = v
	}
	return a.emit(Mutation{Op: OpArrayFill, Path: base, Value: v, Start: start, End: end})
}

// CopyWithin copies the block [start, end) to target, truncating at the
// array's end. Length never changes.
func (a *Array) CopyWithin(target int, start, end *int) error {
	n := len(a.elems)
	to := clampIndex(target, n)
	from, until := spanBounds(start, end, n)
	count := until - from
	if count > n-to {
		count = n - to
	}
	if count > 0 {
		block := append([]any(nil), a.elems[from:from+count]...)
		copy(a.elems[to:], block)
	}
	return a.emit(Mutation{Op: OpArrayCopyWithin, Path: a.pathOf(a), Target: intPtr(target), Start: start, End: end})
}

// clampIndex resolves a possibly negative index against length n.
func clampIndex(i, n int) int {
	if i < 0 {
		i += n
	}
	if i < 0 {
		return 0
	}
	if i > n {
		return n
	}
	return i
}

// spanBounds resolves optional start/end arguments against length n.
func spanBounds(start, end *int, n int) (int, int) {
	from, to := 0, n
	if start != nil {
		from = clampIndex(*start, n)
	}
	if end != nil {
		to = clampIndex(*end, n)
	}
	if to < from {
		to = from
	}
	return from, to
}

// defaultSortKey is the string form used by the default sort ordering.
func defaultSortKey(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}
