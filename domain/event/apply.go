package event

import (
	"fmt"

	"github.com/evermem/memimg/domain/codec"
	"github.com/evermem/memimg/domain/graph"
	"github.com/evermem/memimg/domain/paths"
)

// applier carries the per-replay context: the root being reconstructed and
// the payload decoder scoped to it.
type applier struct {
	root graph.Node
	dec  *codec.Decoder
}

func (a *applier) decode(doc any) (any, error) {
	if doc == nil {
		return nil, nil
	}
	return a.dec.DecodeEventValue(doc, a.root)
}

// slot navigates to the parent of the written slot, creating missing
// intermediates.
func (a *applier) slot(path []string) (graph.Node, string, error) {
	parent, final, ok := paths.Parent(a.root, paths.Path(path), true)
	if !ok {
		return nil, "", fmt.Errorf("event path %q has no parent", paths.Path(path).Join())
	}
	return parent, final, nil
}

// array navigates to the collection the event targets, creating it when the
// path is missing.
func (a *applier) array(path []string) (*graph.Array, error) {
	coll, err := a.collection(path, func() graph.Node { return graph.NewArray() })
	if err != nil {
		return nil, err
	}
	arr, ok := coll.(*graph.Array)
	if !ok {
		return nil, fmt.Errorf("value at %q is %s, not an array", paths.Path(path).Join(), coll.ValueKind())
	}
	return arr, nil
}

func (a *applier) keyedMap(path []string) (*graph.Map, error) {
	coll, err := a.collection(path, func() graph.Node { return graph.NewMap() })
	if err != nil {
		return nil, err
	}
	m, ok := coll.(*graph.Map)
	if !ok {
		return nil, fmt.Errorf("value at %q is %s, not a map", paths.Path(path).Join(), coll.ValueKind())
	}
	return m, nil
}

func (a *applier) valueSet(path []string) (*graph.Set, error) {
	coll, err := a.collection(path, func() graph.Node { return graph.NewSet() })
	if err != nil {
		return nil, err
	}
	s, ok := coll.(*graph.Set)
	if !ok {
		return nil, fmt.Errorf("value at %q is %s, not a set", paths.Path(path).Join(), coll.ValueKind())
	}
	return s, nil
}

func (a *applier) collection(path []string, create func() graph.Node) (graph.Node, error) {
	if len(path) == 0 {
		return a.root, nil
	}
	parent, final, err := a.slot(path)
	if err != nil {
		return nil, err
	}
	if existing, ok := paths.GetMember(parent, final); ok {
		if n, isNode := existing.(graph.Node); isNode {
			return n, nil
		}
	}
	made := create()
	if err := paths.SetMember(parent, final, made); err != nil {
		return nil, err
	}
	return made, nil
}

func applySet(a *applier, ev *Event) error {
	parent, final, err := a.slot(ev.Path)
	if err != nil {
		return err
	}
	v, err := a.decode(ev.Value)
	if err != nil {
		return err
	}
	return paths.SetMember(parent, final, v)
}

func applyDelete(a *applier, ev *Event) error {
	parent, final, err := a.slot(ev.Path)
	if err != nil {
		return err
	}
	return paths.DeleteMember(parent, final)
}

func (a *applier) decodeItems(items []any) ([]any, error) {
	out := make([]any, len(items))
	for i, doc := range items {
		v, err := a.decode(doc)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func applyArrayPush(a *applier, ev *Event) error {
	arr, err := a.array(ev.Path)
	if err != nil {
		return err
	}
	items, err := a.decodeItems(ev.Items)
	if err != nil {
		return err
	}
	_, err = arr.Push(items...)
	return err
}

func applyArrayPop(a *applier, ev *Event) error {
	arr, err := a.array(ev.Path)
	if err != nil {
		return err
	}
	_, err = arr.Pop()
	return err
}

func applyArrayShift(a *applier, ev *Event) error {
	arr, err := a.array(ev.Path)
	if err != nil {
		return err
	}
	_, err = arr.Shift()
	return err
}

func applyArrayUnshift(a *applier, ev *Event) error {
	arr, err := a.array(ev.Path)
	if err != nil {
		return err
	}
	items, err := a.decodeItems(ev.Items)
	if err != nil {
		return err
	}
	_, err = arr.Unshift(items...)
	return err
}

func applyArraySplice(a *applier, ev *Event) error {
	arr, err := a.array(ev.Path)
	if err != nil {
		return err
	}
	items, err := a.decodeItems(ev.Items)
	if err != nil {
		return err
	}
	start := 0
	if ev.Start != nil {
		start = *ev.Start
	}
	dc := remainderFrom(arr.Len(), start)
	if ev.DeleteCount != nil {
		dc = *ev.DeleteCount
	}
	_, err = arr.Splice(start, dc, items...)
	return err
}

// remainderFrom computes the to-end delete count an absent deleteCount
// stands for.
func remainderFrom(n, start int) int {
	if start < 0 {
		start += n
	}
	if start < 0 {
		start = 0
	}
	if start > n {
		start = n
	}
	return n - start
}

func applyArraySort(a *applier, ev *Event) error {
	arr, err := a.array(ev.Path)
	if err != nil {
		return err
	}
	return arr.Sort()
}

func applyArrayReverse(a *applier, ev *Event) error {
	arr, err := a.array(ev.Path)
	if err != nil {
		return err
	}
	return arr.Reverse()
}

func applyArrayFill(a *applier, ev *Event) error {
	arr, err := a.array(ev.Path)
	if err != nil {
		return err
	}
	v, err := a.decode(ev.Value)
	if err != nil {
		return err
	}
	return arr.Fill(v, ev.Start, ev.End)
}

func applyArrayCopyWithin(a *applier, ev *Event) error {
	arr, err := a.array(ev.Path)
	if err != nil {
		return err
	}
	target := 0
	if ev.Target != nil {
		target = *ev.Target
	}
	return arr.CopyWithin(target, ev.Start, ev.End)
}

func applyMapSet(a *applier, ev *Event) error {
	m, err := a.keyedMap(ev.Path)
	if err != nil {
		return err
	}
	key, err := a.decode(ev.Key)
	if err != nil {
		return err
	}
	val, err := a.decode(ev.Value)
	if err != nil {
		return err
	}
	return m.Set(key, val)
}

func applyMapDelete(a *applier, ev *Event) error {
	m, err := a.keyedMap(ev.Path)
	if err != nil {
		return err
	}
	key, err := a.decode(ev.Key)
	if err != nil {
		return err
	}
	return m.Delete(key)
}

func applyMapClear(a *applier, ev *Event) error {
	m, err := a.keyedMap(ev.Path)
	if err != nil {
		return err
	}
	return m.Clear()
}

func applySetAdd(a *applier, ev *Event) error {
	s, err := a.valueSet(ev.Path)
	if err != nil {
		return err
	}
	v, err := a.decode(ev.Value)
	if err != nil {
		return err
	}
	return s.Add(v)
}

func applySetDelete(a *applier, ev *Event) error {
	s, err := a.valueSet(ev.Path)
	if err != nil {
		return err
	}
	v, err := a.decode(ev.Value)
	if err != nil {
		return err
	}
	return s.Delete(v)
}

func applySetClear(a *applier, ev *Event) error {
	s, err := a.valueSet(ev.Path)
	if err != nil {
		return err
	}
	return s.Clear()
}

// applyScript is a no-op: the event is an audit marker and the captured
// script is never re-executed during replay.
func applyScript(a *applier, ev *Event) error {
	return nil
}
