package graph

import (
	"testing"

	"github.com/evermem/memimg/domain/value"
)

// recorder collects emitted mutations.
type recorder struct {
	mutations []Mutation
}

func (r *recorder) EmitMutation(m Mutation) error {
	r.mutations = append(r.mutations, m)
	return nil
}

func attachWithRecorder(root Node) (*Infra, *recorder) {
	infra := NewInfra(nil)
	rec := &recorder{}
	Attach(root, infra, rec)
	return infra, rec
}

func TestObjectSetEmitsFullSlotPath(t *testing.T) {
	root := NewObject()
	_, rec := attachWithRecorder(root)

	if err := root.Set("name", "Alice"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if len(rec.mutations) != 1 {
		t.Fatalf("expected 1 mutation, got %d", len(rec.mutations))
	}
	m := rec.mutations[0]
	if m.Op != OpSet || len(m.Path) != 1 || m.Path[0] != "name" || m.Value != "Alice" {
		t.Fatalf("unexpected mutation %#v", m)
	}
}

func TestObjectDeleteMissingEmitsNothing(t *testing.T) {
	root := NewObject()
	_, rec := attachWithRecorder(root)

	if err := root.Delete("ghost"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(rec.mutations) != 0 {
		t.Fatalf("deleting an absent field must not emit, got %d", len(rec.mutations))
	}
}

func TestWrapRegistersNestedPaths(t *testing.T) {
	root := NewObject()
	child := NewObject()
	inner := NewArray(1, 2)
	_ = child.Set("list", inner)
	_ = root.Set("child", child)

	infra, _ := attachWithRecorder(root)

	p, ok := infra.PathOf(child)
	if !ok || len(p) != 1 || p[0] != "child" {
		t.Fatalf("child path %v ok=%v", p, ok)
	}
	p, ok = infra.PathOf(inner)
	if !ok || len(p) != 2 || p[0] != "child" || p[1] != "list" {
		t.Fatalf("inner path %v ok=%v", p, ok)
	}
}

func TestWrapCycleTerminatesAndKeepsFirstPath(t *testing.T) {
	root := NewObject()
	_ = root.Set("self", root)

	infra, _ := attachWithRecorder(root)

	p, ok := infra.PathOf(root)
	if !ok || len(p) != 0 {
		t.Fatalf("root must keep its first (empty) path, got %v", p)
	}
}

func TestSharedValueKeepsCanonicalPath(t *testing.T) {
	root := NewObject()
	shared := NewObject()
	_ = shared.Set("v", 1)
	infra, _ := attachWithRecorder(root)

	_ = root.Set("left", shared)
	_ = root.Set("right", shared)

	p, ok := infra.PathOf(shared)
	if !ok || len(p) != 1 || p[0] != "left" {
		t.Fatalf("first sight wins: %v", p)
	}
}

func TestArrayPushCarriesLandingIndex(t *testing.T) {
	root := NewObject()
	_, rec := attachWithRecorder(root)
	arr := NewArray()
	_ = root.Set("items", arr)

	if _, err := arr.Push(1); err != nil {
		t.Fatalf("push: %v", err)
	}
	if _, err := arr.Push(2, 3); err != nil {
		t.Fatalf("push: %v", err)
	}

	if len(rec.mutations) != 3 {
		t.Fatalf("expected SET + 2 pushes, got %d", len(rec.mutations))
	}
	second := rec.mutations[2]
	if second.Op != OpArrayPush || second.ItemsAt != 1 || len(second.Items) != 2 {
		t.Fatalf("unexpected push mutation %#v", second)
	}
	if second.Path[0] != "items" {
		t.Fatalf("collection path expected, got %v", second.Path)
	}
}

func TestArraySpliceCarriesClampedLandingIndex(t *testing.T) {
	root := NewObject()
	_, rec := attachWithRecorder(root)
	arr := NewArray("a", "b", "c")
	_ = root.Set("xs", arr)

	if _, err := arr.Splice(-1, 0, "x"); err != nil {
		t.Fatalf("splice: %v", err)
	}
	m := rec.mutations[len(rec.mutations)-1]
	if m.Op != OpArraySplice || m.ItemsAt != 2 {
		t.Fatalf("negative start must resolve to its clamped index, got %#v", m)
	}
	if m.Start == nil || *m.Start != -1 {
		t.Fatalf("the raw start stays on the wire, got %#v", m.Start)
	}

	if _, err := arr.Splice(1000, 0, "y"); err != nil {
		t.Fatalf("splice: %v", err)
	}
	m = rec.mutations[len(rec.mutations)-1]
	if m.ItemsAt != arr.Len()-1 {
		t.Fatalf("out-of-range start must clamp to the end, got %#v", m)
	}
}

func TestArraySpliceSemantics(t *testing.T) {
	arr := NewArray("a", "b", "c", "d")
	removed, err := arr.Splice(1, 2, "x")
	if err != nil {
		t.Fatalf("splice: %v", err)
	}
	if len(removed) != 2 || removed[0] != "b" || removed[1] != "c" {
		t.Fatalf("removed %v", removed)
	}
	if !Equal(arr, NewArray("a", "x", "d")) {
		t.Fatalf("splice result %v", arr.Elems())
	}

	arr = NewArray("a", "b", "c")
	if _, err := arr.Splice(-1, -5, "z"); err != nil {
		t.Fatalf("splice: %v", err)
	}
	if !Equal(arr, NewArray("a", "b", "z", "c")) {
		t.Fatalf("negative deleteCount must count as zero: %v", arr.Elems())
	}

	arr = NewArray("a", "b", "c")
	if _, err := arr.SpliceToEnd(1); err != nil {
		t.Fatalf("splice: %v", err)
	}
	if !Equal(arr, NewArray("a")) {
		t.Fatalf("splice to end: %v", arr.Elems())
	}
}

func TestArraySortUsesStringOrdering(t *testing.T) {
	arr := NewArray(3, 1, 10)
	if err := arr.Sort(); err != nil {
		t.Fatalf("sort: %v", err)
	}
	if !Equal(arr, NewArray(1, 10, 3)) {
		t.Fatalf("default sort is by string form, got %v", arr.Elems())
	}
}

func TestArraySortMovesUndefinedLast(t *testing.T) {
	arr := NewArray(value.Undef, "b", "a")
	if err := arr.Sort(); err != nil {
		t.Fatalf("sort: %v", err)
	}
	elems := arr.Elems()
	if elems[0] != "a" || elems[1] != "b" {
		t.Fatalf("sorted %v", elems)
	}
	if _, isUndef := elems[2].(value.Undefined); !isUndef {
		t.Fatalf("undefined must sort last, got %v", elems)
	}
}

func TestArrayFillAndCopyWithin(t *testing.T) {
	one := 1
	three := 3
	arr := NewArray("a", "b", "c", "d")
	if err := arr.Fill("z", &one, &three); err != nil {
		t.Fatalf("fill: %v", err)
	}
	if !Equal(arr, NewArray("a", "z", "z", "d")) {
		t.Fatalf("fill result %v", arr.Elems())
	}

	zero := 0
	two := 2
	arr = NewArray(1, 2, 3, 4, 5)
	if err := arr.CopyWithin(3, &zero, &two); err != nil {
		t.Fatalf("copyWithin: %v", err)
	}
	if !Equal(arr, NewArray(1, 2, 3, 1, 2)) {
		t.Fatalf("copyWithin result %v", arr.Elems())
	}
}

func TestArraySetExtendsWithUndefined(t *testing.T) {
	arr := NewArray("a")
	if err := arr.Set(3, "d"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if arr.Len() != 4 {
		t.Fatalf("expected dense extension to length 4, got %d", arr.Len())
	}
	if _, isUndef := arr.Elems()[1].(value.Undefined); !isUndef {
		t.Fatalf("gap slots must read undefined")
	}
}

func TestMapOrderAndSegments(t *testing.T) {
	m := NewMap()
	_ = m.Set("b", 1)
	_ = m.Set(2.0, "two")
	_ = m.Set("a", 3)
	_ = m.Set("b", 9)

	keys := m.Keys()
	if len(keys) != 3 || keys[0] != "b" || keys[1] != 2.0 || keys[2] != "a" {
		t.Fatalf("insertion order lost: %v", keys)
	}
	if SegmentForKey(2.0) != "2" {
		t.Fatalf("numeric key segment: %q", SegmentForKey(2.0))
	}
	if v, ok := m.GetBySegment("2"); !ok || v != "two" {
		t.Fatalf("segment lookup: %v %v", v, ok)
	}
	_ = m.Delete(2.0)
	if m.Len() != 2 || m.Has(2.0) {
		t.Fatalf("delete failed")
	}
	if v, _ := m.Get("b"); v != 9 {
		t.Fatalf("repeat set must keep position and update value, got %v", v)
	}
}

func TestSetDistinctnessAndOrder(t *testing.T) {
	s := NewSet()
	_ = s.Add("a")
	_ = s.Add("b")
	_ = s.Add("a")
	if s.Len() != 2 {
		t.Fatalf("distinctness violated: %d", s.Len())
	}
	vals := s.Values()
	if vals[0] != "a" || vals[1] != "b" {
		t.Fatalf("order lost: %v", vals)
	}
	_ = s.Delete("a")
	if s.Has("a") || !s.Has("b") {
		t.Fatalf("delete failed")
	}
}

func TestDateTimeAndProps(t *testing.T) {
	root := NewObject()
	_, rec := attachWithRecorder(root)
	d := NewInvalidDate()
	_ = root.Set("when", d)

	if err := d.SetUnixMilli(1700000000123); err != nil {
		t.Fatalf("setTime: %v", err)
	}
	if err := d.SetProp("note", "launch"); err != nil {
		t.Fatalf("setProp: %v", err)
	}

	var timeSets int
	for _, m := range rec.mutations {
		if m.Op == OpSet && len(m.Path) == 2 && m.Path[1] == "time" {
			timeSets++
		}
	}
	if timeSets != 1 {
		t.Fatalf("expected one SET of the implicit time property, got %d", timeSets)
	}
	if !d.Valid() || d.UnixMilli() != 1700000000123 {
		t.Fatalf("timestamp lost")
	}
	if v, ok := d.GetProp("note"); !ok || v != "launch" {
		t.Fatalf("user property lost")
	}
}

func TestRegexpLastIndexEmitsSet(t *testing.T) {
	root := NewObject()
	_, rec := attachWithRecorder(root)
	re := NewRegexp("ab+", "gi")
	_ = root.Set("re", re)

	if err := re.SetLastIndex(4); err != nil {
		t.Fatalf("setLastIndex: %v", err)
	}
	last := rec.mutations[len(rec.mutations)-1]
	if last.Op != OpSet || last.Path[1] != "lastIndex" {
		t.Fatalf("unexpected mutation %#v", last)
	}
	if re.LastIndex() != 4 {
		t.Fatalf("cursor lost")
	}
}

func TestEqualHandlesCyclesAndNumbers(t *testing.T) {
	a := NewObject()
	_ = a.Set("self", a)
	b := NewObject()
	_ = b.Set("self", b)
	if !Equal(a, b) {
		t.Fatal("isomorphic cycles should compare equal")
	}
	if !Equal(30, 30.0) {
		t.Fatal("numbers compare numerically across representations")
	}
	if Equal("1", 1) {
		t.Fatal("string and number are distinct")
	}
}

func TestExportPlainCopy(t *testing.T) {
	root := NewObject()
	_ = root.Set("name", "Alice")
	arr := NewArray(1, 2)
	_ = root.Set("items", arr)

	out := Export(root).(map[string]any)
	if out["name"] != "Alice" {
		t.Fatalf("export lost field: %v", out)
	}
	items := out["items"].([]any)
	if len(items) != 2 {
		t.Fatalf("export lost elements: %v", items)
	}
	// The copy is detached from the graph.
	items[0] = 99
	if v, _ := arr.Get(0); v != 1 {
		t.Fatal("export must not alias the graph")
	}
}
