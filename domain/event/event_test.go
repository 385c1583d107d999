package event

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/evermem/memimg/domain/codec"
	"github.com/evermem/memimg/domain/graph"
	"github.com/evermem/memimg/domain/paths"
	"github.com/evermem/memimg/domain/value"
)

func TestRegistryHoldsTheFullTaxonomy(t *testing.T) {
	if len(KnownTypes()) != 18 {
		t.Fatalf("the taxonomy is closed at 18 tags, registry has %d", len(KnownTypes()))
	}
	for _, tag := range []Type{
		TypeSet, TypeDelete,
		TypeArrayPush, TypeArrayPop, TypeArrayShift, TypeArrayUnshift,
		TypeArraySplice, TypeArraySort, TypeArrayReverse, TypeArrayFill,
		TypeArrayCopyWithin,
		TypeMapSet, TypeMapDelete, TypeMapClear,
		TypeSetAdd, TypeSetDelete, TypeSetClear,
		TypeScript,
	} {
		if _, ok := registry[tag]; !ok {
			t.Fatalf("missing handler for %s", tag)
		}
	}
}

func TestUnknownEventTypeIsFatal(t *testing.T) {
	_, err := Build(graph.Mutation{Op: "EXPLODE"}, graph.NewInfra(nil), nil)
	if !errors.Is(err, ErrUnknownEventType) {
		t.Fatalf("build: expected ErrUnknownEventType, got %v", err)
	}
	err = Apply(&Event{Type: "EXPLODE"}, graph.NewObject(), nil)
	if !errors.Is(err, ErrUnknownEventType) {
		t.Fatalf("apply: expected ErrUnknownEventType, got %v", err)
	}
}

func TestBuildSetCarriesEncodedValue(t *testing.T) {
	ev, err := Build(graph.Mutation{Op: graph.OpSet, Path: []string{"name"}, Value: "Alice"},
		graph.NewInfra(nil), nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if ev.Type != TypeSet || ev.Path[0] != "name" || ev.Value != "Alice" {
		t.Fatalf("unexpected event %#v", ev)
	}
	if ev.Timestamp == 0 {
		t.Fatal("timestamp missing")
	}
}

func TestTimestampsNeverGoBackwards(t *testing.T) {
	prev := int64(0)
	for i := 0; i < 100; i++ {
		ts := nowMillis()
		if ts < prev {
			t.Fatalf("timestamp went backwards: %d < %d", ts, prev)
		}
		prev = ts
	}
}

func TestApplySetOnObjectAndMapParents(t *testing.T) {
	root := graph.NewObject()
	m := graph.NewMap()
	_ = root.Set("m", m)

	if err := Apply(&Event{Type: TypeSet, Path: []string{"x"}, Value: float64(5)}, root, nil); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if v, _ := root.Get("x"); v != float64(5) {
		t.Fatalf("object SET: %v", v)
	}

	if err := Apply(&Event{Type: TypeSet, Path: []string{"m", "k"}, Value: "mv"}, root, nil); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if v, ok := m.Get("k"); !ok || v != "mv" {
		t.Fatalf("SET on a map parent must go through the map, got %v %v", v, ok)
	}
	if root.Has("m.k") {
		t.Fatal("map SET must not become a property write")
	}
}

func TestApplyCreatesMissingIntermediates(t *testing.T) {
	root := graph.NewObject()
	if err := Apply(&Event{Type: TypeSet, Path: []string{"a", "0", "b"}, Value: float64(1)}, root, nil); err != nil {
		t.Fatalf("apply: %v", err)
	}
	aRaw, _ := paths.Get(root, paths.Path{"a"})
	if _, isArr := aRaw.(*graph.Array); !isArr {
		t.Fatalf("numeric next segment must create an array, got %T", aRaw)
	}
}

func TestApplyArrayOps(t *testing.T) {
	root := graph.NewObject()
	_ = root.Set("xs", graph.NewArray())

	steps := []*Event{
		{Type: TypeArrayPush, Path: []string{"xs"}, Items: []any{float64(1), float64(2), float64(3)}},
		{Type: TypeArrayUnshift, Path: []string{"xs"}, Items: []any{float64(0)}},
		{Type: TypeArrayPop, Path: []string{"xs"}},
		{Type: TypeArrayReverse, Path: []string{"xs"}},
	}
	for _, ev := range steps {
		if err := Apply(ev, root, nil); err != nil {
			t.Fatalf("apply %s: %v", ev.Type, err)
		}
	}
	xsRaw, _ := root.Get("xs")
	if !graph.Equal(xsRaw, graph.NewArray(2, 1, 0)) {
		t.Fatalf("unexpected array state %v", xsRaw.(*graph.Array).Elems())
	}
}

func TestApplySpliceNegativeDeleteCount(t *testing.T) {
	root := graph.NewObject()
	_ = root.Set("xs", graph.NewArray("a", "b"))
	neg := -2
	one := 1
	ev := &Event{Type: TypeArraySplice, Path: []string{"xs"}, Start: &one, DeleteCount: &neg, Items: []any{"mid"}}
	if err := Apply(ev, root, nil); err != nil {
		t.Fatalf("apply: %v", err)
	}
	xsRaw, _ := root.Get("xs")
	if !graph.Equal(xsRaw, graph.NewArray("a", "mid", "b")) {
		t.Fatalf("negative deleteCount must count as zero: %v", xsRaw.(*graph.Array).Elems())
	}
}

func TestApplySpliceAbsentDeleteCountRemovesToEnd(t *testing.T) {
	root := graph.NewObject()
	_ = root.Set("xs", graph.NewArray("a", "b", "c"))
	one := 1
	ev := &Event{Type: TypeArraySplice, Path: []string{"xs"}, Start: &one}
	if err := Apply(ev, root, nil); err != nil {
		t.Fatalf("apply: %v", err)
	}
	xsRaw, _ := root.Get("xs")
	if !graph.Equal(xsRaw, graph.NewArray("a")) {
		t.Fatalf("absent deleteCount removes to the end: %v", xsRaw.(*graph.Array).Elems())
	}
}

func TestApplyMapAndSetOps(t *testing.T) {
	root := graph.NewObject()

	events := []*Event{
		{Type: TypeMapSet, Path: []string{"m"}, Key: "a", Value: float64(1)},
		{Type: TypeMapSet, Path: []string{"m"}, Key: "b", Value: float64(2)},
		{Type: TypeMapDelete, Path: []string{"m"}, Key: "a"},
		{Type: TypeSetAdd, Path: []string{"s"}, Value: "x"},
		{Type: TypeSetAdd, Path: []string{"s"}, Value: "y"},
		{Type: TypeSetDelete, Path: []string{"s"}, Value: "x"},
	}
	for _, ev := range events {
		if err := Apply(ev, root, nil); err != nil {
			t.Fatalf("apply %s: %v", ev.Type, err)
		}
	}

	mRaw, _ := root.Get("m")
	m := mRaw.(*graph.Map)
	if m.Len() != 1 || m.Has("a") {
		t.Fatalf("map state: %v", m.Keys())
	}
	sRaw, _ := root.Get("s")
	s := sRaw.(*graph.Set)
	if s.Len() != 1 || !s.Has("y") {
		t.Fatalf("set state: %v", s.Values())
	}

	if err := Apply(&Event{Type: TypeMapClear, Path: []string{"m"}}, root, nil); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if m.Len() != 0 {
		t.Fatal("map clear failed")
	}
	if err := Apply(&Event{Type: TypeSetClear, Path: []string{"s"}}, root, nil); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if s.Len() != 0 {
		t.Fatal("set clear failed")
	}
}

func TestApplyScriptIsNoOp(t *testing.T) {
	root := graph.NewObject()
	_ = root.Set("x", 1)
	before := root.Keys()
	if err := Apply(&Event{Type: TypeScript, Source: "root.x = 99"}, root, nil); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if v, _ := root.Get("x"); v != 1 {
		t.Fatal("SCRIPT is an audit marker; it must change nothing")
	}
	if len(root.Keys()) != len(before) {
		t.Fatal("SCRIPT changed the shape of the root")
	}
}

func TestEventJSONRoundTrip(t *testing.T) {
	start := 1
	dc := 0
	ev := &Event{
		Type:        TypeArraySplice,
		Path:        []string{"xs"},
		Timestamp:   1700000000123,
		Items:       []any{"a", float64(2)},
		Start:       &start,
		DeleteCount: &dc,
	}
	data, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back Event
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.Type != ev.Type || back.Timestamp != ev.Timestamp {
		t.Fatalf("header lost: %#v", back)
	}
	if back.Start == nil || *back.Start != 1 || back.DeleteCount == nil || *back.DeleteCount != 0 {
		t.Fatalf("index arguments lost: %#v", back)
	}
	if len(back.Items) != 2 || back.Items[0] != "a" {
		t.Fatalf("items lost: %#v", back.Items)
	}
}

func TestEventJSONKeepsPayloadDocuments(t *testing.T) {
	// A SET whose payload is a tagged document.
	tagged := codec.NewFields()
	tagged.Set("__type__", "bigint")
	tagged.Set("value", "42")
	ev := &Event{Type: TypeSet, Path: []string{"n"}, Timestamp: 1, Value: tagged}

	data, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back Event
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	root := graph.NewObject()
	if err := Apply(&back, root, nil); err != nil {
		t.Fatalf("apply: %v", err)
	}
	v, _ := root.Get("n")
	if !graph.Equal(v, mustBig(t, "42")) {
		t.Fatalf("payload document lost: %v", v)
	}
}

func mustBig(t *testing.T, s string) any {
	t.Helper()
	n, ok := value.NewBigInt(s)
	if !ok {
		t.Fatalf("bad test constant %q", s)
	}
	return n
}
