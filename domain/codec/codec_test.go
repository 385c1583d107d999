package codec

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/evermem/memimg/domain/graph"
	"github.com/evermem/memimg/domain/paths"
	"github.com/evermem/memimg/domain/value"
)

func snapshotRoundTrip(t *testing.T, g any) any {
	t.Helper()
	enc := NewSnapshotEncoder(nil)
	doc, err := enc.Encode(g)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	data, err := MarshalDocument(doc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	dec := &Decoder{}
	restored, err := dec.DecodeSnapshotJSON(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return restored
}

func TestRoundTripScalars(t *testing.T) {
	root := graph.NewObject()
	_ = root.Set("s", "text")
	_ = root.Set("n", 3.25)
	_ = root.Set("b", true)
	_ = root.Set("nothing", nil)
	_ = root.Set("missing", value.Undef)
	_ = root.Set("big", big.NewInt(0).Lsh(big.NewInt(1), 100))
	_ = root.Set("sym", value.NewSymbol("tag"))

	restored := snapshotRoundTrip(t, root)
	if !graph.Equal(root, restored) {
		t.Fatalf("round-trip mismatch: %#v", restored)
	}
	// Null and undefined stay distinct.
	obj := restored.(*graph.Object)
	if v, ok := obj.Get("nothing"); !ok || v != nil {
		t.Fatal("null lost")
	}
	if v, _ := obj.Get("missing"); v != value.Undef {
		t.Fatal("undefined lost")
	}
}

func TestRoundTripNonFiniteNumbers(t *testing.T) {
	root := graph.NewObject()
	_ = root.Set("nan", math.NaN())
	_ = root.Set("inf", math.Inf(1))
	_ = root.Set("ninf", math.Inf(-1))

	restored := snapshotRoundTrip(t, root).(*graph.Object)
	if v, _ := restored.Get("nan"); !math.IsNaN(v.(float64)) {
		t.Fatal("NaN lost")
	}
	if v, _ := restored.Get("inf"); !math.IsInf(v.(float64), 1) {
		t.Fatal("+Inf lost")
	}
	if v, _ := restored.Get("ninf"); !math.IsInf(v.(float64), -1) {
		t.Fatal("-Inf lost")
	}
}

func TestRoundTripContainers(t *testing.T) {
	root := graph.NewObject()
	m := graph.NewMap()
	_ = m.Set("k1", "v1")
	_ = m.Set(2.0, graph.NewArray("x", "y"))
	s := graph.NewSet("a", "b")
	_ = root.Set("m", m)
	_ = root.Set("s", s)
	_ = root.Set("xs", graph.NewArray(1, graph.NewObject()))

	restored := snapshotRoundTrip(t, root)
	if !graph.Equal(root, restored) {
		t.Fatalf("round-trip mismatch")
	}
}

func TestRoundTripDateRegexpFunction(t *testing.T) {
	root := graph.NewObject()
	d := graph.NewDate(time.UnixMilli(1700000000123).UTC())
	_ = d.SetProp("note", "annotated")
	re := graph.NewRegexp("a(b+)", "gi")
	_ = re.SetLastIndex(3)
	fn := graph.NewFunction("(x) => x")
	_ = root.Set("d", d)
	_ = root.Set("re", re)
	_ = root.Set("fn", fn)
	_ = root.Set("bad", graph.NewInvalidDate())

	restored := snapshotRoundTrip(t, root)
	if !graph.Equal(root, restored) {
		t.Fatalf("round-trip mismatch")
	}
}

func TestUnserializableFunctionSlotIsOmitted(t *testing.T) {
	root := graph.NewObject()
	_ = root.Set("keep", 1)
	_ = root.Set("drop", graph.NewFunction(""))

	restored := snapshotRoundTrip(t, root).(*graph.Object)
	if restored.Has("drop") {
		t.Fatal("slot with no serialisable form must be omitted")
	}
	if !restored.Has("keep") {
		t.Fatal("rest of the document must survive")
	}

	enc := NewSnapshotEncoder(nil)
	if _, err := enc.Encode(graph.NewFunction("")); !errors.Is(err, ErrUnserializable) {
		t.Fatalf("top-level unserialisable value: %v", err)
	}
}

func TestCycleSnapshot(t *testing.T) {
	a := graph.NewObject()
	_ = a.Set("self", a)

	enc := NewSnapshotEncoder(nil)
	doc, err := enc.Encode(a)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	data, _ := MarshalDocument(doc)
	if !strings.Contains(string(data), `"__type__":"ref"`) {
		t.Fatalf("expected a ref node, got %s", data)
	}

	dec := &Decoder{}
	restoredAny, err := dec.DecodeSnapshotJSON(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	restored := restoredAny.(*graph.Object)
	self, _ := restored.Get("self")
	if self != any(restored) {
		t.Fatal("cycle identity lost: restored.self must be restored itself")
	}
}

func TestSharedReferenceIdentity(t *testing.T) {
	root := graph.NewObject()
	shared := graph.NewObject()
	_ = shared.Set("v", 1)
	_ = root.Set("left", shared)
	_ = root.Set("right", shared)

	restored := snapshotRoundTrip(t, root).(*graph.Object)
	left, _ := restored.Get("left")
	right, _ := restored.Get("right")
	if left != right {
		t.Fatal("identity lost across shared paths")
	}
	_ = left.(*graph.Object).Set("v", 2)
	if v, _ := right.(*graph.Object).Get("v"); v != 2 {
		t.Fatalf("mutation must be visible through the other path, got %v", v)
	}
}

func TestEventValueTrackerRules(t *testing.T) {
	// Image: root.shared lives at ["shared"].
	root := graph.NewObject()
	shared := graph.NewObject()
	_ = shared.Set("v", 1)
	_ = root.Set("shared", shared)
	infra := graph.IndexPaths(root)

	// Rule 1: assigning that value elsewhere emits an absolute ref.
	enc := NewEventValueEncoder(infra, paths.Path{"other"}, nil)
	doc, err := enc.Encode(shared)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	f := doc.(*Fields)
	if f.TypeTag() != "ref" {
		t.Fatalf("expected an absolute ref, got %v", doc)
	}
	p, _ := f.Get(keyPath)
	if segs := p.([]any); len(segs) != 1 || segs[0] != "shared" {
		t.Fatalf("absolute ref path: %v", p)
	}

	// Rule 2: a cycle inside the payload emits a ref relative to the
	// assignment path.
	payload := graph.NewObject()
	_ = payload.Set("me", payload)
	enc = NewEventValueEncoder(infra, paths.Path{"other"}, nil)
	doc, err = enc.Encode(payload)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	inner, _ := doc.(*Fields).Get("me")
	innerF := inner.(*Fields)
	if innerF.TypeTag() != "ref" {
		t.Fatalf("expected a local ref, got %v", inner)
	}
	if p, _ := innerF.Get(keyPath); len(p.([]any)) != 0 {
		t.Fatalf("local ref must be relative to the payload root, got %v", p)
	}
}

func TestScopedResolverLocalThenOuter(t *testing.T) {
	// Outer image with root.shared.
	root := graph.NewObject()
	shared := graph.NewObject()
	_ = shared.Set("v", 1)
	_ = root.Set("shared", shared)

	// Payload: {inner: {…}, again: ref(["inner"]), out: ref(["shared"])}.
	doc := NewFields()
	innerDoc := NewFields()
	innerDoc.Set("w", float64(2))
	doc.Set("inner", innerDoc)
	localRef := NewFields()
	localRef.Set(keyType, "ref")
	localRef.Set(keyPath, []any{"inner"})
	doc.Set("again", localRef)
	outerRef := NewFields()
	outerRef.Set(keyType, "ref")
	outerRef.Set(keyPath, []any{"shared"})
	doc.Set("out", outerRef)

	dec := &Decoder{}
	restoredAny, err := dec.DecodeEventValue(doc, root)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	restored := restoredAny.(*graph.Object)
	inner, _ := restored.Get("inner")
	again, _ := restored.Get("again")
	if inner != again {
		t.Fatal("local scope must win for internal refs")
	}
	out, _ := restored.Get("out")
	if out != any(shared) {
		t.Fatal("outer refs must resolve into the memory image")
	}
}

func TestPathResolutionError(t *testing.T) {
	refDoc := NewFields()
	refDoc.Set(keyType, "ref")
	refDoc.Set(keyPath, []any{"nope"})
	doc := NewFields()
	doc.Set("x", refDoc)

	dec := &Decoder{}
	if _, err := dec.DecodeSnapshot(doc); !errors.Is(err, ErrPathResolution) {
		t.Fatalf("expected ErrPathResolution, got %v", err)
	}
}

func TestSnapshotFormatErrors(t *testing.T) {
	cases := []string{
		`{"__type__":"date"}`,
		`{"__type__":"bigint"}`,
		`{"__type__":"bigint","value":"12x"}`,
		`{"__type__":"regexp","source":"a"}`,
		`{"__type__":"function"}`,
		`{"__type__":"wat"}`,
		`{"__type__":"map","entries":[["only-key"]]}`,
	}
	dec := &Decoder{}
	for _, raw := range cases {
		if _, err := dec.DecodeSnapshotJSON([]byte(raw)); !errors.Is(err, ErrSnapshotFormat) {
			t.Fatalf("%s: expected ErrSnapshotFormat, got %v", raw, err)
		}
	}
	if _, err := UnmarshalDocument([]byte("{not json")); !errors.Is(err, ErrSnapshotFormat) {
		t.Fatalf("malformed JSON: %v", err)
	}
}

// namedRegistry registers one nominal type, "Point".
type namedRegistry struct{}

type point struct {
	obj *graph.Object
}

func (namedRegistry) NameFor(v any) (string, bool) {
	if p, ok := v.(*point); ok {
		_ = p
		return "Point", true
	}
	return "", false
}

func (namedRegistry) Rehydrate(name string, fields *graph.Object) (any, error) {
	if name != "Point" {
		return nil, fmt.Errorf("%w: %s", ErrRegistryMissing, name)
	}
	return &point{obj: fields}, nil
}

func TestClassRegistryRoundTrip(t *testing.T) {
	dec := &Decoder{Registry: namedRegistry{}}
	doc, err := UnmarshalDocument([]byte(`{"__class__":"Point","x":1,"y":2}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	restored, err := dec.DecodeSnapshot(doc)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	p, ok := restored.(*point)
	if !ok {
		t.Fatalf("expected rehydrated point, got %T", restored)
	}
	if v, _ := p.obj.Get("x"); v != float64(1) {
		t.Fatal("state lost in rehydration")
	}

	// Unknown class with a registry configured is an error.
	doc2, _ := UnmarshalDocument([]byte(`{"__class__":"Ghost"}`))
	if _, err := dec.DecodeSnapshot(doc2); !errors.Is(err, ErrRegistryMissing) {
		t.Fatalf("expected ErrRegistryMissing, got %v", err)
	}
}

func TestClassMarkerPreservedWithoutRegistry(t *testing.T) {
	dec := &Decoder{}
	doc, _ := UnmarshalDocument([]byte(`{"__class__":"Point","x":1}`))
	restored, err := dec.DecodeSnapshot(doc)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	obj := restored.(*graph.Object)
	if v, ok := obj.Get("__class__"); !ok || v != "Point" {
		t.Fatal("marker must be preserved for later rehydration")
	}
}

func TestObjectKeyOrderSurvivesTheWire(t *testing.T) {
	root := graph.NewObject()
	_ = root.Set("zz", 1)
	_ = root.Set("aa", 2)
	_ = root.Set("mm", 3)

	restored := snapshotRoundTrip(t, root).(*graph.Object)
	keys := restored.Keys()
	if keys[0] != "zz" || keys[1] != "aa" || keys[2] != "mm" {
		t.Fatalf("insertion order lost on the wire: %v", keys)
	}
}
