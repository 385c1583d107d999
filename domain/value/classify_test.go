package value

import (
	"math/big"
	"testing"
)

type fakeComposite struct{ kind Kind }

func (f fakeComposite) ValueKind() Kind { return f.kind }

func TestClassifyScalars(t *testing.T) {
	cases := []struct {
		name string
		in   any
		kind Kind
	}{
		{"null", nil, KindNull},
		{"undefined", Undef, KindUndefined},
		{"string", "hi", KindPrimitive},
		{"bool", true, KindPrimitive},
		{"float", 3.5, KindPrimitive},
		{"int", 42, KindPrimitive},
		{"bigint", big.NewInt(7), KindBigInt},
		{"symbol", NewSymbol("tag"), KindSymbol},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := Classify(tc.in)
			if c.Kind != tc.kind {
				t.Fatalf("expected kind %s, got %s", tc.kind, c.Kind)
			}
		})
	}
}

func TestClassifyComposites(t *testing.T) {
	for _, kind := range []Kind{KindDate, KindRegexp, KindFunction, KindObject} {
		c := Classify(fakeComposite{kind: kind})
		if c.Kind != kind {
			t.Fatalf("expected %s, got %s", kind, c.Kind)
		}
		if !c.Composite {
			t.Fatalf("%s should be composite", kind)
		}
		if c.Collection {
			t.Fatalf("%s should not be a collection", kind)
		}
	}
	for _, kind := range []Kind{KindArray, KindMap, KindSet} {
		c := Classify(fakeComposite{kind: kind})
		if !c.Collection {
			t.Fatalf("%s should be a collection", kind)
		}
	}
}

func TestClassifyPrimitiveFlags(t *testing.T) {
	if !Classify("x").Primitive {
		t.Fatal("string should be primitive")
	}
	if Classify("x").Composite {
		t.Fatal("string should not be composite")
	}
	if Classify(nil).Primitive {
		t.Fatal("null is not a primitive")
	}
	if !Classify(Undef).SpecialEncoding {
		t.Fatal("undefined needs a tagged wire form")
	}
	if !Classify(big.NewInt(1)).SpecialEncoding {
		t.Fatal("bigint needs a tagged wire form")
	}
}

func TestNewBigInt(t *testing.T) {
	n, ok := NewBigInt("123456789012345678901234567890")
	if !ok {
		t.Fatal("expected valid decimal to parse")
	}
	if n.String() != "123456789012345678901234567890" {
		t.Fatalf("round-trip mismatch: %s", n.String())
	}
	if _, ok := NewBigInt("12x"); ok {
		t.Fatal("expected malformed decimal to fail")
	}
}

func TestSymbolIdentity(t *testing.T) {
	a := NewSymbol("same")
	b := NewSymbol("same")
	if a == b {
		t.Fatal("distinct symbols must not be identical")
	}
	if !a.HasDescription || a.Description != "same" {
		t.Fatal("description lost")
	}
	anon := NewAnonymousSymbol()
	if anon.HasDescription {
		t.Fatal("anonymous symbol should carry no description")
	}
}
