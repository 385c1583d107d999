package value

import "math/big"

// Classification describes a runtime value for dispatch purposes.
type Classification struct {
	Kind Kind
	// Primitive reports strings, numbers and booleans.
	Primitive bool
	// Composite reports values that are wrapped and carry a path.
	Composite bool
	// Collection reports the three mutable container kinds.
	Collection bool
	// SpecialEncoding reports values that need a tagged wire form rather
	// than plain JSON.
	SpecialEncoding bool
}

// Classify maps any runtime value to its category. It is the single place
// where type tests happen; serialisation and interception dispatch on its
// result. Dates, regexps and functions are recognised through the Composite
// interface before the generic object fallback.
func Classify(v any) Classification {
	switch t := v.(type) {
	case nil:
		return Classification{Kind: KindNull}
	case Undefined:
		return Classification{Kind: KindUndefined, SpecialEncoding: true}
	case string, bool:
		return Classification{Kind: KindPrimitive, Primitive: true}
	case float64, float32, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return Classification{Kind: KindPrimitive, Primitive: true}
	case *big.Int:
		return Classification{Kind: KindBigInt, SpecialEncoding: true}
	case *Symbol:
		return Classification{Kind: KindSymbol, SpecialEncoding: true}
	case Composite:
		k := t.ValueKind()
		return Classification{
			Kind:            k,
			Composite:       true,
			Collection:      k == KindArray || k == KindMap || k == KindSet,
			SpecialEncoding: k != KindObject && k != KindArray,
		}
	default:
		// Anything else is treated as an opaque record; the serialiser
		// consults the class registry for it.
		return Classification{Kind: KindObject, Composite: true}
	}
}

// IsComposite reports whether v is wrapped and tracked by the engine.
func IsComposite(v any) bool {
	return Classify(v).Composite
}

// IsPrimitive reports strings, numbers and booleans.
func IsPrimitive(v any) bool {
	return Classify(v).Primitive
}
