// Package value defines the universe of values the engine tracks and the
// classifier that every other component dispatches on.
package value

import "math/big"

// Kind is the category tag assigned to a runtime value.
type Kind string

const (
	KindNull      Kind = "null"
	KindUndefined Kind = "undefined"
	KindPrimitive Kind = "primitive"
	KindBigInt    Kind = "bigint"
	KindSymbol    Kind = "symbol"
	KindDate      Kind = "date"
	KindRegexp    Kind = "regexp"
	KindFunction  Kind = "function"
	KindArray     Kind = "array"
	KindMap       Kind = "map"
	KindSet       Kind = "set"
	KindObject    Kind = "object"
)

// Undefined is the distinct absent value. It is not the same as Null (a nil
// interface); both survive a snapshot round-trip.
type Undefined struct{}

// Undef is the canonical undefined value.
var Undef = Undefined{}

// Symbol is an opaque token carrying an optional description. Two symbols
// are equal only when they are the same pointer; identity is not preserved
// across processes.
type Symbol struct {
	Description    string
	HasDescription bool
}

// NewSymbol creates a symbol with a description.
func NewSymbol(description string) *Symbol {
	return &Symbol{Description: description, HasDescription: true}
}

// NewAnonymousSymbol creates a symbol without a description.
func NewAnonymousSymbol() *Symbol {
	return &Symbol{}
}

// NewBigInt parses a decimal string into an arbitrary-precision integer.
// Returns false when the text is not a valid decimal integer.
func NewBigInt(decimal string) (*big.Int, bool) {
	return new(big.Int).SetString(decimal, 10)
}

// Composite is implemented by every tracked container kind (object, array,
// map, set, date, regexp, function). The classifier relies on it so that it
// stays the sole authority for type dispatch without depending on the
// container package.
type Composite interface {
	ValueKind() Kind
}
