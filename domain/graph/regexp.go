package graph

import "github.com/evermem/memimg/domain/value"

// Regexp is a source pattern, a flag set and a mutable scanning cursor.
// Only the cursor mutates; it is recorded as a SET of the lastIndex
// property so it round-trips through replay.
type Regexp struct {
	node
	source    string
	flags     string
	lastIndex int
}

// NewRegexp creates a detached regexp value.
func NewRegexp(source, flags string) *Regexp {
	return &Regexp{source: source, flags: flags}
}

// ValueKind implements value.Composite.
func (r *Regexp) ValueKind() value.Kind { return value.KindRegexp }

// Source returns the pattern text.
func (r *Regexp) Source() string { return r.source }

// Flags returns the flag string.
func (r *Regexp) Flags() string { return r.flags }

// LastIndex returns the scanning cursor.
func (r *Regexp) LastIndex() int { return r.lastIndex }

// SetLastIndex moves the scanning cursor.
func (r *Regexp) SetLastIndex(i int) error {
	r.lastIndex = i
	p := childPath(r.pathOf(r), "lastIndex")
	return r.emit(Mutation{Op: OpSet, Path: p, Value: float64(i)})
}
