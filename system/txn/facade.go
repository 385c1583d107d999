package txn

import (
	"github.com/evermem/memimg/domain/graph"
	"github.com/evermem/memimg/domain/paths"
	"github.com/evermem/memimg/domain/value"
)

// wrapForRead wraps a composite read from the base graph in a transaction
// façade at its path, so nested reads and writes stay inside the
// transaction. Values coming from the delta are returned raw. Dates,
// regexps and functions read through unwrapped; their slots are replaced
// wholesale through Set.
func (t *Tx) wrapForRead(v any, p paths.Path) any {
	switch b := v.(type) {
	case *graph.Object:
		return &Object{tx: t, path: p, base: b}
	case *graph.Array:
		return &Array{tx: t, path: p, base: b}
	case *graph.Map:
		return &Map{tx: t, path: p, base: b}
	case *graph.Set:
		return &Set{tx: t, path: p, base: b}
	default:
		return v
	}
}

// Object is the transaction façade over a base object.
type Object struct {
	tx   *Tx
	path paths.Path
	base *graph.Object
}

func (o *Object) target() *graph.Object { return o.base }

// Get reads a field: the delta wins at the exact path (a deletion sentinel
// reads as undefined), then the base graph, wrapped for further
// transactional access.
func (o *Object) Get(key string) any {
	p := o.path.Child(key)
	if v, ok := o.tx.lookup(p); ok {
		if _, del := v.(deletedSentinel); del {
			return value.Undef
		}
		return v
	}
	if o.base != nil {
		if bv, ok := o.base.Get(key); ok {
			return o.tx.wrapForRead(bv, p)
		}
	}
	return value.Undef
}

// Set records the write in the delta; the base graph is untouched until
// save.
func (o *Object) Set(key string, v any) {
	o.tx.write(o.path.Child(key), v)
}

// Delete records a deletion sentinel in the delta.
func (o *Object) Delete(key string) {
	o.tx.write(o.path.Child(key), deleted)
}

// Has computes membership as base keys plus delta-added keys minus
// delta-deleted keys.
func (o *Object) Has(key string) bool {
	p := o.path.Child(key)
	if v, ok := o.tx.lookup(p); ok {
		_, del := v.(deletedSentinel)
		return !del
	}
	return o.base != nil && o.base.Has(key)
}

// Keys lists the visible field names: base order first, then delta
// additions in write order.
func (o *Object) Keys() []string {
	var out []string
	seen := make(map[string]bool)
	if o.base != nil {
		for _, k := range o.base.Keys() {
			if o.tx.isDeleted(o.path.Child(k)) {
				continue
			}
			out = append(out, k)
			seen[k] = true
		}
	}
	for _, k := range o.tx.addedKeysUnder(o.path) {
		if !seen[k] {
			out = append(out, k)
			seen[k] = true
		}
	}
	return out
}

// Len returns the number of visible fields.
func (o *Object) Len() int { return len(o.Keys()) }
