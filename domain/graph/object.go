package graph

import "github.com/evermem/memimg/domain/value"

// Object is a string-keyed record with insertion-ordered keys.
type Object struct {
	node
	keys  []string
	slots map[string]any
}

// NewObject creates an empty detached object.
func NewObject() *Object {
	return &Object{slots: make(map[string]any)}
}

// ValueKind implements value.Composite.
func (o *Object) ValueKind() value.Kind { return value.KindObject }

// Get returns the value of a field. The second result reports presence;
// an absent field returns nil and false.
func (o *Object) Get(key string) (any, bool) {
	v, ok := o.slots[key]
	return v, ok
}

// Keys returns the field names in insertion order.
func (o *Object) Keys() []string {
	return append([]string(nil), o.keys...)
}

// Has reports whether the field exists.
func (o *Object) Has(key string) bool {
	_, ok := o.slots[key]
	return ok
}

// Len returns the number of fields.
func (o *Object) Len() int { return len(o.keys) }

// Set writes a field. Incoming composites are wrapped so their own
// mutations are tracked; when attached, a SET event is emitted with the
// full path of the written slot.
func (o *Object) Set(key string, v any) error {
	p := childPath(o.pathOf(o), key)
	v = o.adopt(v, p)
	o.put(key, v)
	return o.emit(Mutation{Op: OpSet, Path: p, Value: v})
}

// Delete removes a field. Deleting an absent field is a no-op and emits
// nothing.
func (o *Object) Delete(key string) error {
	if _, ok := o.slots[key]; !ok {
		return nil
	}
	o.remove(key)
	return o.emit(Mutation{Op: OpDelete, Path: childPath(o.pathOf(o), key)})
}

// put writes the slot without wrapping or emission. Replay and the decoder
// go through Set/Delete on detached or suppressed graphs instead.
func (o *Object) put(key string, v any) {
	if _, ok := o.slots[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.slots[key] = v
}

func (o *Object) remove(key string) {
	delete(o.slots, key)
	for i, k := range o.keys {
		if k == key {
			o.keys = append(o.keys[:i], o.keys[i+1:]...)
			break
		}
	}
}
