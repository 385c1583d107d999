package codec

import (
	"fmt"

	"github.com/evermem/memimg/domain/graph"
	"github.com/evermem/memimg/domain/paths"
)

type resolver interface {
	resolve(p paths.Path) (any, error)
}

// snapshotResolver resolves every ref against the document root: a single
// scope with absolute paths.
type snapshotResolver struct {
	root any
}

func (r snapshotResolver) resolve(p paths.Path) (any, error) {
	return lookup(r.root, p)
}

// scopedResolver resolves like lexical variable lookup: the value being
// reconstructed is the local scope, the memory-image root the enclosing
// one.
type scopedResolver struct {
	local any
	outer graph.Node
}

func (r scopedResolver) resolve(p paths.Path) (any, error) {
	if v, err := lookup(r.local, p); err == nil {
		return v, nil
	}
	if r.outer != nil {
		if v, err := lookup(r.outer, p); err == nil {
			return v, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrPathResolution, p.Join())
}

func lookup(scope any, p paths.Path) (any, error) {
	if len(p) == 0 {
		return scope, nil
	}
	root, ok := scope.(graph.Node)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrPathResolution, p.Join())
	}
	v, found := paths.Get(root, p)
	if !found {
		return nil, fmt.Errorf("%w: %q", ErrPathResolution, p.Join())
	}
	return v, nil
}

// resolveRefs is the resolution pass: it walks the partially built graph
// and patches every placeholder slot in place, so identity is preserved at
// the patch points.
func resolveRefs(built any, r resolver) (any, error) {
	if ph, isRef := built.(*refPlaceholder); isRef {
		return chase(ph, r)
	}
	if n, isNode := built.(graph.Node); isNode {
		if err := patchNode(n, r, make(map[graph.Node]bool)); err != nil {
			return nil, err
		}
	}
	return built, nil
}

// chase resolves a placeholder, following ref-to-ref chains.
func chase(ph *refPlaceholder, r resolver) (any, error) {
	v, err := r.resolve(ph.path)
	for depth := 0; err == nil; depth++ {
		next, isRef := v.(*refPlaceholder)
		if !isRef {
			return v, nil
		}
		if depth > 64 {
			return nil, fmt.Errorf("%w: ref chain at %q does not terminate", ErrPathResolution, ph.path.Join())
		}
		v, err = r.resolve(next.path)
	}
	return nil, err
}

func patchNode(n graph.Node, r resolver, seen map[graph.Node]bool) error {
	if seen[n] {
		return nil
	}
	seen[n] = true

	patch := func(slot any, set func(any)) error {
		if ph, isRef := slot.(*refPlaceholder); isRef {
			target, err := chase(ph, r)
			if err != nil {
				return err
			}
			set(target)
			slot = target
		}
		if child, isNode := slot.(graph.Node); isNode {
			return patchNode(child, r, seen)
		}
		return nil
	}

	switch t := n.(type) {
	case *graph.Object:
		for _, k := range t.Keys() {
			v, _ := t.Get(k)
			key := k
			if err := patch(v, func(nv any) { t.PatchSlot(key, nv) }); err != nil {
				return err
			}
		}
	case *graph.Array:
		for i, v := range t.Elems() {
			idx := i
			if err := patch(v, func(nv any) { t.PatchAt(idx, nv) }); err != nil {
				return err
			}
		}
	case *graph.Map:
		for i := 0; i < t.Len(); i++ {
			k, v, _ := t.EntryAt(i)
			idx := i
			if err := patch(k, func(nv any) { t.PatchKeyAt(idx, nv) }); err != nil {
				return err
			}
			if err := patch(v, func(nv any) { t.PatchValueAt(idx, nv) }); err != nil {
				return err
			}
		}
	case *graph.Set:
		for i, v := range t.Values() {
			idx := i
			if err := patch(v, func(nv any) { t.PatchAt(idx, nv) }); err != nil {
				return err
			}
		}
	case *graph.Date:
		for _, k := range t.PropKeys() {
			v, _ := t.GetProp(k)
			key := k
			if err := patch(v, func(nv any) { t.PatchProp(key, nv) }); err != nil {
				return err
			}
		}
	}
	return nil
}
