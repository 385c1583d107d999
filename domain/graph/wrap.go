package graph

import "strconv"

// Attach wraps a root and everything composite reachable from it: each node
// is bound to the infrastructure and emitter, and its canonical path is
// registered. A node is registered before its children are visited, so
// cyclic graphs terminate and re-encountering a node returns its existing
// registration.
func Attach(root Node, infra *Infra, emit Emitter) {
	if root == nil {
		return
	}
	walk(root, infra, &binding{infra: infra, emit: emit}, nil)
}

// IndexPaths registers the canonical path of every composite reachable from
// root into a fresh infrastructure. Nothing is bound: the graph keeps
// mutating the way it did before, only its paths become known. The
// transaction layer indexes its base graph this way.
func IndexPaths(root Node) *Infra {
	infra := NewInfra(nil)
	if root != nil {
		walk(root, infra, nil, nil)
	}
	return infra
}

// RegisterTree indexes a subtree that was written into an already-indexed
// graph, for example during a transaction save.
func RegisterTree(infra *Infra, v any, path []string) {
	if n, ok := v.(Node); ok {
		walk(n, infra, nil, path)
	}
}

// walk registers canonical paths and, when b is non-nil, binds each node on
// first sight.
func walk(n Node, infra *Infra, b *binding, path []string) {
	if n == nil {
		return
	}
	if !infra.Register(n, path) {
		// Already wrapped; the first path stays canonical.
		return
	}
	if b != nil {
		n.setBinding(b)
	}

	switch t := n.(type) {
	case *Object:
		for _, k := range t.keys {
			if child, ok := t.slots[k].(Node); ok {
				walk(child, infra, b, childPath(path, k))
			}
		}
	case *Array:
		for i, e := range t.elems {
			if child, ok := e.(Node); ok {
				walk(child, infra, b, childPath(path, strconv.Itoa(i)))
			}
		}
	case *Map:
		for _, e := range t.entries {
			if child, ok := e.val.(Node); ok {
				walk(child, infra, b, childPath(path, SegmentForKey(e.key)))
			}
		}
	case *Set:
		for i, e := range t.elems {
			if child, ok := e.(Node); ok {
				walk(child, infra, b, childPath(path, strconv.Itoa(i)))
			}
		}
	case *Date:
		for _, k := range t.propKeys {
			if child, ok := t.props[k].(Node); ok {
				walk(child, infra, b, childPath(path, k))
			}
		}
	case *Regexp, *Function:
		// Leaf composites.
	}
}
