package graph

// Infra is the identity infrastructure of one memory image: the mapping from
// each tracked node to the canonical path it was first seen at. Node
// identity is pointer identity, so the facade/target distinction of a
// proxy-based runtime collapses here: the node is its own facade. The map is
// owned by exactly one image and released with it; entries live for the
// image's lifetime.
type Infra struct {
	paths map[Node][]string
	meta  Metadata
}

// NewInfra creates an empty infrastructure. The metadata record is an
// opaque pass-through for outer layers.
func NewInfra(meta Metadata) *Infra {
	return &Infra{
		paths: make(map[Node][]string),
		meta:  meta,
	}
}

// Register records the canonical path of a node. The first path a node is
// seen at wins; a second registration is ignored and Register returns
// false. A node that is later reachable from another path keeps its first
// path, and the serialiser emits a ref to it.
func (in *Infra) Register(n Node, path []string) bool {
	if _, seen := in.paths[n]; seen {
		return false
	}
	p := make([]string, len(path))
	copy(p, path)
	in.paths[n] = p
	return true
}

// PathOf returns the canonical path of a node.
func (in *Infra) PathOf(n Node) ([]string, bool) {
	p, ok := in.paths[n]
	return p, ok
}

// Known reports whether the node belongs to this infrastructure.
func (in *Infra) Known(n Node) bool {
	_, ok := in.paths[n]
	return ok
}

// Len returns the number of tracked nodes.
func (in *Infra) Len() int { return len(in.paths) }

// Metadata returns the opaque metadata record.
func (in *Infra) Metadata() Metadata { return in.meta }
