// Package graph holds the tracked container kinds the engine wraps a root
// value into, the infrastructure that maps each container to its canonical
// path, and the recursive wrap step. Containers mutate through methods; an
// attached container reports every mutation to its emitter so the engine can
// append an event. Detached containers (snapshot loads, decoder output)
// mutate silently.
package graph

import "github.com/evermem/memimg/domain/value"

// Node is any tracked composite: object, array, map, set, date, regexp or
// function. All implementations live in this package.
type Node interface {
	value.Composite
	binding() *binding
	setBinding(b *binding)
}

// Emitter receives one Mutation per user-observable mutation on an attached
// graph. The engine's implementation builds an event and appends it to the
// log; it suppresses re-emission while a replay is applying events.
type Emitter interface {
	EmitMutation(m Mutation) error
}

// Metadata is an opaque record of callbacks and values used only by outer
// presentation layers. The engine passes it through untouched.
type Metadata map[string]any

// binding ties a node to the infrastructure and emitter of the image that
// wrapped it. A nil binding means the node is detached.
type binding struct {
	infra *Infra
	emit  Emitter
}

// node is the embedded base of every container kind.
type node struct {
	b *binding
}

func (n *node) binding() *binding     { return n.b }
func (n *node) setBinding(b *binding) { n.b = b }

// emit forwards a mutation to the emitter, if any. The append error of the
// underlying log surfaces to the caller of the mutating method; the graph
// mutation itself has already been applied at that point.
func (n *node) emit(m Mutation) error {
	if n.b == nil || n.b.emit == nil {
		return nil
	}
	return n.b.emit.EmitMutation(m)
}

// pathOf returns the canonical path of self, or nil when detached.
func (n *node) pathOf(self Node) []string {
	if n.b == nil {
		return nil
	}
	p, _ := n.b.infra.PathOf(self)
	return p
}

// adopt wraps an incoming child value before it is written into a slot of an
// attached parent, so nested composites are themselves tracked. Values that
// are not composites, and children of detached parents, pass through as-is.
func (n *node) adopt(v any, childPath []string) any {
	if n.b == nil {
		return v
	}
	if child, ok := v.(Node); ok {
		walk(child, n.b.infra, n.b, childPath)
	}
	return v
}

func childPath(parent []string, segment string) []string {
	out := make([]string, 0, len(parent)+1)
	out = append(out, parent...)
	return append(out, segment)
}
