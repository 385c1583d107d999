package codec

import (
	"github.com/evermem/memimg/domain/graph"
	"github.com/evermem/memimg/domain/paths"
)

// Tracker decides how cycles and shared references are detected while
// encoding. The encoding itself is shared between strategies.
type Tracker interface {
	// RefFor returns the path to emit a ref node for, when the value must
	// not be encoded inline a second time.
	RefFor(n graph.Node, at paths.Path) (paths.Path, bool)
	// Remember records that n is being encoded inline at the given path
	// within the current call.
	Remember(n graph.Node, at paths.Path)
}

// SnapshotTracker tracks a full-graph encoding: the second sighting of any
// node emits a ref to the first path, absolute from the document root.
type SnapshotTracker struct {
	seen map[graph.Node]paths.Path
}

// NewSnapshotTracker creates a tracker for one snapshot encoding.
func NewSnapshotTracker() *SnapshotTracker {
	return &SnapshotTracker{seen: make(map[graph.Node]paths.Path)}
}

// RefFor implements Tracker.
func (t *SnapshotTracker) RefFor(n graph.Node, _ paths.Path) (paths.Path, bool) {
	p, ok := t.seen[n]
	return p, ok
}

// Remember implements Tracker.
func (t *SnapshotTracker) Remember(n graph.Node, at paths.Path) {
	t.seen[n] = append(paths.Path(nil), at...)
}

// EventValueTracker tracks the encoding of one event payload, which may
// legitimately reference values living elsewhere in the memory image. In
// order:
//
//  1. a node whose canonical path lies outside the subtree being assigned
//     is emitted as an absolute ref into the image;
//  2. a node already seen within this encoding call is emitted as a ref
//     relative to the assignment path, so the resolver finds it inside the
//     reconstructed value;
//  3. anything else is recorded locally and encoded inline.
type EventValueTracker struct {
	infra *graph.Infra
	base  paths.Path
	local map[graph.Node]paths.Path
}

// NewEventValueTracker creates a tracker for one event payload being
// assigned at base.
func NewEventValueTracker(infra *graph.Infra, base paths.Path) *EventValueTracker {
	return &EventValueTracker{
		infra: infra,
		base:  append(paths.Path(nil), base...),
		local: make(map[graph.Node]paths.Path),
	}
}

// RefFor implements Tracker.
func (t *EventValueTracker) RefFor(n graph.Node, _ paths.Path) (paths.Path, bool) {
	if t.infra != nil {
		if global, ok := t.infra.PathOf(n); ok && !paths.HasPrefix(global, t.base) {
			return global, true
		}
	}
	if local, ok := t.local[n]; ok {
		return local, true
	}
	return nil, false
}

// Remember implements Tracker.
func (t *EventValueTracker) Remember(n graph.Node, at paths.Path) {
	t.local[n] = append(paths.Path(nil), at...)
}
