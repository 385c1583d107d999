package event

import (
	"errors"
	"fmt"

	"github.com/evermem/memimg/domain/codec"
	"github.com/evermem/memimg/domain/graph"
)

// ErrUnknownEventType is the fatal configuration error raised when the
// registry is asked for a tag it has no handler for.
var ErrUnknownEventType = errors.New("unknown event type")

// Handler knows how to build an event of one type from a live mutation and
// how to apply it to a graph during replay.
type Handler struct {
	Build func(b *builder, m graph.Mutation) (*Event, error)
	Apply func(a *applier, ev *Event) error
}

// registry holds exactly the eighteen handlers of the closed taxonomy. It
// is populated once at package load.
var registry = map[Type]Handler{
	TypeSet:             {Build: buildSet, Apply: applySet},
	TypeDelete:          {Build: buildDelete, Apply: applyDelete},
	TypeArrayPush:       {Build: buildArrayPush, Apply: applyArrayPush},
	TypeArrayPop:        {Build: buildBare, Apply: applyArrayPop},
	TypeArrayShift:      {Build: buildBare, Apply: applyArrayShift},
	TypeArrayUnshift:    {Build: buildArrayUnshift, Apply: applyArrayUnshift},
	TypeArraySplice:     {Build: buildArraySplice, Apply: applyArraySplice},
	TypeArraySort:       {Build: buildBare, Apply: applyArraySort},
	TypeArrayReverse:    {Build: buildBare, Apply: applyArrayReverse},
	TypeArrayFill:       {Build: buildArrayFill, Apply: applyArrayFill},
	TypeArrayCopyWithin: {Build: buildArrayCopyWithin, Apply: applyArrayCopyWithin},
	TypeMapSet:          {Build: buildMapSet, Apply: applyMapSet},
	TypeMapDelete:       {Build: buildMapDelete, Apply: applyMapDelete},
	TypeMapClear:        {Build: buildBare, Apply: applyMapClear},
	TypeSetAdd:          {Build: buildSetValue, Apply: applySetAdd},
	TypeSetDelete:       {Build: buildSetValue, Apply: applySetDelete},
	TypeSetClear:        {Build: buildBare, Apply: applySetClear},
	TypeScript:          {Build: buildScript, Apply: applyScript},
}

// KnownTypes returns every registered tag.
func KnownTypes() []Type {
	out := make([]Type, 0, len(registry))
	for t := range registry {
		out = append(out, t)
	}
	return out
}

// Build constructs the event for one live mutation, encoding its payload in
// event mode against the image's infrastructure.
func Build(m graph.Mutation, infra *graph.Infra, reg codec.ClassRegistry) (*Event, error) {
	h, ok := registry[Type(m.Op)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEventType, m.Op)
	}
	return h.Build(&builder{infra: infra, registry: reg}, m)
}

// Apply replays one event onto a root, creating missing intermediate
// parents on the way. Errors propagate to the caller; there is no
// partial-apply recovery.
func Apply(ev *Event, root graph.Node, reg codec.ClassRegistry) error {
	h, ok := registry[ev.Type]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownEventType, ev.Type)
	}
	return h.Apply(&applier{root: root, dec: &codec.Decoder{Registry: reg}}, ev)
}
