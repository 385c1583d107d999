package event

import (
	"errors"
	"strconv"

	"github.com/evermem/memimg/domain/codec"
	"github.com/evermem/memimg/domain/graph"
	"github.com/evermem/memimg/domain/paths"
)

// builder carries the per-image context event construction needs.
type builder struct {
	infra    *graph.Infra
	registry codec.ClassRegistry
}

// encodeAt encodes one payload value in event mode, with base as the path
// the value is being assigned at. An unserialisable payload leaves the
// slot absent; the event is still produced.
func (b *builder) encodeAt(v any, base paths.Path) (any, error) {
	enc := codec.NewEventValueEncoder(b.infra, base, b.registry)
	doc, err := enc.Encode(v)
	if errors.Is(err, codec.ErrUnserializable) {
		return nil, nil
	}
	return doc, err
}

func (b *builder) stamp(t Type, path []string) *Event {
	return &Event{Type: t, Path: append([]string(nil), path...), Timestamp: nowMillis()}
}

func buildSet(b *builder, m graph.Mutation) (*Event, error) {
	ev := b.stamp(TypeSet, m.Path)
	doc, err := b.encodeAt(m.Value, m.Path)
	if err != nil {
		return nil, err
	}
	ev.Value = doc
	return ev, nil
}

func buildDelete(b *builder, m graph.Mutation) (*Event, error) {
	return b.stamp(TypeDelete, m.Path), nil
}

// buildBare covers the ops that carry no payload beyond path and
// timestamp.
func buildBare(b *builder, m graph.Mutation) (*Event, error) {
	return b.stamp(Type(m.Op), m.Path), nil
}

func buildArrayPush(b *builder, m graph.Mutation) (*Event, error) {
	ev := b.stamp(TypeArrayPush, m.Path)
	items, err := b.encodeItems(m.Items, m.Path, m.ItemsAt)
	if err != nil {
		return nil, err
	}
	ev.Items = items
	return ev, nil
}

func buildArrayUnshift(b *builder, m graph.Mutation) (*Event, error) {
	ev := b.stamp(TypeArrayUnshift, m.Path)
	items, err := b.encodeItems(m.Items, m.Path, m.ItemsAt)
	if err != nil {
		return nil, err
	}
	ev.Items = items
	return ev, nil
}

func buildArraySplice(b *builder, m graph.Mutation) (*Event, error) {
	ev := b.stamp(TypeArraySplice, m.Path)
	// The collection resolved the landing index when it spliced; the raw
	// start still goes on the wire for replay.
	items, err := b.encodeItems(m.Items, m.Path, m.ItemsAt)
	if err != nil {
		return nil, err
	}
	ev.Items = items
	ev.Start = m.Start
	ev.DeleteCount = m.DeleteCount
	return ev, nil
}

func buildArrayFill(b *builder, m graph.Mutation) (*Event, error) {
	ev := b.stamp(TypeArrayFill, m.Path)
	doc, err := b.encodeAt(m.Value, m.Path)
	if err != nil {
		return nil, err
	}
	ev.Value = doc
	ev.Start = m.Start
	ev.End = m.End
	return ev, nil
}

func buildArrayCopyWithin(b *builder, m graph.Mutation) (*Event, error) {
	ev := b.stamp(TypeArrayCopyWithin, m.Path)
	ev.Target = m.Target
	ev.Start = m.Start
	ev.End = m.End
	return ev, nil
}

func buildMapSet(b *builder, m graph.Mutation) (*Event, error) {
	ev := b.stamp(TypeMapSet, m.Path)
	key, err := b.encodeAt(m.Key, m.Path)
	if err != nil {
		return nil, err
	}
	val, err := b.encodeAt(m.Value, paths.Path(m.Path).Child(graph.SegmentForKey(m.Key)))
	if err != nil {
		return nil, err
	}
	ev.Key = key
	ev.Value = val
	return ev, nil
}

func buildMapDelete(b *builder, m graph.Mutation) (*Event, error) {
	ev := b.stamp(TypeMapDelete, m.Path)
	key, err := b.encodeAt(m.Key, m.Path)
	if err != nil {
		return nil, err
	}
	ev.Key = key
	return ev, nil
}

// buildSetValue covers SET_ADD and SET_DELETE, whose payload is one value.
func buildSetValue(b *builder, m graph.Mutation) (*Event, error) {
	ev := b.stamp(Type(m.Op), m.Path)
	doc, err := b.encodeAt(m.Value, m.Path)
	if err != nil {
		return nil, err
	}
	ev.Value = doc
	return ev, nil
}

func buildScript(b *builder, m graph.Mutation) (*Event, error) {
	ev := b.stamp(TypeScript, m.Path)
	ev.Source = m.Source
	return ev, nil
}

// encodeItems encodes appended or inserted items, each against the position
// it lands at.
func (b *builder) encodeItems(items []any, collection []string, from int) ([]any, error) {
	if items == nil {
		return nil, nil
	}
	out := make([]any, len(items))
	for i, it := range items {
		doc, err := b.encodeAt(it, paths.Path(collection).Child(strconv.Itoa(from+i)))
		if err != nil {
			return nil, err
		}
		out[i] = doc
	}
	return out, nil
}
