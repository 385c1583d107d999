package codec

import (
	"errors"
	"math"
	"math/big"
	"strconv"

	"github.com/evermem/memimg/domain/graph"
	"github.com/evermem/memimg/domain/paths"
	"github.com/evermem/memimg/domain/value"
)

// isoMillis is the instant form dates take on the wire.
const isoMillis = "2006-01-02T15:04:05.000Z"

// errOmitSlot marks a container slot that has no serialisable form; the
// container drops it and the rest of the document is still produced.
var errOmitSlot = errors.New("omit slot")

// Encoder turns a value graph into a self-describing document. The tracker
// decides when a node is emitted as a ref instead of inline.
type Encoder struct {
	Tracker  Tracker
	Registry ClassRegistry
}

// NewSnapshotEncoder encodes a full graph with absolute ref paths.
func NewSnapshotEncoder(registry ClassRegistry) *Encoder {
	return &Encoder{Tracker: NewSnapshotTracker(), Registry: registry}
}

// NewEventValueEncoder encodes one event payload assigned at base within
// the image whose infrastructure is given.
func NewEventValueEncoder(infra *graph.Infra, base paths.Path, registry ClassRegistry) *Encoder {
	return &Encoder{Tracker: NewEventValueTracker(infra, base), Registry: registry}
}

// Encode produces the document for v. A top-level value with no
// serialisable form fails with ErrUnserializable; unserialisable container
// slots are omitted instead (array slots read back as null).
func (e *Encoder) Encode(v any) (any, error) {
	doc, err := e.encode(v, nil)
	if errors.Is(err, errOmitSlot) {
		return nil, ErrUnserializable
	}
	return doc, err
}

func (e *Encoder) encode(v any, at paths.Path) (any, error) {
	c := value.Classify(v)
	switch c.Kind {
	case value.KindNull:
		return nil, nil
	case value.KindUndefined:
		tagged := NewFields()
		tagged.Set(keyType, "undefined")
		return tagged, nil
	case value.KindPrimitive:
		return encodePrimitive(v), nil
	case value.KindBigInt:
		tagged := NewFields()
		tagged.Set(keyType, "bigint")
		tagged.Set("value", v.(*big.Int).String())
		return tagged, nil
	case value.KindSymbol:
		sym := v.(*value.Symbol)
		tagged := NewFields()
		tagged.Set(keyType, "symbol")
		if sym.HasDescription {
			tagged.Set("description", sym.Description)
		} else {
			tagged.Set("description", nil)
		}
		return tagged, nil
	}

	n, ok := v.(graph.Node)
	if !ok {
		return nil, ErrUnserializable
	}
	if refPath, isRef := e.Tracker.RefFor(n, at); isRef {
		return refNode(refPath), nil
	}
	e.Tracker.Remember(n, at)

	switch t := n.(type) {
	case *graph.Object:
		return e.encodeObject(t, at)
	case *graph.Array:
		out := make([]any, 0, t.Len())
		for i, el := range t.Elems() {
			doc, err := e.encode(el, at.Child(strconv.Itoa(i)))
			if errors.Is(err, errOmitSlot) {
				doc = nil
			} else if err != nil {
				return nil, err
			}
			out = append(out, doc)
		}
		return out, nil
	case *graph.Map:
		tagged := NewFields()
		tagged.Set(keyType, "map")
		entries := make([]any, 0, t.Len())
		var walkErr error
		t.Entries(func(k, val any) bool {
			kdoc, err := e.encode(k, at)
			if errors.Is(err, errOmitSlot) {
				return true
			} else if err != nil {
				walkErr = err
				return false
			}
			vdoc, err := e.encode(val, at.Child(graph.SegmentForKey(k)))
			if errors.Is(err, errOmitSlot) {
				return true
			} else if err != nil {
				walkErr = err
				return false
			}
			entries = append(entries, []any{kdoc, vdoc})
			return true
		})
		if walkErr != nil {
			return nil, walkErr
		}
		tagged.Set("entries", entries)
		return tagged, nil
	case *graph.Set:
		tagged := NewFields()
		tagged.Set(keyType, "set")
		vals := make([]any, 0, t.Len())
		for i, el := range t.Values() {
			doc, err := e.encode(el, at.Child(strconv.Itoa(i)))
			if errors.Is(err, errOmitSlot) {
				continue
			} else if err != nil {
				return nil, err
			}
			vals = append(vals, doc)
		}
		tagged.Set("values", vals)
		return tagged, nil
	case *graph.Date:
		tagged := NewFields()
		tagged.Set(keyType, "date")
		if t.Valid() {
			tagged.Set(keyDateValue, t.Time().UTC().Format(isoMillis))
		} else {
			tagged.Set(keyDateValue, nil)
		}
		for _, k := range t.PropKeys() {
			pv, _ := t.GetProp(k)
			doc, err := e.encode(pv, at.Child(k))
			if errors.Is(err, errOmitSlot) {
				continue
			} else if err != nil {
				return nil, err
			}
			tagged.Set(k, doc)
		}
		return tagged, nil
	case *graph.Regexp:
		tagged := NewFields()
		tagged.Set(keyType, "regexp")
		tagged.Set("source", t.Source())
		tagged.Set("flags", t.Flags())
		tagged.Set("lastIndex", t.LastIndex())
		return tagged, nil
	case *graph.Function:
		if t.SourceCode() == "" {
			return nil, errOmitSlot
		}
		tagged := NewFields()
		tagged.Set(keyType, "function")
		tagged.Set("sourceCode", t.SourceCode())
		return tagged, nil
	default:
		return nil, ErrUnserializable
	}
}

func (e *Encoder) encodeObject(o *graph.Object, at paths.Path) (any, error) {
	out := NewFields()
	if e.Registry != nil {
		if name, ok := e.Registry.NameFor(o); ok {
			out.Set(keyClass, name)
		}
	}
	for _, k := range o.Keys() {
		fv, _ := o.Get(k)
		doc, err := e.encode(fv, at.Child(k))
		if errors.Is(err, errOmitSlot) {
			continue
		} else if err != nil {
			return nil, err
		}
		out.Set(k, doc)
	}
	return out, nil
}

// encodePrimitive passes strings, booleans and finite numbers through and
// tags the numbers JSON cannot carry.
func encodePrimitive(v any) any {
	f, isNum := numericValue(v)
	if !isNum {
		return v
	}
	if math.IsNaN(f) {
		return taggedNumber("NaN")
	}
	if math.IsInf(f, 1) {
		return taggedNumber("Infinity")
	}
	if math.IsInf(f, -1) {
		return taggedNumber("-Infinity")
	}
	return v
}

func taggedNumber(text string) *Fields {
	tagged := NewFields()
	tagged.Set(keyType, "number")
	tagged.Set("value", text)
	return tagged
}

func numericValue(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	default:
		return 0, false
	}
}

func refNode(p paths.Path) *Fields {
	tagged := NewFields()
	tagged.Set(keyType, "ref")
	segs := make([]any, len(p))
	for i, s := range p {
		segs[i] = s
	}
	tagged.Set(keyPath, segs)
	return tagged
}
