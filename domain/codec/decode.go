package codec

import (
	"fmt"
	"math"
	"time"

	"github.com/evermem/memimg/domain/graph"
	"github.com/evermem/memimg/domain/paths"
	"github.com/evermem/memimg/domain/value"
)

// refPlaceholder stands in for a ref node between the structural pass and
// the resolution pass.
type refPlaceholder struct {
	path paths.Path
}

// Decoder reconstructs value graphs from encoded documents in two passes:
// a structural pass that builds concrete containers and leaves each ref as
// an unresolved placeholder, and a resolution pass that patches every
// placeholder slot in place so object identity is restored at the patch
// points.
type Decoder struct {
	Registry ClassRegistry
}

// DecodeSnapshotJSON decodes a snapshot document from JSON text.
func (d *Decoder) DecodeSnapshotJSON(data []byte) (any, error) {
	doc, err := UnmarshalDocument(data)
	if err != nil {
		return nil, err
	}
	return d.DecodeSnapshot(doc)
}

// DecodeSnapshot decodes a full snapshot. Ref paths are absolute from the
// document root; a missing segment fails with ErrPathResolution.
func (d *Decoder) DecodeSnapshot(doc any) (any, error) {
	built, err := d.build(doc)
	if err != nil {
		return nil, err
	}
	return resolveRefs(built, snapshotResolver{root: built})
}

// DecodeEventValue decodes one event payload. Payloads are closure-like:
// internal refs resolve inside the value being reconstructed (the local
// scope); refs that miss there resolve against the memory-image root (the
// enclosing scope); only when both fail is it an error.
func (d *Decoder) DecodeEventValue(doc any, outer graph.Node) (any, error) {
	built, err := d.build(doc)
	if err != nil {
		return nil, err
	}
	return resolveRefs(built, scopedResolver{local: built, outer: outer})
}

// build is the structural pass.
func (d *Decoder) build(doc any) (any, error) {
	switch t := doc.(type) {
	case nil:
		return nil, nil
	case bool, string, float64, float32, int, int64:
		return t, nil
	case []any:
		elems := make([]any, len(t))
		for i, item := range t {
			built, err := d.build(item)
			if err != nil {
				return nil, err
			}
			elems[i] = built
		}
		return graph.NewArray(elems...), nil
	case *Fields:
		return d.buildTagged(t)
	default:
		return nil, fmt.Errorf("%w: unexpected node %T", ErrSnapshotFormat, doc)
	}
}

func (d *Decoder) buildTagged(f *Fields) (any, error) {
	switch tag := f.TypeTag(); tag {
	case "":
		return d.buildObject(f)
	case "ref":
		raw, ok := f.Get(keyPath)
		segs, isList := raw.([]any)
		if !ok || !isList {
			return nil, fmt.Errorf("%w: ref node without path", ErrSnapshotFormat)
		}
		p := make(paths.Path, len(segs))
		for i, s := range segs {
			text, isText := s.(string)
			if !isText {
				return nil, fmt.Errorf("%w: ref path segment %v is not a string", ErrSnapshotFormat, s)
			}
			p[i] = text
		}
		return &refPlaceholder{path: p}, nil
	case "undefined":
		return value.Undef, nil
	case "number":
		switch text, _ := f.Get("value"); text {
		case "NaN":
			return math.NaN(), nil
		case "Infinity":
			return math.Inf(1), nil
		case "-Infinity":
			return math.Inf(-1), nil
		default:
			return nil, fmt.Errorf("%w: unknown number literal %v", ErrSnapshotFormat, text)
		}
	case "bigint":
		text, ok := f.Get("value")
		decimal, isText := text.(string)
		if !ok || !isText {
			return nil, fmt.Errorf("%w: bigint node without value", ErrSnapshotFormat)
		}
		n, valid := value.NewBigInt(decimal)
		if !valid {
			return nil, fmt.Errorf("%w: bigint value %q is not a decimal integer", ErrSnapshotFormat, decimal)
		}
		return n, nil
	case "symbol":
		desc, _ := f.Get("description")
		if text, isText := desc.(string); isText {
			return value.NewSymbol(text), nil
		}
		return value.NewAnonymousSymbol(), nil
	case "date":
		return d.buildDate(f)
	case "regexp":
		source, sok := f.Get("source")
		flags, fok := f.Get("flags")
		srcText, sIsText := source.(string)
		flagText, fIsText := flags.(string)
		if !sok || !fok || !sIsText || !fIsText {
			return nil, fmt.Errorf("%w: regexp node without source/flags", ErrSnapshotFormat)
		}
		re := graph.NewRegexp(srcText, flagText)
		if li, ok := f.Get("lastIndex"); ok {
			if n, isNum := li.(float64); isNum {
				_ = re.SetLastIndex(int(n))
			}
		}
		return re, nil
	case "function":
		src, ok := f.Get("sourceCode")
		text, isText := src.(string)
		if !ok || !isText {
			return nil, fmt.Errorf("%w: function node without sourceCode", ErrSnapshotFormat)
		}
		return graph.NewFunction(text), nil
	case "map":
		raw, _ := f.Get("entries")
		entries, isList := raw.([]any)
		if !isList {
			return nil, fmt.Errorf("%w: map node without entries", ErrSnapshotFormat)
		}
		m := graph.NewMap()
		for _, e := range entries {
			pair, isPair := e.([]any)
			if !isPair || len(pair) != 2 {
				return nil, fmt.Errorf("%w: map entry is not a pair", ErrSnapshotFormat)
			}
			k, err := d.build(pair[0])
			if err != nil {
				return nil, err
			}
			v, err := d.build(pair[1])
			if err != nil {
				return nil, err
			}
			_ = m.Set(k, v)
		}
		return m, nil
	case "set":
		raw, _ := f.Get("values")
		vals, isList := raw.([]any)
		if !isList {
			return nil, fmt.Errorf("%w: set node without values", ErrSnapshotFormat)
		}
		s := graph.NewSet()
		for _, item := range vals {
			v, err := d.build(item)
			if err != nil {
				return nil, err
			}
			_ = s.Add(v)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("%w: unknown type tag %q", ErrSnapshotFormat, tag)
	}
}

func (d *Decoder) buildObject(f *Fields) (any, error) {
	obj := graph.NewObject()
	className := ""
	for _, k := range f.Keys() {
		raw, _ := f.Get(k)
		if k == keyClass && d.Registry != nil {
			if text, isText := raw.(string); isText {
				className = text
				continue
			}
		}
		built, err := d.build(raw)
		if err != nil {
			return nil, err
		}
		_ = obj.Set(k, built)
	}
	if className != "" {
		restored, err := d.Registry.Rehydrate(className, obj)
		if err != nil {
			return nil, fmt.Errorf("rehydrate %q: %w", className, err)
		}
		return restored, nil
	}
	return obj, nil
}

func (d *Decoder) buildDate(f *Fields) (any, error) {
	raw, ok := f.Get(keyDateValue)
	if !ok {
		return nil, fmt.Errorf("%w: date node without %s", ErrSnapshotFormat, keyDateValue)
	}
	var date *graph.Date
	switch t := raw.(type) {
	case nil:
		date = graph.NewInvalidDate()
	case string:
		instant, err := time.Parse(isoMillis, t)
		if err != nil {
			instant, err = time.Parse(time.RFC3339Nano, t)
			if err != nil {
				return nil, fmt.Errorf("%w: date value %q: %v", ErrSnapshotFormat, t, err)
			}
		}
		date = graph.NewDate(instant)
	default:
		return nil, fmt.Errorf("%w: date value %v is neither text nor null", ErrSnapshotFormat, raw)
	}
	for _, k := range f.Keys() {
		if k == keyType || k == keyDateValue {
			continue
		}
		raw, _ := f.Get(k)
		built, err := d.build(raw)
		if err != nil {
			return nil, err
		}
		_ = date.SetProp(k, built)
	}
	return date, nil
}
