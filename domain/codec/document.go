// Package codec encodes value graphs to self-describing documents and
// decodes them back. Type-tagged nodes use the reserved keys __type__,
// __class__, __dateValue__ and path; ref nodes preserve shared and cyclic
// identity by naming the first path a value was seen at.
package codec

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

// Reserved document keys.
const (
	keyType      = "__type__"
	keyClass     = "__class__"
	keyDateValue = "__dateValue__"
	keyPath      = "path"
)

// Fields is a JSON object that keeps its key order, so an encoded record
// writes and reads back in insertion order. encoding/json alone would
// re-order keys alphabetically on write and drop order entirely on read.
type Fields struct {
	keys []string
	m    map[string]any
}

// NewFields creates an empty ordered object.
func NewFields() *Fields {
	return &Fields{m: make(map[string]any)}
}

// Set writes a field, appending new keys in order.
func (f *Fields) Set(key string, v any) {
	if _, ok := f.m[key]; !ok {
		f.keys = append(f.keys, key)
	}
	f.m[key] = v
}

// Get reads a field.
func (f *Fields) Get(key string) (any, bool) {
	v, ok := f.m[key]
	return v, ok
}

// Has reports field presence.
func (f *Fields) Has(key string) bool {
	_, ok := f.m[key]
	return ok
}

// Delete removes a field.
func (f *Fields) Delete(key string) {
	if _, ok := f.m[key]; !ok {
		return
	}
	delete(f.m, key)
	for i, k := range f.keys {
		if k == key {
			f.keys = append(f.keys[:i], f.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the field names in insertion order.
func (f *Fields) Keys() []string {
	return append([]string(nil), f.keys...)
}

// Len returns the number of fields.
func (f *Fields) Len() int { return len(f.keys) }

// TypeTag returns the __type__ tag of a tagged node, or "" for a plain
// record.
func (f *Fields) TypeTag() string {
	if tag, ok := f.m[keyType].(string); ok {
		return tag
	}
	return ""
}

// MarshalJSON writes the fields in insertion order.
func (f *Fields) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range f.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(f.m[k])
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalDocument renders an encoded document as JSON text.
func MarshalDocument(doc any) ([]byte, error) {
	return json.Marshal(doc)
}

// UnmarshalDocument parses JSON text into the document shape the decoder
// consumes: objects become *Fields with their original key order, arrays
// []any, numbers float64.
func UnmarshalDocument(data []byte) (any, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: malformed JSON", ErrSnapshotFormat)
	}
	return fromResult(gjson.ParseBytes(data)), nil
}

func fromResult(r gjson.Result) any {
	switch {
	case r.Type == gjson.Null:
		return nil
	case r.Type == gjson.False:
		return false
	case r.Type == gjson.True:
		return true
	case r.Type == gjson.Number:
		return r.Float()
	case r.Type == gjson.String:
		return r.String()
	case r.IsArray():
		out := make([]any, 0)
		r.ForEach(func(_, item gjson.Result) bool {
			out = append(out, fromResult(item))
			return true
		})
		return out
	case r.IsObject():
		out := NewFields()
		r.ForEach(func(key, item gjson.Result) bool {
			out.Set(key.String(), fromResult(item))
			return true
		})
		return out
	default:
		return nil
	}
}
