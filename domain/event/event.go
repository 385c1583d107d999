// Package event defines the closed mutation taxonomy, the event wire form,
// and the registry of per-type handlers that build an event from a live
// mutation and apply it again during replay.
package event

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/evermem/memimg/domain/codec"
)

// Type tags the closed event taxonomy.
type Type string

const (
	TypeSet             Type = "SET"
	TypeDelete          Type = "DELETE"
	TypeArrayPush       Type = "ARRAY_PUSH"
	TypeArrayPop        Type = "ARRAY_POP"
	TypeArrayShift      Type = "ARRAY_SHIFT"
	TypeArrayUnshift    Type = "ARRAY_UNSHIFT"
	TypeArraySplice     Type = "ARRAY_SPLICE"
	TypeArraySort       Type = "ARRAY_SORT"
	TypeArrayReverse    Type = "ARRAY_REVERSE"
	TypeArrayFill       Type = "ARRAY_FILL"
	TypeArrayCopyWithin Type = "ARRAY_COPYWITHIN"
	TypeMapSet          Type = "MAP_SET"
	TypeMapDelete       Type = "MAP_DELETE"
	TypeMapClear        Type = "MAP_CLEAR"
	TypeSetAdd          Type = "SET_ADD"
	TypeSetDelete       Type = "SET_DELETE"
	TypeSetClear        Type = "SET_CLEAR"
	TypeScript          Type = "SCRIPT"
)

// Event is one immutable entry in the mutation log. Path names the written
// slot for SET/DELETE and the collection itself for collection ops. Payload
// fields hold event-mode encoded values.
type Event struct {
	Type      Type     `json:"type"`
	Path      []string `json:"path"`
	Timestamp int64    `json:"timestamp"`

	Value       any    `json:"value,omitempty"`
	Items       []any  `json:"items,omitempty"`
	Key         any    `json:"key,omitempty"`
	Start       *int   `json:"start,omitempty"`
	DeleteCount *int   `json:"deleteCount,omitempty"`
	End         *int   `json:"end,omitempty"`
	Target      *int   `json:"target,omitempty"`
	Source      string `json:"source,omitempty"`
}

// MarshalJSON writes the event with its payload documents in insertion
// order, one JSON object per event.
func (e *Event) MarshalJSON() ([]byte, error) {
	f := codec.NewFields()
	f.Set("type", string(e.Type))
	path := e.Path
	if path == nil {
		path = []string{}
	}
	f.Set("path", path)
	f.Set("timestamp", e.Timestamp)
	if e.Value != nil {
		f.Set("value", e.Value)
	}
	if e.Items != nil {
		f.Set("items", e.Items)
	}
	if e.Key != nil {
		f.Set("key", e.Key)
	}
	if e.Start != nil {
		f.Set("start", *e.Start)
	}
	if e.DeleteCount != nil {
		f.Set("deleteCount", *e.DeleteCount)
	}
	if e.End != nil {
		f.Set("end", *e.End)
	}
	if e.Target != nil {
		f.Set("target", *e.Target)
	}
	if e.Source != "" {
		f.Set("source", e.Source)
	}
	return f.MarshalJSON()
}

// UnmarshalJSON parses one event line, keeping payload documents ordered.
func (e *Event) UnmarshalJSON(data []byte) error {
	doc, err := codec.UnmarshalDocument(data)
	if err != nil {
		return fmt.Errorf("parse event: %w", err)
	}
	f, ok := doc.(*codec.Fields)
	if !ok {
		return fmt.Errorf("parse event: not a JSON object")
	}
	parsed, err := FromDocument(f)
	if err != nil {
		return err
	}
	*e = *parsed
	return nil
}

// FromDocument builds an event from an already parsed document.
func FromDocument(f *codec.Fields) (*Event, error) {
	rawType, _ := f.Get("type")
	typeText, ok := rawType.(string)
	if !ok || typeText == "" {
		return nil, fmt.Errorf("event without a type tag")
	}
	e := &Event{Type: Type(typeText)}

	if raw, ok := f.Get("path"); ok {
		segs, isList := raw.([]any)
		if !isList {
			return nil, fmt.Errorf("event path is not a list")
		}
		e.Path = make([]string, len(segs))
		for i, s := range segs {
			text, isText := s.(string)
			if !isText {
				return nil, fmt.Errorf("event path segment %v is not a string", s)
			}
			e.Path[i] = text
		}
	}
	if raw, ok := f.Get("timestamp"); ok {
		if n, isNum := raw.(float64); isNum {
			e.Timestamp = int64(n)
		}
	}
	e.Value, _ = f.Get("value")
	if raw, ok := f.Get("items"); ok {
		if items, isList := raw.([]any); isList {
			e.Items = items
		}
	}
	e.Key, _ = f.Get("key")
	e.Start = intField(f, "start")
	e.DeleteCount = intField(f, "deleteCount")
	e.End = intField(f, "end")
	e.Target = intField(f, "target")
	if raw, ok := f.Get("source"); ok {
		if text, isText := raw.(string); isText {
			e.Source = text
		}
	}
	return e, nil
}

func intField(f *codec.Fields, key string) *int {
	raw, ok := f.Get(key)
	if !ok {
		return nil
	}
	n, isNum := raw.(float64)
	if !isNum {
		return nil
	}
	i := int(n)
	return &i
}

var lastStamp atomic.Int64

// nowMillis returns milliseconds since epoch, never going backwards within
// the process.
func nowMillis() int64 {
	now := time.Now().UnixMilli()
	for {
		prev := lastStamp.Load()
		if now < prev {
			now = prev
		}
		if lastStamp.CompareAndSwap(prev, now) {
			return now
		}
	}
}
