package graph

import (
	"math/big"
	"time"

	"github.com/evermem/memimg/domain/value"
)

// Export converts a tracked value into plain Go data for the script
// runtime: objects and maps become map[string]any (map keys stringified the
// way path segments are), arrays and sets become []any, dates become
// time.Time, bigints their decimal text, symbols their description.
// Mutating the exported copy never touches the graph. Shared and cyclic
// references are preserved in the copy.
func Export(v any) any {
	return exportValue(v, make(map[Node]any))
}

func exportValue(v any, seen map[Node]any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case value.Undefined:
		return nil
	case string, bool, float64, float32, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return t
	case *big.Int:
		return t.String()
	case *value.Symbol:
		if t.HasDescription {
			return t.Description
		}
		return nil
	case *Object:
		if out, ok := seen[t]; ok {
			return out
		}
		out := make(map[string]any, len(t.keys))
		seen[t] = out
		for _, k := range t.keys {
			out[k] = exportValue(t.slots[k], seen)
		}
		return out
	case *Array:
		if out, ok := seen[t]; ok {
			return out
		}
		out := make([]any, len(t.elems))
		seen[t] = out
		for i, e := range t.elems {
			out[i] = exportValue(e, seen)
		}
		return out
	case *Map:
		if out, ok := seen[t]; ok {
			return out
		}
		out := make(map[string]any, len(t.entries))
		seen[t] = out
		for _, e := range t.entries {
			out[SegmentForKey(e.key)] = exportValue(e.val, seen)
		}
		return out
	case *Set:
		if out, ok := seen[t]; ok {
			return out
		}
		out := make([]any, len(t.elems))
		seen[t] = out
		for i, e := range t.elems {
			out[i] = exportValue(e, seen)
		}
		return out
	case *Date:
		if !t.valid {
			return time.Time{}
		}
		return t.t
	case *Regexp:
		return map[string]any{
			"source":    t.source,
			"flags":     t.flags,
			"lastIndex": t.lastIndex,
		}
	case *Function:
		return map[string]any{"sourceCode": t.sourceCode}
	default:
		return t
	}
}
