// Package paths navigates value graphs by ordered string segments from a
// root. The empty path denotes the root. Numeric-looking segments mark
// positions whose missing intermediate should be an array; all others an
// object. When the parent is a keyed map, the final segment is used as the
// map key, never as a property.
package paths

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/evermem/memimg/domain/graph"
	"github.com/evermem/memimg/domain/value"
)

// Path is an immutable ordered sequence of segments from a root.
type Path []string

var numericSegment = regexp.MustCompile(`^\d+$`)

// IsNumeric reports whether a segment looks like an array index.
func IsNumeric(segment string) bool {
	return numericSegment.MatchString(segment)
}

// Join renders a path in its dot-joined form.
func (p Path) Join() string {
	return strings.Join(p, ".")
}

// Parse splits a dot-joined form back into segments. The empty string is
// the root path.
func Parse(s string) Path {
	if s == "" {
		return nil
	}
	return strings.Split(s, ".")
}

// Child returns p extended by one segment.
func (p Path) Child(segment string) Path {
	out := make(Path, 0, len(p)+1)
	out = append(out, p...)
	return append(out, segment)
}

// HasPrefix reports whether prefix equals the leading segments of p (or all
// of p).
func HasPrefix(p, prefix Path) bool {
	if len(prefix) > len(p) {
		return false
	}
	for i, s := range prefix {
		if p[i] != s {
			return false
		}
	}
	return true
}

// Parent navigates to the parent of the slot the path names. It returns the
// parent node, the final segment, and whether the parent chain exists. The
// empty path has no parent. With createIntermediates, missing links are
// created on the way down: an array when the following segment is numeric,
// an object otherwise.
func Parent(root graph.Node, p Path, createIntermediates bool) (graph.Node, string, bool) {
	if len(p) == 0 {
		return nil, "", false
	}
	cur := root
	for i := 0; i < len(p)-1; i++ {
		next, ok := getMember(cur, p[i])
		if !ok || !isNode(next) {
			if !createIntermediates {
				return nil, "", false
			}
			var made graph.Node
			if IsNumeric(p[i+1]) {
				made = graph.NewArray()
			} else {
				made = graph.NewObject()
			}
			if err := setMember(cur, p[i], made); err != nil {
				return nil, "", false
			}
			next = made
		}
		cur = next.(graph.Node)
	}
	return cur, p[len(p)-1], true
}

// Get resolves a path to its value. The root resolves to itself.
func Get(root graph.Node, p Path) (any, bool) {
	if len(p) == 0 {
		return root, true
	}
	parent, final, ok := Parent(root, p, false)
	if !ok {
		return nil, false
	}
	return getMember(parent, final)
}

// Set writes a value at a path, creating intermediates as necessary.
func Set(root graph.Node, p Path, v any) error {
	if len(p) == 0 {
		return fmt.Errorf("cannot set the root path")
	}
	parent, final, ok := Parent(root, p, true)
	if !ok {
		return fmt.Errorf("path %q has no parent", p.Join())
	}
	return setMember(parent, final, v)
}

// Delete removes the slot a path names; a no-op when the path does not
// exist.
func Delete(root graph.Node, p Path) error {
	if len(p) == 0 {
		return fmt.Errorf("cannot delete the root path")
	}
	parent, final, ok := Parent(root, p, false)
	if !ok {
		return nil
	}
	return deleteMember(parent, final)
}

// GetMember reads one step below a parent node.
func GetMember(parent graph.Node, segment string) (any, bool) {
	return getMember(parent, segment)
}

// SetMember writes one step below a parent node, with the load-bearing
// parent-kind dispatch: map keys go through the map, never through generic
// property access.
func SetMember(parent graph.Node, segment string, v any) error {
	return setMember(parent, segment, v)
}

// DeleteMember removes one step below a parent node.
func DeleteMember(parent graph.Node, segment string) error {
	return deleteMember(parent, segment)
}

func isNode(v any) bool {
	_, ok := v.(graph.Node)
	return ok
}

// getMember reads one step: map keys by stringified form, the implicit
// time and lastIndex properties on dates and regexps, properties and
// indices elsewhere.
func getMember(parent graph.Node, segment string) (any, bool) {
	switch t := parent.(type) {
	case *graph.Object:
		return t.Get(segment)
	case *graph.Array:
		i, err := strconv.Atoi(segment)
		if err != nil {
			return nil, false
		}
		return t.Get(i)
	case *graph.Map:
		return t.GetBySegment(segment)
	case *graph.Date:
		if segment == "time" {
			return float64(t.UnixMilli()), true
		}
		return t.GetProp(segment)
	case *graph.Regexp:
		if segment == "lastIndex" {
			return float64(t.LastIndex()), true
		}
		return nil, false
	default:
		return nil, false
	}
}

// setMember writes one step with the same parent-kind dispatch as
// getMember. On a map parent the segment is the map key.
func setMember(parent graph.Node, segment string, v any) error {
	switch t := parent.(type) {
	case *graph.Object:
		return t.Set(segment, v)
	case *graph.Array:
		i, err := strconv.Atoi(segment)
		if err != nil {
			return fmt.Errorf("segment %q is not an array index", segment)
		}
		return t.Set(i, v)
	case *graph.Map:
		return t.Set(t.KeyForSegment(segment), v)
	case *graph.Date:
		if segment == "time" {
			ms, ok := toMillis(v)
			if !ok {
				return fmt.Errorf("time property requires a numeric value, got %T", v)
			}
			return t.SetUnixMilli(ms)
		}
		return t.SetProp(segment, v)
	case *graph.Regexp:
		if segment == "lastIndex" {
			ms, ok := toMillis(v)
			if !ok {
				return fmt.Errorf("lastIndex requires a numeric value, got %T", v)
			}
			return t.SetLastIndex(int(ms))
		}
		return fmt.Errorf("regexp has no settable property %q", segment)
	default:
		return fmt.Errorf("cannot set %q on %s", segment, parent.ValueKind())
	}
}

func deleteMember(parent graph.Node, segment string) error {
	switch t := parent.(type) {
	case *graph.Object:
		return t.Delete(segment)
	case *graph.Array:
		i, err := strconv.Atoi(segment)
		if err != nil {
			return nil
		}
		if _, ok := t.Get(i); ok {
			return t.Set(i, value.Undef)
		}
		return nil
	case *graph.Map:
		return t.Delete(t.KeyForSegment(segment))
	case *graph.Date:
		return t.DeleteProp(segment)
	default:
		return nil
	}
}

func toMillis(v any) (int64, bool) {
	switch t := v.(type) {
	case float64:
		return int64(t), true
	case int:
		return int64(t), true
	case int64:
		return t, true
	case float32:
		return int64(t), true
	default:
		return 0, false
	}
}
