package graph

import (
	"math/big"

	"github.com/evermem/memimg/domain/value"
)

// Equal reports structural equality of two values. Numbers compare
// numerically across integer and float representations. Composite pairs
// already under comparison are assumed equal, so shared and cyclic graphs
// terminate; symbols compare by description since their identity does not
// survive a process boundary.
func Equal(a, b any) bool {
	return equalValue(a, b, make(map[[2]Node]bool))
}

func equalValue(a, b any, visiting map[[2]Node]bool) bool {
	if an, ok := a.(Node); ok {
		bn, ok := b.(Node)
		if !ok {
			return false
		}
		pair := [2]Node{an, bn}
		if visiting[pair] {
			return true
		}
		visiting[pair] = true
		defer delete(visiting, pair)
		return equalNode(an, bn, visiting)
	}

	switch at := a.(type) {
	case nil:
		return b == nil
	case value.Undefined:
		_, ok := b.(value.Undefined)
		return ok
	case string:
		bs, ok := b.(string)
		return ok && at == bs
	case bool:
		bb, ok := b.(bool)
		return ok && at == bb
	case *big.Int:
		bi, ok := b.(*big.Int)
		return ok && at.Cmp(bi) == 0
	case *value.Symbol:
		bs, ok := b.(*value.Symbol)
		return ok && at.HasDescription == bs.HasDescription && at.Description == bs.Description
	default:
		af, aok := toFloat(a)
		bf, bok := toFloat(b)
		if aok && bok {
			return af == bf || (af != af && bf != bf)
		}
		return a == b
	}
}

func equalNode(a, b Node, visiting map[[2]Node]bool) bool {
	switch at := a.(type) {
	case *Object:
		bt, ok := b.(*Object)
		if !ok || len(at.keys) != len(bt.keys) {
			return false
		}
		for i, k := range at.keys {
			if bt.keys[i] != k || !equalValue(at.slots[k], bt.slots[k], visiting) {
				return false
			}
		}
		return true
	case *Array:
		bt, ok := b.(*Array)
		if !ok || len(at.elems) != len(bt.elems) {
			return false
		}
		for i := range at.elems {
			if !equalValue(at.elems[i], bt.elems[i], visiting) {
				return false
			}
		}
		return true
	case *Map:
		bt, ok := b.(*Map)
		if !ok || len(at.entries) != len(bt.entries) {
			return false
		}
		for i := range at.entries {
			if !equalValue(at.entries[i].key, bt.entries[i].key, visiting) ||
				!equalValue(at.entries[i].val, bt.entries[i].val, visiting) {
				return false
			}
		}
		return true
	case *Set:
		bt, ok := b.(*Set)
		if !ok || len(at.elems) != len(bt.elems) {
			return false
		}
		for i := range at.elems {
			if !equalValue(at.elems[i], bt.elems[i], visiting) {
				return false
			}
		}
		return true
	case *Date:
		bt, ok := b.(*Date)
		if !ok || at.valid != bt.valid || len(at.propKeys) != len(bt.propKeys) {
			return false
		}
		if at.valid && !at.t.Equal(bt.t) {
			return false
		}
		for i, k := range at.propKeys {
			if bt.propKeys[i] != k || !equalValue(at.props[k], bt.props[k], visiting) {
				return false
			}
		}
		return true
	case *Regexp:
		bt, ok := b.(*Regexp)
		return ok && at.source == bt.source && at.flags == bt.flags && at.lastIndex == bt.lastIndex
	case *Function:
		bt, ok := b.(*Function)
		return ok && at.sourceCode == bt.sourceCode
	default:
		return false
	}
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int8:
		return float64(t), true
	case int16:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint:
		return float64(t), true
	case uint8:
		return float64(t), true
	case uint16:
		return float64(t), true
	case uint32:
		return float64(t), true
	case uint64:
		return float64(t), true
	default:
		return 0, false
	}
}
