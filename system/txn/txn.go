// Package txn buffers uncommitted changes over an already-loaded base
// graph. A transaction's façades write to a delta keyed by dot-joined
// paths instead of touching the base; save flushes the delta shallowest
// path first, applying each entry to the base and appending one event per
// entry; discard drops the delta. Checkpoints capture and restore the
// delta wholesale.
package txn

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/evermem/memimg/domain/codec"
	"github.com/evermem/memimg/domain/event"
	"github.com/evermem/memimg/domain/graph"
	"github.com/evermem/memimg/domain/paths"
	"github.com/evermem/memimg/pkg/eventlog"
	"github.com/evermem/memimg/pkg/logger"
	"github.com/evermem/memimg/pkg/metrics"
)

// deletedSentinel marks a delta entry whose slot is deleted; reads through
// the transaction see undefined there.
type deletedSentinel struct{}

var deleted = deletedSentinel{}

// Options configures a transaction.
type Options struct {
	// Registry is used when save encodes event payloads.
	Registry codec.ClassRegistry
	// Logger defaults to a silent logger.
	Logger *logger.Logger
}

// Tx is one transaction over a plain base graph.
type Tx struct {
	base     *graph.Object
	log      eventlog.Log
	registry codec.ClassRegistry
	logger   *logger.Logger
	// infra indexes the base graph's canonical paths so save-time event
	// encoding preserves shared references into the base as refs.
	infra *graph.Infra

	delta map[string]any
	order []string
}

// Checkpoint is an opaque copy of a transaction's delta.
type Checkpoint struct {
	delta map[string]any
	order []string
}

// New opens a transaction over base, logging saves to log.
func New(base *graph.Object, log eventlog.Log, opts Options) *Tx {
	lg := opts.Logger
	if lg == nil {
		lg = logger.Nop()
	}
	return &Tx{
		base:     base,
		log:      log,
		registry: opts.Registry,
		logger:   lg,
		infra:    graph.IndexPaths(base),
		delta:    make(map[string]any),
	}
}

// Root returns the transaction's façade over the base root.
func (t *Tx) Root() *Object {
	return &Object{tx: t, base: t.base}
}

// IsDirty reports whether the delta holds uncommitted entries.
func (t *Tx) IsDirty() bool { return len(t.delta) > 0 }

// Len returns the number of delta entries.
func (t *Tx) Len() int { return len(t.delta) }

// Discard drops the delta; the base graph is untouched.
func (t *Tx) Discard() {
	t.delta = make(map[string]any)
	t.order = nil
}

// Checkpoint returns a copy of the current delta as an opaque token.
func (t *Tx) Checkpoint() *Checkpoint {
	cp := &Checkpoint{
		delta: make(map[string]any, len(t.delta)),
		order: append([]string(nil), t.order...),
	}
	for k, v := range t.delta {
		cp.delta[k] = v
	}
	return cp
}

// RestoreCheckpoint replaces the current delta with the token's contents.
func (t *Tx) RestoreCheckpoint(cp *Checkpoint) {
	t.delta = make(map[string]any, len(cp.delta))
	for k, v := range cp.delta {
		t.delta[k] = v
	}
	t.order = append([]string(nil), cp.order...)
}

// write records a delta entry; repeat writes to one path coalesce.
func (t *Tx) write(p paths.Path, v any) {
	key := p.Join()
	if _, seen := t.delta[key]; !seen {
		t.order = append(t.order, key)
	}
	t.delta[key] = v
}

// lookup reads the delta at an exact path.
func (t *Tx) lookup(p paths.Path) (any, bool) {
	v, ok := t.delta[p.Join()]
	return v, ok
}

// isDeleted reports a deletion sentinel at an exact path.
func (t *Tx) isDeleted(p paths.Path) bool {
	v, ok := t.delta[p.Join()]
	if !ok {
		return false
	}
	_, del := v.(deletedSentinel)
	return del
}

// addedKeysUnder returns the delta-added final segments directly below a
// parent path, in write order.
func (t *Tx) addedKeysUnder(parent paths.Path) []string {
	prefix := parent.Join()
	var out []string
	for _, key := range t.order {
		v, live := t.delta[key]
		if !live {
			continue
		}
		if _, del := v.(deletedSentinel); del {
			continue
		}
		var rest string
		if prefix == "" {
			rest = key
		} else if strings.HasPrefix(key, prefix+".") {
			rest = key[len(prefix)+1:]
		} else {
			continue
		}
		if rest == "" || strings.Contains(rest, ".") {
			continue
		}
		out = append(out, rest)
	}
	return out
}

// Save flushes the delta: entries are enumerated shallowest first so a
// parent created at a.b lands before writes to a.b.c; each value is
// deep-unwrapped, applied to the base, and recorded as one SET or DELETE
// event. The delta is cleared only after every entry flushed; a failing
// append leaves it intact and the transaction dirty.
func (t *Tx) Save(ctx context.Context) error {
	keys := append([]string(nil), t.order...)
	sort.SliceStable(keys, func(i, j int) bool {
		return strings.Count(keys[i], ".") < strings.Count(keys[j], ".")
	})

	seen := make(map[any]any)
	flushed := 0
	for _, key := range keys {
		v, live := t.delta[key]
		if !live {
			continue
		}
		p := paths.Parse(key)
		var ev *event.Event
		var err error
		if _, del := v.(deletedSentinel); del {
			if err = paths.Delete(t.base, p); err != nil {
				err = fmt.Errorf("apply delete at %q: %w", key, err)
			} else {
				ev, err = event.Build(graph.Mutation{Op: graph.OpDelete, Path: p}, t.infra, t.registry)
			}
		} else {
			raw := t.unwrap(v, seen)
			if err = paths.Set(t.base, p, raw); err != nil {
				err = fmt.Errorf("apply set at %q: %w", key, err)
			} else {
				graph.RegisterTree(t.infra, raw, p)
				ev, err = event.Build(graph.Mutation{Op: graph.OpSet, Path: p, Value: raw}, t.infra, t.registry)
			}
		}
		if err == nil {
			err = t.log.Append(ctx, ev)
		}
		if err != nil {
			metrics.RecordTransactionSave(flushed, err)
			t.logger.TransactionSaved(flushed, err)
			return fmt.Errorf("save transaction: %w", err)
		}
		metrics.RecordAppend(string(ev.Type))
		flushed++
	}

	metrics.RecordTransactionSave(flushed, nil)
	t.logger.TransactionSaved(flushed, nil)
	t.delta = make(map[string]any)
	t.order = nil
	return nil
}

// unwrap recursively replaces transaction façades with their underlying
// raw values, preserving identity through the seen map so cyclic deltas
// terminate.
func (t *Tx) unwrap(v any, seen map[any]any) any {
	switch f := v.(type) {
	case *Object:
		return f.target()
	case *Array:
		return f.target()
	case *Map:
		return f.target()
	case *Set:
		return f.target()
	case *graph.Object:
		if out, ok := seen[v]; ok {
			return out
		}
		seen[v] = f
		for _, k := range f.Keys() {
			slot, _ := f.Get(k)
			if u := t.unwrap(slot, seen); u != slot {
				f.PatchSlot(k, u)
			}
		}
		return f
	case *graph.Array:
		if out, ok := seen[v]; ok {
			return out
		}
		seen[v] = f
		for i, slot := range f.Elems() {
			if u := t.unwrap(slot, seen); u != slot {
				f.PatchAt(i, u)
			}
		}
		return f
	case *graph.Map:
		if out, ok := seen[v]; ok {
			return out
		}
		seen[v] = f
		for i := 0; i < f.Len(); i++ {
			k, slot, _ := f.EntryAt(i)
			if u := t.unwrap(k, seen); u != k {
				f.PatchKeyAt(i, u)
			}
			if u := t.unwrap(slot, seen); u != slot {
				f.PatchValueAt(i, u)
			}
		}
		return f
	case *graph.Set:
		if out, ok := seen[v]; ok {
			return out
		}
		seen[v] = f
		for i, slot := range f.Values() {
			if u := t.unwrap(slot, seen); u != slot {
				f.PatchAt(i, u)
			}
		}
		return f
	default:
		return v
	}
}
