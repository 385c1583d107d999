// Package memimg is the public entry point of the engine: it wraps a root
// value so every mutation is captured as an event, routes snapshot and
// replay requests, and keeps the process-wide registry that maps a wrapped
// root back to its infrastructure.
package memimg

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/evermem/memimg/domain/codec"
	"github.com/evermem/memimg/domain/event"
	"github.com/evermem/memimg/domain/graph"
	"github.com/evermem/memimg/pkg/eventlog"
	"github.com/evermem/memimg/pkg/logger"
	"github.com/evermem/memimg/pkg/metrics"
)

// Options configures a new image.
type Options struct {
	// Log receives every emitted event. Defaults to an in-memory log.
	Log eventlog.Log
	// Metadata is an opaque record for outer presentation layers.
	Metadata graph.Metadata
	// Registry preserves user-defined nominal types across snapshots.
	Registry codec.ClassRegistry
	// Logger defaults to a silent logger.
	Logger *logger.Logger
}

// Image is one wrapped memory image: a root, its identity infrastructure,
// and the event log mutations are appended to. One logical writer at a
// time; callers on concurrent runtimes provide their own mutual exclusion.
type Image struct {
	id       string
	root     graph.Node
	infra    *graph.Infra
	log      eventlog.Log
	registry codec.ClassRegistry
	logger   *logger.Logger

	replaying bool
}

// images is the process-wide registry from wrapped root to image, so
// snapshot and accessor functions can find the infrastructure for a root
// without the caller passing it around.
var images sync.Map

// Create wraps a root (an empty object when nil) and returns the image.
// Every composite reachable from the root is wrapped with it.
func Create(root graph.Node, opts Options) (*Image, error) {
	if root == nil {
		root = graph.NewObject()
	}
	if _, exists := images.Load(root); exists {
		return nil, fmt.Errorf("value is already a memory image root")
	}
	im := &Image{
		id:       uuid.NewString(),
		root:     root,
		infra:    graph.NewInfra(opts.Metadata),
		log:      opts.Log,
		registry: opts.Registry,
		logger:   opts.Logger,
	}
	if im.log == nil {
		im.log = eventlog.NewMemoryLog()
	}
	if im.logger == nil {
		im.logger = logger.Nop()
	}
	graph.Attach(root, im.infra, im)
	images.Store(root, im)
	im.logger.WithImage(im.id).WithField("tracked", im.infra.Len()).
		Debug("memory image created")
	return im, nil
}

// ID returns the image's handle.
func (im *Image) ID() string { return im.id }

// Root returns the wrapped root.
func (im *Image) Root() graph.Node { return im.root }

// Log returns the image's event log.
func (im *Image) Log() eventlog.Log { return im.log }

// Infrastructure returns the identity infrastructure; outer layers use it
// through the opaque accessors below.
func (im *Image) Infrastructure() *graph.Infra { return im.infra }

// Release drops the image from the process-wide registry, so the root is no
// longer reported as a memory image. Its nodes stay bound to the image:
// mutations through them are still built into events and appended to the
// log.
func (im *Image) Release() {
	images.Delete(im.root)
}

// EmitMutation implements graph.Emitter: it builds the event for one live
// mutation and appends it, unless a replay is applying events. The graph is
// already mutated when the append runs; an append failure surfaces to the
// caller of the mutating method.
func (im *Image) EmitMutation(m graph.Mutation) error {
	if im.replaying {
		return nil
	}
	ev, err := event.Build(m, im.infra, im.registry)
	if err != nil {
		return err
	}
	if err := im.log.Append(context.Background(), ev); err != nil {
		return fmt.Errorf("append %s event: %w", ev.Type, err)
	}
	metrics.RecordAppend(string(ev.Type))
	im.logger.EventAppended(im.id, string(ev.Type), ev.Path)
	return nil
}

// IsMemoryImage reports whether v is the wrapped root of a live image.
func IsMemoryImage(v any) bool {
	n, ok := v.(graph.Node)
	if !ok {
		return false
	}
	_, found := images.Load(n)
	return found
}

// ImageOf returns the image a wrapped root belongs to.
func ImageOf(root any) (*Image, bool) {
	n, ok := root.(graph.Node)
	if !ok {
		return nil, false
	}
	im, found := images.Load(n)
	if !found {
		return nil, false
	}
	return im.(*Image), true
}

// InfrastructureOf returns the identity infrastructure for a wrapped root.
func InfrastructureOf(root any) (*graph.Infra, bool) {
	im, ok := ImageOf(root)
	if !ok {
		return nil, false
	}
	return im.infra, true
}

// MetadataOf returns the opaque metadata record for a wrapped root.
func MetadataOf(root any) (graph.Metadata, bool) {
	im, ok := ImageOf(root)
	if !ok {
		return nil, false
	}
	return im.infra.Metadata(), true
}
