package memimg

import (
	"fmt"
	"time"

	"github.com/evermem/memimg/domain/codec"
	"github.com/evermem/memimg/pkg/metrics"
)

// SnapshotJSON serialises the entire graph of a wrapped root to a
// self-contained document. It fails when the root is not a known memory
// image.
func SnapshotJSON(root any) (string, error) {
	im, ok := ImageOf(root)
	if !ok {
		return "", fmt.Errorf("value is not a memory image root")
	}
	return im.SnapshotJSON()
}

// SnapshotJSON serialises the image's graph.
func (im *Image) SnapshotJSON() (string, error) {
	start := time.Now()
	enc := codec.NewSnapshotEncoder(im.registry)
	doc, err := enc.Encode(im.root)
	if err != nil {
		metrics.RecordSnapshot("encode", time.Since(start), err)
		return "", fmt.Errorf("encode snapshot: %w", err)
	}
	data, err := codec.MarshalDocument(doc)
	metrics.RecordSnapshot("encode", time.Since(start), err)
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}
	im.logger.WithImage(im.id).Debug("snapshot encoded")
	return string(data), nil
}

// LoadSnapshot decodes a snapshot document into a plain, unwrapped graph.
// Wrap the result with Create to obtain a live image over it.
func LoadSnapshot(data string, opts Options) (any, error) {
	start := time.Now()
	dec := &codec.Decoder{Registry: opts.Registry}
	restored, err := dec.DecodeSnapshotJSON([]byte(data))
	metrics.RecordSnapshot("decode", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return restored, nil
}
