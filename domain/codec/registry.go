package codec

import "github.com/evermem/memimg/domain/graph"

// ClassRegistry is the optional hook that preserves user-defined nominal
// types across a snapshot. The encoder asks NameFor for a marker to attach;
// the decoder hands the decoded plain record to Rehydrate. Rehydration must
// not run a constructor: the record's fields are the state.
//
// Decoding with no registry configured keeps the __class__ marker as a
// plain field on the restored record so callers can re-hydrate later.
type ClassRegistry interface {
	// NameFor reports the registered name of a recognised instance.
	NameFor(v any) (string, bool)
	// Rehydrate turns a decoded plain record back into the named nominal
	// type. Unknown names fail decoding with ErrRegistryMissing.
	Rehydrate(name string, fields *graph.Object) (any, error)
}
