package codec

import "errors"

var (
	// ErrSnapshotFormat marks a structurally invalid document, for example
	// a date node without its __dateValue__ field.
	ErrSnapshotFormat = errors.New("invalid snapshot document")

	// ErrPathResolution marks a ref node whose path cannot be resolved in
	// any available scope.
	ErrPathResolution = errors.New("unresolvable reference path")

	// ErrRegistryMissing marks a __class__ marker that the configured
	// class registry does not know.
	ErrRegistryMissing = errors.New("class not present in registry")

	// ErrUnserializable marks a function value with no capturable source
	// text. Container slots holding one are omitted from the output; the
	// error surfaces only when the unserialisable value is the top-level
	// one.
	ErrUnserializable = errors.New("value has no serialisable form")
)
