package model

import "errors"

var (
	// ErrReferenceRejected is returned by providers that refuse a reference.
	ErrReferenceRejected = errors.New("reference rejected by provider")
	// ErrNoMetadata is returned by providers that answered without anything
	// usable.
	ErrNoMetadata = errors.New("no usable metadata")
)
