package registry

import "errors"

var (
	// ErrNotFound is returned when a name has no entry in a store.
	ErrNotFound = errors.New("registry entry not found")
	// ErrUnknownType is returned when constructing an unregistered class name.
	ErrUnknownType = errors.New("unknown type")
	// ErrWrongType is returned when an untyped value cannot be stored in a
	// typed registry.
	ErrWrongType = errors.New("value has wrong type for registry")
)
