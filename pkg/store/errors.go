package store

import "errors"

// Sentinel errors returned by Store mutators.
var (
	// ErrInvalidKey is returned when a key is empty.
	ErrInvalidKey = errors.New("invalid key")

	// ErrInvalidValueType is returned when a value does not match the schema type.
	ErrInvalidValueType = errors.New("invalid value type")

	// ErrDuplicateKey is returned when a unique store would hold more than one value for a key.
	ErrDuplicateKey = errors.New("duplicate key")
)
