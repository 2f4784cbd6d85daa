package ecs

import "github.com/rotisserie/eris"

var (
	// ErrStaleEntity is returned when an operation names an entity whose
	// slot has since been recycled (generation mismatch).
	ErrStaleEntity = eris.New("stale entity reference")

	// ErrUnknownLabel is returned when executing a label with no systems.
	ErrUnknownLabel = eris.New("no systems registered for label")
)
