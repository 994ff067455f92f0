package schema

import "errors"

var (
	// ErrNotFound means a document type has no resolvable contract.
	// It is non-fatal; callers surface it as "no contract found" and
	// continue with an explicit error payload.
	ErrNotFound = errors.New("no contract found for document type")

	// ErrInvalidInput means a schema payload is structurally unusable
	// (neither the object shape nor the list shape). It is fatal to the
	// current operation only.
	ErrInvalidInput = errors.New("invalid contract input")
)
