package domain

import "errors"

var (
	// ErrValidation signals malformed caller input (empty query, bad page number).
	ErrValidation = errors.New("validation failed")
	// ErrDependencyUnavailable signals an unreachable catalog or cache collaborator.
	ErrDependencyUnavailable = errors.New("dependency unavailable")
	// ErrNotFound signals a missing catalog record.
	ErrNotFound = errors.New("not found")
)
