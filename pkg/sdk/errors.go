package miran

import "github.com/MrMohammed1/Miran-Search/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrValidation            = domain.ErrValidation
	ErrNotFound              = domain.ErrNotFound
	ErrDependencyUnavailable = domain.ErrDependencyUnavailable
)
