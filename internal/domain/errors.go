package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a resource is not found
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrConflict is returned when a uniqueness rule is violated
	ErrConflict = errors.New("conflict occurred")

	// ErrForbidden is returned when the caller does not own the resource or lacks the role
	ErrForbidden = errors.New("forbidden")

	// ErrUnauthorized is returned when no verified identity is present
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInternal is returned when an internal error occurs
	ErrInternal = errors.New("internal error")

	// ErrDuplicateReview is returned when a user reviews the same product twice for one order
	ErrDuplicateReview = fmt.Errorf("%w: you have already reviewed this product for this order", ErrConflict)
)

// Invalidf wraps ErrInvalidInput with a client-facing message.
func Invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
