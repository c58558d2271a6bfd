package store

import "errors"

// ErrValidation marks input rejected before any mutation happened.
var ErrValidation = errors.New("validation failed")

// ErrNotCollection is returned when the persisted document is not a JSON array.
var ErrNotCollection = errors.New("persisted value is not a post collection")

// ValidationError names the first field that failed validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// ErrInvalidReaction is returned by React for an emoji outside the alphabet
// that the post does not already carry.
var ErrInvalidReaction = &ValidationError{Field: "emoji", Message: "reaction not allowed"}
