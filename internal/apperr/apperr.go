// Package apperr holds the error taxonomy shared by every domain service.
// Domain code wraps these sentinels with context; callers match them with errors.Is.
package apperr

import "errors"

var (
	// ErrUnauthorized means the caller lacks the role the operation requires.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound means a referenced person id or entry timestamp does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput means an argument is malformed or out of range.
	ErrInvalidInput = errors.New("invalid input")
)
