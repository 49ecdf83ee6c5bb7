package errors

import "errors"

var (
	ErrNotFound = errors.New("booking not found")

	ErrInvalidID = errors.New("invalid booking ID format")

	// ErrDuplicateCode is returned when a generated booking code collides
	// with an existing one; callers regenerate and retry.
	ErrDuplicateCode = errors.New("booking code already exists")

	ErrOverlap = errors.New("room already booked for overlapping dates")
)
