package entity

import "errors"

var (
	// ErrNotFound is returned when a referenced payment, invoice or
	// reconciliation record does not exist
	ErrNotFound = errors.New("not found")

	// ErrInvalidState is returned when a lifecycle transition is attempted
	// from an illegal state
	ErrInvalidState = errors.New("invalid state")

	// ErrInvalidArgument is returned for negative amounts or malformed input
	ErrInvalidArgument = errors.New("invalid argument")
)
