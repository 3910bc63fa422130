package domain

import "errors"

// Domain errors shared by the engines and their callers.
var (
	// ErrInvalidInput is returned when a value fails validation before it
	// reaches an engine (non-positive price or size, empty address, bad config).
	ErrInvalidInput = errors.New("invalid input")

	// ErrSignalExecuted is returned when executing a signal that was already executed.
	ErrSignalExecuted = errors.New("signal already executed")

	// ErrPositionClosed is returned when closing a position that is already closed.
	ErrPositionClosed = errors.New("position already closed")
)
