package domain

import "errors"

// The three error kinds every operation in the system maps onto.
// Backend and service errors join one of these sentinels with the
// underlying cause, so callers can classify with errors.Is while still
// seeing the driver or protocol diagnostic text.
var (
	// ErrInvalidArgument marks malformed input caught before any storage call.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFound marks a referenced entity that is absent where existence is required.
	ErrNotFound = errors.New("entity not found")

	// ErrOperationFailed marks a business-rule violation or a wrapped backend failure.
	ErrOperationFailed = errors.New("operation failed")
)
