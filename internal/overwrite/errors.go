package overwrite

import "errors"

var (
	// ErrInvalidInput is returned when typed input is not exactly one
	// character or a newline.
	ErrInvalidInput = errors.New("input must be a single character or newline")

	// ErrSessionClosed is returned when typing into a session that was closed.
	ErrSessionClosed = errors.New("overwrite session closed")

	// ErrRecordOverlap is returned when a range overlaps a different tracked range.
	ErrRecordOverlap = errors.New("range overlaps a tracked range")
)
