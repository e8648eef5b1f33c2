package editor

import (
	"errors"
	"fmt"
)

var (
	// ErrNoPath indicates a save was requested for a buffer with no file.
	ErrNoPath = errors.New("no file path")
)

// OperationError represents an error that occurred during a file operation.
type OperationError struct {
	Op     string // Operation name ("open", "save")
	Target string // File path
	Err    error  // Underlying error
}

func (e *OperationError) Error() string {
	if e.Target != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Target, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *OperationError) Unwrap() error {
	return e.Err
}
